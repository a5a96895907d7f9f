package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AlexZinkM/amm-config/internal/model"

	"github.com/avast/retry-go/v4"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

const (
	defaultConfirmTimeout = 60 * time.Second
	defaultPollInterval   = 500 * time.Millisecond
)

// ErrAccountNotFound is returned when the queried account holds no data on chain
var ErrAccountNotFound = errors.New("account not found")

var errNotConfirmed = errors.New("transaction not yet at requested commitment")

// Options configures a SolanaClient
type Options struct {
	RPCURL         string
	Commitment     rpc.CommitmentType
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
	Logger         *zap.Logger
}

// Account is the subset of on-chain account state the operator tools read
type Account struct {
	Owner    solana.PublicKey
	Lamports uint64
	Data     []byte
}

// SolanaClient is a client for working with Solana RPC
type SolanaClient struct {
	rpcClient      *rpc.Client
	rpcURL         string
	commitment     rpc.CommitmentType
	confirmTimeout time.Duration
	pollInterval   time.Duration
	logger         *zap.Logger
}

// NewSolanaClient creates a new Solana client for the given endpoint.
func NewSolanaClient(opts Options) *SolanaClient {
	if opts.Commitment == "" {
		opts.Commitment = rpc.CommitmentProcessed
	}
	if opts.ConfirmTimeout <= 0 {
		opts.ConfirmTimeout = defaultConfirmTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &SolanaClient{
		rpcClient:      rpc.New(opts.RPCURL),
		rpcURL:         opts.RPCURL,
		commitment:     opts.Commitment,
		confirmTimeout: opts.ConfirmTimeout,
		pollInterval:   opts.PollInterval,
		logger:         opts.Logger.Named("rpc"),
	}
}

// Commitment returns the commitment level used for reads and confirmation
func (c *SolanaClient) Commitment() rpc.CommitmentType {
	return c.commitment
}

// Account fetches an account at the client's commitment.
// Returns ErrAccountNotFound if the account does not exist.
func (c *SolanaClient) Account(ctx context.Context, address solana.PublicKey) (Account, error) {
	out, err := c.rpcClient.GetAccountInfoWithOpts(ctx, address, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: c.commitment,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return Account{}, fmt.Errorf("%w: %s", ErrAccountNotFound, address)
		}
		return Account{}, classify("get account "+address.String(), err)
	}

	return Account{
		Owner:    out.Value.Owner,
		Lamports: out.Value.Lamports,
		Data:     out.Value.Data.GetBinary(),
	}, nil
}

// Balance gets SOL balance in lamports
func (c *SolanaClient) Balance(ctx context.Context, address solana.PublicKey) (uint64, error) {
	balance, err := c.rpcClient.GetBalance(ctx, address, c.commitment)
	if err != nil {
		return 0, classify("get balance", err)
	}
	return balance.Value, nil
}

// RentExemptMinimum gets the minimum balance required for rent exemption of an account of dataSize bytes
func (c *SolanaClient) RentExemptMinimum(ctx context.Context, dataSize uint64) (uint64, error) {
	lamports, err := c.rpcClient.GetMinimumBalanceForRentExemption(ctx, dataSize, c.commitment)
	if err != nil {
		return 0, classify("get rent exemption", err)
	}
	return lamports, nil
}

// SendAndConfirm builds a transaction paid and signed by signer, submits it once
// with preflight simulation and waits until it reaches the client's commitment.
// Submission is never repeated; only the status lookup is polled.
func (c *SolanaClient) SendAndConfirm(ctx context.Context, signer solana.PrivateKey, instructions ...solana.Instruction) (solana.Signature, error) {
	payer := signer.PublicKey()

	// Get latest blockhash
	recent, err := c.rpcClient.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return solana.Signature{}, classify("get latest blockhash", err)
	}

	// Create transaction
	tx, err := solana.NewTransaction(
		instructions,
		recent.Value.Blockhash,
		solana.TransactionPayer(payer),
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to create transaction: %w", err)
	}

	// Sign transaction
	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if payer.Equals(key) {
			return &signer
		}
		return nil
	})
	if err != nil {
		return solana.Signature{}, model.NewError(model.KindUnauthorized, "sign transaction", err)
	}

	// Send transaction
	maxRetries := uint(0)
	sig, err := c.rpcClient.SendTransactionWithOpts(
		ctx,
		tx,
		rpc.TransactionOpts{
			SkipPreflight:       false,
			PreflightCommitment: c.commitment,
			MaxRetries:          &maxRetries,
		},
	)
	if err != nil {
		return solana.Signature{}, classify("send transaction", err)
	}
	c.logger.Debug("transaction sent", zap.Stringer("signature", sig))

	if err := c.confirm(ctx, sig); err != nil {
		return sig, err
	}
	return sig, nil
}

// confirm polls the signature status until the commitment is reached, the
// transaction fails, or the confirmation window closes.
func (c *SolanaClient) confirm(ctx context.Context, sig solana.Signature) error {
	confirmCtx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	_, err := retry.DoWithData(
		func() (*rpc.SignatureStatusesResult, error) {
			out, err := c.rpcClient.GetSignatureStatuses(confirmCtx, false, sig)
			if err != nil {
				return nil, err
			}
			if len(out.Value) == 0 || out.Value[0] == nil {
				return nil, errNotConfirmed
			}

			status := out.Value[0]
			if status.Err != nil {
				return nil, retry.Unrecoverable(transactionFailure("confirm transaction", status.Err))
			}
			if !reached(status.ConfirmationStatus, c.commitment) {
				return nil, errNotConfirmed
			}
			return status, nil
		},
		retry.Context(confirmCtx),
		retry.Attempts(0),
		retry.Delay(c.pollInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("waiting for confirmation", zap.Uint("attempt", n), zap.Stringer("signature", sig), zap.Error(err))
		}),
	)
	if err == nil {
		return nil
	}

	var tagged *model.Error
	if errors.As(err, &tagged) {
		return tagged
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("confirm transaction: interrupted while waiting for %s; it may still land: %w", sig, context.Canceled)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.Is(err, errNotConfirmed) {
		return model.Errorf(model.KindTimeout, "confirm transaction",
			"%s not observed at %s commitment within %s; it may still land", sig, c.commitment, c.confirmTimeout)
	}
	return classify("confirm transaction", err)
}

var commitmentRank = map[rpc.CommitmentType]int{
	rpc.CommitmentProcessed: 1,
	rpc.CommitmentConfirmed: 2,
	rpc.CommitmentFinalized: 3,
}

// reached treats a status without confirmationStatus as processed.
func reached(status rpc.ConfirmationStatusType, want rpc.CommitmentType) bool {
	rank, ok := commitmentRank[rpc.CommitmentType(status)]
	if !ok {
		rank = commitmentRank[rpc.CommitmentProcessed]
	}
	return rank >= commitmentRank[want]
}
