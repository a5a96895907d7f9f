// Package workflow decides which privileged instruction to submit against the
// AMM config account and drives it to a confirmed or failed outcome.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/AlexZinkM/amm-config/internal/amm"
	"github.com/AlexZinkM/amm-config/internal/client"
	"github.com/AlexZinkM/amm-config/internal/common"
	"github.com/AlexZinkM/amm-config/internal/model"
	"github.com/AlexZinkM/amm-config/internal/pda"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// State of the engine
type State string

const (
	Idle                State = "Idle"
	AwaitingIntent      State = "AwaitingIntent"
	BuildingInstruction State = "BuildingInstruction"
	Submitting          State = "Submitting"
	Confirmed           State = "Confirmed"
	Failed              State = "Failed"
)

// ErrBusy is returned when Submit is called while another submission is in flight
var ErrBusy = errors.New("a submission is already in progress")

// Network is the part of the RPC client the engine depends on
type Network interface {
	Account(ctx context.Context, address solana.PublicKey) (client.Account, error)
	Balance(ctx context.Context, address solana.PublicKey) (uint64, error)
	RentExemptMinimum(ctx context.Context, dataSize uint64) (uint64, error)
	SendAndConfirm(ctx context.Context, signer solana.PrivateKey, instructions ...solana.Instruction) (solana.Signature, error)
}

// Options configures an Engine
type Options struct {
	ProgramID solana.PublicKey
	// Signer may be nil for read-only use; Submit then fails.
	Signer  solana.PrivateKey
	Network Network
	// PreflightCheck reads the config account before building an instruction
	// so obvious rejections are reported without sending anything.
	PreflightCheck bool
	Logger         *zap.Logger
}

// Engine is the configuration workflow state machine.
type Engine struct {
	programID     solana.PublicKey
	configAddress solana.PublicKey
	bump          uint8
	signer        solana.PrivateKey
	network       Network
	preflight     bool
	logger        *zap.Logger

	mu    sync.Mutex
	state State
}

// New derives the config address and returns an engine in the Idle state.
func New(opts Options) (*Engine, error) {
	if opts.Network == nil {
		return nil, errors.New("network client is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	address, bump, err := pda.ConfigAddress(opts.ProgramID)
	if err != nil {
		return nil, err
	}

	return &Engine{
		programID:     opts.ProgramID,
		configAddress: address,
		bump:          bump,
		signer:        opts.Signer,
		network:       opts.Network,
		preflight:     opts.PreflightCheck,
		logger:        opts.Logger.Named("workflow"),
		state:         Idle,
	}, nil
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) ProgramID() solana.PublicKey {
	return e.programID
}

// ConfigAddress returns the derived config account and its bump
func (e *Engine) ConfigAddress() (solana.PublicKey, uint8) {
	return e.configAddress, e.bump
}

// Operator returns the public key of the signer, or the zero key if none is loaded
func (e *Engine) Operator() solana.PublicKey {
	if e.signer == nil {
		return solana.PublicKey{}
	}
	return e.signer.PublicKey()
}

// Begin moves the engine from Idle (or a finished submission) to AwaitingIntent.
func (e *Engine) Begin() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.awaitIntentLocked()
}

func (e *Engine) awaitIntentLocked() {
	switch e.state {
	case Idle, Confirmed, Failed:
		e.state = AwaitingIntent
	}
}

// PlanInitialize validates the first-time configuration.
func (e *Engine) PlanInitialize(feeRecipient string, feePercent decimal.Decimal) (model.PendingAction, error) {
	e.Begin()

	recipient, err := ParseAddress(feeRecipient)
	if err != nil {
		return model.PendingAction{}, err
	}
	rate, err := common.PercentToBasisPoints(feePercent)
	if err != nil {
		return model.PendingAction{}, err
	}

	return model.PendingAction{
		Type:               model.ActionInitialize,
		FeeRecipient:       recipient,
		FeeRateBasisPoints: rate,
	}, nil
}

// PlanUpdateFee validates a new fee rate.
func (e *Engine) PlanUpdateFee(feePercent decimal.Decimal) (model.PendingAction, error) {
	e.Begin()

	rate, err := common.PercentToBasisPoints(feePercent)
	if err != nil {
		return model.PendingAction{}, err
	}
	return model.PendingAction{Type: model.ActionUpdateFee, FeeRateBasisPoints: rate}, nil
}

// PlanSetFeeRecipient validates a new fee recipient.
func (e *Engine) PlanSetFeeRecipient(feeRecipient string) (model.PendingAction, error) {
	e.Begin()

	recipient, err := ParseAddress(feeRecipient)
	if err != nil {
		return model.PendingAction{}, err
	}
	return model.PendingAction{Type: model.ActionSetFeeRecipient, FeeRecipient: recipient}, nil
}

// ParseAddress parses a base58 public key, reporting InvalidAddress on failure.
func ParseAddress(s string) (solana.PublicKey, error) {
	s = strings.TrimSpace(s)
	pk, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}, model.NewError(model.KindInvalidAddress, "parse address", fmt.Errorf("%q: %w", s, err))
	}
	return pk, nil
}

// FeeConfig reads the config account. It returns nil and no error when the
// account does not exist yet.
func (e *Engine) FeeConfig(ctx context.Context) (*model.FeeConfig, error) {
	acc, err := e.network.Account(ctx, e.configAddress)
	if err != nil {
		if errors.Is(err, client.ErrAccountNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config account: %w", err)
	}

	if !acc.Owner.Equals(e.programID) {
		return nil, fmt.Errorf("config account %s is owned by %s, not the program", e.configAddress, acc.Owner)
	}

	cfg, err := amm.DecodeFeeConfig(acc.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config account: %w", err)
	}
	return &cfg, nil
}

// Submit builds the instruction for action, signs it with the operator key and
// waits for confirmation. It is never retried: the caller decides whether to
// re-invoke after a transient failure.
func (e *Engine) Submit(ctx context.Context, action model.PendingAction) (*model.SubmissionResult, error) {
	e.mu.Lock()
	if e.state == BuildingInstruction || e.state == Submitting {
		e.mu.Unlock()
		return nil, ErrBusy
	}
	e.state = BuildingInstruction
	e.mu.Unlock()

	result, err := e.submit(ctx, action)
	if err != nil {
		e.setState(Failed)
		e.logger.Debug("submission failed", zap.String("action", string(action.Type)), zap.Error(err))
		return nil, err
	}

	e.setState(Confirmed)
	e.logger.Info("submission confirmed",
		zap.String("action", string(action.Type)),
		zap.Stringer("signature", result.Signature),
	)
	return result, nil
}

func (e *Engine) submit(ctx context.Context, action model.PendingAction) (*model.SubmissionResult, error) {
	if e.signer == nil {
		return nil, model.Errorf(model.KindCredentialLoad, "submit", "no signing key loaded")
	}
	owner := e.signer.PublicKey()

	if e.preflight {
		if err := e.checkPreconditions(ctx, action, owner); err != nil {
			return nil, err
		}
	}

	ix, err := amm.NewInstruction(e.programID, owner, e.configAddress, action)
	if err != nil {
		return nil, fmt.Errorf("failed to build instruction: %w", err)
	}

	e.setState(Submitting)
	sig, err := e.network.SendAndConfirm(ctx, e.signer, ix)
	if err != nil {
		return nil, fmt.Errorf("failed to submit %s: %w", action.Type, err)
	}

	return &model.SubmissionResult{
		Signature:     sig,
		Action:        action,
		ConfigAddress: e.configAddress,
	}, nil
}

// checkPreconditions rejects actions the program would refuse given the
// current account state.
func (e *Engine) checkPreconditions(ctx context.Context, action model.PendingAction, owner solana.PublicKey) error {
	current, err := e.FeeConfig(ctx)
	if err != nil {
		return err
	}

	const op = "pre-flight check"
	switch action.Type {
	case model.ActionInitialize:
		if current != nil {
			return &model.Error{Kind: model.KindSimulationFailed, Reason: model.ReasonAlreadyInitialized, Op: op,
				Err: fmt.Errorf("config %s exists with fee %d bps", e.configAddress, current.FeeRateBasisPoints)}
		}
	default:
		if current == nil {
			return &model.Error{Kind: model.KindSimulationFailed, Reason: model.ReasonNotInitialized, Op: op,
				Err: fmt.Errorf("config %s does not exist", e.configAddress)}
		}
		if !current.Owner.Equals(owner) {
			return model.Errorf(model.KindUnauthorized, op, "config is owned by %s, signer is %s", current.Owner, owner)
		}
	}
	return nil
}

// FundingReport compares the operator balance with the rent needed for the config account
type FundingReport struct {
	Balance    uint64
	RentExempt uint64
}

// Sufficient reports whether the balance covers the rent-exempt minimum
func (r FundingReport) Sufficient() bool {
	return r.Balance >= r.RentExempt
}

// Funding reports whether the operator can pay for the config account.
// It is advisory; Submit does not enforce it.
func (e *Engine) Funding(ctx context.Context) (FundingReport, error) {
	balance, err := e.network.Balance(ctx, e.Operator())
	if err != nil {
		return FundingReport{}, err
	}
	rent, err := e.network.RentExemptMinimum(ctx, amm.ConfigAccountSize)
	if err != nil {
		return FundingReport{}, err
	}
	return FundingReport{Balance: balance, RentExempt: rent}, nil
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = s
}
