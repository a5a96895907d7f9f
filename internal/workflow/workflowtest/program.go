// Package workflowtest provides an in-memory AMM program that satisfies
// workflow.Network for engine and shell tests.
package workflowtest

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"

	"github.com/AlexZinkM/amm-config/internal/amm"
	"github.com/AlexZinkM/amm-config/internal/client"
	"github.com/AlexZinkM/amm-config/internal/model"
	"github.com/AlexZinkM/amm-config/internal/pda"

	"github.com/gagliardetto/solana-go"
)

// Program executes the admin instructions of the AMM program against an
// in-memory config account, applying the same checks as the on-chain code.
type Program struct {
	ProgramID solana.PublicKey

	mu         sync.Mutex
	accounts   map[solana.PublicKey]client.Account
	balances   map[solana.PublicKey]uint64
	rentExempt uint64
	submitted  []model.PendingAction
	failNext   error
	sent       int
}

// NewProgram returns a program with no config account.
func NewProgram(programID solana.PublicKey) *Program {
	return &Program{
		ProgramID:  programID,
		accounts:   make(map[solana.PublicKey]client.Account),
		balances:   make(map[solana.PublicKey]uint64),
		rentExempt: 1_447_680,
	}
}

// SetBalance sets the lamports held by address
func (p *Program) SetBalance(address solana.PublicKey, lamports uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balances[address] = lamports
}

// FailNext makes the next SendAndConfirm return err without touching state.
func (p *Program) FailNext(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failNext = err
}

// Sent returns how many transactions reached the program, including rejected ones
func (p *Program) Sent() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sent
}

// Applied returns the actions that changed state, in order
func (p *Program) Applied() []model.PendingAction {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.PendingAction(nil), p.submitted...)
}

// Config returns the decoded config account, or nil if not initialized
func (p *Program) Config() *model.FeeConfig {
	p.mu.Lock()
	defer p.mu.Unlock()

	address, _, err := pda.ConfigAddress(p.ProgramID)
	if err != nil {
		return nil
	}
	acc, ok := p.accounts[address]
	if !ok {
		return nil
	}
	cfg, err := amm.DecodeFeeConfig(acc.Data)
	if err != nil {
		return nil
	}
	return &cfg
}

func (p *Program) Account(_ context.Context, address solana.PublicKey) (client.Account, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	acc, ok := p.accounts[address]
	if !ok {
		return client.Account{}, fmt.Errorf("%w: %s", client.ErrAccountNotFound, address)
	}
	return acc, nil
}

func (p *Program) Balance(_ context.Context, address solana.PublicKey) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balances[address], nil
}

func (p *Program) RentExemptMinimum(_ context.Context, _ uint64) (uint64, error) {
	return p.rentExempt, nil
}

// SendAndConfirm executes each instruction atomically: on error no state changes.
func (p *Program) SendAndConfirm(ctx context.Context, signer solana.PrivateKey, instructions ...solana.Instruction) (solana.Signature, error) {
	if err := ctx.Err(); err != nil {
		return solana.Signature{}, model.NewError(model.KindTimeout, "send transaction", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.sent++
	if err := p.failNext; err != nil {
		p.failNext = nil
		return solana.Signature{}, err
	}

	for _, ix := range instructions {
		if err := p.execute(signer.PublicKey(), ix); err != nil {
			return solana.Signature{}, err
		}
	}

	return p.signature(), nil
}

func (p *Program) execute(signer solana.PublicKey, ix solana.Instruction) error {
	const op = "send transaction"

	if !ix.ProgramID().Equals(p.ProgramID) {
		return model.Errorf(model.KindSimulationFailed, op, "unknown program %s", ix.ProgramID())
	}
	data, err := ix.Data()
	if err != nil {
		return model.NewError(model.KindSimulationFailed, op, err)
	}
	action, err := amm.DecodeInstructionData(data)
	if err != nil {
		return model.NewError(model.KindSimulationFailed, op, err)
	}

	accounts := ix.Accounts()
	if len(accounts) < 3 {
		return model.Errorf(model.KindSimulationFailed, op, "not enough account keys")
	}
	owner, config := accounts[0], accounts[1]
	if !owner.IsSigner || !owner.PublicKey.Equals(signer) {
		return model.Errorf(model.KindUnauthorized, op, "missing required signature for %s", owner.PublicKey)
	}

	address, bump, err := pda.ConfigAddress(p.ProgramID)
	if err != nil {
		return err
	}
	if !config.PublicKey.Equals(address) {
		return model.Errorf(model.KindSimulationFailed, op, "seeds constraint violated for %s", config.PublicKey)
	}

	existing, exists := p.accounts[address]
	var current model.FeeConfig
	if exists {
		if current, err = amm.DecodeFeeConfig(existing.Data); err != nil {
			return model.NewError(model.KindSimulationFailed, op, err)
		}
	}

	next := current
	switch action.Type {
	case model.ActionInitialize:
		if exists {
			return &model.Error{Kind: model.KindSimulationFailed, Reason: model.ReasonAlreadyInitialized, Op: op,
				Err: fmt.Errorf("account %s already in use", address)}
		}
		if p.balances[signer] < p.rentExempt {
			return model.Errorf(model.KindInsufficientFunds, op, "insufficient lamports %d, need %d", p.balances[signer], p.rentExempt)
		}
		next = model.FeeConfig{Bump: bump, Owner: signer, FeeRecipient: action.FeeRecipient, FeeRateBasisPoints: action.FeeRateBasisPoints}
	case model.ActionUpdateFee, model.ActionSetFeeRecipient:
		if !exists {
			return &model.Error{Kind: model.KindSimulationFailed, Reason: model.ReasonNotInitialized, Op: op,
				Err: fmt.Errorf("custom program error: 0x%x", amm.ErrCodeAccountNotInitialized)}
		}
		if !current.Owner.Equals(signer) {
			return model.Errorf(model.KindUnauthorized, op, "custom program error: 0x%x", amm.ErrCodeConstraintHasOne)
		}
		if action.Type == model.ActionUpdateFee {
			next.FeeRateBasisPoints = action.FeeRateBasisPoints
		} else {
			next.FeeRecipient = action.FeeRecipient
		}
	}

	if next.FeeRateBasisPoints >= amm.MaxFeeBasisPoints {
		return &model.Error{Kind: model.KindSimulationFailed, Reason: model.ReasonInvalidFee, Op: op,
			Err: fmt.Errorf("custom program error: 0x%x", amm.ErrCodeInvalidFee)}
	}

	encoded, err := amm.EncodeFeeConfig(next)
	if err != nil {
		return err
	}
	if action.Type == model.ActionInitialize {
		p.balances[signer] -= p.rentExempt
	}
	p.accounts[address] = client.Account{Owner: p.ProgramID, Lamports: p.rentExempt, Data: encoded}
	p.submitted = append(p.submitted, action)
	return nil
}

func (p *Program) signature() solana.Signature {
	var sig solana.Signature
	first := sha256.Sum256([]byte(fmt.Sprintf("tx-%d-a", p.sent)))
	second := sha256.Sum256([]byte(fmt.Sprintf("tx-%d-b", p.sent)))
	copy(sig[:32], first[:])
	copy(sig[32:], second[:])
	return sig
}
