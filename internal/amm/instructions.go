package amm

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/AlexZinkM/amm-config/internal/model"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

type initializeArgs struct {
	FeeTo solana.PublicKey
	Fee   uint64
}

type setFeeArgs struct {
	NewFee uint64
}

type setFeeToArgs struct {
	NewFeeTo solana.PublicKey
}

// NewInitializeInstruction builds `initialize(fee_to, fee)`.
// Accounts: owner (writable, signer), config (writable), system program, rent sysvar.
func NewInitializeInstruction(programID, owner, config, feeTo solana.PublicKey, fee uint64) (solana.Instruction, error) {
	data, err := encode(InitializeDiscriminator, initializeArgs{FeeTo: feeTo, Fee: fee})
	if err != nil {
		return nil, fmt.Errorf("failed to encode initialize args: %w", err)
	}

	return solana.NewInstruction(programID, solana.AccountMetaSlice{
		solana.Meta(owner).WRITE().SIGNER(),
		solana.Meta(config).WRITE(),
		solana.Meta(System),
		solana.Meta(SysRent),
	}, data), nil
}

// NewSetFeeInstruction builds `set_fee(new_fee)`.
// Accounts: owner (writable, signer), config (writable), system program.
func NewSetFeeInstruction(programID, owner, config solana.PublicKey, fee uint64) (solana.Instruction, error) {
	data, err := encode(SetFeeDiscriminator, setFeeArgs{NewFee: fee})
	if err != nil {
		return nil, fmt.Errorf("failed to encode set_fee args: %w", err)
	}

	return solana.NewInstruction(programID, ownerAccounts(owner, config), data), nil
}

// NewSetFeeToInstruction builds `set_fee_to(new_fee_to)`.
func NewSetFeeToInstruction(programID, owner, config, feeTo solana.PublicKey) (solana.Instruction, error) {
	data, err := encode(SetFeeToDiscriminator, setFeeToArgs{NewFeeTo: feeTo})
	if err != nil {
		return nil, fmt.Errorf("failed to encode set_fee_to args: %w", err)
	}

	return solana.NewInstruction(programID, ownerAccounts(owner, config), data), nil
}

// NewInstruction maps a pending action onto the matching program instruction
func NewInstruction(programID, owner, config solana.PublicKey, action model.PendingAction) (solana.Instruction, error) {
	switch action.Type {
	case model.ActionInitialize:
		return NewInitializeInstruction(programID, owner, config, action.FeeRecipient, action.FeeRateBasisPoints)
	case model.ActionUpdateFee:
		return NewSetFeeInstruction(programID, owner, config, action.FeeRateBasisPoints)
	case model.ActionSetFeeRecipient:
		return NewSetFeeToInstruction(programID, owner, config, action.FeeRecipient)
	default:
		return nil, fmt.Errorf("unknown action %q", action.Type)
	}
}

// DecodeInstructionData is the inverse of the builders above.
func DecodeInstructionData(data []byte) (model.PendingAction, error) {
	if len(data) < bin.ACCOUNT_DISCRIMINATOR_SIZE {
		return model.PendingAction{}, errors.New("instruction data shorter than discriminator")
	}

	dec := bin.NewBorshDecoder(data[bin.ACCOUNT_DISCRIMINATOR_SIZE:])
	switch bin.TypeIDFromBytes(data[:bin.ACCOUNT_DISCRIMINATOR_SIZE]) {
	case InitializeDiscriminator:
		var args initializeArgs
		if err := dec.Decode(&args); err != nil {
			return model.PendingAction{}, fmt.Errorf("failed to decode initialize args: %w", err)
		}
		return model.PendingAction{Type: model.ActionInitialize, FeeRecipient: args.FeeTo, FeeRateBasisPoints: args.Fee}, nil
	case SetFeeDiscriminator:
		var args setFeeArgs
		if err := dec.Decode(&args); err != nil {
			return model.PendingAction{}, fmt.Errorf("failed to decode set_fee args: %w", err)
		}
		return model.PendingAction{Type: model.ActionUpdateFee, FeeRateBasisPoints: args.NewFee}, nil
	case SetFeeToDiscriminator:
		var args setFeeToArgs
		if err := dec.Decode(&args); err != nil {
			return model.PendingAction{}, fmt.Errorf("failed to decode set_fee_to args: %w", err)
		}
		return model.PendingAction{Type: model.ActionSetFeeRecipient, FeeRecipient: args.NewFeeTo}, nil
	default:
		return model.PendingAction{}, errors.New("unknown instruction discriminator")
	}
}

func ownerAccounts(owner, config solana.PublicKey) solana.AccountMetaSlice {
	return solana.AccountMetaSlice{
		solana.Meta(owner).WRITE().SIGNER(),
		solana.Meta(config).WRITE(),
		solana.Meta(System),
	}
}

func encode(discriminator bin.TypeID, args any) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(discriminator.Bytes())
	if err := bin.NewBorshEncoder(buf).Encode(args); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
