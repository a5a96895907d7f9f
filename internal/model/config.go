package model

import (
	"github.com/gagliardetto/solana-go"
)

// FeeConfig is the decoded on-chain configuration account
type FeeConfig struct {
	Bump               uint8
	Owner              solana.PublicKey
	FeeRecipient       solana.PublicKey
	FeeRateBasisPoints uint64
}

// ActionType is the privileged instruction a PendingAction maps to
type ActionType string

const (
	ActionInitialize      ActionType = "initialize"
	ActionUpdateFee       ActionType = "set_fee"
	ActionSetFeeRecipient ActionType = "set_fee_to"
)

// PendingAction is a validated, not yet submitted privileged action.
// FeeRecipient is set for initialize and set_fee_to only.
type PendingAction struct {
	Type               ActionType
	FeeRecipient       solana.PublicKey
	FeeRateBasisPoints uint64
}

// SubmissionResult is returned once the transaction reached the configured commitment
type SubmissionResult struct {
	Signature     solana.Signature
	Action        PendingAction
	ConfigAddress solana.PublicKey
}

// ConfigAddressResponse represents response for GET /config/address
type ConfigAddressResponse struct {
	ProgramID string `json:"programId"`
	Address   string `json:"address"`
	Bump      uint8  `json:"bump"`
}

// ConfigResponse represents response for GET /config
type ConfigResponse struct {
	Address            string `json:"address"`
	Initialized        bool   `json:"initialized"`
	Owner              string `json:"owner,omitempty"`
	FeeRecipient       string `json:"feeRecipient,omitempty"`
	FeeRateBasisPoints uint64 `json:"feeRateBasisPoints"`
	FeePercent         string `json:"feePercent"`
}
