package solana

import (
	"context"
	"fmt"

	"github.com/AlexZinkM/amm-config/internal/common"
	"github.com/AlexZinkM/amm-config/internal/model"

	"github.com/gagliardetto/solana-go"
)

// ConfigReader reads the AMM config account; workflow.Engine implements it.
type ConfigReader interface {
	ProgramID() solana.PublicKey
	ConfigAddress() (solana.PublicKey, uint8)
	FeeConfig(ctx context.Context) (*model.FeeConfig, error)
}

// GetConfigAddress returns the derived config account of the program
func GetConfigAddress(reader ConfigReader) *model.ConfigAddressResponse {
	address, bump := reader.ConfigAddress()
	return &model.ConfigAddressResponse{
		ProgramID: reader.ProgramID().String(),
		Address:   address.String(),
		Bump:      bump,
	}
}

// GetConfig reads and decodes the config account.
// A missing account is reported as Initialized=false, not as an error.
func GetConfig(ctx context.Context, reader ConfigReader) (*model.ConfigResponse, error) {
	address, _ := reader.ConfigAddress()

	cfg, err := reader.FeeConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	resp := &model.ConfigResponse{
		Address:    address.String(),
		FeePercent: common.BasisPointsToPercent(0),
	}
	if cfg == nil {
		return resp, nil
	}

	resp.Initialized = true
	resp.Owner = cfg.Owner.String()
	resp.FeeRecipient = cfg.FeeRecipient.String()
	resp.FeeRateBasisPoints = cfg.FeeRateBasisPoints
	resp.FeePercent = common.BasisPointsToPercent(cfg.FeeRateBasisPoints)
	return resp, nil
}
