package amm

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/AlexZinkM/amm-config/internal/model"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

var ErrNotConfigAccount = errors.New("account data is not an AMM config account")

type configAccount struct {
	Bump  uint8
	Owner solana.PublicKey
	FeeTo solana.PublicKey
	Fee   uint64
}

// DecodeFeeConfig parses the raw data of the config account.
func DecodeFeeConfig(data []byte) (model.FeeConfig, error) {
	if len(data) < ConfigAccountSize {
		return model.FeeConfig{}, fmt.Errorf("%w: %d bytes, want %d", ErrNotConfigAccount, len(data), ConfigAccountSize)
	}

	dec := bin.NewBorshDecoder(data)
	discriminator, err := dec.ReadTypeID()
	if err != nil {
		return model.FeeConfig{}, fmt.Errorf("failed to read discriminator: %w", err)
	}
	if !discriminator.Equal(ConfigAccountDiscriminator.Bytes()) {
		return model.FeeConfig{}, fmt.Errorf("%w: discriminator %x", ErrNotConfigAccount, discriminator.Bytes())
	}

	var acc configAccount
	if err := dec.Decode(&acc); err != nil {
		return model.FeeConfig{}, fmt.Errorf("failed to decode config account: %w", err)
	}

	return model.FeeConfig{
		Bump:               acc.Bump,
		Owner:              acc.Owner,
		FeeRecipient:       acc.FeeTo,
		FeeRateBasisPoints: acc.Fee,
	}, nil
}

// EncodeFeeConfig produces account data in the on-chain layout.
func EncodeFeeConfig(cfg model.FeeConfig) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(ConfigAccountDiscriminator.Bytes())
	err := bin.NewBorshEncoder(buf).Encode(configAccount{
		Bump:  cfg.Bump,
		Owner: cfg.Owner,
		FeeTo: cfg.FeeRecipient,
		Fee:   cfg.FeeRateBasisPoints,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode config account: %w", err)
	}
	return buf.Bytes(), nil
}
