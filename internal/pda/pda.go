// Package pda derives program addresses for the AMM program accounts.
package pda

import (
	"fmt"

	"github.com/AlexZinkM/amm-config/internal/model"

	"github.com/gagliardetto/solana-go"
)

// ConfigSeed is the fixed seed of the global configuration account.
var ConfigSeed = []byte("config")

// Derive searches bumps from 255 down to 1 and returns the first address
// that is off the ed25519 curve together with the bump that produced it.
func Derive(seed []byte, programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	if len(seed) > solana.MaxSeedLength {
		return solana.PublicKey{}, 0, model.Errorf(model.KindDerivationExhausted, "derive address",
			"seed is %d bytes, max %d", len(seed), solana.MaxSeedLength)
	}

	for bump := uint8(255); bump > 0; bump-- {
		address, err := solana.CreateProgramAddress([][]byte{seed, {bump}}, programID)
		if err != nil {
			// on curve, try the next bump
			continue
		}
		return address, bump, nil
	}

	return solana.PublicKey{}, 0, model.Errorf(model.KindDerivationExhausted, "derive address",
		"no off-curve address for seed %q and program %s", seed, programID)
}

// ConfigAddress derives the global configuration account of programID
func ConfigAddress(programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	address, bump, err := Derive(ConfigSeed, programID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive config address: %w", err)
	}
	return address, bump, nil
}
