// Package credential loads the operator signing key from disk.
package credential

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlexZinkM/amm-config/internal/crypto"
	"github.com/AlexZinkM/amm-config/internal/model"

	"github.com/gagliardetto/solana-go"
)

// PasswordFunc returns the password of the keystore holding address.
// The returned slice is zeroed by the caller after use.
type PasswordFunc func(address string) ([]byte, error)

const op = "load credential"

// Load reads the signing key at path. Two formats are accepted: a solana-keygen
// JSON array of 64 bytes, or an encrypted .cwt keystore unlocked via password.
func Load(path string, password PasswordFunc) (solana.PrivateKey, error) {
	path, err := ExpandPath(path)
	if err != nil {
		return nil, model.NewError(model.KindCredentialLoad, op, err)
	}

	if filepath.Ext(path) == crypto.Extension {
		return loadKeystore(path, password)
	}

	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, model.NewError(model.KindCredentialLoad, op, fmt.Errorf("%s: %w", path, err))
	}
	return key, nil
}

func loadKeystore(path string, password PasswordFunc) (solana.PrivateKey, error) {
	if password == nil {
		return nil, model.Errorf(model.KindCredentialLoad, op, "%s is encrypted and no password source is available", path)
	}

	address, err := crypto.ReadWalletAddress(path)
	if err != nil {
		return nil, model.NewError(model.KindCredentialLoad, op, fmt.Errorf("%s: %w", path, err))
	}

	pass, err := password(address)
	if err != nil {
		return nil, model.NewError(model.KindCredentialLoad, op, fmt.Errorf("failed to read password: %w", err))
	}
	defer clear(pass)

	_, walletData, err := crypto.DecryptWallet(path, pass)
	if err != nil {
		return nil, model.NewError(model.KindCredentialLoad, op, fmt.Errorf("%s: %w", path, err))
	}

	key := solana.PrivateKey(walletData.PrivateKey)
	if err := key.Validate(); err != nil {
		clear(walletData.PrivateKey)
		return nil, model.NewError(model.KindCredentialLoad, op, err)
	}
	if address != "" && key.PublicKey().String() != address {
		clear(walletData.PrivateKey)
		return nil, model.Errorf(model.KindCredentialLoad, op, "keystore address %s does not match its key", address)
	}
	return key, nil
}

// ExpandPath resolves a leading ~ to the current user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", errors.New("no keypair path configured")
	}
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
