package solana

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AlexZinkM/amm-config/internal/credential"
	"github.com/AlexZinkM/amm-config/internal/crypto"
	"github.com/AlexZinkM/amm-config/internal/model"

	"github.com/gagliardetto/solana-go"
	"github.com/skip2/go-qrcode"
)

const (
	networkSolana = "solana"
)

// IsFileExistsError checks if err means the target keystore is already populated
func IsFileExistsError(err error) bool {
	return errors.Is(err, os.ErrExist)
}

// GenerateWallet generates a new operator keypair and saves it to a .cwt keystore.
// password must be []byte for security (caller should zero it after use)
func GenerateWallet(filePath string, password []byte, kdf model.KDFParams) (*model.KeystoreResponse, error) {
	wallet := solana.NewWallet()
	defer clear(wallet.PrivateKey)

	return writeKeystore(filePath, wallet.PrivateKey, time.Now(), password, kdf)
}

// ImportWallet encrypts an existing solana-keygen keypair file into a .cwt keystore.
func ImportWallet(keypairPath, filePath string, password []byte, kdf model.KDFParams) (*model.KeystoreResponse, error) {
	keypairPath, err := credential.ExpandPath(keypairPath)
	if err != nil {
		return nil, err
	}

	key, err := solana.PrivateKeyFromSolanaKeygenFile(keypairPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read keypair: %w", err)
	}
	defer clear(key)

	return writeKeystore(filePath, key, time.Now(), password, kdf)
}

// ChangePassword re-encrypts a keystore under a new password and KDF cost.
// The key and its creation time are kept; salt and nonce are fresh.
func ChangePassword(filePath string, oldPassword, newPassword []byte, kdf model.KDFParams) (*model.KeystoreResponse, error) {
	header, walletData, err := crypto.DecryptWallet(filePath, oldPassword)
	if err != nil {
		return nil, err
	}
	defer clear(walletData.PrivateKey)

	key := solana.PrivateKey(walletData.PrivateKey)
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("keystore holds an invalid key: %w", err)
	}
	if key.PublicKey().String() != header.Address {
		return nil, fmt.Errorf("keystore address %s does not match its key", header.Address)
	}

	createdAt, err := time.Parse(time.RFC3339, walletData.CreatedAt)
	if err != nil {
		createdAt = time.Now()
	}

	// write next to the original, then swap
	tmp := filepath.Join(filepath.Dir(filePath), ".rekey-"+filepath.Base(filePath))
	if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to clear %s: %w", tmp, err)
	}
	resp, err := writeKeystore(tmp, key, createdAt, newPassword, kdf)
	if err != nil {
		return nil, err
	}
	if err := os.Rename(tmp, filePath); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("failed to replace keystore: %w", err)
	}

	resp.Path = filePath
	return resp, nil
}

func writeKeystore(filePath string, key solana.PrivateKey, createdAt time.Time, password []byte, kdf model.KDFParams) (*model.KeystoreResponse, error) {
	address := key.PublicKey().String()

	qrCode, err := generateQRCode(address)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}

	// PrivateKey stored as []byte (will be base64 encoded in JSON)
	walletData := &model.WalletData{
		PrivateKey: key,
		CreatedAt:  createdAt.Format(time.RFC3339),
	}

	header := model.CWTFile{
		Network: networkSolana,
		Address: address,
		QR:      qrCode,
	}
	if err := crypto.EncryptWallet(filePath, header, walletData, password, kdf); err != nil {
		return nil, fmt.Errorf("failed to encrypt wallet: %w", err)
	}

	return &model.KeystoreResponse{Path: filePath, Address: address}, nil
}

// generateQRCode generates QR code of address in base64
func generateQRCode(address string) (string, error) {
	qr, err := qrcode.New(address, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}

	png, err := qr.PNG(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate PNG: %w", err)
	}

	return base64.StdEncoding.EncodeToString(png), nil
}

// TerminalQRCode renders address as a QR code made of block characters.
func TerminalQRCode(address string) (string, error) {
	qr, err := qrcode.New(address, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}
	return qr.ToSmallString(false), nil
}
