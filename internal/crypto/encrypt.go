package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/AlexZinkM/amm-config/internal/model"

	"golang.org/x/crypto/scrypt"
)

const (
	scryptKeyLen = 32
	saltLen      = 32
	nonceLen     = 12

	// Extension of encrypted keystore files
	Extension = ".cwt"
)

// DefaultKDF is the scrypt cost for keystores holding the admin key.
//
// N=2^18 (~256MB RAM, 0.5-2s): brute-forcing the password of a stolen
// keystore stays expensive while unlocking remains interactive.
var DefaultKDF = model.KDFParams{N: 1 << 18, R: 8, P: 1}

var (
	ErrNotKeystore     = errors.New("file must have " + Extension + " extension")
	ErrFileNotEmpty    = fmt.Errorf("file is not empty: %w", os.ErrExist)
	ErrInvalidPassword = errors.New("invalid password")

	utf8BOM = []byte{0xEF, 0xBB, 0xBF}
)

// EncryptWallet encrypts wallet data and writes it to .cwt
// password must be []byte for security (caller should zero it after use)
func EncryptWallet(filePath string, header model.CWTFile, walletData *model.WalletData, password []byte, kdf model.KDFParams) error {
	// Check file extension (should be .cwt)
	if filepath.Ext(filePath) != Extension {
		return ErrNotKeystore
	}

	// Refuse to overwrite an existing non-empty file
	if fileInfo, err := os.Stat(filePath); err == nil && fileInfo.Size() > 0 {
		return ErrFileNotEmpty
	}

	// Generate salt and nonce
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	aesGCM, err := newGCM(password, salt, kdf)
	if err != nil {
		return err
	}

	// Serialize wallet data
	plaintext, err := json.Marshal(walletData)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet data: %w", err)
	}
	defer clear(plaintext) // wipe plaintext bytes from memory

	ciphertext := aesGCM.Seal(nil, nonce, plaintext, nil)

	header.Salt = base64.StdEncoding.EncodeToString(salt)
	header.Nonce = base64.StdEncoding.EncodeToString(nonce)
	header.CipherText = base64.StdEncoding.EncodeToString(ciphertext)
	header.KDF = nil
	if kdf != DefaultKDF {
		header.KDF = &kdf
	}

	fileData, err := json.MarshalIndent(header, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cwt file: %w", err)
	}

	// Add UTF-8 BOM for proper display in Windows
	fileDataWithBOM := append(append([]byte{}, utf8BOM...), fileData...)

	if err := os.WriteFile(filePath, fileDataWithBOM, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// newGCM derives the file key from password and builds the AES-GCM cipher
func newGCM(password, salt []byte, kdf model.KDFParams) (cipher.AEAD, error) {
	key, err := scrypt.Key(password, salt, kdf.N, kdf.R, kdf.P, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}
