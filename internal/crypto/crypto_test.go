package crypto

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/AlexZinkM/amm-config/internal/model"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastKDF = model.KDFParams{N: 1 << 10, R: 8, P: 1}

func TestEncryptDecrypt(t *testing.T) {
	t.Parallel()

	wallet := solana.NewWallet()
	path := filepath.Join(t.TempDir(), "admin.cwt")
	header := model.CWTFile{Network: "solana", Address: wallet.PublicKey().String(), QR: "qr"}

	err := EncryptWallet(path, header, &model.WalletData{PrivateKey: wallet.PrivateKey, CreatedAt: "2024-01-01T00:00:00Z"}, []byte("secret"), fastKDF)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, utf8BOM, raw[:3])

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	cwt, data, err := DecryptWallet(path, []byte("secret"))
	require.NoError(t, err)
	assert.Equal(t, header.Address, cwt.Address)
	assert.Equal(t, "solana", cwt.Network)
	require.NotNil(t, cwt.KDF)
	assert.Equal(t, fastKDF, *cwt.KDF)
	assert.Equal(t, []byte(wallet.PrivateKey), data.PrivateKey)

	address, err := ReadWalletAddress(path)
	require.NoError(t, err)
	assert.Equal(t, header.Address, address)
}

func TestDecryptWallet_WrongPassword(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "admin.cwt")
	require.NoError(t, EncryptWallet(path, model.CWTFile{}, &model.WalletData{PrivateKey: []byte{1}}, []byte("right"), fastKDF))

	_, _, err := DecryptWallet(path, []byte("wrong"))
	require.ErrorIs(t, err, ErrInvalidPassword)
}

func TestEncryptWallet_Rejects(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	err := EncryptWallet(filepath.Join(dir, "admin.json"), model.CWTFile{}, &model.WalletData{}, []byte("p"), fastKDF)
	require.ErrorIs(t, err, ErrNotKeystore)

	existing := filepath.Join(dir, "existing.cwt")
	require.NoError(t, os.WriteFile(existing, []byte("{}"), 0600))
	err = EncryptWallet(existing, model.CWTFile{}, &model.WalletData{}, []byte("p"), fastKDF)
	require.ErrorIs(t, err, ErrFileNotEmpty)
	require.ErrorIs(t, err, os.ErrExist)

	empty := filepath.Join(dir, "empty.cwt")
	require.NoError(t, os.WriteFile(empty, nil, 0600))
	require.NoError(t, EncryptWallet(empty, model.CWTFile{}, &model.WalletData{}, []byte("p"), fastKDF))
}

func TestReadKeystore_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := ReadWalletAddress(filepath.Join(dir, "missing.cwt"))
	require.Error(t, err)

	empty := filepath.Join(dir, "empty.cwt")
	require.NoError(t, os.WriteFile(empty, nil, 0600))
	_, err = ReadWalletAddress(empty)
	require.Error(t, err)

	garbage := filepath.Join(dir, "garbage.cwt")
	require.NoError(t, os.WriteFile(garbage, []byte("not json"), 0600))
	_, _, err = DecryptWallet(garbage, []byte("p"))
	require.Error(t, err)
}
