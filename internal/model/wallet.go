package model

// CWTFile represents .cwt keystore file structure
type CWTFile struct {
	Network    string     `json:"network"`
	Address    string     `json:"address"`
	QR         string     `json:"QR"`
	KDF        *KDFParams `json:"kdf,omitempty"` // absent in files written with the default cost
	Salt       string     `json:"salt"`
	Nonce      string     `json:"nonce"`
	CipherText string     `json:"cipherText"`
}

// KDFParams are the scrypt cost parameters a keystore was sealed with
type KDFParams struct {
	N int `json:"n"`
	R int `json:"r"`
	P int `json:"p"`
}

// WalletData represents decrypted keystore data
type WalletData struct {
	PrivateKey []byte `json:"privateKey"` // full 64-byte ed25519 key (stored as base64 in JSON)
	CreatedAt  string `json:"createdAt"`
}

// KeystoreResponse is printed after a keystore is written
type KeystoreResponse struct {
	Path    string `json:"path"`
	Address string `json:"address"`
}
