package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/AlexZinkM/amm-config/internal/amm"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

// Prefix of every environment variable read by Load
const Prefix = "AMM"

// Config contains all configuration parameters for the application.
type Config struct {
	RPCURL              string        `envconfig:"RPC_URL" default:"http://127.0.0.1:8899"`
	ProgramID           string        `envconfig:"PROGRAM_ID" default:"4sRbFuajHVG181psKiK7G2JBSzbcvVD9RBVbo72DE9TQ"`
	KeypairPath         string        `envconfig:"KEYPAIR_PATH" default:"~/.config/solana/id.json"`
	Commitment          string        `envconfig:"COMMITMENT" default:"processed"`
	ConfirmTimeout      time.Duration `envconfig:"CONFIRM_TIMEOUT" default:"60s"`
	ConfirmPollInterval time.Duration `envconfig:"CONFIRM_POLL_INTERVAL" default:"500ms"`
	PreflightCheck      bool          `envconfig:"PREFLIGHT_CHECK" default:"true"`
	LogLevel            string        `envconfig:"LOG_LEVEL" default:"info"`
	Port                string        `envconfig:"PORT" default:"8080"`
}

// Load reads configuration from AMM_* environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process(Prefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	return cfg, nil
}

// Validate checks values that envconfig cannot type-check.
func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return errors.New("rpc url must be set")
	}
	if _, err := c.Program(); err != nil {
		return err
	}
	if _, err := c.CommitmentType(); err != nil {
		return err
	}
	if c.ConfirmTimeout <= 0 {
		return fmt.Errorf("confirm timeout must be positive, got %s", c.ConfirmTimeout)
	}
	if c.ConfirmPollInterval <= 0 {
		return fmt.Errorf("confirm poll interval must be positive, got %s", c.ConfirmPollInterval)
	}
	return nil
}

// Program returns the parsed program identity
func (c *Config) Program() (solana.PublicKey, error) {
	id := c.ProgramID
	if id == "" {
		id = amm.DefaultProgramID
	}
	pk, err := solana.PublicKeyFromBase58(id)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid program id %q: %w", id, err)
	}
	return pk, nil
}

// CommitmentType returns the commitment as the RPC client expects it
func (c *Config) CommitmentType() (rpc.CommitmentType, error) {
	switch ct := rpc.CommitmentType(c.Commitment); ct {
	case rpc.CommitmentProcessed, rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
		return ct, nil
	default:
		return "", fmt.Errorf("unsupported commitment %q: use processed, confirmed or finalized", c.Commitment)
	}
}

// PromptForPassword prompts the user for the keystore password in the terminal.
// The password is read without echoing (hidden input).
// Caller must zero the returned slice after use.
func PromptForPassword(out io.Writer, address string) ([]byte, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("stdin is not a terminal: run interactively to enter the keystore password")
	}
	fmt.Fprintf(out, "Enter password for keystore %s: ", address)
	defer fmt.Fprintln(out)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("password cannot be empty")
	}

	password := make([]byte, len(raw))
	copy(password, raw)
	clear(raw)
	return password, nil
}

// PromptForNewPassword asks for a password twice and requires both entries to match
func PromptForNewPassword(out io.Writer, address string) ([]byte, error) {
	first, err := PromptForPassword(out, address)
	if err != nil {
		return nil, err
	}

	fmt.Fprint(out, "Repeat password. ")
	second, err := PromptForPassword(out, address)
	if err != nil {
		clear(first)
		return nil, err
	}
	defer clear(second)

	if string(first) != string(second) {
		clear(first)
		return nil, errors.New("passwords do not match")
	}
	return first, nil
}
