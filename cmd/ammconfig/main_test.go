package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AlexZinkM/amm-config/internal/amm"
	"github.com/AlexZinkM/amm-config/internal/config"
	"github.com/AlexZinkM/amm-config/internal/pda"
	"github.com/AlexZinkM/amm-config/internal/workflow"
	"github.com/AlexZinkM/amm-config/internal/workflow/workflowtest"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var programID = solana.MustPublicKeyFromBase58(amm.DefaultProgramID)

type harness struct {
	program  *workflowtest.Program
	deps     deps
	dials    int
	keypair  string
	operator solana.PrivateKey
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	operator := solana.NewWallet().PrivateKey
	program := workflowtest.NewProgram(programID)
	program.SetBalance(operator.PublicKey(), 2_000_000_000)

	raw := make([]int, len(operator))
	for i, b := range operator {
		raw[i] = int(b)
	}
	encoded, err := json.Marshal(raw)
	require.NoError(t, err)
	keypair := filepath.Join(t.TempDir(), "id.json")
	require.NoError(t, os.WriteFile(keypair, encoded, 0600))

	h := &harness{program: program, keypair: keypair, operator: operator}
	h.deps = deps{
		network: func(*config.Config, *zap.Logger) (workflow.Network, error) {
			h.dials++
			return program, nil
		},
		password:    func(string) ([]byte, error) { return []byte("secret"), nil },
		newPassword: func(string) ([]byte, error) { return []byte("secret"), nil },
	}
	return h
}

func (h *harness) run(t *testing.T, input string, args ...string) (int, string, string) {
	t.Helper()

	var out, errOut bytes.Buffer
	args = append([]string{"--no-color", "--log-level", "error"}, args...)
	code := run(context.Background(), args, strings.NewReader(input), &out, &errOut, h.deps)
	return code, out.String(), errOut.String()
}

func TestRun_DeclineSendsNothing(t *testing.T) {
	h := newHarness(t)

	code, out, errOut := h.run(t, "n\n", "--keypair", h.keypair)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Do you want to initialize it?")
	assert.Contains(t, out, "Operation cancelled.")
	assert.Empty(t, errOut)
	assert.Equal(t, 0, h.program.Sent())
}

func TestRun_InitializeThenUpdate(t *testing.T) {
	h := newHarness(t)
	recipient := solana.NewWallet().PublicKey()

	input := strings.Join([]string{"y", recipient.String(), "0.5", "y", "2"}, "\n") + "\n"
	code, out, errOut := h.run(t, input, "--keypair", h.keypair)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "initialization success!")
	assert.Contains(t, out, "New Fee Set!")

	cfg := h.program.Config()
	require.NotNil(t, cfg)
	assert.Equal(t, h.operator.PublicKey(), cfg.Owner)
	assert.Equal(t, recipient, cfg.FeeRecipient)
	assert.Equal(t, uint64(200), cfg.FeeRateBasisPoints)
}

func TestRun_CredentialFailureAbortsBeforeNetwork(t *testing.T) {
	h := newHarness(t)

	code, out, errOut := h.run(t, "y\n", "--keypair", filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "CredentialLoadError")
	assert.NotContains(t, out, "Do you want to initialize it?")
	assert.Equal(t, 0, h.dials)
}

func TestRun_InvalidConfiguration(t *testing.T) {
	h := newHarness(t)

	code, _, errOut := h.run(t, "", "--keypair", h.keypair, "--commitment", "recent")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unsupported commitment")

	code, _, errOut = h.run(t, "", "--program-id", "not-a-key", "address")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "invalid program id")
}

func TestRun_NetworkSetupFailure(t *testing.T) {
	h := newHarness(t)
	h.deps.network = func(*config.Config, *zap.Logger) (workflow.Network, error) {
		return nil, errors.New("dial failed")
	}

	code, _, errOut := h.run(t, "", "--keypair", h.keypair)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "dial failed")
}

func TestAddressCmd(t *testing.T) {
	h := newHarness(t)

	code, out, _ := h.run(t, "", "address", "--qr")
	require.Equal(t, 0, code)

	address, bump, err := pda.ConfigAddress(programID)
	require.NoError(t, err)
	assert.Contains(t, out, "config:  "+address.String())
	assert.Contains(t, out, "program: "+programID.String())
	assert.Contains(t, out, fmt.Sprintf("bump:    %d\n", bump))
	assert.Greater(t, strings.Count(out, "\n"), 10)
}

func TestShowAndSetFeeTo(t *testing.T) {
	h := newHarness(t)

	code, out, _ := h.run(t, "", "show")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "not initialized")

	first := solana.NewWallet().PublicKey()
	input := strings.Join([]string{"y", first.String(), "1", "n"}, "\n") + "\n"
	code, _, _ = h.run(t, input, "--keypair", h.keypair)
	require.Equal(t, 0, code)

	second := solana.NewWallet().PublicKey()
	code, out, errOut := h.run(t, "", "--keypair", h.keypair, "set-fee-to", second.String(), "--yes")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "New Fee_To Set!")
	assert.Equal(t, second, h.program.Config().FeeRecipient)

	code, out, _ = h.run(t, "", "show")
	require.Equal(t, 0, code)
	assert.Contains(t, out, second.String())
	assert.Contains(t, out, "100 bps (1.00%)")
}

func TestSetFeeToRejectedForOtherOwner(t *testing.T) {
	h := newHarness(t)

	input := strings.Join([]string{"y", solana.NewWallet().PublicKey().String(), "1", "n"}, "\n") + "\n"
	code, _, _ := h.run(t, input, "--keypair", h.keypair)
	require.Equal(t, 0, code)

	other := newHarness(t)
	other.deps.network = h.deps.network
	h.program.SetBalance(other.operator.PublicKey(), 2_000_000_000)

	code, _, errOut := other.run(t, "", "--keypair", other.keypair, "set-fee-to", solana.NewWallet().PublicKey().String(), "-y")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Unauthorized")
}

func TestKeystoreNewThenUseIt(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "admin.cwt")

	code, out, errOut := h.run(t, "", "keystore", "new", "--out", path, "--kdf-log-n", "10")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "keystore: "+path)

	code, out, errOut = h.run(t, "n\n", "--keypair", path)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Operator: ")

	code, _, errOut = h.run(t, "", "keystore", "new", "--out", path, "--kdf-log-n", "10")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "file is not empty")

	code, _, errOut = h.run(t, "", "keystore", "passwd", "--file", path, "--kdf-log-n", "11")
	require.Equal(t, 0, code, errOut)

	code, _, errOut = h.run(t, "", "keystore", "new", "--out", path, "--kdf-log-n", "30")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "kdf-log-n")
}

func TestKeystoreImport(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "admin.cwt")

	code, out, errOut := h.run(t, "", "--keypair", h.keypair, "keystore", "import", "--out", path, "--kdf-log-n", "10")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "address:  "+h.operator.PublicKey().String())
}
