package shell_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/AlexZinkM/amm-config/internal/amm"
	"github.com/AlexZinkM/amm-config/internal/model"
	"github.com/AlexZinkM/amm-config/internal/shell"
	"github.com/AlexZinkM/amm-config/internal/workflow"
	"github.com/AlexZinkM/amm-config/internal/workflow/workflowtest"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var programID = solana.MustPublicKeyFromBase58(amm.DefaultProgramID)

type fixture struct {
	program *workflowtest.Program
	engine  *workflow.Engine
	signer  solana.PrivateKey
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	signer := solana.NewWallet().PrivateKey
	program := workflowtest.NewProgram(programID)
	program.SetBalance(signer.PublicKey(), 2_000_000_000)

	engine, err := workflow.New(workflow.Options{
		ProgramID:      programID,
		Signer:         signer,
		Network:        program,
		PreflightCheck: true,
	})
	require.NoError(t, err)
	return fixture{program: program, engine: engine, signer: signer}
}

func (f fixture) session(input string, out *bytes.Buffer) *shell.Session {
	return shell.New(shell.Options{
		Workflow:      f.engine,
		In:            strings.NewReader(input),
		Out:           out,
		Endpoint:      "http://127.0.0.1:8899",
		Commitment:    "processed",
		CheckExisting: true,
		NoColor:       true,
	})
}

func pct(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func lines(answers ...string) string {
	return strings.Join(answers, "\n") + "\n"
}

func TestRun_DeclineInitialize(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	var out bytes.Buffer

	err := f.session(lines("n"), &out).Run(context.Background())
	require.ErrorIs(t, err, shell.ErrCancelled)

	assert.Equal(t, 0, f.program.Sent())
	assert.Nil(t, f.program.Config())
	assert.Contains(t, out.String(), "Do you want to initialize it?")
	assert.Contains(t, out.String(), "Operation cancelled.")
	assert.NotContains(t, out.String(), "Fee_To Address?")
}

func TestRun_EmptyAnswerDeclines(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	var out bytes.Buffer

	err := f.session(lines(""), &out).Run(context.Background())
	require.ErrorIs(t, err, shell.ErrCancelled)
	assert.Equal(t, 0, f.program.Sent())
}

func TestRun_InitializeThenUpdate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	recipient := solana.NewWallet().PublicKey()
	var out bytes.Buffer

	input := lines("y", recipient.String(), "0.5", "y", "2")
	err := f.session(input, &out).Run(context.Background())
	require.NoError(t, err)

	cfg := f.program.Config()
	require.NotNil(t, cfg)
	assert.Equal(t, f.signer.PublicKey(), cfg.Owner)
	assert.Equal(t, recipient, cfg.FeeRecipient)
	assert.Equal(t, uint64(200), cfg.FeeRateBasisPoints)

	applied := f.program.Applied()
	require.Len(t, applied, 2)
	assert.Equal(t, model.ActionInitialize, applied[0].Type)
	assert.Equal(t, uint64(50), applied[0].FeeRateBasisPoints)
	assert.Equal(t, model.ActionUpdateFee, applied[1].Type)
	assert.Equal(t, uint64(200), applied[1].FeeRateBasisPoints)

	text := out.String()
	order := []string{
		"Do you want to initialize it?",
		"Fee_To Address?",
		"Fee(%)?",
		"fee 50 bps (0.50%)",
		"initialization success!",
		"Do you want to change the fee?",
		"Setting fee to 200 bps (2.00%)",
		"New Fee Set!",
	}
	pos := 0
	for _, want := range order {
		idx := strings.Index(text[pos:], want)
		require.GreaterOrEqual(t, idx, 0, "missing %q after offset %d", want, pos)
		pos += idx + len(want)
	}
	assert.Contains(t, text, "Commitment is 'processed'")
	assert.Equal(t, workflow.Confirmed, f.engine.State())
}

func TestRun_DeclineUpdateAfterInitialize(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	var out bytes.Buffer

	input := lines("y", solana.NewWallet().PublicKey().String(), "1", "n")
	err := f.session(input, &out).Run(context.Background())
	require.ErrorIs(t, err, shell.ErrCancelled)

	assert.Equal(t, 1, f.program.Sent())
	require.NotNil(t, f.program.Config())
	assert.Equal(t, uint64(100), f.program.Config().FeeRateBasisPoints)
}

func TestRun_AlreadyInitializedSkipsToUpdate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	recipient := solana.NewWallet().PublicKey()

	action, err := f.engine.PlanInitialize(recipient.String(), pct(t, "1"))
	require.NoError(t, err)
	_, err = f.engine.Submit(context.Background(), action)
	require.NoError(t, err)

	var out bytes.Buffer
	err = f.session(lines("y", "3"), &out).Run(context.Background())
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "Config account is already initialized.")
	assert.Contains(t, text, recipient.String())
	assert.NotContains(t, text, "Do you want to initialize it?")
	assert.Equal(t, uint64(300), f.program.Config().FeeRateBasisPoints)
	assert.Equal(t, 2, f.program.Sent())
}

func TestRun_RepromptsInvalidInput(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	recipient := solana.NewWallet().PublicKey()
	var out bytes.Buffer

	input := lines("maybe", "y", "not-an-address", recipient.String(), "-1", "abc", "0.25", "n")
	err := f.session(input, &out).Run(context.Background())
	require.ErrorIs(t, err, shell.ErrCancelled)

	text := out.String()
	assert.Contains(t, text, "Please answer y or n.")
	assert.Contains(t, text, `"not-an-address" is not a valid address.`)
	assert.Contains(t, text, `"-1" is not a valid fee percentage.`)
	assert.Contains(t, text, `"abc" is not a valid fee percentage.`)

	require.NotNil(t, f.program.Config())
	assert.Equal(t, uint64(25), f.program.Config().FeeRateBasisPoints)
}

func TestRun_RepromptsOutOfRangeExponent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	recipient := solana.NewWallet().PublicKey()
	var out bytes.Buffer

	input := lines("y", recipient.String(), "1e999999999", "1e-999999999", "n")
	err := f.session(input, &out).Run(context.Background())
	require.ErrorIs(t, err, shell.ErrCancelled)

	assert.Contains(t, out.String(), `"1e999999999" is not a valid fee percentage.`)
	require.NotNil(t, f.program.Config())
	assert.Equal(t, uint64(0), f.program.Config().FeeRateBasisPoints)
}

func TestRun_TooManyInvalidAnswers(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	var out bytes.Buffer

	err := f.session(lines("y", "x", "y", "z"), &out).Run(context.Background())
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindInvalidAddress))
	assert.Equal(t, 1, shell.ExitCode(err))
	assert.Equal(t, 0, f.program.Sent())
}

func TestRun_EndOfInputCancels(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	var out bytes.Buffer

	err := f.session(lines("y", solana.NewWallet().PublicKey().String()), &out).Run(context.Background())
	require.ErrorIs(t, err, shell.ErrCancelled)
	assert.Equal(t, 0, shell.ExitCode(err))
	assert.Equal(t, 0, f.program.Sent())
}

func TestRun_SubmissionFailureStopsSession(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.program.FailNext(model.Errorf(model.KindNetworkUnreachable, "send transaction", "connection refused"))
	var out bytes.Buffer

	input := lines("y", solana.NewWallet().PublicKey().String(), "1", "y", "2")
	err := f.session(input, &out).Run(context.Background())
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindNetworkUnreachable))

	assert.Equal(t, 1, f.program.Sent())
	assert.NotContains(t, out.String(), "Do you want to change the fee?")
	assert.Equal(t, workflow.Failed, f.engine.State())
}

func TestRun_FundingWarning(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.program.SetBalance(f.signer.PublicKey(), 1000)
	var out bytes.Buffer

	input := lines("y", solana.NewWallet().PublicKey().String(), "1")
	err := f.session(input, &out).Run(context.Background())
	require.Error(t, err)

	assert.Contains(t, out.String(), "Operator balance 0.000001000 SOL is below")
	assert.True(t, model.IsKind(err, model.KindInsufficientFunds))
}

func TestRunSetFeeRecipient(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	first := solana.NewWallet().PublicKey()
	second := solana.NewWallet().PublicKey()

	action, err := f.engine.PlanInitialize(first.String(), pct(t, "1"))
	require.NoError(t, err)
	_, err = f.engine.Submit(context.Background(), action)
	require.NoError(t, err)

	var out bytes.Buffer
	err = f.session(lines("n"), &out).RunSetFeeRecipient(context.Background(), second.String(), false)
	require.ErrorIs(t, err, shell.ErrCancelled)
	assert.Equal(t, first, f.program.Config().FeeRecipient)

	out.Reset()
	err = f.session(lines(second.String(), "y"), &out).RunSetFeeRecipient(context.Background(), "", false)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "New Fee_To Set!")
	assert.Equal(t, second, f.program.Config().FeeRecipient)
	assert.Equal(t, uint64(100), f.program.Config().FeeRateBasisPoints)
}

func TestShow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	var out bytes.Buffer

	require.NoError(t, f.session("", &out).Show(context.Background()))
	assert.Contains(t, out.String(), "Config account is not initialized.")

	action, err := f.engine.PlanInitialize(solana.NewWallet().PublicKey().String(), pct(t, "0.3"))
	require.NoError(t, err)
	_, err = f.engine.Submit(context.Background(), action)
	require.NoError(t, err)

	out.Reset()
	require.NoError(t, f.session("", &out).Show(context.Background()))
	assert.Contains(t, out.String(), "30 bps (0.30%)")
	assert.Contains(t, out.String(), f.signer.PublicKey().String())
}

func TestReport(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "cancelled prints nothing",
			err:  shell.ErrCancelled,
		},
		{
			name: "timeout",
			err:  model.Errorf(model.KindTimeout, "confirm transaction", "not confirmed"),
			want: []string{"Failed [Timeout]", "may still land"},
		},
		{
			name: "already initialized",
			err: &model.Error{Kind: model.KindSimulationFailed, Reason: model.ReasonAlreadyInitialized,
				Op: "send transaction", Err: errors.New("already in use")},
			want: []string{"Failed [SimulationFailed]", "already exists"},
		},
		{
			name: "untagged",
			err:  errors.New("boom"),
			want: []string{"Failed: boom"},
		},
		{
			name: "interrupted",
			err:  fmt.Errorf("failed to submit update_fee: confirm transaction: %w", context.Canceled),
			want: []string{"Interrupted: ", "may still land"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			shell.Report(&out, tt.err)
			if len(tt.want) == 0 {
				assert.Empty(t, out.String())
				return
			}
			for _, w := range tt.want {
				assert.Contains(t, out.String(), w)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, shell.ExitCode(nil))
	assert.Equal(t, 0, shell.ExitCode(shell.ErrCancelled))
	assert.Equal(t, 1, shell.ExitCode(model.Errorf(model.KindUnauthorized, "submit", "not owner")))
	assert.Equal(t, 1, shell.ExitCode(fmt.Errorf("send transaction: %w", context.Canceled)))
}
