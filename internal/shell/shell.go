// Package shell runs the interactive operator session: it prompts for intent
// and values, hands them to the workflow engine and renders the outcome.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/AlexZinkM/amm-config/internal/common"
	"github.com/AlexZinkM/amm-config/internal/model"
	"github.com/AlexZinkM/amm-config/internal/workflow"

	"github.com/fatih/color"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrCancelled is returned when the operator declines a confirmation or closes input.
var ErrCancelled = errors.New("operation cancelled")

const defaultMaxAttempts = 3

// Workflow is the engine surface the session drives
type Workflow interface {
	ProgramID() solana.PublicKey
	ConfigAddress() (solana.PublicKey, uint8)
	Operator() solana.PublicKey
	FeeConfig(ctx context.Context) (*model.FeeConfig, error)
	Funding(ctx context.Context) (workflow.FundingReport, error)
	PlanInitialize(feeRecipient string, feePercent decimal.Decimal) (model.PendingAction, error)
	PlanUpdateFee(feePercent decimal.Decimal) (model.PendingAction, error)
	PlanSetFeeRecipient(feeRecipient string) (model.PendingAction, error)
	Submit(ctx context.Context, action model.PendingAction) (*model.SubmissionResult, error)
}

// Options configures a Session
type Options struct {
	Workflow Workflow
	In       io.Reader
	Out      io.Writer
	// Endpoint and Commitment are only displayed.
	Endpoint   string
	Commitment string
	// CheckExisting reads the config account first and skips initialization
	// when it already exists.
	CheckExisting bool
	// MaxAttempts bounds re-prompts on invalid input; 0 means 3.
	MaxAttempts int
	NoColor     bool
	Logger      *zap.Logger
}

// Session is one operator run
type Session struct {
	wf            Workflow
	in            *bufio.Reader
	out           io.Writer
	endpoint      string
	commitment    string
	checkExisting bool
	maxAttempts   int
	logger        *zap.Logger

	title   *color.Color
	info    *color.Color
	warn    *color.Color
	success *color.Color
	failure *color.Color
}

func New(opts Options) *Session {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	s := &Session{
		wf:            opts.Workflow,
		in:            bufio.NewReader(opts.In),
		out:           opts.Out,
		endpoint:      opts.Endpoint,
		commitment:    opts.Commitment,
		checkExisting: opts.CheckExisting,
		maxAttempts:   opts.MaxAttempts,
		logger:        opts.Logger.Named("shell"),
		title:         color.New(color.FgYellow, color.Bold),
		info:          color.New(color.FgBlue),
		warn:          color.New(color.FgYellow),
		success:       color.New(color.FgGreen),
		failure:       color.New(color.FgRed),
	}
	if opts.NoColor {
		for _, c := range []*color.Color{s.title, s.info, s.warn, s.success, s.failure} {
			c.DisableColor()
		}
	}
	return s
}

// Run performs the initialize-then-update session. Returns ErrCancelled when
// the operator declines a confirmation.
func (s *Session) Run(ctx context.Context) error {
	s.banner()

	initialized := false
	if s.checkExisting {
		current, err := s.wf.FeeConfig(ctx)
		if err != nil {
			return err
		}
		if current != nil {
			initialized = true
			s.warn.Fprintln(s.out, "Config account is already initialized.")
			s.printFeeConfig(current)
		}
	}

	if !initialized {
		if err := s.initialize(ctx); err != nil {
			return err
		}
	}

	return s.updateFee(ctx)
}

func (s *Session) initialize(ctx context.Context) error {
	ok, err := s.confirm("Do you want to initialize it?")
	if err != nil {
		return err
	}
	if !ok {
		return s.cancelled()
	}

	s.reportFunding(ctx)

	recipient, err := s.askAddress("Fee_To Address?")
	if err != nil {
		return err
	}
	percent, err := s.askPercent("Fee(%)?")
	if err != nil {
		return err
	}

	action, err := s.wf.PlanInitialize(recipient, percent)
	if err != nil {
		return err
	}
	s.info.Fprintf(s.out, "Initializing with fee_to %s and fee %d bps (%s%%)\n",
		action.FeeRecipient, action.FeeRateBasisPoints, common.BasisPointsToPercent(action.FeeRateBasisPoints))

	result, err := s.wf.Submit(ctx, action)
	if err != nil {
		return err
	}
	s.success.Fprintln(s.out, "initialization success!")
	s.printSignature(result)
	return nil
}

func (s *Session) updateFee(ctx context.Context) error {
	ok, err := s.confirm("Do you want to change the fee?")
	if err != nil {
		return err
	}
	if !ok {
		return s.cancelled()
	}

	percent, err := s.askPercent("Fee(%)?")
	if err != nil {
		return err
	}

	action, err := s.wf.PlanUpdateFee(percent)
	if err != nil {
		return err
	}
	s.info.Fprintf(s.out, "Setting fee to %d bps (%s%%)\n",
		action.FeeRateBasisPoints, common.BasisPointsToPercent(action.FeeRateBasisPoints))

	result, err := s.wf.Submit(ctx, action)
	if err != nil {
		return err
	}
	s.success.Fprintln(s.out, "New Fee Set!")
	s.printSignature(result)
	return nil
}

// RunSetFeeRecipient changes the fee recipient. recipient may be empty, in
// which case it is prompted for. assumeYes skips the confirmation.
func (s *Session) RunSetFeeRecipient(ctx context.Context, recipient string, assumeYes bool) error {
	s.banner()

	if recipient == "" {
		var err error
		if recipient, err = s.askAddress("New Fee_To Address?"); err != nil {
			return err
		}
	}

	action, err := s.wf.PlanSetFeeRecipient(recipient)
	if err != nil {
		return err
	}

	if !assumeYes {
		ok, err := s.confirm(fmt.Sprintf("Send fee to %s from now on?", action.FeeRecipient))
		if err != nil {
			return err
		}
		if !ok {
			return s.cancelled()
		}
	}

	result, err := s.wf.Submit(ctx, action)
	if err != nil {
		return err
	}
	s.success.Fprintln(s.out, "New Fee_To Set!")
	s.printSignature(result)
	return nil
}

// Show prints the current config account
func (s *Session) Show(ctx context.Context) error {
	address, bump := s.wf.ConfigAddress()
	s.info.Fprintf(s.out, "Config account: %s (bump %d)\n", address, bump)

	current, err := s.wf.FeeConfig(ctx)
	if err != nil {
		return err
	}
	if current == nil {
		s.warn.Fprintln(s.out, "Config account is not initialized.")
		return nil
	}
	s.printFeeConfig(current)
	return nil
}

func (s *Session) banner() {
	address, bump := s.wf.ConfigAddress()

	s.title.Fprintln(s.out, "Anchor AMM admin")
	s.failure.Fprintf(s.out, "Using %s\n", s.endpoint)
	s.info.Fprintf(s.out, "AMM program: %s\n", s.wf.ProgramID())
	s.info.Fprintf(s.out, "Config account: %s (bump %d)\n", address, bump)
	if operator := s.wf.Operator(); !operator.IsZero() {
		s.info.Fprintf(s.out, "Operator: %s\n", operator)
	}
	if s.commitment == "processed" {
		s.warn.Fprintln(s.out, "Commitment is 'processed': a reported success is not final and may still be rolled back.")
	}
}

func (s *Session) reportFunding(ctx context.Context) {
	report, err := s.wf.Funding(ctx)
	if err != nil {
		s.logger.Warn("balance check skipped", zap.Error(err))
		return
	}
	if !report.Sufficient() {
		s.warn.Fprintf(s.out, "Operator balance %s SOL is below the %s SOL needed to create the config account.\n",
			common.LamportsToSOL(report.Balance), common.LamportsToSOL(report.RentExempt))
	}
}

func (s *Session) printFeeConfig(cfg *model.FeeConfig) {
	fmt.Fprintf(s.out, "  owner:  %s\n", cfg.Owner)
	fmt.Fprintf(s.out, "  fee_to: %s\n", cfg.FeeRecipient)
	fmt.Fprintf(s.out, "  fee:    %d bps (%s%%)\n", cfg.FeeRateBasisPoints, common.BasisPointsToPercent(cfg.FeeRateBasisPoints))
}

func (s *Session) printSignature(result *model.SubmissionResult) {
	fmt.Fprintf(s.out, "  signature: %s\n", result.Signature)
}

func (s *Session) cancelled() error {
	s.failure.Fprintln(s.out, "Operation cancelled.")
	return ErrCancelled
}

// confirm asks a yes/no question; an empty answer means no.
func (s *Session) confirm(question string) (bool, error) {
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		answer, err := s.ask(question + " (y/N)")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "y", "yes":
			return true, nil
		case "", "n", "no":
			return false, nil
		}
		s.warn.Fprintln(s.out, "Please answer y or n.")
	}
	return false, nil
}

func (s *Session) askAddress(question string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		answer, err := s.ask(question)
		if err != nil {
			return "", err
		}
		if _, err := workflow.ParseAddress(answer); err != nil {
			lastErr = err
			s.failure.Fprintf(s.out, "%s is not a valid address.\n", quoteOrEmpty(answer))
			continue
		}
		return answer, nil
	}
	return "", lastErr
}

func (s *Session) askPercent(question string) (decimal.Decimal, error) {
	var lastErr error
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		answer, err := s.ask(question)
		if err != nil {
			return decimal.Zero, err
		}
		percent, err := common.ParsePercent(answer)
		if err == nil {
			_, err = common.PercentToBasisPoints(percent)
		}
		if err != nil {
			lastErr = err
			s.failure.Fprintf(s.out, "%s is not a valid fee percentage.\n", quoteOrEmpty(answer))
			continue
		}
		return percent, nil
	}
	return decimal.Zero, lastErr
}

// ask prints question and reads one trimmed line. End of input cancels the session.
func (s *Session) ask(question string) (string, error) {
	fmt.Fprintf(s.out, "? %s ", question)

	line, err := s.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line == "" {
			fmt.Fprintln(s.out)
			return "", ErrCancelled
		}
		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
	}
	return strings.TrimSpace(line), nil
}

func quoteOrEmpty(s string) string {
	if s == "" {
		return "Empty input"
	}
	return fmt.Sprintf("%q", s)
}
