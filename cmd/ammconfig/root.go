package main

import (
	"github.com/AlexZinkM/amm-config/internal/config"
	"github.com/AlexZinkM/amm-config/internal/credential"
	"github.com/AlexZinkM/amm-config/internal/logger"
	"github.com/AlexZinkM/amm-config/internal/shell"
	"github.com/AlexZinkM/amm-config/internal/workflow"

	"github.com/fatih/color"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootLong = `Operator tool for the AMM program config account.

Without a subcommand it runs the interactive session: it offers to initialize
the config account (fee recipient and fee percent), then to change the fee.
Every value can be set through AMM_* environment variables; flags override them.`

// app carries the effective configuration between cobra hooks and commands
type app struct {
	cfg     *config.Config
	deps    deps
	logger  *zap.Logger
	noColor bool
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ammconfig",
		Short:         "Initialize and update the AMM fee configuration",
		Long:          rootLong,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := a.engine(true)
			if err != nil {
				return err
			}
			return a.session(cmd, engine).Run(cmd.Context())
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&a.cfg.RPCURL, "rpc-url", a.cfg.RPCURL, "JSON-RPC endpoint of the cluster")
	f.StringVar(&a.cfg.ProgramID, "program-id", a.cfg.ProgramID, "AMM program id")
	f.StringVarP(&a.cfg.KeypairPath, "keypair", "k", a.cfg.KeypairPath, "operator keypair: solana-keygen JSON or encrypted .cwt keystore")
	f.StringVar(&a.cfg.Commitment, "commitment", a.cfg.Commitment, "commitment to confirm at: processed, confirmed or finalized")
	f.DurationVar(&a.cfg.ConfirmTimeout, "confirm-timeout", a.cfg.ConfirmTimeout, "how long to wait for confirmation")
	f.BoolVar(&a.cfg.PreflightCheck, "preflight-check", a.cfg.PreflightCheck, "read the config account before submitting")
	f.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "diagnostic log level: debug, info, warn or error")
	f.BoolVar(&a.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(
		newAddressCmd(a),
		newShowCmd(a),
		newSetFeeToCmd(a),
		newServeCmd(a),
		newKeystoreCmd(a),
	)
	return cmd
}

func (a *app) setup() error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	lggr, err := logger.New(a.cfg.LogLevel)
	if err != nil {
		return err
	}
	a.logger = lggr

	if a.noColor {
		color.NoColor = true
	}
	return nil
}

// engine builds the workflow engine; withSigner loads the operator key first
// so a bad credential aborts before anything is prompted or sent.
func (a *app) engine(withSigner bool) (*workflow.Engine, error) {
	programID, err := a.cfg.Program()
	if err != nil {
		return nil, err
	}

	var signer solana.PrivateKey
	if withSigner {
		if signer, err = credential.Load(a.cfg.KeypairPath, a.deps.password); err != nil {
			return nil, err
		}
		a.logger.Debug("operator key loaded", zap.Stringer("operator", signer.PublicKey()))
	}

	network, err := a.deps.network(a.cfg, a.logger)
	if err != nil {
		return nil, err
	}

	return workflow.New(workflow.Options{
		ProgramID:      programID,
		Signer:         signer,
		Network:        network,
		PreflightCheck: a.cfg.PreflightCheck,
		Logger:         a.logger,
	})
}

func (a *app) session(cmd *cobra.Command, engine *workflow.Engine) *shell.Session {
	return shell.New(shell.Options{
		Workflow:      engine,
		In:            cmd.InOrStdin(),
		Out:           cmd.OutOrStdout(),
		Endpoint:      a.cfg.RPCURL,
		Commitment:    a.cfg.Commitment,
		CheckExisting: a.cfg.PreflightCheck,
		NoColor:       a.noColor,
		Logger:        a.logger,
	})
}
