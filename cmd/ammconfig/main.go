// Command ammconfig is the operator tool for the AMM program config account:
// it initializes the account, updates the fee and serves a read-only status API.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/AlexZinkM/amm-config/internal/client"
	"github.com/AlexZinkM/amm-config/internal/config"
	"github.com/AlexZinkM/amm-config/internal/shell"
	"github.com/AlexZinkM/amm-config/internal/workflow"

	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, defaultDeps(os.Stderr))
	stop()
	os.Exit(code)
}

// deps are the pieces the commands reach outside the process for.
type deps struct {
	// network builds the RPC client from the effective configuration.
	network func(cfg *config.Config, lggr *zap.Logger) (workflow.Network, error)
	// password unlocks an existing keystore.
	password func(address string) ([]byte, error)
	// newPassword asks for a password for a keystore being written.
	newPassword func(address string) ([]byte, error)
}

func defaultDeps(prompt io.Writer) deps {
	return deps{
		network: newRPCNetwork,
		password: func(address string) ([]byte, error) {
			return config.PromptForPassword(prompt, address)
		},
		newPassword: func(address string) ([]byte, error) {
			return config.PromptForNewPassword(prompt, address)
		},
	}
}

func newRPCNetwork(cfg *config.Config, lggr *zap.Logger) (workflow.Network, error) {
	commitment, err := cfg.CommitmentType()
	if err != nil {
		return nil, err
	}
	return client.NewSolanaClient(client.Options{
		RPCURL:         cfg.RPCURL,
		Commitment:     commitment,
		ConfirmTimeout: cfg.ConfirmTimeout,
		PollInterval:   cfg.ConfirmPollInterval,
		Logger:         lggr,
	}), nil
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer, d deps) int {
	cfg, err := config.Load()
	if err != nil {
		shell.Report(errOut, err)
		return 1
	}

	a := &app{cfg: cfg, deps: d, logger: zap.NewNop()}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err = root.ExecuteContext(ctx)
	_ = a.logger.Sync()

	shell.Report(errOut, err)
	return shell.ExitCode(err)
}
