package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/AlexZinkM/amm-config/internal/api"
	"github.com/AlexZinkM/amm-config/solana"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newAddressCmd(a *app) *cobra.Command {
	var qr bool

	cmd := &cobra.Command{
		Use:   "address",
		Short: "Print the derived config account address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := a.engine(false)
			if err != nil {
				return err
			}

			resp := solana.GetConfigAddress(engine)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "program: %s\n", resp.ProgramID)
			fmt.Fprintf(out, "config:  %s\n", resp.Address)
			fmt.Fprintf(out, "bump:    %d\n", resp.Bump)

			if qr {
				code, err := solana.TerminalQRCode(resp.Address)
				if err != nil {
					return err
				}
				fmt.Fprint(out, code)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&qr, "qr", false, "also print the address as a QR code")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current fee configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := a.engine(false)
			if err != nil {
				return err
			}
			return a.session(cmd, engine).Show(cmd.Context())
		},
	}
}

func newSetFeeToCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "set-fee-to [address]",
		Short: "Change the account that receives protocol fees",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := a.engine(true)
			if err != nil {
				return err
			}

			var recipient string
			if len(args) == 1 {
				recipient = args[0]
			}
			return a.session(cmd, engine).RunSetFeeRecipient(cmd.Context(), recipient, yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only status API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := a.engine(false)
			if err != nil {
				return err
			}

			router, err := api.SetupRouter(engine, a.logger)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              net.JoinHostPort("", a.cfg.Port),
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}
			return serve(cmd.Context(), srv, a.logger)
		},
	}

	cmd.Flags().StringVar(&a.cfg.Port, "port", a.cfg.Port, "port of the status API")
	return cmd
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, lggr *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		lggr.Info("status API listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("status API stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	lggr.Info("shutting down status API")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down status API: %w", err)
	}
	return nil
}
