package shell

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/AlexZinkM/amm-config/internal/client"
	"github.com/AlexZinkM/amm-config/internal/model"

	"github.com/fatih/color"
)

// ExitCode maps a run result to the process exit status.
func ExitCode(err error) int {
	if err == nil || errors.Is(err, ErrCancelled) {
		return 0
	}
	return 1
}

// Report prints a failure with its kind and what the operator can do about it.
func Report(out io.Writer, err error) {
	if err == nil || errors.Is(err, ErrCancelled) {
		return
	}

	if errors.Is(err, context.Canceled) {
		color.New(color.FgYellow).Fprintf(out, "Interrupted: %v\n", err)
		fmt.Fprintln(out, "A transaction already sent may still land. Check the config account (ammconfig show) before retrying.")
		return
	}

	red := color.New(color.FgRed)
	kind := model.KindOf(err)
	if kind == "" {
		red.Fprintf(out, "Failed: %v\n", err)
	} else {
		red.Fprintf(out, "Failed [%s]: %v\n", kind, err)
	}

	if hint := hintFor(err); hint != "" {
		fmt.Fprintln(out, hint)
	}

	if logs := client.SimulationLogs(err); len(logs) > 0 {
		fmt.Fprintln(out, "Program logs:")
		for _, l := range logs {
			fmt.Fprintf(out, "  %s\n", l)
		}
	}
}

func hintFor(err error) string {
	switch model.ReasonOf(err) {
	case model.ReasonAlreadyInitialized:
		return "The config account already exists; use the fee update instead of initializing again."
	case model.ReasonNotInitialized:
		return "The config account does not exist yet; initialize it first."
	case model.ReasonInvalidFee:
		return "The program only accepts fees below 100%."
	}

	switch model.KindOf(err) {
	case model.KindNetworkUnreachable, model.KindTimeout:
		return "The transaction may still land. Check the config account (ammconfig show) before retrying."
	case model.KindUnauthorized:
		return "The loaded keypair is not the recorded owner of the config account."
	case model.KindInsufficientFunds:
		return "Fund the operator account to cover rent and transaction fees."
	case model.KindCredentialLoad:
		return "Check --keypair / AMM_KEYPAIR_PATH."
	case model.KindInvalidAddress, model.KindInvalidAmount:
		return "Too many invalid answers."
	}
	return ""
}
