package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AlexZinkM/amm-config/internal/amm"
	"github.com/AlexZinkM/amm-config/internal/model"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

// JSON-RPC server error codes the node uses for conditions outside the program.
const (
	rpcCodeNodeUnhealthy  = -32005
	rpcCodeRequestTimeout = -32009
)

// NodeError is a JSON-RPC error returned by the node, trimmed to what an
// operator needs to read.
type NodeError struct {
	Code    int
	Message string
	Logs    []string
	rpcErr  *jsonrpc.RPCError
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node rejected request (%d): %s", e.Code, e.Message)
}

func (e *NodeError) Unwrap() error {
	return e.rpcErr
}

// SimulationLogs returns the program logs attached to a preflight failure, if any.
func SimulationLogs(err error) []string {
	var ne *NodeError
	if errors.As(err, &ne) {
		return ne.Logs
	}
	return nil
}

// classify tags a raw RPC failure with the error kind the operator sees.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var tagged *model.Error
	if errors.As(err, &tagged) {
		return err
	}

	// cancelled by the caller, not a network fault
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return model.NewError(model.KindTimeout, op, err)
	}

	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		return classifyRPCError(op, rpcErr)
	}

	// transport failures and HTTP errors without a JSON-RPC body
	return model.NewError(model.KindNetworkUnreachable, op, err)
}

func classifyRPCError(op string, rpcErr *jsonrpc.RPCError) error {
	ne := &NodeError{Code: rpcErr.Code, Message: rpcErr.Message, rpcErr: rpcErr}

	var txErr interface{}
	if data, ok := rpcErr.Data.(map[string]interface{}); ok {
		txErr = data["err"]
		if logs, ok := data["logs"].([]interface{}); ok {
			for _, l := range logs {
				if s, ok := l.(string); ok {
					ne.Logs = append(ne.Logs, s)
				}
			}
		}
	}

	if rpcErr.Code == rpcCodeNodeUnhealthy {
		return model.NewError(model.KindNetworkUnreachable, op, ne)
	}
	if rpcErr.Code == rpcCodeRequestTimeout {
		return model.NewError(model.KindTimeout, op, ne)
	}

	if kind, reason, ok := classifyTransactionError(txErr); ok {
		return &model.Error{Kind: kind, Reason: reason, Op: op, Err: ne}
	}

	text := rpcErr.Message + "\n" + strings.Join(ne.Logs, "\n")
	if code, ok := amm.CustomCodeFromMessage(text); ok {
		if pe, ok := amm.LookupProgramError(code); ok {
			return &model.Error{Kind: pe.Kind, Reason: pe.Reason, Op: op, Err: ne}
		}
	}
	if kind, reason, ok := classifyText(text); ok {
		return &model.Error{Kind: kind, Reason: reason, Op: op, Err: ne}
	}

	return model.NewError(model.KindSimulationFailed, op, ne)
}

// transactionFailure tags the err value of a signature status.
func transactionFailure(op string, txErr interface{}) error {
	cause := fmt.Errorf("transaction failed: %v", txErr)
	if kind, reason, ok := classifyTransactionError(txErr); ok {
		return &model.Error{Kind: kind, Reason: reason, Op: op, Err: cause}
	}
	return model.NewError(model.KindSimulationFailed, op, cause)
}

func classifyTransactionError(txErr interface{}) (model.ErrorKind, model.Reason, bool) {
	ie, ok := amm.ParseTransactionError(txErr)
	if !ok {
		return "", model.ReasonNone, false
	}
	if ie.HasCustom {
		if pe, ok := amm.LookupProgramError(ie.Custom); ok {
			return pe.Kind, pe.Reason, true
		}
		return model.KindSimulationFailed, model.ReasonNone, true
	}

	switch ie.Name {
	case "MissingRequiredSignature", "SignatureFailure":
		return model.KindUnauthorized, model.ReasonNone, true
	case "InsufficientFundsForFee", "InsufficientFundsForRent", "AccountNotFound", "InsufficientFunds":
		return model.KindInsufficientFunds, model.ReasonNone, true
	case "AccountAlreadyInitialized":
		return model.KindSimulationFailed, model.ReasonAlreadyInitialized, true
	}
	return "", model.ReasonNone, false
}

func classifyText(text string) (model.ErrorKind, model.Reason, bool) {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "already in use"):
		return model.KindSimulationFailed, model.ReasonAlreadyInitialized, true
	case strings.Contains(lower, "insufficient funds"),
		strings.Contains(lower, "insufficient lamports"),
		strings.Contains(lower, "no record of a prior credit"):
		return model.KindInsufficientFunds, model.ReasonNone, true
	case strings.Contains(lower, "signature verification failure"),
		strings.Contains(lower, "missing required signature"):
		return model.KindUnauthorized, model.ReasonNone, true
	}
	return "", model.ReasonNone, false
}
