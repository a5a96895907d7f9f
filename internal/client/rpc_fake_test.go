package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcResponse struct {
	JSONRPC string            `json:"jsonrpc"`
	Result  any               `json:"result,omitempty"`
	Error   *jsonrpc.RPCError `json:"error,omitempty"`
	ID      json.RawMessage   `json:"id"`
}

type rpcHandler func(params []json.RawMessage) (any, *jsonrpc.RPCError)

// fakeNode is a minimal JSON-RPC node answering the methods a test registers.
type fakeNode struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	handlers map[string]rpcHandler
	calls    map[string][][]json.RawMessage
}

func newFakeNode(t *testing.T) *fakeNode {
	t.Helper()

	n := &fakeNode{
		t:        t,
		handlers: make(map[string]rpcHandler),
		calls:    make(map[string][][]json.RawMessage),
	}
	n.server = httptest.NewServer(http.HandlerFunc(n.serveHTTP))
	t.Cleanup(n.server.Close)

	n.handle("getLatestBlockhash", func([]json.RawMessage) (any, *jsonrpc.RPCError) {
		return map[string]any{
			"context": map[string]any{"slot": 1},
			"value": map[string]any{
				"blockhash":            solana.NewWallet().PublicKey().String(),
				"lastValidBlockHeight": 150,
			},
		}, nil
	})
	return n
}

func (n *fakeNode) URL() string {
	return n.server.URL
}

func (n *fakeNode) handle(method string, h rpcHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[method] = h
}

func (n *fakeNode) callCount(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls[method])
}

func (n *fakeNode) lastParams(method string) []json.RawMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	calls := n.calls[method]
	if len(calls) == 0 {
		return nil
	}
	return calls[len(calls)-1]
}

func (n *fakeNode) serveHTTP(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	n.calls[req.Method] = append(n.calls[req.Method], req.Params)
	h, ok := n.handlers[req.Method]
	n.mu.Unlock()

	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}
	if !ok {
		resp.Error = &jsonrpc.RPCError{Code: -32601, Message: "Method not found"}
	} else {
		resp.Result, resp.Error = h(req.Params)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// sendReturnsSignature answers sendTransaction with the first signature of the submitted transaction.
func sendReturnsSignature(params []json.RawMessage) (any, *jsonrpc.RPCError) {
	var encoded string
	if err := json.Unmarshal(params[0], &encoded); err != nil {
		return nil, &jsonrpc.RPCError{Code: -32602, Message: err.Error()}
	}
	tx, err := solana.TransactionFromBase64(encoded)
	if err != nil {
		return nil, &jsonrpc.RPCError{Code: -32602, Message: err.Error()}
	}
	return tx.Signatures[0].String(), nil
}

func statusResult(status any) (any, *jsonrpc.RPCError) {
	return map[string]any{
		"context": map[string]any{"slot": 1},
		"value":   []any{status},
	}, nil
}

func simulationFailure(message string, txErr any, logs ...string) *jsonrpc.RPCError {
	return &jsonrpc.RPCError{
		Code:    -32002,
		Message: message,
		Data: map[string]any{
			"err":  txErr,
			"logs": logs,
		},
	}
}
