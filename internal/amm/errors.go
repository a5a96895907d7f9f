package amm

import (
	"encoding/json"
	"regexp"
	"strconv"

	"github.com/AlexZinkM/amm-config/internal/model"
)

// Program error codes surfaced by the admin instructions. 0 and 1 come from
// the system program during the config account allocation.
const (
	ErrCodeAccountAlreadyInUse   uint32 = 0
	ErrCodeInsufficientLamports  uint32 = 1
	ErrCodeConstraintHasOne      uint32 = 2001
	ErrCodeConstraintSigner      uint32 = 2002
	ErrCodeAccountNotInitialized uint32 = 3012
	ErrCodeInvalidFee            uint32 = 6000
)

type ProgramError struct {
	Code   uint32
	Name   string
	Kind   model.ErrorKind
	Reason model.Reason
}

var programErrors = map[uint32]ProgramError{
	ErrCodeAccountAlreadyInUse:   {ErrCodeAccountAlreadyInUse, "AccountAlreadyInUse", model.KindSimulationFailed, model.ReasonAlreadyInitialized},
	ErrCodeInsufficientLamports:  {ErrCodeInsufficientLamports, "ResultWithNegativeLamports", model.KindInsufficientFunds, model.ReasonNone},
	ErrCodeConstraintHasOne:      {ErrCodeConstraintHasOne, "ConstraintHasOne", model.KindUnauthorized, model.ReasonNone},
	ErrCodeConstraintSigner:      {ErrCodeConstraintSigner, "ConstraintSigner", model.KindUnauthorized, model.ReasonNone},
	ErrCodeAccountNotInitialized: {ErrCodeAccountNotInitialized, "AccountNotInitialized", model.KindSimulationFailed, model.ReasonNotInitialized},
	ErrCodeInvalidFee:            {ErrCodeInvalidFee, "InvalidFee", model.KindSimulationFailed, model.ReasonInvalidFee},
}

// LookupProgramError returns the known classification of a custom error code.
func LookupProgramError(code uint32) (ProgramError, bool) {
	pe, ok := programErrors[code]
	return pe, ok
}

var customCodeRe = regexp.MustCompile(`custom program error: 0x([0-9a-fA-F]+)`)

// CustomCodeFromMessage extracts the code from a node message such as
// "Error processing Instruction 0: custom program error: 0x7d1".
func CustomCodeFromMessage(msg string) (uint32, bool) {
	m := customCodeRe.FindStringSubmatch(msg)
	if m == nil {
		return 0, false
	}
	code, err := strconv.ParseUint(m[1], 16, 32)
	if err != nil {
		return 0, false
	}
	return uint32(code), true
}

// InstructionError is the decoded form of a transaction error shaped like
// {"InstructionError":[0,{"Custom":6000}]} or {"InstructionError":[0,"MissingRequiredSignature"]}.
// Name holds the top-level error for non-instruction failures such as "InsufficientFundsForFee".
type InstructionError struct {
	Index     int
	Custom    uint32
	HasCustom bool
	Name      string
}

// ParseTransactionError decodes the err value returned by the node in
// simulation data or signature statuses.
func ParseTransactionError(v interface{}) (InstructionError, bool) {
	switch e := v.(type) {
	case nil:
		return InstructionError{}, false
	case string:
		return InstructionError{Index: -1, Name: e}, true
	case map[string]interface{}:
		raw, ok := e["InstructionError"]
		if !ok {
			for name := range e {
				return InstructionError{Index: -1, Name: name}, true
			}
			return InstructionError{}, false
		}
		pair, ok := raw.([]interface{})
		if !ok || len(pair) != 2 {
			return InstructionError{}, false
		}
		out := InstructionError{Index: -1}
		if idx, ok := toUint(pair[0]); ok {
			out.Index = int(idx)
		}
		switch detail := pair[1].(type) {
		case string:
			out.Name = detail
		case map[string]interface{}:
			if c, ok := detail["Custom"]; ok {
				if code, ok := toUint(c); ok {
					out.Custom = uint32(code)
					out.HasCustom = true
				}
			}
			for name := range detail {
				out.Name = name
				break
			}
		}
		return out, true
	default:
		return InstructionError{}, false
	}
}

func toUint(v interface{}) (uint64, bool) {
	switch n := v.(type) {
	case json.Number:
		u, err := strconv.ParseUint(n.String(), 10, 32)
		return u, err == nil
	case float64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case int:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case uint64:
		return n, true
	default:
		return 0, false
	}
}
