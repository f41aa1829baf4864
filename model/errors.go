package model

import (
	"errors"
	"fmt"
)

// ErrorCode enumerates the solver's error taxonomy. Every fatal
// condition the core can raise maps to exactly one of these.
type ErrorCode string

const (
	ErrCodeAlloc         ErrorCode = "ALLOC"
	ErrCodeInvalidRate   ErrorCode = "INVALID_RATE"
	ErrCodeNegativeState ErrorCode = "NEGATIVE_STATE"
	ErrCodeInvalidEvent  ErrorCode = "INVALID_EVENT"
	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"
)

// Sentinel base errors, one per code, so callers can use errors.Is without
// depending on a specific node/transition's wrapped message.
var (
	ErrAlloc         = errors.New("alloc")
	ErrInvalidRate   = errors.New("invalid rate")
	ErrNegativeState = errors.New("negative state")
	ErrInvalidEvent  = errors.New("invalid event")
	ErrInvalidInput  = errors.New("invalid input")
)

var codeToSentinel = map[ErrorCode]error{
	ErrCodeAlloc:         ErrAlloc,
	ErrCodeInvalidRate:   ErrInvalidRate,
	ErrCodeNegativeState: ErrNegativeState,
	ErrCodeInvalidEvent:  ErrInvalidEvent,
	ErrCodeInvalidInput:  ErrInvalidInput,
}

// SolverError is a fatal, latched error raised by a worker. It carries
// enough context (which node, which transition or event) for the host to
// report a useful diagnostic, while still satisfying errors.Is against the
// matching sentinel.
type SolverError struct {
	Code       ErrorCode
	Node       int // -1 if not node-specific
	Transition int // -1 if not transition-specific
	Msg        string
}

func (e *SolverError) Error() string {
	switch {
	case e.Node >= 0 && e.Transition >= 0:
		return fmt.Sprintf("%s: node %d, transition %d: %s", e.Code, e.Node, e.Transition, e.Msg)
	case e.Node >= 0:
		return fmt.Sprintf("%s: node %d: %s", e.Code, e.Node, e.Msg)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Msg)
	}
}

func (e *SolverError) Unwrap() error {
	return codeToSentinel[e.Code]
}

// NewSolverError constructs a SolverError for a node/transition-independent
// failure (allocation, malformed input shapes).
func NewSolverError(code ErrorCode, msg string) *SolverError {
	return &SolverError{Code: code, Node: -1, Transition: -1, Msg: msg}
}

// NewNodeError constructs a SolverError attributed to a specific node.
func NewNodeError(code ErrorCode, node int, msg string) *SolverError {
	return &SolverError{Code: code, Node: node, Transition: -1, Msg: msg}
}

// NewTransitionError constructs a SolverError attributed to a specific node
// and transition.
func NewTransitionError(code ErrorCode, node, transition int, msg string) *SolverError {
	return &SolverError{Code: code, Node: node, Transition: transition, Msg: msg}
}

// ExitCode maps a SolverError (or any error wrapping one of the sentinels
// above) onto a small positive integer: Run returns 0 on success and a
// distinct non-zero code per failure class. Errors that don't match any
// known sentinel map to a generic non-zero code so the caller can still
// distinguish success from failure.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch {
	case errors.Is(err, ErrAlloc):
		return 1
	case errors.Is(err, ErrInvalidRate):
		return 2
	case errors.Is(err, ErrNegativeState):
		return 3
	case errors.Is(err, ErrInvalidEvent):
		return 4
	case errors.Is(err, ErrInvalidInput):
		return 5
	default:
		return 255
	}
}
