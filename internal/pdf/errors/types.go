package errors

import (
	stderrors "errors"
	"fmt"
)

// Op names the engine operation an error was raised from
type Op string

const (
	OpLoad     Op = "load"
	OpMerge    Op = "merge"
	OpSplit    Op = "split"
	OpCompress Op = "compress"
	OpScan     Op = "scan"
	OpRedact   Op = "redact"
	OpInspect  Op = "inspect"
	OpSave     Op = "save"
)

// Kind represents the category of an engine failure
type Kind int

const (
	KindUnknown Kind = iota
	KindCorrupt
	KindProtected
	KindEmptyDocument
	KindInsufficientInput
	KindInvalidRange
	KindUnsupportedMode
	KindInvalidOptions
	KindSerialize
)

// String returns a string representation of the Kind
func (k Kind) String() string {
	switch k {
	case KindCorrupt:
		return "CORRUPT"
	case KindProtected:
		return "PROTECTED"
	case KindEmptyDocument:
		return "EMPTY_DOCUMENT"
	case KindInsufficientInput:
		return "INSUFFICIENT_INPUT"
	case KindInvalidRange:
		return "INVALID_RANGE"
	case KindUnsupportedMode:
		return "UNSUPPORTED_MODE"
	case KindInvalidOptions:
		return "INVALID_OPTIONS"
	case KindSerialize:
		return "SERIALIZE"
	default:
		return "UNKNOWN"
	}
}

// Error lets a Kind be used directly as an errors.Is target.
func (k Kind) Error() string {
	return k.String()
}

// EngineError is the error type returned by every engine operation
type EngineError struct {
	Op      Op     `json:"op"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *EngineError) Error() string {
	msg := fmt.Sprintf("%s: [%s] %s", e.Op, e.Kind, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *EngineError) Unwrap() error {
	return e.Err
}

// Is reports whether target is this error's Kind.
func (e *EngineError) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// New creates an EngineError without an underlying cause
func New(op Op, kind Kind, format string, args ...any) *EngineError {
	return &EngineError{
		Op:      op,
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates an EngineError around err
func Wrap(op Op, kind Kind, err error, format string, args ...any) *EngineError {
	return &EngineError{
		Op:      op,
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// Rewrap re-tags an error raised by a lower stage (usually loading) with the
// operation that triggered it, keeping the original Kind.
func Rewrap(op Op, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return Wrap(op, KindOf(err), err, format, args...)
}

// KindOf returns the Kind of the first EngineError in err's chain
func KindOf(err error) Kind {
	var engineErr *EngineError
	if stderrors.As(err, &engineErr) {
		return engineErr.Kind
	}
	return KindUnknown
}

// OpOf returns the Op of the outermost EngineError in err's chain
func OpOf(err error) Op {
	var engineErr *EngineError
	if stderrors.As(err, &engineErr) {
		return engineErr.Op
	}
	return ""
}

// IsUserError reports whether the failure was caused by the caller's input
// rather than by the document itself.
func (k Kind) IsUserError() bool {
	switch k {
	case KindInsufficientInput, KindInvalidRange, KindUnsupportedMode, KindInvalidOptions:
		return true
	default:
		return false
	}
}
