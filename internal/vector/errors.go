package vector

import "fmt"

// Kind classifies retrieval errors so callers can decide between retrying,
// degrading, and failing the request.
type Kind string

const (
	// KindNotLoaded means the index was queried before being populated.
	// Recoverable: load and retry. Never retried automatically.
	KindNotLoaded Kind = "not_loaded"
	// KindDimensionMismatch means a vector's length disagrees with the index
	// dimension. A configuration or model-mismatch bug; do not retry.
	KindDimensionMismatch Kind = "dimension_mismatch"
	// KindInvalidTopK means the caller-supplied top-k is out of contract.
	KindInvalidTopK Kind = "invalid_top_k"
	// KindInvalidConfiguration means a mode or backend discriminant is unknown.
	KindInvalidConfiguration Kind = "invalid_configuration"
	// KindIndexUnavailable means the remote backend is unreachable or errored.
	// Retry with backoff or degrade; that policy belongs to the caller.
	KindIndexUnavailable Kind = "index_unavailable"
)

// Error is a retrieval error with a Kind. errors.Is matches two *Error values
// by Kind, so the sentinels below work as targets regardless of wrapping.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewError creates an Error with the given kind, message, and wrapped cause.
func NewError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Sentinel targets for errors.Is.
var (
	ErrNotLoaded            = &Error{Kind: KindNotLoaded, Message: "index not loaded"}
	ErrDimensionMismatch    = &Error{Kind: KindDimensionMismatch, Message: "vector dimension mismatch"}
	ErrInvalidTopK          = &Error{Kind: KindInvalidTopK, Message: "top_k must be at least 1"}
	ErrInvalidConfiguration = &Error{Kind: KindInvalidConfiguration, Message: "invalid configuration"}
	ErrIndexUnavailable     = &Error{Kind: KindIndexUnavailable, Message: "index unavailable"}
)
