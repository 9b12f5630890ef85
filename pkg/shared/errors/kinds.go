package errors

import "errors"

// Kind classifies a failure the way spec §7 enumerates them, so callers can
// branch on errors.Is(err, ErrX) instead of string matching.
type Kind error

var (
	ErrStore       Kind = errors.New("store error")
	ErrNotFound    Kind = errors.New("not found")
	ErrEmbedding   Kind = errors.New("embedding error")
	ErrLlmTimeout  Kind = errors.New("llm timeout")
	ErrLlmProvider Kind = errors.New("llm provider error")
	ErrParse       Kind = errors.New("parse error")
	ErrValidation  Kind = errors.New("validation error")
	ErrTask        Kind = errors.New("task error")
)

// kindError pairs a Kind with a human-readable detail while remaining
// errors.Is-compatible with the Kind sentinel via Unwrap.
type kindError struct {
	kind   Kind
	detail string
	cause  error
}

func (e *kindError) Error() string {
	if e.cause != nil {
		return e.detail + ": " + e.cause.Error()
	}
	return e.detail
}

func (e *kindError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.kind, e.cause}
	}
	return []error{e.kind}
}

// WithKind annotates cause with a spec error Kind so errors.Is(err, kind) works
// up the call stack regardless of how many times it gets wrapped further.
func WithKind(kind Kind, detail string, cause error) error {
	return &kindError{kind: kind, detail: detail, cause: cause}
}
