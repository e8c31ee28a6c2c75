package domain

import (
	"errors"
	"fmt"
)

// Category sentinels. Wrap with NewDomainError / WrapOp to add op context.
var (
	ErrNotFound     = fmt.Errorf("not found")
	ErrDuplicate    = fmt.Errorf("duplicate")
	ErrTimeout      = fmt.Errorf("operation timed out")
	ErrInvalidInput = fmt.Errorf("invalid input")
	ErrRateLimited  = fmt.Errorf("rate limit exceeded")
)

// Subsystem sentinels.
var (
	ErrToolNotFound   = fmt.Errorf("tool not found")
	ErrAgentNotFound  = fmt.Errorf("agent not registered")
	ErrMaxIterations  = fmt.Errorf("agent reached max iterations")
	ErrProviderAuth   = fmt.Errorf("provider authentication failed")
	ErrProviderQuota  = fmt.Errorf("provider quota exhausted")
	ErrProviderError  = fmt.Errorf("provider error")
	ErrNoCredentials  = fmt.Errorf("provider credentials missing")
	ErrStreamClosed   = fmt.Errorf("stream sink closed")
	ErrClassifyFailed = fmt.Errorf("intent classification failed")
)

// IsFatalProviderError reports whether err indicates an upstream provider
// failure that must not be retried (missing credentials, auth, quota).
func IsFatalProviderError(err error) bool {
	return errors.Is(err, ErrNoCredentials) ||
		errors.Is(err, ErrProviderAuth) ||
		errors.Is(err, ErrProviderQuota)
}

// DomainError wraps a sentinel error with operation context.
type DomainError struct {
	Op     string // operation name (e.g. "Executor.Execute")
	Err    error  // underlying sentinel or wrapped error
	Detail string // human-readable detail
}

func (e *DomainError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError creates a new DomainError.
func NewDomainError(op string, err error, detail string) *DomainError {
	return &DomainError{Op: op, Err: err, Detail: detail}
}

// WrapOp adds operation context to an error. Returns nil if err is nil,
// enabling idiomatic use: return domain.WrapOp("op", err)
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
