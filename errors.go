package portfolio

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound reports a stale id reference (update/delete of a row that no
// longer exists).
var ErrNotFound = errors.New("not found")

// ValidationError reports bad transaction fields. It is local, surfaced to the
// caller and never retried automatically.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "invalid transaction: " + strings.Join(e.Violations, "; ")
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ProviderError reports a failed quote fetch for one symbol. Always isolated:
// logged and recorded in the refresh outcome, never fatal for the batch.
type ProviderError struct {
	Symbol   string
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: fetching %s: %v", e.Provider, e.Symbol, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
