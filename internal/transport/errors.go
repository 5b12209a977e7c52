package transport

import (
	"errors"
	"fmt"

	"github.com/camdeck/camdeck/internal/alerts"
)

// QueryError indicates a tier fetch failed. Already-merged pages stay valid;
// retrying is the caller's decision.
type QueryError struct {
	Tier alerts.Severity
	Err  error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query for tier %s failed: %v", e.Tier, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// ConflictError indicates the backend rejected a mutation because another
// actor changed the alert since the client observed it. Conflicts are never
// retried automatically; the operator must re-observe and re-decide.
type ConflictError struct {
	AlertID         string
	ObservedVersion int64
	ServerVersion   int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict on alert %s: observed %d, server has %d",
		e.AlertID, e.ObservedVersion, e.ServerVersion)
}

// NetworkError indicates a transient transport failure on a mutation. The
// caller may re-dispatch.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ValidationError indicates a malformed push message. The message is dropped
// without touching state.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid push message: %s", e.Reason)
}

// IsConflict reports whether err is (or wraps) a version conflict.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
