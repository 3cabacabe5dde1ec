package github

import (
	"errors"
	"fmt"
	"time"
)

// AuthError indicates an invalid or expired credential (HTTP 401, or a 403
// that is not a rate limit).
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("github: authentication failed (%d): %s", e.StatusCode, e.Message)
}

// NotFoundError indicates the requested user does not exist.
type NotFoundError struct {
	User string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("github: user %q not found", e.User)
}

// TransientError indicates a rate limit, a server-side failure, or a
// network blip. Safe to retry; ResetAt is the rate-limit reset time when
// known, zero otherwise. No automatic retry is performed.
type TransientError struct {
	Err     error
	ResetAt time.Time
}

func (e *TransientError) Error() string {
	if !e.ResetAt.IsZero() {
		return fmt.Sprintf("github: transient failure (retry after %s): %v", e.ResetAt.Format(time.RFC3339), e.Err)
	}
	return fmt.Sprintf("github: transient failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsAuth reports whether err is a credential failure.
func IsAuth(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsNotFound reports whether err indicates an unknown user.
func IsNotFound(err error) bool {
	var nfErr *NotFoundError
	return errors.As(err, &nfErr)
}

// IsTransient reports whether err is safe to retry.
func IsTransient(err error) bool {
	var trErr *TransientError
	return errors.As(err, &trErr)
}
