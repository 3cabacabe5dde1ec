package gemini

import (
	"errors"
	"fmt"
)

// CategorizationError indicates the model call failed or its response
// could not be turned into category assignments.
type CategorizationError struct {
	Detail string
	Err    error
}

func (e *CategorizationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gemini: %s: %v", e.Detail, e.Err)
	}
	return fmt.Sprintf("gemini: %s", e.Detail)
}

func (e *CategorizationError) Unwrap() error { return e.Err }

// IsCategorization reports whether err is a CategorizationError.
func IsCategorization(err error) bool {
	var ce *CategorizationError
	return errors.As(err, &ce)
}
