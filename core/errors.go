package core

import "errors"

// ValidationError reports caller input that cannot be accepted.
// The store is left untouched whenever one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

var (
	ErrInvalidName  = &ValidationError{Field: "name", Reason: "Name must be between 2 and 20 characters"}
	ErrInvalidScore = &ValidationError{Field: "score", Reason: "Score must be a non-negative number"}
	// ErrScoreTooLarge rejects scores above MaxScore.
	ErrScoreTooLarge = &ValidationError{Field: "score", Reason: "Score must not exceed 9007199254740991"}

	// ErrClearForbidden is returned when the deployment policy disallows clearing.
	ErrClearForbidden = errors.New("clearing the leaderboard is not allowed in this environment")
)

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
