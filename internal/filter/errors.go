package filter

import (
	"errors"
	"fmt"

	"github.com/rebeliceyang/lazycrm/internal/models"
)

var (
	// ErrUnknownField is returned for rules whose field is not in the catalog
	ErrUnknownField = errors.New("unknown field")
	// ErrTooManyCandidates is returned when a rule lists more values than allowed
	ErrTooManyCandidates = errors.New("too many candidate values")

	ErrUnsupportedOperator  = models.ErrUnsupportedOperator
	ErrInvalidValue         = models.ErrInvalidValue
	ErrUnsupportedCondition = models.ErrUnsupportedCondition
)

// ValidationError reports a rule that cannot be evaluated.
// Filtering aborts instead of ignoring the rule.
type ValidationError struct {
	RuleID string
	Field  string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid filter: %v", e.Err)
	}
	return fmt.Sprintf("invalid rule on %q: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(r models.Rule, err error) error {
	return &ValidationError{RuleID: r.ID, Field: r.Field, Err: err}
}

// IsValidation reports whether err is a classification or validation error
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
