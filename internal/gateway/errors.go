package gateway

import (
	"errors"
	"sort"
	"strings"

	"github.com/BIGM16/Ecole-desExcellents/internal/policy"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrDuplicate is returned by stores when a unique key already exists.
	ErrDuplicate = errors.New("duplicate")
)

// NonFieldErrors is the key for messages not tied to one request field.
const NonFieldErrors = "non_field_errors"

// ValidationError reports every rejected field of a write at once.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

func (e *ValidationError) Add(field, message string) {
	if field == "" {
		field = NonFieldErrors
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// Merge folds policy constraint violations into the report.
func (e *ValidationError) Merge(violations policy.Violations) {
	for field, messages := range violations {
		for _, message := range messages {
			e.Add(field, message)
		}
	}
}

func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// Err returns nil when nothing was rejected.
func (e *ValidationError) Err() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// AsValidation unwraps a ValidationError from err.
func AsValidation(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
