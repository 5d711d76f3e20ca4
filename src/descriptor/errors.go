package descriptor

import (
	"fmt"
	"strings"
)

// ValidationError reports why a single manifest field was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ValidationErrors is every violation found in one manifest, in field order.
// errors.As(err, &*ValidationError) yields the first one.
type ValidationErrors []*ValidationError

func (es ValidationErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes the individual violations to errors.Is and errors.As.
func (es ValidationErrors) Unwrap() []error {
	errs := make([]error, len(es))
	for i, e := range es {
		errs[i] = e
	}
	return errs
}

// Fields returns the rejected field names, in order.
func (es ValidationErrors) Fields() []string {
	fields := make([]string, len(es))
	for i, e := range es {
		fields[i] = e.Field
	}
	return fields
}

// For returns the first violation on field, or nil.
func (es ValidationErrors) For(field string) *ValidationError {
	for _, e := range es {
		if e.Field == field {
			return e
		}
	}
	return nil
}
