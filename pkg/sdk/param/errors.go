package param

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidName is returned when a parameter name is empty
	ErrInvalidName = errors.New("invalid parameter name")
	// ErrNilValue is returned when a nil closure is set
	ErrNilValue = errors.New("nil parameter value")
	// ErrValuePanicked wraps the panic of a value closure evaluated at flatten time
	ErrValuePanicked = errors.New("parameter value panicked")
)

// EncodingError reports a parameter dropped from a hit because one of its
// values failed to evaluate or could not be encoded as its type
type EncodingError struct {
	Name string
	Type Type
	Err  error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("parameter %q (%s) dropped: %v", e.Name, e.Type, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}
