package lower

import (
	"errors"
	"fmt"
)

// LowerError reports a table that is valid IR but cannot be executed.
type LowerError struct {
	Arm     int // -1 when not specific to an arm
	Field   string
	Message string
}

func (e *LowerError) Error() string {
	if e.Arm >= 0 && e.Field != "" {
		return fmt.Sprintf("arm %d: %s: %s", e.Arm, e.Field, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// IsLowerError reports whether err is or wraps a *LowerError.
func IsLowerError(err error) bool {
	var le *LowerError
	return errors.As(err, &le)
}

// atArm returns err attributed to arm i when it is a *LowerError.
func atArm(i int, field string, err error) error {
	var le *LowerError
	if errors.As(err, &le) {
		return &LowerError{Arm: i, Field: field, Message: le.Message}
	}
	return &LowerError{Arm: i, Field: field, Message: err.Error()}
}

// FormatError is the panic payload of a format handler whose template
// failed to execute.
type FormatError struct {
	Label string
	Err   error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format handler %s: %v", e.Label, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
