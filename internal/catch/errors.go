package catch

import (
	"errors"
	"fmt"
)

// TableErrorCode categorizes misconfigured dispatch tables.
type TableErrorCode string

const (
	// ErrCodeDuplicateBinding indicates a name bound twice in one pattern.
	ErrCodeDuplicateBinding TableErrorCode = "E201"

	// ErrCodeMultipleRest indicates more than one rest capture in a sequence.
	ErrCodeMultipleRest TableErrorCode = "E202"

	// ErrCodeMisplacedRest indicates a rest marker outside a sequence.
	ErrCodeMisplacedRest TableErrorCode = "E203"

	// ErrCodeNilPattern indicates an arm or element without a pattern.
	ErrCodeNilPattern TableErrorCode = "E204"

	// ErrCodeNilHandler indicates an arm without a handler.
	ErrCodeNilHandler TableErrorCode = "E205"

	// ErrCodeInvalidTag indicates a zero or interface-typed TypeTag.
	// Payload dynamic types are always concrete, so such an arm could never fire.
	ErrCodeInvalidTag TableErrorCode = "E206"
)

// TableError reports an arm rejected by NewTable.
type TableError struct {
	Code    TableErrorCode
	Arm     int
	Label   string
	Message string
}

// Error implements the error interface.
func (e *TableError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("%s: arm %d (%s): %s", e.Code, e.Arm, e.Label, e.Message)
	}
	return fmt.Sprintf("%s: arm %d: %s", e.Code, e.Arm, e.Message)
}

// IsTableError returns true if err is or wraps a *TableError.
func IsTableError(err error) bool {
	var te *TableError
	return errors.As(err, &te)
}

// TableErrorCodeOf returns the code of a wrapped *TableError, or "".
func TableErrorCodeOf(err error) TableErrorCode {
	var te *TableError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}
