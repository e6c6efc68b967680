package cli

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"

	"github.com/roach88/trycatch/internal/compiler"
	"github.com/roach88/trycatch/internal/ir"
	"github.com/roach88/trycatch/internal/lower"
)

// Error code constants shared by all commands. Validation codes (E1xx)
// come from the compiler and table codes (E2xx) from package catch.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeNoFiles       = "E003" // No CUE files found
	ErrCodeLoadFailed    = "E004" // CUE load failed
	ErrCodeNotFound      = "E005" // Path not found
	ErrCodeBuildFailed   = "E006" // CUE build failed
	ErrCodeWriteFailed   = "E007" // File write error
	ErrCodeCompileFailed = "E008" // Table does not match the CUE format
	ErrCodeNoTable       = "E009" // Named table not found
	ErrCodeBadInput      = "E010" // Payload or result flag could not be decoded
)

// LoadError is a failure to load tables, with a CLI error code.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadTables loads and compiles the tables at path. Only the first error
// is reported: compilation stops at it.
func LoadTables(path string) ([]ir.TableSpec, *LoadError) {
	specs, err := compiler.Load(path)
	if err != nil {
		return nil, convertLoadError(err)
	}
	if len(specs) == 0 {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("no tables found in %s", path)}
	}
	return specs, nil
}

// LoadProgram loads path, checks the named table and lowers it.
// Validation failures are a LoadError carrying the first validation code.
func LoadProgram(path, table string) (*lower.Program, *LoadError) {
	specs, loadErr := LoadTables(path)
	if loadErr != nil {
		return nil, loadErr
	}

	var spec *ir.TableSpec
	for i := range specs {
		if specs[i].Name == table {
			spec = &specs[i]
			break
		}
	}
	if spec == nil {
		return nil, &LoadError{Code: ErrCodeNoTable, Message: fmt.Sprintf("table %q not found in %s", table, path)}
	}

	if errs := compiler.Validate(spec); len(errs) > 0 {
		return nil, &LoadError{Code: errs[0].Code, Message: fmt.Sprintf("table %q: %s (%d error(s))", table, errs[0].Message, len(errs))}
	}
	prog, err := lower.Lower(*spec)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
	}
	return prog, nil
}

func convertLoadError(err error) *LoadError {
	var le *compiler.LoadError
	if errors.As(err, &le) {
		out := &LoadError{Code: stageCode(le.Stage), Message: le.Error()}
		var ce *compiler.CompileError
		if errors.As(le.Err, &ce) {
			out.Message = ce.Message
			out.Pos = ce.Pos
		}
		return out
	}
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		return &LoadError{Code: ErrCodeCompileFailed, Message: fmt.Sprintf("%s: %s", ce.Field, ce.Message), Pos: ce.Pos}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
}

func stageCode(stage compiler.LoadStage) string {
	switch stage {
	case compiler.StageNotFound:
		return ErrCodeNotFound
	case compiler.StageNoFiles:
		return ErrCodeNoFiles
	case compiler.StageLoad:
		return ErrCodeLoadFailed
	case compiler.StageBuild:
		return ErrCodeBuildFailed
	default:
		return ErrCodeGeneric
	}
}
