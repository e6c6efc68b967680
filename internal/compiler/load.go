package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/trycatch/internal/ir"
)

// LoadStage names the step of Load that failed.
type LoadStage string

const (
	StageNotFound LoadStage = "not_found"
	StageNoFiles  LoadStage = "no_files"
	StageLoad     LoadStage = "load"
	StageBuild    LoadStage = "build"
)

// LoadError wraps a failure to turn a path into a CUE value.
// Compile errors are returned as is, not as LoadError.
type LoadError struct {
	Stage LoadStage
	Path  string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Stage, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load compiles the tables found at path. A directory is loaded as one
// CUE instance from its top-level .cue files; a file is loaded alone.
func Load(path string) ([]ir.TableSpec, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &LoadError{Stage: StageNotFound, Path: path, Err: err}
	}

	dir, args := path, []string{"."}
	if info.IsDir() {
		files, err := CUEFiles(path)
		if err != nil {
			return nil, &LoadError{Stage: StageNotFound, Path: path, Err: err}
		}
		if len(files) == 0 {
			return nil, &LoadError{Stage: StageNoFiles, Path: path, Err: fmt.Errorf("no .cue files")}
		}
	} else {
		if filepath.Ext(path) != ".cue" {
			return nil, &LoadError{Stage: StageNoFiles, Path: path, Err: fmt.Errorf("not a .cue file")}
		}
		dir = filepath.Dir(path)
		args = []string{"./" + filepath.Base(path)}
	}

	instances := load.Instances(args, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Stage: StageLoad, Path: path, Err: fmt.Errorf("no CUE instances loaded")}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Stage: StageLoad, Path: path, Err: inst.Err}
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Stage: StageBuild, Path: path, Err: formatCUEError(err)}
	}
	return CompileTables(value)
}

// CUEFiles lists the .cue files directly inside dir, sorted by name.
func CUEFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".cue" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

// LoadTable loads path and returns the table called name.
func LoadTable(path, name string) (*ir.TableSpec, error) {
	specs, err := Load(path)
	if err != nil {
		return nil, err
	}
	for i := range specs {
		if specs[i].Name == name {
			return &specs[i], nil
		}
	}
	return nil, fmt.Errorf("table %q not found in %s", name, path)
}
