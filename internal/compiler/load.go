package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/assume/internal/ir"
)

// ProgramPath is the CUE path holding the program struct.
const ProgramPath = "program"

// LoadProgram loads and compiles a program from a .cue file or from a
// directory holding a CUE package.
func LoadProgram(path string) (*ir.Program, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("load program: %w", err)
	}

	var value cue.Value
	if info.IsDir() {
		value, err = buildDir(path)
	} else {
		value, err = buildFile(path)
	}
	if err != nil {
		return nil, err
	}

	return CompileProgram(value.LookupPath(cue.ParsePath(ProgramPath)))
}

func buildFile(path string) (cue.Value, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return cue.Value{}, fmt.Errorf("load program: %w", err)
	}

	v := cuecontext.New().CompileBytes(src, cue.Filename(filepath.Base(path)))
	if err := v.Err(); err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	return v, nil
}

func buildDir(dir string) (cue.Value, error) {
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return cue.Value{}, fmt.Errorf("load program: no CUE instances in %s", dir)
	}

	inst := instances[0]
	if inst.Err != nil {
		return cue.Value{}, fmt.Errorf("load program: %w", inst.Err)
	}

	v := cuecontext.New().BuildInstance(inst)
	if err := v.Err(); err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	return v, nil
}
