package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loadSource = `package demo

program: {
	name: "demo"
	functions: main: body: [
		{op: "return", line: 1, value: 7},
	]
}
`

func TestLoadProgram_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.cue")
	require.NoError(t, os.WriteFile(path, []byte(loadSource), 0o644))

	prog, err := LoadProgram(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", prog.Name)
	assert.Equal(t, "demo.cue", prog.Source)
}

func TestLoadProgram_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "demo.cue"), []byte(loadSource), 0o644))

	prog, err := LoadProgram(dir)
	require.NoError(t, err)
	assert.Equal(t, "demo", prog.Name)
	require.Len(t, prog.Functions, 1)
}

func TestLoadProgram_Missing(t *testing.T) {
	_, err := LoadProgram(filepath.Join(t.TempDir(), "nope.cue"))
	assert.Error(t, err)
}

func TestLoadProgram_SyntaxError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.cue")
	require.NoError(t, os.WriteFile(path, []byte("program: {"), 0o644))

	_, err := LoadProgram(path)
	require.Error(t, err)

	var ce *CompileError
	if assert.ErrorAs(t, err, &ce) {
		assert.Equal(t, "cue", ce.Field)
	}
}
