package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCommand_ValidProgram(t *testing.T) {
	out, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), shopProgram)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Program shop valid")
	assert.Contains(t, out, "warning: function loop calls itself")
}

func TestValidateCommand_InvalidProgram(t *testing.T) {
	out, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), brokenProgram)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "validation failed with 3 error(s)")

	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, `E201: entry: entry function "start" is not defined`)
	assert.Contains(t, out, "line 10\n")
	assert.Contains(t, out, `E203: functions.main.body[0].target: unknown target "missing"`)
	assert.Contains(t, out, `E204: functions.main.body[1].flag: unknown flag "nope"`)
}

func TestValidateCommand_InvalidProgramJSON(t *testing.T) {
	out, err := execute(NewValidateCommand(&RootOptions{Format: "json"}), brokenProgram)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp["status"])
	assert.Equal(t, "E201", resp["error"].(map[string]any)["code"])

	data := resp["data"].(map[string]any)
	assert.Equal(t, false, data["valid"])
	assert.Equal(t, "broken", data["program"])

	var codes []string
	for _, e := range data["errors"].([]any) {
		codes = append(codes, e.(map[string]any)["code"].(string))
	}
	assert.Equal(t, []string{"E201", "E203", "E204"}, codes)
}

func TestValidateCommand_CompileErrorIsValidationFailure(t *testing.T) {
	out, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), badOpProgram)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, "line 7")
	assert.Contains(t, out, `E101: load: unsupported op "jump"`)
}

func TestValidateCommand_MissingFile(t *testing.T) {
	out, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), "testdata/nope.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]: program not found: testdata/nope.cue")
}

func TestValidateCommand_RequiresOneArg(t *testing.T) {
	_, err := execute(NewValidateCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
}
