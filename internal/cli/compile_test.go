package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileCommand_Text(t *testing.T) {
	out, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), shopProgram)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Compiled shop: 6 function(s), 11 step(s), 1 flag(s)")
	assert.Contains(t, out, "  checkout (entry): 3 step(s)\n")
	assert.Contains(t, out, "  ledger: 1 step(s) [internal]\n")
}

func TestCompileCommand_JSON(t *testing.T) {
	out, err := execute(NewCompileCommand(&RootOptions{Format: "json"}), shopProgram)
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	require.Equal(t, "ok", resp["status"])
	data := resp["data"].(map[string]any)

	stats := data["stats"].(map[string]any)
	assert.Equal(t, float64(6), stats["functions"])
	assert.Equal(t, float64(1), stats["internal"])
	assert.Equal(t, float64(11), stats["steps"])

	prog := data["program"].(map[string]any)
	assert.Equal(t, "shop", prog["name"])
	assert.Equal(t, "shop.cue", prog["source"])
}

func TestCompileCommand_WritesOutputFile(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "shop.json")

	out, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), shopProgram, "-o", outFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote IR to "+outFile)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)

	var prog struct {
		Name      string `json:"name"`
		Entry     string `json:"entry"`
		Functions []struct {
			Name string `json:"name"`
			Body []struct {
				Op     string `json:"op"`
				Line   int    `json:"line"`
				Column int    `json:"column"`
			} `json:"body"`
		} `json:"functions"`
	}
	require.NoError(t, json.Unmarshal(data, &prog))
	assert.Equal(t, "checkout", prog.Entry)

	var ledgerThrow struct {
		Op     string
		Line   int
		Column int
	}
	for _, fn := range prog.Functions {
		if fn.Name == "ledger" {
			ledgerThrow.Op = fn.Body[0].Op
			ledgerThrow.Line = fn.Body[0].Line
			ledgerThrow.Column = fn.Body[0].Column
		}
	}
	assert.Equal(t, "throw", ledgerThrow.Op)
	assert.Equal(t, 30, ledgerThrow.Line)
	assert.Equal(t, 5, ledgerThrow.Column)
}

func TestCompileCommand_Errors(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		wantCode int
		wantOut  string
	}{
		{"missing file", "testdata/nope.cue", ExitCommandError, "Error [E005]"},
		{"compile error", badOpProgram, ExitCommandError, "Error [E101]"},
		{"invalid program", brokenProgram, ExitFailure, "✗ Validation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), tt.path)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, GetExitCode(err))
			assert.Contains(t, out, tt.wantOut)
		})
	}
}
