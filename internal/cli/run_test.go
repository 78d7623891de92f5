package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/assume/internal/engine"
	"github.com/roach88/assume/internal/ir"
	"github.com/roach88/assume/internal/store"
)

func newTestRunCommand(format string, threadIDs ...string) *cobra.Command {
	if len(threadIDs) == 0 {
		threadIDs = []string{"t-1"}
	}
	return newRunCommand(&RunOptions{
		RootOptions: &RootOptions{Format: format},
		ThreadIDs:   engine.NewFixedGenerator(threadIDs...),
	})
}

func TestRunCommand_Success(t *testing.T) {
	out, err := execute(newTestRunCommand("text"), shopProgram)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ shop.checkout returned 99\n  thread: t-1\n")
	assert.Contains(t, out, "warning: function loop calls itself")
	assert.NotContains(t, out, "respecialized")
}

func TestRunCommand_SuccessJSON(t *testing.T) {
	out, err := execute(newTestRunCommand("json"), shopProgram)
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	require.Equal(t, "ok", resp["status"])
	data := resp["data"].(map[string]any)
	assert.Equal(t, "shop", data["program"])
	assert.Equal(t, "t-1", data["thread_id"])
	assert.Equal(t, "checkout", data["entry"])
	assert.Equal(t, float64(99), data["result"])
	assert.NotContains(t, data, "error")
}

func TestRunCommand_GuestFailurePrintsCapture(t *testing.T) {
	out, err := execute(newTestRunCommand("text"), shopProgram, "--entry", "refund")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, "✗ shop.refund failed [GUEST_FAILURE]: ledger closed\n")
	assert.Contains(t, out,
		"    at ledger (shop.cue:30:5) [internal]\n"+
			"    at refund (shop.cue:20)\n")
}

func TestRunCommand_GuestFailureJSON(t *testing.T) {
	out, err := execute(newTestRunCommand("json"), shopProgram, "--entry", "refund")
	require.Error(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp["status"])
	assert.Equal(t, map[string]any{"code": "GUEST_FAILURE", "message": "ledger closed"}, resp["error"])

	data := resp["data"].(map[string]any)
	assert.Equal(t, true, data["captured"])
	assert.Equal(t, []any{
		map[string]any{"target": "ledger", "location": "shop.cue:30:5", "internal": true},
		map[string]any{"target": "refund", "location": "shop.cue:20"},
	}, data["frames"])
}

func TestRunCommand_StackOverflow(t *testing.T) {
	out, err := execute(newTestRunCommand("text"), shopProgram, "--entry", "loop", "--max-depth", "3")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out,
		"[STACK_OVERFLOW]: thread t-1: stack overflow calling loop: depth 3 reached limit 3")
	assert.Equal(t, 3, strings.Count(out, "    at loop (shop.cue:50)\n"))
}

func TestRunCommand_Respecialization(t *testing.T) {
	out, err := execute(newTestRunCommand("text"), shopProgram, "--entry", "restock")
	require.NoError(t, err)

	assert.Contains(t, out, "✓ shop.restock returned 99")
	assert.Contains(t, out, "  respecialized on stock: 1\n")
}

func TestRunCommand_GuardGoesGenericPastLimit(t *testing.T) {
	out, err := execute(newTestRunCommand("json"), shopProgram, "--entry", "restock", "--respecialize-limit", "0")
	require.NoError(t, err)

	data := decodeResponse(t, out)["data"].(map[string]any)
	assert.Equal(t, float64(99), data["result"])
	assert.Equal(t, map[string]any{"stock": float64(1)}, data["respecializations"])
}

func TestRunCommand_CommandErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
	}{
		{"missing program", []string{"testdata/nope.cue"}, ExitCommandError, "Error [E005]"},
		{"unknown entry", []string{shopProgram, "--entry", "ghost"}, ExitCommandError,
			`Error [UNKNOWN_TARGET]: program shop has no function "ghost"`},
		{"float argument", []string{shopProgram, "--arg", "1.5"}, ExitCommandError, "floats are not guest values"},
		{"invalid program", []string{brokenProgram}, ExitFailure, "✗ Validation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(newTestRunCommand("text"), tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, GetExitCode(err))
			assert.Contains(t, out, tt.wantOut)
		})
	}
}

func TestRunCommand_RecordsToDatabase(t *testing.T) {
	dbPath := tempDB(t)

	_, err := execute(newTestRunCommand("text"), shopProgram, "--entry", "refund", "--db", dbPath)
	require.Error(t, err)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	threads, err := st.ListThreads(ctx)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, "t-1", threads[0].ID)
	assert.Equal(t, "shop", threads[0].Program)

	captures, err := st.ReadCaptures(ctx, "t-1")
	require.NoError(t, err)
	require.Len(t, captures, 1)
	assert.Equal(t, "ledger closed", captures[0].Error)
	assert.Equal(t, int64(2), captures[0].Seq)
	assert.Equal(t, []ir.FrameRecord{
		{Target: "ledger", Location: "shop.cue:30:5", Internal: true},
		{Target: "refund", Location: "shop.cue:20"},
	}, captures[0].Frames)
}

func TestParseArgs(t *testing.T) {
	args, err := parseArgs([]string{"42", "true", "[1, 2]", "{sku: abc}", "~", "hello"})
	require.NoError(t, err)

	assert.Equal(t, []ir.IRValue{
		ir.IRInt(42),
		ir.IRBool(true),
		ir.IRArray{ir.IRInt(1), ir.IRInt(2)},
		ir.IRObject{"sku": ir.IRString("abc")},
		ir.IRNull{},
		ir.IRString("hello"),
	}, args)

	_, err = parseArgs([]string{"ok", "{a: [1.25]}"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--arg[1]")
}
