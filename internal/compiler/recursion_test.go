package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/assume/internal/ir"
)

func callProgram(edges map[string][]string, order ...string) *ir.Program {
	p := &ir.Program{Entry: order[0]}
	for _, name := range order {
		fn := ir.Function{Name: name}
		for _, callee := range edges[name] {
			fn.Body = append(fn.Body, ir.Step{Op: ir.OpCall, Target: callee})
		}
		p.Functions = append(p.Functions, fn)
	}
	return p
}

func TestAnalyzeRecursion_NoCycles(t *testing.T) {
	p := callProgram(map[string][]string{
		"main": {"a", "b"},
		"a":    {"b"},
	}, "main", "a", "b")

	warnings := AnalyzeRecursion(p)
	assert.NotNil(t, warnings)
	assert.Empty(t, warnings)
}

func TestAnalyzeRecursion_SelfLoop(t *testing.T) {
	p := callProgram(map[string][]string{
		"main": {"loop"},
		"loop": {"loop"},
	}, "main", "loop")

	warnings := AnalyzeRecursion(p)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"loop", "loop"}, warnings[0].Path)
	assert.Equal(t, "function loop calls itself", warnings[0].Message)
}

func TestAnalyzeRecursion_MutualStartsAtFirstDeclared(t *testing.T) {
	p := callProgram(map[string][]string{
		"main":  {"even"},
		"even":  {"odd"},
		"odd":   {"even"},
		"other": {},
	}, "main", "even", "odd", "other")

	warnings := AnalyzeRecursion(p)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"even", "odd", "even"}, warnings[0].Path)
	assert.Equal(t, "mutual recursion: even -> odd -> even", warnings[0].Message)
}

func TestAnalyzeRecursion_WrapCounts(t *testing.T) {
	p := &ir.Program{Entry: "f", Functions: []ir.Function{
		{Name: "f", Body: []ir.Step{{Op: ir.OpWrap, Target: "f", Message: "again"}}},
	}}

	assert.Len(t, AnalyzeRecursion(p), 1)
}

func TestAnalyzeRecursion_IgnoresUnknownTargets(t *testing.T) {
	p := callProgram(map[string][]string{"main": {"ghost"}}, "main")
	assert.Empty(t, AnalyzeRecursion(p))
}
