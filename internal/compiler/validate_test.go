package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/assume/internal/ir"
)

func intPtr(n int) *int { return &n }

func validProgram() *ir.Program {
	return &ir.Program{
		Name:  "p",
		Entry: "main",
		Flags: []string{"shape"},
		Functions: []ir.Function{
			{Name: "main", Body: []ir.Step{
				{Op: ir.OpGuard, Line: 1, Flag: "shape"},
				{Op: ir.OpCall, Line: 2, Target: "helper"},
				{Op: ir.OpReturn, Line: 3},
			}},
			{Name: "helper", Body: []ir.Step{
				{Op: ir.OpThrow, Line: 5, Message: "x", Limit: intPtr(2)},
			}},
		},
	}
}

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateValid(t *testing.T) {
	assert.Empty(t, Validate(validProgram()))
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *ir.Program)
		want   []string
	}{
		{
			name:   "missing entry",
			mutate: func(p *ir.Program) { p.Entry = "start" },
			want:   []string{ErrEntryMissing},
		},
		{
			name: "duplicate function",
			mutate: func(p *ir.Program) {
				p.Functions = append(p.Functions, ir.Function{Name: "helper"})
			},
			want: []string{ErrDuplicateName},
		},
		{
			name:   "duplicate flag",
			mutate: func(p *ir.Program) { p.Flags = append(p.Flags, "shape") },
			want:   []string{ErrDuplicateName},
		},
		{
			name:   "unknown target",
			mutate: func(p *ir.Program) { p.Functions[0].Body[1].Target = "nobody" },
			want:   []string{ErrUnknownTarget},
		},
		{
			name:   "unknown flag",
			mutate: func(p *ir.Program) { p.Flags = nil },
			want:   []string{ErrUnknownFlag},
		},
		{
			name:   "negative limit",
			mutate: func(p *ir.Program) { p.Functions[1].Body[0].Limit = intPtr(-1) },
			want:   []string{ErrNegativeLimit},
		},
		{
			name: "unreachable reported once",
			mutate: func(p *ir.Program) {
				p.Functions[1].Body = append(p.Functions[1].Body,
					ir.Step{Op: ir.OpReturn, Line: 6},
					ir.Step{Op: ir.OpReturn, Line: 7},
				)
			},
			want: []string{ErrUnreachableStep},
		},
		{
			name: "collects all errors",
			mutate: func(p *ir.Program) {
				p.Entry = "start"
				p.Functions[0].Body[1].Target = "nobody"
			},
			want: []string{ErrEntryMissing, ErrUnknownTarget},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProgram()
			tt.mutate(p)
			assert.Equal(t, tt.want, codes(Validate(p)))
		})
	}
}

func TestValidationErrorFormat(t *testing.T) {
	errs := Validate(&ir.Program{Entry: "main", Functions: []ir.Function{
		{Name: "main", Body: []ir.Step{{Op: ir.OpCall, Line: 4, Target: "x"}}},
	}})
	require.Len(t, errs, 1)
	assert.Equal(t, `[E203] line 4: functions.main.body[0].target: unknown target "x"`, errs[0].Error())
}
