package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/assume/internal/ir"
)

// RecursionWarning reports functions that can reach themselves through
// call or wrap steps.
//
// Recursion is a warning, not an error: it is legal guest code, but
// without a base case it ends in a stack overflow at run time.
type RecursionWarning struct {
	Path    []string `json:"path"`    // e.g. ["a", "b", "a"]
	Message string   `json:"message"` // Human-readable description
}

// AnalyzeRecursion finds recursive cycles in the program's call graph.
//
// The algorithm:
//  1. Build caller → callee edges from call and wrap steps
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1, and each self-loop
//
// Functions are visited in declaration order so warnings are stable.
// A program without recursion returns an empty list.
func AnalyzeRecursion(p *ir.Program) []RecursionWarning {
	graph, order := buildCallGraph(p)
	sccs := tarjanSCC(graph, order)

	rank := make(map[string]int, len(order))
	for i, name := range order {
		rank[name] = i
	}

	warnings := []RecursionWarning{}
	for _, scc := range sccs {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			warnings = append(warnings, sccToWarning(scc, graph, rank))
		}
	}
	return warnings
}

// callGraph maps a function name to the functions it calls, in step order.
type callGraph map[string][]string

func buildCallGraph(p *ir.Program) (callGraph, []string) {
	graph := make(callGraph)
	order := make([]string, 0, len(p.Functions))

	for _, fn := range p.Functions {
		order = append(order, fn.Name)
		if graph[fn.Name] == nil {
			graph[fn.Name] = []string{}
		}
		for _, step := range fn.Body {
			if step.Op == ir.OpCall || step.Op == ir.OpWrap {
				graph[fn.Name] = append(graph[fn.Name], step.Target)
			}
		}
	}
	return graph, order
}

func hasSelfLoop(node string, graph callGraph) bool {
	for _, callee := range graph[node] {
		if callee == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components, visiting roots in order.
func tarjanSCC(graph callGraph, order []string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, defined := graph[w]; !defined {
				continue // unknown target; Validate reports it
			}
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

func sccToWarning(scc []string, graph callGraph, rank map[string]int) RecursionWarning {
	if len(scc) == 1 {
		name := scc[0]
		return RecursionWarning{
			Path:    []string{name, name},
			Message: fmt.Sprintf("function %s calls itself", name),
		}
	}

	// Start at the earliest-declared member.
	start := scc[0]
	for _, name := range scc[1:] {
		if rank[name] < rank[start] {
			start = name
		}
	}

	path := cyclePath(start, scc, graph)
	return RecursionWarning{
		Path:    path,
		Message: fmt.Sprintf("mutual recursion: %s", strings.Join(path, " -> ")),
	}
}

// cyclePath follows edges inside the SCC from start until it returns to
// start or runs out of unvisited members.
func cyclePath(start string, scc []string, graph callGraph) []string {
	members := make(map[string]bool, len(scc))
	for _, name := range scc {
		members[name] = true
	}

	path := []string{start}
	visited := map[string]bool{}
	current := start

	for {
		visited[current] = true

		next := ""
		for _, callee := range graph[current] {
			if members[callee] && (!visited[callee] || callee == start) {
				next = callee
				break
			}
		}
		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
