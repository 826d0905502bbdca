// Package order computes a dependency-respecting deployment order for
// transformed pipelines: callees deploy before their callers, and mutual
// invocation is reported as a structural error instead of a truncated order.
package order

import (
	"fmt"
	"sort"
	"strings"

	"github.com/heimdalr/dag"

	"fabric-migrator/internal/migration/core"
)

// Entry is one pipeline's position in the deployment order.
type Entry struct {
	// Pipeline is the pipeline name.
	Pipeline string `json:"pipeline"`
	// Level is the length of the longest dependency chain below this
	// pipeline. Level 0 pipelines invoke nothing and deploy first.
	Level int `json:"level"`
	// DependsOn lists the pipelines this one invokes, including callees
	// outside the current run.
	DependsOn []string `json:"dependsOn,omitempty"`
}

// CycleError reports pipelines that mutually invoke each other. The
// orchestration products forbid mutual invocation, so no order exists.
type CycleError struct {
	Pipelines []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("pipelines mutually invoke each other: %s", strings.Join(e.Pipelines, ", "))
}

// Compute builds the invocation graph over the given pipelines and returns
// one entry per pipeline, sorted by level then name. Every linearization of
// the entries deploys callees before callers.
func Compute(pipelines []string, edges []core.InvocationEdge) ([]Entry, error) {
	known := make(map[string]bool, len(pipelines))
	for _, name := range pipelines {
		known[name] = true
	}

	graph := dag.NewDAG()
	for _, name := range pipelines {
		if err := graph.AddVertexByID(name, name); err != nil {
			return nil, fmt.Errorf("failed to add pipeline '%s': %w", name, err)
		}
	}

	// callees records each pipeline's distinct dependencies in discovery
	// order; in-run callees also become graph edges.
	callees := make(map[string][]string)
	seen := make(map[string]bool)
	for _, edge := range edges {
		key := edge.Caller + "\x00" + edge.Callee
		if seen[key] {
			continue
		}
		seen[key] = true

		if edge.Caller == edge.Callee {
			return nil, &CycleError{Pipelines: []string{edge.Caller}}
		}
		callees[edge.Caller] = append(callees[edge.Caller], edge.Callee)

		if !known[edge.Callee] {
			// Callee outside this run: listed as a dependency but cannot
			// influence ordering within the run.
			continue
		}
		if err := graph.AddEdge(edge.Caller, edge.Callee); err != nil {
			offenders := []string{edge.Caller, edge.Callee}
			sort.Strings(offenders)
			return nil, &CycleError{Pipelines: offenders}
		}
	}

	// The graph is acyclic here, so the recursion terminates.
	levels := make(map[string]int, len(pipelines))
	var levelOf func(name string) int
	levelOf = func(name string) int {
		if level, done := levels[name]; done {
			return level
		}
		level := 0
		for _, callee := range callees[name] {
			if !known[callee] {
				continue
			}
			if depth := levelOf(callee) + 1; depth > level {
				level = depth
			}
		}
		levels[name] = level
		return level
	}

	entries := make([]Entry, 0, len(pipelines))
	for _, name := range pipelines {
		entries = append(entries, Entry{
			Pipeline:  name,
			Level:     levelOf(name),
			DependsOn: callees[name],
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Level != entries[j].Level {
			return entries[i].Level < entries[j].Level
		}
		return entries[i].Pipeline < entries[j].Pipeline
	})

	return entries, nil
}
