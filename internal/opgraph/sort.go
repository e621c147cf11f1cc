package opgraph

import (
	"sort"

	"github.com/ritamzico/murk/internal/types"
)

// GroupedTopologicalSort returns operations batched into dependency
// levels: level 0 has no unresolved dependencies, level 1 depends only on
// level 0, and so on. Within a level, URIs are sorted for determinism.
// Ported from the original cli/graph_sorter.rs's grouped_topological_sort
// (indegree-map Kahn's algorithm, peeling one zero-indegree frontier at a
// time instead of a single flat order).
func (g *Graph) GroupedTopologicalSort() ([][]types.URI, error) {
	indegree := make(map[types.URI]int, len(g.nodes))
	for uri := range g.nodes {
		indegree[uri] = len(g.out[uri])
	}

	var levels [][]types.URI
	remaining := len(g.nodes)

	for remaining > 0 {
		var frontier []types.URI
		for uri, deg := range indegree {
			if deg == 0 {
				frontier = append(frontier, uri)
			}
		}
		if len(frontier) == 0 {
			return nil, &CycleError{}
		}
		sort.Strings(frontier)
		levels = append(levels, frontier)

		for _, uri := range frontier {
			delete(indegree, uri)
			remaining--
			for dependent := range g.in[uri] {
				if _, ok := indegree[dependent]; ok {
					indegree[dependent]--
				}
			}
		}
	}
	return levels, nil
}

// CycleError reports that the operation graph contains a dependency cycle,
// which the scheduler treats as an internal error (the graph is built by
// the engine itself, never by untrusted input).
type CycleError struct{}

func (e *CycleError) Error() string { return "operation graph contains a cycle" }
