package task

import (
	"strings"

	"github.com/ritamzico/murk/internal/opgraph"
	"github.com/ritamzico/murk/internal/state"
)

const plantUMLEmpty = "@startuml\nskinparam defaultTextAlignment center\n'nodes\n'dependencies\n@enduml"

// Graph renders the current operation graph as PlantUML, mirroring the
// original cli/graph.rs renderer -- including its exact empty-graph
// string when there is nothing to draw yet.
func Graph(headers bool, s *state.State) (string, error) {
	unlock := s.LockOperations()
	defer unlock()

	uris := s.Operations.Iter()
	if len(uris) == 0 {
		return plantUMLEmpty, nil
	}

	var nodes, deps strings.Builder
	nodes.WriteString("'nodes\n")
	deps.WriteString("'dependencies\n")

	for _, uri := range uris {
		op, _ := s.Operations.Get(uri)
		if !headers && op.Kind == opgraph.OpPreprocess {
			continue
		}
		nodes.WriteString("node \"" + uri + "\" as " + nodeID(uri) + "\n")
		for _, dep := range s.Operations.GetDependencies(uri) {
			deps.WriteString(nodeID(uri) + " --> " + nodeID(dep) + "\n")
		}
	}

	var out strings.Builder
	out.WriteString("@startuml\nskinparam defaultTextAlignment center\n")
	out.WriteString(nodes.String())
	out.WriteString(deps.String())
	out.WriteString("@enduml")
	return out.String(), nil
}

func nodeID(uri string) string {
	r := strings.NewReplacer(":", "_", "/", "_", ".", "_", "-", "_")
	return "n_" + r.Replace(uri)
}

// Finish reports whether every operation in the graph has been processed,
// giving the event loop its termination signal.
func Finish(s *state.State) bool {
	unlock := s.LockOperations()
	uris := s.Operations.Iter()
	unlock()

	for _, uri := range uris {
		if !s.IsProcessed(uri) {
			return false
		}
	}
	return true
}
