package task

import (
	"github.com/ritamzico/murk/internal/opgraph"
	"github.com/ritamzico/murk/internal/state"
)

// Gather expands one source path into its full load->parse->preprocess->
// compile->write chain of operations and wires them into the graph,
// returning true (more work was added) per the original gather()'s
// contract in task/tests.rs.
func Gather(op opgraph.Op, s *state.State) (bool, error) {
	unlock := s.LockOperations()
	defer unlock()

	s.Operations.InsertNodeChain(
		opgraph.Op{Kind: opgraph.OpLoad, Path: op.Path},
		opgraph.Op{Kind: opgraph.OpParse, Path: op.Path},
		opgraph.Op{Kind: opgraph.OpPreprocess, Path: op.Path},
		opgraph.Op{Kind: opgraph.OpCompile, Path: op.Path},
		opgraph.Op{Kind: opgraph.OpWrite, Path: op.Path},
	)
	return true, nil
}
