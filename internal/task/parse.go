package task

import (
	"github.com/ritamzico/murk/internal/markup"
	"github.com/ritamzico/murk/internal/opgraph"
	"github.com/ritamzico/murk/internal/state"
	"github.com/ritamzico/murk/internal/types"
)

// Parse turns a loaded text artifact into an AST, storing it in the shared
// AST map under the "ast:" URI scheme (see opgraph.OpKind.scheme's doc
// comment for why Parse, not Preprocess, owns that scheme).
func Parse(op opgraph.Op, s *state.State) (bool, error) {
	unlockArt := s.LockArtifacts()
	artifact, ok := s.Artifacts["load:"+op.Path]
	unlockArt()
	if !ok {
		return false, types.NewError(types.KindInternal, "parse requested before load: "+op.Path)
	}

	node := markup.Parse(artifact.Text)
	s.ASTs.Insert("ast:"+op.Path, node)
	return false, nil
}
