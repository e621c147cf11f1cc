package task

import (
	"errors"

	"github.com/ritamzico/murk/internal/opgraph"
	"github.com/ritamzico/murk/internal/preprocessor"
	"github.com/ritamzico/murk/internal/state"
	"github.com/ritamzico/murk/internal/types"
)

// Preprocess runs format's PREPROCESS rules over op's AST, wiring any
// discovered src/ref/include dependencies into the operation graph as
// further load->parse->preprocess chains so the scheduler picks them up
// on its next pass.
func Preprocess(op opgraph.Op, format string, s *state.State) (bool, error) {
	lang, ok := s.Lang(format)
	if !ok {
		return false, types.NewError(types.KindInternal, "no language loaded for format: "+format)
	}

	handle, ok := s.ASTs.Get("ast:" + op.Path)
	if !ok {
		return false, types.NewError(types.KindInternal, "preprocess requested before parse: "+op.Path)
	}

	unlockLoc := s.LockLocations()
	locations := s.Locations
	unlockLoc()

	res, err := preprocessor.Preprocess(handle.Node, lang, s.ASTs, locations, op.Path)
	if err != nil {
		var dup *preprocessor.DuplicateIDError
		if errors.As(err, &dup) {
			return false, types.WrapError(types.KindInput, "preprocessing "+op.Path, err)
		}
		return false, types.WrapError(types.KindRule, "preprocessing "+op.Path, err)
	}

	if len(res.Deps) == 0 {
		return false, nil
	}

	self := opgraph.Op{Kind: opgraph.OpPreprocess, Path: op.Path}.URI()

	unlock := s.LockOperations()
	defer unlock()
	more := false
	for _, dep := range res.Deps {
		switch dep.Kind {
		case types.DepURI:
			depPath := dep.To
			s.Operations.InsertNodeChain(
				opgraph.Op{Kind: opgraph.OpLoad, Path: depPath},
				opgraph.Op{Kind: opgraph.OpParse, Path: depPath},
				opgraph.Op{Kind: opgraph.OpPreprocess, Path: depPath},
			)
			s.Operations.AddDependency(self, opgraph.Op{Kind: opgraph.OpPreprocess, Path: depPath}.URI())
			more = true
		case types.DepExec:
			s.Operations.InsertNodeChain(opgraph.Op{Kind: opgraph.OpExec, Path: dep.ID})
			s.Operations.AddDependency(self, opgraph.Op{Kind: opgraph.OpExec, Path: dep.ID}.URI())
			more = true
		}
	}
	return more, nil
}
