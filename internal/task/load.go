package task

import (
	"os"

	"github.com/ritamzico/murk/internal/opgraph"
	"github.com/ritamzico/murk/internal/state"
	"github.com/ritamzico/murk/internal/types"
)

// Load reads op's source path from disk (resolved via Locations) into a
// text artifact, ready for Parse.
func Load(op opgraph.Op, s *state.State) (bool, error) {
	unlock := s.LockLocations()
	resolved, ok := s.Locations[op.Path]
	unlock()
	if !ok {
		resolved = op.Path
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return false, types.WrapError(types.KindIO, "loading "+resolved, err)
	}

	unlockArt := s.LockArtifacts()
	defer unlockArt()
	s.Artifacts["load:"+op.Path] = &types.Artifact{Kind: types.ArtifactText, Text: string(data)}
	return false, nil
}
