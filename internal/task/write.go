package task

import (
	"mime"
	"os"
	"path/filepath"

	"github.com/ritamzico/murk/internal/opgraph"
	"github.com/ritamzico/murk/internal/state"
	"github.com/ritamzico/murk/internal/types"
)

// Write emits op's compiled artifact under outputRoot. The file extension
// is the first one the standard mime table lists for the artifact's
// MediaType; an artifact with no MediaType, or one the table does not
// know, is written without an extension, resolving the spec's "unknown
// media type" open question.
func Write(op opgraph.Op, outputRoot string, s *state.State) (bool, error) {
	unlockArt := s.LockArtifacts()
	artifact, ok := s.Artifacts["compile:"+op.Path]
	unlockArt()
	if !ok {
		return false, types.NewError(types.KindInternal, "write requested before compile: "+op.Path)
	}

	dest := filepath.Join(outputRoot, op.Path)
	if artifact.MediaType != "" {
		if exts, _ := mime.ExtensionsByType(artifact.MediaType); len(exts) > 0 {
			dest += exts[0]
		}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return false, types.WrapError(types.KindIO, "creating output dir for "+dest, err)
	}
	if err := os.WriteFile(dest, []byte(artifact.Text), 0o644); err != nil {
		return false, types.WrapError(types.KindIO, "writing "+dest, err)
	}
	return false, nil
}

// Copy writes op's already-loaded binary artifact verbatim, for sources
// the pipeline passes through without compilation (images, attachments).
func Copy(op opgraph.Op, outputRoot string, s *state.State) (bool, error) {
	unlockArt := s.LockArtifacts()
	artifact, ok := s.Artifacts["load:"+op.Path]
	unlockArt()
	if !ok {
		return false, types.NewError(types.KindInternal, "copy requested before load: "+op.Path)
	}

	dest := filepath.Join(outputRoot, op.Path)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return false, types.WrapError(types.KindIO, "creating output dir for "+dest, err)
	}

	var data []byte
	if artifact.Kind == types.ArtifactBinary {
		data = artifact.Bytes
	} else {
		data = []byte(artifact.Text)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return false, types.WrapError(types.KindIO, "copying to "+dest, err)
	}
	return false, nil
}
