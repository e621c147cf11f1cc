// Package task glues the operation graph to the rule VM, preprocessor and
// compiler: each function here implements one operation kind's work.
// Signatures are grounded on the original cli/task/tests.rs, the only
// surviving snapshot that pins down the richer (non-stub) task call
// shapes.
package task

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/ritamzico/murk/internal/state"
	"github.com/ritamzico/murk/internal/types"
)

// isVisible mirrors utils.rs's is_visible: hidden entries (dotfiles) and
// their subtrees are skipped by the walker.
func isVisible(name string) bool {
	return !strings.HasPrefix(name, ".")
}

// Index walks paths and records every visible file's display path and
// resolved location, mirroring the original index() task.
func Index(paths []string, s *state.State) (bool, error) {
	unlock := s.LockLocations()
	defer unlock()

	for _, root := range paths {
		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if !isVisible(d.Name()) && p != root {
					return filepath.SkipDir
				}
				return nil
			}
			if !isVisible(d.Name()) {
				return nil
			}
			s.Locations[p] = p
			return nil
		})
		if err != nil {
			return false, types.WrapError(types.KindIO, "indexing "+root, err)
		}
	}
	return false, nil
}
