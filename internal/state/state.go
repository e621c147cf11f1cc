// Package state holds the run's shared mutable store, split out from
// package engine so that both the scheduler (package engine) and the task
// implementations (package task) can depend on it without an import
// cycle. Ported from the original cli/state.rs and cli/state_context.rs.
package state

import (
	"sync"

	"github.com/ritamzico/murk/internal/ast"
	"github.com/ritamzico/murk/internal/opgraph"
	"github.com/ritamzico/murk/internal/rulelang"
	"github.com/ritamzico/murk/internal/types"
)

// State is the run's shared mutable store. Each top-level field guards
// itself with its own mutex rather than one global lock, mirroring
// state_context.rs's per-field Arc<Mutex<_>> layout; task functions that
// need more than one field acquire them in the fixed order
// Operations -> Artifacts -> ASTs -> Locations to avoid deadlock.
type State struct {
	opsMu      sync.Mutex
	Operations *opgraph.Graph

	artifactsMu sync.Mutex
	Artifacts   map[types.URI]*types.Artifact

	ASTs *ast.Map // internally synchronized

	locationsMu sync.Mutex
	Locations   types.LocationMap

	processedMu sync.Mutex
	Processed   map[types.URI]bool

	// Languages maps a source's rule-file name (as selected by --format)
	// to its parsed rule set, loaded once per run.
	languagesMu sync.Mutex
	Languages   map[string]*rulelang.Lang
}

// New constructs an empty State for one run, mirroring State::new_loaded
// without a preloaded default language (callers register languages via
// SetLang once the CLI's --format flag is known).
func New() *State {
	return &State{
		Operations: opgraph.New(),
		Artifacts:  make(map[types.URI]*types.Artifact),
		ASTs:       ast.NewMap(),
		Locations:  make(types.LocationMap),
		Processed:  make(map[types.URI]bool),
		Languages:  make(map[string]*rulelang.Lang),
	}
}

func (s *State) LockOperations() func() {
	s.opsMu.Lock()
	return s.opsMu.Unlock
}

func (s *State) LockArtifacts() func() {
	s.artifactsMu.Lock()
	return s.artifactsMu.Unlock
}

func (s *State) LockLocations() func() {
	s.locationsMu.Lock()
	return s.locationsMu.Unlock
}

// MarkProcessed records uri as done; IsProcessed reports whether uri was
// recorded, so the scheduler pass skips it instead of dispatching it again.
func (s *State) MarkProcessed(uri types.URI) {
	s.processedMu.Lock()
	defer s.processedMu.Unlock()
	s.Processed[uri] = true
}

func (s *State) IsProcessed(uri types.URI) bool {
	s.processedMu.Lock()
	defer s.processedMu.Unlock()
	return s.Processed[uri]
}

func (s *State) Lang(name string) (*rulelang.Lang, bool) {
	s.languagesMu.Lock()
	defer s.languagesMu.Unlock()
	l, ok := s.Languages[name]
	return l, ok
}

func (s *State) SetLang(name string, lang *rulelang.Lang) {
	s.languagesMu.Lock()
	defer s.languagesMu.Unlock()
	s.Languages[name] = lang
}

// Clear resets State for a fresh run (e.g. the next rebuild in watch mode).
func (s *State) Clear() {
	s.Operations.Clear()
	s.Artifacts = make(map[types.URI]*types.Artifact)
	s.ASTs.Clear()
	s.Locations = make(types.LocationMap)
	s.Processed = make(map[types.URI]bool)
}
