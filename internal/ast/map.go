package ast

import (
	"sync"

	"github.com/ritamzico/murk/internal/types"
)

// Handle is a refcounted, mutex-guarded slot in the shared AST map. Go has
// no weak-reference primitive, so (per the design note's sanctioned
// arena-+-stable-index alternative) a Pointer never holds a live *Node; it
// re-resolves through the owning Map by URI on every Follow call instead.
type Handle struct {
	mu   sync.Mutex
	Node *Node
	refs int
}

// Map is the shared, URI-keyed store of parsed document roots. Every
// document the engine has ever loaded/parsed lives here for the duration
// of one run; it is cleared only between runs, never mid-walk.
type Map struct {
	mu sync.Mutex
	m  map[types.URI]*Handle
}

func NewMap() *Map {
	return &Map{m: make(map[types.URI]*Handle)}
}

// Insert stores (or replaces) the node tree for uri.
func (m *Map) Insert(uri types.URI, node *Node) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.m[uri] = &Handle{Node: node}
}

// Get returns the handle for uri, if present.
func (m *Map) Get(uri types.URI) (*Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.m[uri]
	return h, ok
}

// Keys returns every URI currently stored, in no particular order. Used by
// include resolution to search known documents/ids for a suffix match.
func (m *Map) Keys() []types.URI {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]types.URI, 0, len(m.m))
	for k := range m.m {
		keys = append(keys, k)
	}
	return keys
}

// Clear drops every entry. Called only between distinct engine runs.
func (m *Map) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.m = make(map[types.URI]*Handle)
}

// Pointer redirects a walk (preprocessor or compiler) to the node tree
// stored under Target in Owner, instead of owning a subtree directly.
// Following a pointer whose target has since been cleared from the map is
// a bug in the caller (it should never happen mid-run); Follow reports it
// as ok=false rather than panicking so callers can surface a clean
// internal error.
type Pointer struct {
	Owner  *Map
	Target types.URI
}

// Follow resolves the pointer's current target node.
func (p *Pointer) Follow() (*Node, bool) {
	h, ok := p.Owner.Get(p.Target)
	if !ok {
		return nil, false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Node, true
}

// Retain/Release provide diagnostic refcounting only; nothing in this
// design frees a map entry based on the count reaching zero.
func (p *Pointer) Retain() {
	if h, ok := p.Owner.Get(p.Target); ok {
		h.mu.Lock()
		h.refs++
		h.mu.Unlock()
	}
}

func (p *Pointer) Release() {
	if h, ok := p.Owner.Get(p.Target); ok {
		h.mu.Lock()
		if h.refs > 0 {
			h.refs--
		}
		h.mu.Unlock()
	}
}
