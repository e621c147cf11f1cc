// Package opgraph is the typed, URI-keyed dependency graph of pipeline
// operations. Its adjacency-list shape is adapted from the teacher's
// probabilistic-graph package (out/in maps-of-maps, node map by id); the
// grouped topological sort is ported from the original cli/graph_sorter.rs.
package opgraph

import (
	"sort"

	"github.com/ritamzico/murk/internal/types"
)

// OpKind enumerates the pipeline step kinds a node can represent.
type OpKind string

const (
	OpIndex      OpKind = "index"
	OpGather     OpKind = "gather"
	OpLoad       OpKind = "load"
	OpParse      OpKind = "parse"
	OpPreprocess OpKind = "preprocess"
	OpCompile    OpKind = "compile"
	OpWrite      OpKind = "write"
	OpCopy       OpKind = "copy"
	OpExec       OpKind = "exec"
	OpTangle     OpKind = "tangle"
	OpGraph      OpKind = "graph"
	OpFinish     OpKind = "finish"
)

// scheme maps an operation kind to its URI scheme prefix. Parse maps to the
// "ast:" scheme (not "parse:") and Preprocess maps to "parse:" -- this
// mirrors op.rs's uri() method exactly; it looks backwards at a glance but
// is intentional: Parse produces the AST, Preprocess consumes/produces the
// parse-stage artifact.
func (k OpKind) scheme() string {
	switch k {
	case OpParse:
		return "ast"
	case OpPreprocess:
		return "parse"
	default:
		return string(k)
	}
}

// Op is one operation-graph node.
type Op struct {
	Kind OpKind
	Path string // the subject path/uri this operation concerns, e.g. a source file
}

// URI returns the graph key for this operation.
func (o Op) URI() types.URI {
	return o.Kind.scheme() + ":" + o.Path
}

// Graph is the operation dependency graph: URI-keyed nodes, directed edges
// meaning "depends on".
type Graph struct {
	nodes map[types.URI]Op
	out   map[types.URI]map[types.URI]struct{}
	in    map[types.URI]map[types.URI]struct{}
}

func New() *Graph {
	return &Graph{
		nodes: make(map[types.URI]Op),
		out:   make(map[types.URI]map[types.URI]struct{}),
		in:    make(map[types.URI]map[types.URI]struct{}),
	}
}

// InsertNode adds op if its URI is not already present; re-inserting an
// existing URI is a no-op (idempotent gather/load dependency discovery).
func (g *Graph) InsertNode(op Op) types.URI {
	uri := op.URI()
	if _, ok := g.nodes[uri]; !ok {
		g.nodes[uri] = op
		g.out[uri] = make(map[types.URI]struct{})
		g.in[uri] = make(map[types.URI]struct{})
	}
	return uri
}

// InsertNodeChain inserts a sequence of ops and wires a dependency edge
// between each consecutive pair (ops[i+1] depends on ops[i]), returning the
// final URI -- used to build e.g. load -> parse -> preprocess -> compile -> write chains.
func (g *Graph) InsertNodeChain(ops ...Op) types.URI {
	var prev types.URI
	for i, op := range ops {
		uri := g.InsertNode(op)
		if i > 0 {
			g.AddDependency(uri, prev)
		}
		prev = uri
	}
	return prev
}

// AddDependency records that `from` depends on `to` (to must run first).
func (g *Graph) AddDependency(from, to types.URI) {
	if _, ok := g.out[from]; !ok {
		return
	}
	if _, ok := g.in[to]; !ok {
		return
	}
	g.out[from][to] = struct{}{}
	g.in[to][from] = struct{}{}
}

// Get returns the node at uri, if present.
func (g *Graph) Get(uri types.URI) (Op, bool) {
	op, ok := g.nodes[uri]
	return op, ok
}

// GetDependencies returns the URIs uri directly depends on.
func (g *Graph) GetDependencies(uri types.URI) []types.URI {
	var out []types.URI
	for dep := range g.out[uri] {
		out = append(out, dep)
	}
	sort.Strings(out)
	return out
}

// Iter returns every URI in the graph, sorted for determinism.
func (g *Graph) Iter() []types.URI {
	out := make([]types.URI, 0, len(g.nodes))
	for uri := range g.nodes {
		out = append(out, uri)
	}
	sort.Strings(out)
	return out
}

func (g *Graph) Len() int { return len(g.nodes) }

func (g *Graph) Clear() {
	g.nodes = make(map[types.URI]Op)
	g.out = make(map[types.URI]map[types.URI]struct{})
	g.in = make(map[types.URI]map[types.URI]struct{})
}
