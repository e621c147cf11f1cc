package types

import "path/filepath"

// URI identifies a node, artifact, or operation within a run. It is always
// a scheme-prefixed string, e.g. "file:docs/readme.mur" or "ast:docs/readme.mur".
type URI = string

// LocationMap resolves a display path (as it appeared on the command line
// or in a src/ref reference) to its resolved filesystem path.
type LocationMap map[string]string

// Keys returns every display path known to the map, in no particular
// order, for include resolution's suffix search.
func (m LocationMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// DependencyKind distinguishes the two dependency shapes a rule's
// instructions can emit: a plain URI edge (an include/ref resolving to
// another document) or an external command to run (EXEC).
type DependencyKind int

const (
	DepURI DependencyKind = iota
	DepExec
)

// ExecArtifactKind distinguishes where an EXEC command's output goes: its
// captured stdout, tagged with a media type, or a file it writes itself.
type ExecArtifactKind int

const (
	ExecStdout ExecArtifactKind = iota
	ExecFile
)

// ExecArtifact is EXEC's second argument, "(mediatype|file)": either a
// stdout capture tagged with a media type, or a path the command writes to
// directly.
type ExecArtifact struct {
	Kind      ExecArtifactKind
	MediaType string
	Path      string
}

// Dependency is an edge discovered while preprocessing or compiling a
// node: either one artifact/operation depends on another by URI (src/ref),
// or a node depends on an external command's output (EXEC).
type Dependency struct {
	Kind DependencyKind

	// DepURI fields.
	From URI
	To   URI
	// PropKind records which prop produced this edge ("src" or "ref"):
	// only "src" attaches a pointer, "ref" stops at the dependency edge.
	PropKind string

	// DepExec fields.
	Cmd      string
	Input    string
	HasInput bool
	Artifact ExecArtifact
	ID       string
}

// ArtifactKind distinguishes the payload shape stored under an artifact URI.
type ArtifactKind int

const (
	ArtifactText ArtifactKind = iota
	ArtifactBinary
)

// Artifact is a produced or intermediate build product: compiled text,
// copied binary bytes, or an exec result.
type Artifact struct {
	Kind  ArtifactKind
	Text  string
	Bytes []byte
	// MediaType is the artifact's detected media type, used to pick an
	// output file extension via the standard mime table; empty means
	// "write without extension".
	MediaType string
}

// SplitDir builds an output path for an artifact split out under name:
// name joined under outputRoot.
func SplitDir(outputRoot, name string) string {
	return filepath.Join(outputRoot, name)
}
