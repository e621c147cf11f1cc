// Package preprocessor walks a freshly parsed AST, applies a language's
// PREPROCESS rules, resolves headers, folds bare lines into paragraphs,
// moves id-bearing nodes into the shared AST map, attaches pointers for
// "src" includes (a "ref" only records a dependency), and reports newly
// discovered dependencies. Ported from the
// original lib/preprocessor.rs's preprocess_recursive and its four
// sub-steps.
package preprocessor

import (
	"sort"
	"strings"

	"github.com/ritamzico/murk/internal/ast"
	"github.com/ritamzico/murk/internal/rulelang"
	"github.com/ritamzico/murk/internal/types"
)

// DuplicateIDError resolves the original's todo!("duplicate id"): a second
// node claiming an id already present in the AST map is an input error, not
// a panic. The original Rust code is actually asymmetric here (it silently
// overwrites in the common clone-and-move case and only panics when the
// node already carries a pointer); this port treats every collision as an
// error instead, per the spec's Open Question #1 guidance.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return "duplicate id: " + e.ID
}

// Result bundles what one Preprocess call discovered: dependencies to
// enqueue as further gather/load/exec operations, and the set of AST-map
// keys it moved id-bearing nodes into.
type Result struct {
	Deps    []types.Dependency
	NewKeys []types.URI
}

// Preprocess runs lang's PREPROCESS rules over node and its descendants.
// context is the document's own identity (e.g. "docs/readme.mur", or "" for
// an anonymous/top-level document) threaded unchanged through every
// recursive call: it seeds id keys ("parse:<context>#<id>") and include
// resolution's sibling search, exactly as the original's context parameter
// does.
func Preprocess(node *ast.Node, lang *rulelang.Lang, astMap *ast.Map, locations types.LocationMap, context string) (*Result, error) {
	res := &Result{}
	ctx := rulelang.NewContext()
	if err := preprocessRecursive(node, "", lang, ctx, astMap, locations, context, res); err != nil {
		return nil, err
	}
	return res, nil
}

func preprocessRecursive(node *ast.Node, basePath string, lang *rulelang.Lang, ctx *rulelang.Context, astMap *ast.Map, locations types.LocationMap, context string, res *Result) error {
	path := node.BuildPath(basePath)
	rules := lang.MatchRules("PREPROCESS", path)
	cur := rulelang.NewCursor(rules)

	if _, err := rulelang.EvaluatePre(cur, ctx, &res.Deps, node); err != nil {
		return err
	}

	var merged rulelang.Settings
	for _, r := range rules {
		merged = merged.Merge(r.Settings)
	}

	switch node.Rule {
	case ast.Root, ast.Block:
		preprocessHeaders(node)
		if err := preprocessIncludes(node, astMap, locations, context, res, merged); err != nil {
			return err
		}
	case ast.Section:
		preprocessParagraphs(node, merged)
	}

	if len(node.Children) > 0 {
		// Headers may have just changed node's own build_path segment
		// (e.g. a bare Block becomes "[HEADING]"); children match against
		// that updated path, not the one computed before preprocessHeaders.
		path = node.BuildPath(basePath)
		for _, child := range node.Children {
			if err := preprocessRecursive(child, path, lang, ctx, astMap, locations, context, res); err != nil {
				return err
			}
		}
	}

	switch node.Rule {
	case ast.Root, ast.Block:
		if err := preprocessIDs(node, astMap, context, res); err != nil {
			return err
		}
	}

	if _, err := rulelang.EvaluatePost(cur, ctx, &res.Deps, node); err != nil {
		return err
	}
	return nil
}

// preprocessHeaders maps a Block/Root's opening marker onto its Headers:
// "#" contributes HEADING, "*" contributes LIST, the three-space code
// marker contributes CODE. Idempotent, so re-running it on an
// already-processed node is harmless.
func preprocessHeaders(node *ast.Node) {
	var header string
	switch node.MarkerChar {
	case "#":
		header = "HEADING"
	case "*":
		header = "LIST"
	case "   ":
		header = "CODE"
	default:
		return
	}
	for _, h := range node.Headers {
		if h == header {
			return
		}
	}
	node.Headers = append(node.Headers, header)
}

// preprocessIDs moves any Root/Block node carrying a non-empty "id" prop
// into the shared AST map, leaving a childless clone of the node in its
// original tree position with a Pointer back to the moved original. Runs
// after children have themselves been preprocessed (and, for a node that
// already carries a pointer -- e.g. a Block whose "src" include had no
// reachable Ellipsis, so preprocessIncludes attached the pointer to the
// Block itself -- the pointer's target is what gets stored under the id).
func preprocessIDs(node *ast.Node, astMap *ast.Map, context string, res *Result) error {
	id, ok := node.FindProp("id")
	if !ok || id == "" {
		return nil
	}

	var key types.URI
	if context == "" {
		key = id
	} else {
		key = "parse:" + context + "#" + id
	}

	if node.Pointer != nil {
		target, ok := node.Pointer.Follow()
		if !ok {
			return &types.AppError{Kind: types.KindInternal, Message: "preprocess id: dangling pointer for id " + id}
		}
		if _, exists := astMap.Get(key); exists {
			return &DuplicateIDError{ID: id}
		}
		astMap.Insert(key, target)
		res.NewKeys = append(res.NewKeys, key)
		return nil
	}

	if _, exists := astMap.Get(key); exists {
		return &DuplicateIDError{ID: id}
	}

	original := *node
	clone := original
	clone.Children = nil
	clone.Pointer = &ast.Pointer{Owner: astMap, Target: key}
	*node = clone

	astMap.Insert(key, &original)
	res.NewKeys = append(res.NewKeys, key)
	return nil
}

// preprocessableProps is the exact set of prop names preprocess_includes
// resolves; any other prop (e.g. a rule's own custom metadata) is left
// untouched.
func preprocessableProps(key string) bool {
	return key == "src" || key == "ref"
}

// preprocessIncludes resolves every "src"/"ref" prop on node to a URI,
// records the dependency edge, ensures the AST map has a slot for it, and
// -- for "src" only -- attaches a Pointer to the node (or to a reachable
// Ellipsis descendant, or to a synthesized sole child if node has none).
func preprocessIncludes(node *ast.Node, astMap *ast.Map, locations types.LocationMap, context string, res *Result, settings rulelang.Settings) error {
	// Snapshot: PUSH src/ref during EvaluatePre already landed in node.Props
	// before this runs, but resolving one prop here never mutates Props, so
	// a plain range is safe.
	for _, p := range node.Props {
		if !preprocessableProps(p.Key) {
			continue
		}
		if err := resolveInclude(node, astMap, locations, context, res, settings, p.Key, p.Value); err != nil {
			return err
		}
	}
	return nil
}

func resolveInclude(node *ast.Node, astMap *ast.Map, locations types.LocationMap, context string, res *Result, settings rulelang.Settings, key, raw string) error {
	defaultScheme := "write"
	if key == "src" {
		defaultScheme = "parse"
	}
	if key == "src" && settings.DefaultSrc != "" {
		defaultScheme = settings.DefaultSrc
	}
	if key == "ref" && settings.DefaultRef != "" {
		defaultScheme = settings.DefaultRef
	}

	scheme, rawPath, hasScheme := strings.Cut(raw, ":")
	if !hasScheme {
		scheme, rawPath = defaultScheme, raw
	}

	isResolved := false
	if s, _, ok := strings.Cut(scheme, "?"); ok {
		scheme = s
		isResolved = true
	}

	var uriPath string
	if isResolved {
		uriPath = rawPath
	} else {
		p, fragment, hasFragment := cutLast(rawPath, "#")
		if !hasFragment {
			p, fragment = rawPath, ""
		}
		prefix, _ := resolvePath(p, locations.Keys(), context)
		switch {
		case fragment == "" && prefix == "":
			uriPath = context + "#" + p
		case fragment == "":
			uriPath = prefix
		case prefix == "":
			uriPath = "#" + fragment
		default:
			uriPath = prefix + "#" + fragment
		}
		if resolved, ok := resolveSchemePath(uriPath, scheme, astMap.Keys(), context); ok {
			uriPath = resolved
		}
	}

	uri := scheme + ":" + uriPath
	res.Deps = append(res.Deps, types.Dependency{Kind: types.DepURI, From: context, To: uri, PropKind: key})

	if _, exists := astMap.Get(uri); !exists {
		astMap.Insert(uri, ast.NewRoot().Done())
	}

	if key == "ref" {
		return nil
	}

	pointer := &ast.Pointer{Owner: astMap, Target: uri}
	switch {
	case len(node.Children) > 0:
		if target := getEllipsisNodeRecursive(node.Children); target != nil {
			target.Pointer = pointer
		} else {
			node.Pointer = pointer
		}
	default:
		section := ast.NewSection().Done()
		section.Pointer = pointer
		node.Children = []*ast.Node{section}
	}
	return nil
}

// getEllipsisNodeRecursive searches nodes depth-first for the first
// Ellipsis not already claimed by a pointer or a "src" prop, skipping (not
// descending into) any node that already has either: that node has already
// been resolved by an earlier include and should not be re-targeted.
func getEllipsisNodeRecursive(nodes []*ast.Node) *ast.Node {
	for _, n := range nodes {
		if n.Pointer != nil {
			continue
		}
		if _, hasSrc := n.FindProp("src"); hasSrc {
			continue
		}
		if n.Rule == ast.Ellipsis {
			return n
		}
		if len(n.Children) > 0 {
			if found := getEllipsisNodeRecursive(n.Children); found != nil {
				return found
			}
		}
	}
	return nil
}

// resolvePath reproduces resolve_path's three-tier sorted suffix search:
// paths that start with context are tried first (sorted, first suffix
// match wins), then -- only if context itself names a parent directory --
// paths sharing context's leading segment, then every known path as a last
// resort. Fragment-agnostic: works whether path/candidates are plain paths
// or "prefix#fragment" strings, since it only ever compares suffixes.
func resolvePath(target string, paths []string, context string) (string, bool) {
	var within, without []string
	for _, p := range paths {
		if strings.HasPrefix(p, context) {
			within = append(within, p)
		} else {
			without = append(without, p)
		}
	}
	sort.Strings(within)
	for _, p := range within {
		if strings.HasSuffix(p, target) {
			return p, true
		}
	}

	sort.Strings(without)
	if idx := strings.Index(context, "/"); idx >= 0 {
		sibling := context[:idx]
		for _, p := range without {
			if strings.HasPrefix(p, sibling) && strings.HasSuffix(p, target) {
				return p, true
			}
		}
	}
	for _, p := range without {
		if strings.HasSuffix(p, target) {
			return p, true
		}
	}
	return "", false
}

// resolveSchemePath is resolvePath restricted to AST-map keys carrying the
// given scheme prefix (stripped off before comparison, since the target
// path never carries one).
func resolveSchemePath(target, scheme string, paths []string, context string) (string, bool) {
	prefix := scheme + ":"
	var stripped []string
	for _, p := range paths {
		if s, ok := strings.CutPrefix(p, prefix); ok {
			stripped = append(stripped, s)
		}
	}
	return resolvePath(target, stripped, context)
}

func cutLast(s, sep string) (before, after string, found bool) {
	idx := strings.LastIndex(s, sep)
	if idx < 0 {
		return s, "", false
	}
	return s[:idx], s[idx+len(sep):], true
}

// preprocessParagraphs folds every run of adjacent non-empty Line children
// into a single Paragraph node, when settings.IsParagraphable and node
// carries no Headers of its own. Even a solitary non-empty Line between two
// run-breaking siblings becomes a one-child Paragraph; an empty Line or any
// non-Line node (most commonly Ellipsis) always breaks the run and passes
// through unchanged. This is a behavior-equivalent simplification of the
// original's pairwise left-fold over node.children: both produce the same
// output, using a single run-accumulate-and-flush pass instead.
func preprocessParagraphs(node *ast.Node, settings rulelang.Settings) {
	if !settings.IsParagraphable || len(node.Headers) > 0 || len(node.Children) == 0 {
		return
	}

	var out []*ast.Node
	var run []*ast.Node
	flush := func() {
		if len(run) == 0 {
			return
		}
		values := make([]string, len(run))
		for i, c := range run {
			values[i] = c.Text
		}
		out = append(out, &ast.Node{
			Rule:     ast.Paragraph,
			Text:     strings.Join(values, " "),
			Children: append([]*ast.Node(nil), run...),
		})
		run = nil
	}

	for _, c := range node.Children {
		if c.Rule == ast.Line && c.Text != "" {
			run = append(run, c)
			continue
		}
		flush()
		out = append(out, c)
	}
	flush()
	node.Children = out
}
