package preprocessor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritamzico/murk/internal/ast"
	"github.com/ritamzico/murk/internal/rulelang"
	"github.com/ritamzico/murk/internal/types"
)

const paragraphableRules = `RULES FOR test PRODUCE text/plain

PREPROCESS RULES:
[] [SEC]
  IS PARAGRAPHABLE
`

func mustParse(t *testing.T, src string) *rulelang.Lang {
	t.Helper()
	lang, err := rulelang.ParseFile("test", src)
	require.NoError(t, err)
	return lang
}

func TestPreprocess_FoldsAdjacentLinesIntoParagraph(t *testing.T) {
	section := ast.NewSection().AddChildren(
		ast.NewLine("one"),
		ast.NewLine("two"),
	).Done()
	root := ast.NewRoot().AddChildren(section, ast.NewBlock(">").Done()).Done()

	lang := mustParse(t, paragraphableRules)
	m := ast.NewMap()
	_, err := Preprocess(root, lang, m, types.LocationMap{}, "doc.mur")
	require.NoError(t, err)

	require.Len(t, root.Children, 2)
	sec := root.Children[0]
	require.Len(t, sec.Children, 1)
	assert.Equal(t, ast.Paragraph, sec.Children[0].Rule)
	assert.Equal(t, "one two", sec.Children[0].Text)
	assert.Len(t, sec.Children[0].Children, 2)
	assert.Equal(t, ast.Block, root.Children[1].Rule)
}

func TestPreprocess_WrapsSolitaryLineAndPreservesBreaks(t *testing.T) {
	section := ast.NewSection().AddChildren(
		ast.NewLine("foo"),
		ast.NewEllipsis(),
		ast.NewLine("bar"),
		ast.NewLine(""),
		ast.NewLine("baz"),
	).Done()
	root := ast.NewRoot().AddChildren(section).Done()

	lang := mustParse(t, paragraphableRules)
	m := ast.NewMap()
	_, err := Preprocess(root, lang, m, types.LocationMap{}, "doc.mur")
	require.NoError(t, err)

	children := root.Children[0].Children
	require.Len(t, children, 5)
	assert.Equal(t, ast.Paragraph, children[0].Rule)
	assert.Equal(t, "foo", children[0].Text)
	assert.Equal(t, ast.Ellipsis, children[1].Rule)
	assert.Equal(t, ast.Paragraph, children[2].Rule)
	assert.Equal(t, "bar", children[2].Text)
	assert.Equal(t, ast.Line, children[3].Rule)
	assert.Equal(t, "", children[3].Text)
	assert.Equal(t, ast.Paragraph, children[4].Rule)
	assert.Equal(t, "baz", children[4].Text)
}

func TestPreprocess_NoParagraphableRuleLeavesLinesBare(t *testing.T) {
	section := ast.NewSection().AddChildren(
		ast.NewLine("one"),
		ast.NewLine("two"),
	).Done()
	root := ast.NewRoot().AddChildren(section).Done()

	_, err := Preprocess(root, rulelang.Default(), ast.NewMap(), types.LocationMap{}, "doc.mur")
	require.NoError(t, err)

	require.Len(t, root.Children[0].Children, 2)
	assert.Equal(t, ast.Line, root.Children[0].Children[0].Rule)
}

func TestPreprocess_MovesIDIntoMap(t *testing.T) {
	child := ast.NewLine("body")
	node := ast.NewBlock("h").AddProp("id", "intro").AddChildren(child).Done()
	root := ast.NewRoot().AddChildren(node).Done()

	m := ast.NewMap()
	res, err := Preprocess(root, rulelang.Default(), m, types.LocationMap{}, "doc.mur")
	require.NoError(t, err)
	assert.Contains(t, res.NewKeys, "parse:doc.mur#intro")

	// The node left in the tree becomes a childless clone pointing at the
	// moved original; it is no longer the original node object.
	moved := root.Children[0]
	assert.Empty(t, moved.Children)
	require.NotNil(t, moved.Pointer)

	h, ok := m.Get("parse:doc.mur#intro")
	require.True(t, ok)
	assert.Equal(t, "id", h.Node.Props[0].Key)
	require.Len(t, h.Node.Children, 1)
	assert.Equal(t, "body", h.Node.Children[0].Text)
}

func TestPreprocess_TopLevelIDHasNoSchemePrefix(t *testing.T) {
	node := ast.NewBlock("h").AddProp("id", "intro").Done()
	root := ast.NewRoot().AddChildren(node).Done()

	m := ast.NewMap()
	res, err := Preprocess(root, rulelang.Default(), m, types.LocationMap{}, "")
	require.NoError(t, err)
	assert.Contains(t, res.NewKeys, "intro")
}

func TestPreprocess_DuplicateIDIsError(t *testing.T) {
	a := ast.NewBlock("a").AddProp("id", "x").Done()
	b := ast.NewBlock("b").AddProp("id", "x").Done()
	root := ast.NewRoot().AddChildren(a, b).Done()

	m := ast.NewMap()
	_, err := Preprocess(root, rulelang.Default(), m, types.LocationMap{}, "doc.mur")
	require.Error(t, err)
	var dupErr *DuplicateIDError
	require.ErrorAs(t, err, &dupErr)
}

func TestPreprocess_ResolvesSrcAndSynthesizesPointerChild(t *testing.T) {
	node := ast.NewBlock("h").AddProp("src", "other.mur").Done()
	root := ast.NewRoot().AddChildren(node).Done()

	locations := types.LocationMap{"other.mur": "/abs/other.mur"}
	m := ast.NewMap()
	res, err := Preprocess(root, rulelang.Default(), m, locations, "doc.mur")
	require.NoError(t, err)

	require.Len(t, res.Deps, 1)
	assert.Equal(t, types.DepURI, res.Deps[0].Kind)
	assert.Equal(t, "src", res.Deps[0].PropKind)
	assert.Equal(t, "parse:other.mur", res.Deps[0].To)

	// node had no children of its own, so a sole Section child is
	// synthesized to carry the pointer rather than attaching to node.
	assert.Nil(t, node.Pointer)
	require.Len(t, node.Children, 1)
	require.NotNil(t, node.Children[0].Pointer)
	assert.Equal(t, "parse:other.mur", node.Children[0].Pointer.Target)
	_, ok := m.Get("parse:other.mur")
	assert.True(t, ok)
}

func TestPreprocess_ResolvesSrcOnNodeWithNonEllipsisChildren(t *testing.T) {
	node := ast.NewBlock("h").AddProp("src", "other.mur").AddChildren(ast.NewLine("x")).Done()
	root := ast.NewRoot().AddChildren(node).Done()

	locations := types.LocationMap{"other.mur": "/abs/other.mur"}
	m := ast.NewMap()
	_, err := Preprocess(root, rulelang.Default(), m, locations, "doc.mur")
	require.NoError(t, err)

	// No reachable Ellipsis descendant, so the pointer attaches to node
	// itself rather than being synthesized or dropped.
	require.NotNil(t, node.Pointer)
	assert.Equal(t, "parse:other.mur", node.Pointer.Target)
}

func TestPreprocess_SrcTargetsReachableEllipsis(t *testing.T) {
	ell := ast.NewEllipsis()
	node := ast.NewBlock("h").AddProp("src", "exec?:date").AddChildren(ell).Done()
	root := ast.NewRoot().AddChildren(node).Done()

	m := ast.NewMap()
	_, err := Preprocess(root, rulelang.Default(), m, types.LocationMap{}, "doc.mur")
	require.NoError(t, err)

	assert.Nil(t, node.Pointer)
	require.NotNil(t, ell.Pointer)
	assert.Equal(t, "exec:date", ell.Pointer.Target)
}

func TestPreprocess_RefDoesNotAttachPointer(t *testing.T) {
	node := ast.NewBlock("h").AddProp("ref", "out.html").Done()
	root := ast.NewRoot().AddChildren(node).Done()

	res, err := Preprocess(root, rulelang.Default(), ast.NewMap(), types.LocationMap{}, "doc.mur")
	require.NoError(t, err)

	assert.Nil(t, node.Pointer)
	require.Len(t, res.Deps, 1)
	assert.Equal(t, "ref", res.Deps[0].PropKind)
}

func TestPreprocessHeaders_MarkerDrivenAndIdempotent(t *testing.T) {
	block := ast.NewBlock("#").Done()
	preprocessHeaders(block)
	preprocessHeaders(block)
	assert.Equal(t, []string{"HEADING"}, block.Headers)
}

func TestResolvePath_SiblingMatch(t *testing.T) {
	resolved, ok := resolvePath("other.mur", []string{"docs/other.mur"}, "docs/readme.mur")
	require.True(t, ok)
	assert.Equal(t, "docs/other.mur", resolved)
}

func TestResolvePath_WithinContextWinsOverSibling(t *testing.T) {
	resolved, ok := resolvePath("x.mur", []string{"docs/sub/x.mur", "docs/x.mur"}, "docs/sub/")
	require.True(t, ok)
	assert.Equal(t, "docs/sub/x.mur", resolved)
}

func TestResolveSchemePath_StripsSchemePrefix(t *testing.T) {
	resolved, ok := resolveSchemePath("baz", "exec", []string{"exec:baz", "parse:baz"}, "")
	require.True(t, ok)
	assert.Equal(t, "baz", resolved)
}
