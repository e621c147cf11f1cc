package rulelang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritamzico/murk/internal/types"
)

func TestParseFile_SimpleRule(t *testing.T) {
	src := `RULES FOR t PRODUCE text/plain

COMPILE RULES:
Root/Line
  WRITE "> "
  WRITE $text
`
	lang, err := ParseFile("unused", src)
	require.NoError(t, err)
	assert.Equal(t, "t", lang.Name)
	assert.Equal(t, "text/plain", lang.MediaType)

	rules := lang.MatchRules("COMPILE", "Root/Line")
	require.Len(t, rules, 1)
	assert.Len(t, rules[0].Instructions, 2)
}

func TestParseFile_DefaultNameUsedWhenPreambleOmitsIt(t *testing.T) {
	lang, err := ParseFile("fallback", "RULES FOR  PRODUCE text/plain\n")
	require.NoError(t, err)
	assert.Equal(t, "fallback", lang.Name)
}

func TestParseFile_MissingPreambleIsError(t *testing.T) {
	_, err := ParseFile("t", "COMPILE RULES:\nRoot/Line\n  WRITE \"x\"\n")
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "MissingPreamble", perr.Kind)
}

func TestParseFile_OrphanInstruction(t *testing.T) {
	_, err := ParseFile("t", "RULES FOR t PRODUCE text/plain\n\nCOMPILE RULES:\n  WRITE \"x\"\n")
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "OrphanInstruction", perr.Kind)
}

func TestParseFile_OrphanPatternBeforeStage(t *testing.T) {
	_, err := ParseFile("t", "RULES FOR t PRODUCE text/plain\nRoot/Line\n")
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "OrphanPattern", perr.Kind)
}

func TestParseFile_NonComposableStopsMatchingAfterFirstHit(t *testing.T) {
	lang, err := ParseFile("t", `RULES FOR t PRODUCE text/plain

COMPILE RULES:
...
  WRITE "a"
...
  WRITE "b"
`)
	require.NoError(t, err)
	rules := lang.MatchRules("COMPILE", "Root/Line")
	require.Len(t, rules, 1)
}

func TestParseFile_ComposableContinuesMatching(t *testing.T) {
	lang, err := ParseFile("t", `RULES FOR t PRODUCE text/plain

COMPILE RULES:
...
  IS COMPOSABLE
  WRITE "a"
...
  WRITE "b"
`)
	require.NoError(t, err)
	rules := lang.MatchRules("COMPILE", "Root/Line")
	require.Len(t, rules, 2)
}

// fakeNode is a minimal rulelang.Node for VM tests, standing in for
// ast.Node so this package stays free of an ast import cycle.
type fakeNode struct {
	props  []struct{ k, v string }
	text   string
	marker string
	lines  []string
}

func (f *fakeNode) PropValue(name string) (string, bool) {
	for _, p := range f.props {
		if p.k == name {
			return p.v, true
		}
	}
	return "", false
}

func (f *fakeNode) SetProp(name, value string) {
	for i, p := range f.props {
		if p.k == name {
			f.props[i].v = value
			return
		}
	}
	f.props = append(f.props, struct{ k, v string }{name, value})
}

func (f *fakeNode) RemoveProp(name string) bool {
	for i, p := range f.props {
		if p.k == name {
			f.props = append(f.props[:i], f.props[i+1:]...)
			return true
		}
	}
	return false
}

func (f *fakeNode) Value() string       { return f.text }
func (f *fakeNode) Marker() string      { return f.marker }
func (f *fakeNode) ChildLines() []string { return f.lines }

func matchedRules(t *testing.T, lang *Lang, stage, path string) []*Rule {
	t.Helper()
	rules := lang.MatchRules(stage, path)
	require.NotEmpty(t, rules)
	return rules
}

func TestEvaluate_WriteAndYield(t *testing.T) {
	lang, err := ParseFile("t", `RULES FOR t PRODUCE text/plain

COMPILE RULES:
Root/Line
  WRITE "<"
  YIELD
  WRITE ">"
`)
	require.NoError(t, err)
	ctx := NewContext()
	node := &fakeNode{text: "hi"}
	cur := NewCursor(matchedRules(t, lang, "COMPILE", "Root/Line"))

	pre, err := EvaluatePre(cur, ctx, nil, node)
	require.NoError(t, err)
	assert.Equal(t, "<", pre)

	post, err := EvaluatePost(cur, ctx, nil, node)
	require.NoError(t, err)
	assert.Equal(t, ">", post)
}

func TestEvaluate_YieldResumeIsPerNode(t *testing.T) {
	lang, err := ParseFile("t", `RULES FOR t PRODUCE text/plain

COMPILE RULES:
Root/Line
  WRITE "<"
  YIELD
  WRITE ">"
`)
	require.NoError(t, err)
	ctx := NewContext()
	rules := matchedRules(t, lang, "COMPILE", "Root/Line")

	foo := &fakeNode{text: "foo"}
	fooCur := NewCursor(rules)
	fooPre, err := EvaluatePre(fooCur, ctx, nil, foo)
	require.NoError(t, err)
	assert.Equal(t, "<", fooPre)

	bar := &fakeNode{text: "bar"}
	barCur := NewCursor(rules)
	barPre, err := EvaluatePre(barCur, ctx, nil, bar)
	require.NoError(t, err)
	assert.Equal(t, "<", barPre, "a sibling's fresh cursor must not inherit foo's resume position")

	fooPost, err := EvaluatePost(fooCur, ctx, nil, foo)
	require.NoError(t, err)
	assert.Equal(t, ">", fooPost)

	barPost, err := EvaluatePost(barCur, ctx, nil, bar)
	require.NoError(t, err)
	assert.Equal(t, ">", barPost)
}

func TestEvaluate_PrePostOrderIsForwardThenLIFO(t *testing.T) {
	lang, err := ParseFile("t", `RULES FOR t PRODUCE text/plain

COMPILE RULES:
...
  IS COMPOSABLE
  WRITE "1pre,"
  YIELD
  WRITE "1post,"
...
  IS COMPOSABLE
  WRITE "2pre,"
  YIELD
  WRITE "2post,"
`)
	require.NoError(t, err)
	ctx := NewContext()
	rules := matchedRules(t, lang, "COMPILE", "Root/Line")
	cur := NewCursor(rules)

	pre, err := EvaluatePre(cur, ctx, nil, &fakeNode{})
	require.NoError(t, err)
	assert.Equal(t, "1pre,2pre,", pre)

	post, err := EvaluatePost(cur, ctx, nil, &fakeNode{})
	require.NoError(t, err)
	assert.Equal(t, "2post,1post,", post)
}

func TestEvaluate_PropRef(t *testing.T) {
	lang, err := ParseFile("t", `RULES FOR t PRODUCE text/plain

COMPILE RULES:
Root/Block(>)
  WRITE $src
`)
	require.NoError(t, err)
	ctx := NewContext()
	node := &fakeNode{props: []struct{ k, v string }{{"src", "bar"}}}
	out, err := EvaluatePre(NewCursor(matchedRules(t, lang, "COMPILE", "Root/Block(>)")), ctx, nil, node)
	require.NoError(t, err)
	assert.Equal(t, "bar", out)
}

func TestEvaluate_StackPushWriteSetDrain(t *testing.T) {
	lang, err := ParseFile("t", `RULES FOR t PRODUCE text/plain

COMPILE RULES:
Root/Line
  PUSH join,"a"
  PUSH join,"b"
  WRITE join
  SET join,"c"
  WRITE join
  PUSH other,join
  DRAIN join
  WRITE other
`)
	require.NoError(t, err)
	ctx := NewContext()
	out, err := EvaluatePre(NewCursor(matchedRules(t, lang, "COMPILE", "Root/Line")), ctx, nil, &fakeNode{})
	require.NoError(t, err)
	// WRITE join peeks "b" (not popped); SET replaces the top with "c" and
	// WRITE join reads that; PUSH other,join copies "c" without touching
	// join; DRAIN join empties it, leaving "other" unaffected.
	assert.Equal(t, "bcc", out)
	assert.Empty(t, ctx.Stacks["join"])
}

func TestEvaluate_StackRefIsPeekNotPop(t *testing.T) {
	lang, err := ParseFile("t", `RULES FOR t PRODUCE text/plain

COMPILE RULES:
Root/Line
  PUSH join,"x"
  WRITE join
  WRITE join
`)
	require.NoError(t, err)
	ctx := NewContext()
	out, err := EvaluatePre(NewCursor(matchedRules(t, lang, "COMPILE", "Root/Line")), ctx, nil, &fakeNode{})
	require.NoError(t, err)
	assert.Equal(t, "xx", out)
}

func TestEvaluate_PushMirrorsSrcAndRefIntoProps(t *testing.T) {
	lang, err := ParseFile("t", `RULES FOR t PRODUCE text/plain

COMPILE RULES:
Root/Line
  PUSH src,"exec?:date"
`)
	require.NoError(t, err)
	node := &fakeNode{}
	_, err = EvaluatePre(NewCursor(matchedRules(t, lang, "COMPILE", "Root/Line")), NewContext(), nil, node)
	require.NoError(t, err)
	v, ok := node.PropValue("src")
	require.True(t, ok)
	assert.Equal(t, "exec?:date", v)
}

func TestEvaluate_PopPropRemovesIt(t *testing.T) {
	lang, err := ParseFile("t", `RULES FOR t PRODUCE text/plain

COMPILE RULES:
Root/Line
  POP $tmp
`)
	require.NoError(t, err)
	node := &fakeNode{props: []struct{ k, v string }{{"tmp", "x"}}}
	_, err = EvaluatePre(NewCursor(matchedRules(t, lang, "COMPILE", "Root/Line")), NewContext(), nil, node)
	require.NoError(t, err)
	_, ok := node.PropValue("tmp")
	assert.False(t, ok)
}

func TestEvaluate_WriteAllJoinsStackWithSeparator(t *testing.T) {
	lang, err := ParseFile("t", `RULES FOR t PRODUCE text/plain

COMPILE RULES:
Root/Line
  PUSH items,"a"
  PUSH items,"b"
  WRITEALL items,", "
`)
	require.NoError(t, err)
	out, err := EvaluatePre(NewCursor(matchedRules(t, lang, "COMPILE", "Root/Line")), NewContext(), nil, &fakeNode{})
	require.NoError(t, err)
	assert.Equal(t, "a, b", out)
}

func TestEvaluate_ExecEmitsDependencyWithArtifactAndInput(t *testing.T) {
	lang, err := ParseFile("t", `RULES FOR t PRODUCE text/plain

COMPILE RULES:
Root/Block(>)
  EXEC date,text/plain,date
`)
	require.NoError(t, err)
	node := &fakeNode{lines: []string{"one", "two"}}
	var deps []types.Dependency
	_, err = EvaluatePre(NewCursor(matchedRules(t, lang, "COMPILE", "Root/Block(>)")), NewContext(), &deps, node)
	require.NoError(t, err)

	require.Len(t, deps, 1)
	d := deps[0]
	assert.Equal(t, types.DepExec, d.Kind)
	assert.Equal(t, "date", d.Cmd)
	assert.Equal(t, "date", d.ID)
	assert.True(t, d.HasInput)
	assert.Equal(t, "one\ntwo", d.Input)
	assert.Equal(t, types.ExecStdout, d.Artifact.Kind)
	assert.Equal(t, "text/plain", d.Artifact.MediaType)
}

func TestExpand_ValueMarkerNewlineQuoteAndPropRef(t *testing.T) {
	node := &fakeNode{text: "a&b", marker: ">"}
	ctx := NewContext()
	ctx.push("name", "fallback")

	got := expand(`\v \m \n \" $name`, node, ctx, Settings{})
	assert.Equal(t, "a&amp;b > \n \" fallback", got)
}

func TestExpand_UnescapedValueSkipsHTMLEscaping(t *testing.T) {
	node := &fakeNode{text: "a&b"}
	got := expand(`\v`, node, NewContext(), Settings{IsUnescapedValue: true})
	assert.Equal(t, "a&b", got)
}

func TestExpand_PropRefPrefersNodePropOverStack(t *testing.T) {
	node := &fakeNode{props: []struct{ k, v string }{{"name", "node-value"}}}
	ctx := NewContext()
	ctx.push("name", "stack-value")
	assert.Equal(t, "node-value", expand("$name", node, ctx, Settings{}))
}

func TestSettingsMerge_BooleansOrTogetherDefaultsOverride(t *testing.T) {
	base := Settings{IsParagraphable: true, DefaultSrc: "parse"}
	merged := base.Merge(Settings{IsComposable: true, DefaultSrc: "exec"})
	assert.True(t, merged.IsParagraphable)
	assert.True(t, merged.IsComposable)
	assert.Equal(t, "exec", merged.DefaultSrc)
}
