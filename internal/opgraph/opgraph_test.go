package opgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertNodeChain_WiresSequentialDependencies(t *testing.T) {
	g := New()
	final := g.InsertNodeChain(
		Op{Kind: OpLoad, Path: "a.mur"},
		Op{Kind: OpParse, Path: "a.mur"},
		Op{Kind: OpPreprocess, Path: "a.mur"},
	)
	assert.Equal(t, "parse:a.mur", final)
	deps := g.GetDependencies(final)
	require.Len(t, deps, 1)
	assert.Equal(t, "ast:a.mur", deps[0])
}

func TestGroupedTopologicalSort_OrdersByLevel(t *testing.T) {
	g := New()
	load := g.InsertNode(Op{Kind: OpLoad, Path: "a.mur"})
	parse := g.InsertNode(Op{Kind: OpParse, Path: "a.mur"})
	compile := g.InsertNode(Op{Kind: OpCompile, Path: "a.mur"})
	g.AddDependency(parse, load)
	g.AddDependency(compile, parse)

	levels, err := g.GroupedTopologicalSort()
	require.NoError(t, err)
	require.Len(t, levels, 3)
	assert.Equal(t, []string{load}, levels[0])
	assert.Equal(t, []string{parse}, levels[1])
	assert.Equal(t, []string{compile}, levels[2])
}

func TestGroupedTopologicalSort_DetectsCycle(t *testing.T) {
	g := New()
	a := g.InsertNode(Op{Kind: OpLoad, Path: "a"})
	b := g.InsertNode(Op{Kind: OpParse, Path: "a"})
	g.AddDependency(a, b)
	g.AddDependency(b, a)

	_, err := g.GroupedTopologicalSort()
	require.Error(t, err)
}
