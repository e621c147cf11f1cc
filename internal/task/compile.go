package task

import (
	"strings"

	"github.com/ritamzico/murk/internal/ast"
	"github.com/ritamzico/murk/internal/compiler"
	"github.com/ritamzico/murk/internal/opgraph"
	"github.com/ritamzico/murk/internal/state"
	"github.com/ritamzico/murk/internal/types"
)

// Compile renders op's (preprocessed) AST to a text artifact under the
// "compile:" scheme using format's COMPILE rules. An empty format or
// "plaintext" is handed to CompilePlaintext instead.
func Compile(op opgraph.Op, format string, s *state.State) (bool, error) {
	if format == "" || format == "plaintext" {
		return CompilePlaintext(op, s)
	}
	lang, ok := s.Lang(format)
	if !ok {
		return false, types.NewError(types.KindInternal, "no language loaded for format: "+format)
	}

	handle, ok := s.ASTs.Get("ast:" + op.Path)
	if !ok {
		return false, types.NewError(types.KindInternal, "compile requested before preprocess: "+op.Path)
	}

	out, err := compiler.Compile(handle.Node, lang)
	if err != nil {
		return false, types.WrapError(types.KindRule, "compiling "+op.Path, err)
	}

	unlock := s.LockArtifacts()
	defer unlock()
	s.Artifacts["compile:"+op.Path] = &types.Artifact{Kind: types.ArtifactText, Text: out}
	return false, nil
}

// CompilePlaintext renders op's AST ignoring all COMPILE rules, producing
// the node tree's bare text content (every Line's text, in tree order, each
// followed by a newline) -- used when format is empty or explicitly
// "plaintext". Pointers are not followed.
func CompilePlaintext(op opgraph.Op, s *state.State) (bool, error) {
	handle, ok := s.ASTs.Get("ast:" + op.Path)
	if !ok {
		return false, types.NewError(types.KindInternal, "compile requested before preprocess: "+op.Path)
	}

	var out strings.Builder
	var walk func(n *ast.Node)
	walk = func(n *ast.Node) {
		if n.Rule == ast.Line {
			out.WriteString(n.Text + "\n")
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(handle.Node)

	unlock := s.LockArtifacts()
	defer unlock()
	s.Artifacts["compile:"+op.Path] = &types.Artifact{Kind: types.ArtifactText, Text: out.String()}
	return false, nil
}
