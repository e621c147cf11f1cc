// Package compiler walks a (possibly pointer-spliced) AST and applies a
// language's COMPILE rules to produce a text artifact.
package compiler

import (
	"strings"

	"github.com/ritamzico/murk/internal/ast"
	"github.com/ritamzico/murk/internal/rulelang"
	"github.com/ritamzico/murk/internal/types"
)

// Compile renders node (and its descendants) to a string using lang's
// COMPILE rules. Ported from the original compile_recusive: evaluate a
// node's matching rules pre-yield, descend (through a pointer if present,
// otherwise into direct children), evaluate post-yield, then emit the
// "join" stack's top value between siblings.
func Compile(node *ast.Node, lang *rulelang.Lang) (string, error) {
	if lang == nil {
		lang = rulelang.Default()
	}
	var deps []types.Dependency
	return compileRecursive([]*ast.Node{node}, rulelang.NewContext(), &deps, lang, "")
}

// CompileWithDeps is Compile but also returns the dependency edges
// emitted by EXEC instructions in the matched rules while rendering.
func CompileWithDeps(node *ast.Node, lang *rulelang.Lang) (string, []types.Dependency, error) {
	if lang == nil {
		lang = rulelang.Default()
	}
	var deps []types.Dependency
	out, err := compileRecursive([]*ast.Node{node}, rulelang.NewContext(), &deps, lang, "")
	return out, deps, err
}

func compileRecursive(nodes []*ast.Node, ctx *rulelang.Context, deps *[]types.Dependency, lang *rulelang.Lang, basePath string) (string, error) {
	var out strings.Builder

	for i, node := range nodes {
		path := node.BuildPath(basePath)
		rules := lang.MatchRules("COMPILE", path)
		cur := rulelang.NewCursor(rules)

		pre, err := rulelang.EvaluatePre(cur, ctx, deps, node)
		if err != nil {
			return "", err
		}
		out.WriteString(pre)

		if node.Pointer != nil {
			target, ok := node.Pointer.Follow()
			if !ok {
				return "", &CompileError{Kind: "DeadPointer", Message: "pointer target missing from AST map: " + node.Pointer.Target}
			}
			children := target.Children
			// Ellipsis nodes splice in one extra level of the target's
			// own wrapper (Block/Section) children before resuming
			// normal per-child compilation, so an Ellipsis standing in
			// for a whole included Section renders that section's
			// contents directly rather than re-wrapping them.
			if node.Rule == ast.Ellipsis && len(children) == 1 && len(children[0].Children) > 0 {
				children = children[0].Children
			}
			if len(children) > 0 {
				s, err := compileRecursive(children, ctx, deps, lang, path)
				if err != nil {
					return "", err
				}
				out.WriteString(s)
			}
		} else if len(node.Children) > 0 {
			s, err := compileRecursive(node.Children, ctx, deps, lang, path)
			if err != nil {
				return "", err
			}
			out.WriteString(s)
		}

		post, err := rulelang.EvaluatePost(cur, ctx, deps, node)
		if err != nil {
			return "", err
		}
		out.WriteString(post)

		if i < len(nodes)-1 || node.Rule == ast.Root {
			if joins := ctx.Stacks["join"]; len(joins) > 0 {
				out.WriteString(joins[len(joins)-1])
			}
		}
	}
	return out.String(), nil
}

// CompileError reports a structural problem found while rendering, as
// distinct from a rulelang.EvalError raised by a bad instruction.
type CompileError struct {
	Kind    string
	Message string
}

func (e *CompileError) Error() string {
	return "compile error (" + e.Kind + "): " + e.Message
}
