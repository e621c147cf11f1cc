package rulelang

import (
	"strings"

	"github.com/ritamzico/murk/internal/types"
)

// Context carries the VM's mutable evaluation state across one compile or
// preprocess walk: named stacks the rule instructions push/pop/peek (e.g.
// the "join" stack the compiler reads between siblings).
type Context struct {
	Stacks map[string][]string
}

func NewContext() *Context {
	return &Context{Stacks: map[string][]string{}}
}

func (c *Context) push(stack, value string) {
	c.Stacks[stack] = append(c.Stacks[stack], value)
}

func (c *Context) pop(stack string) (string, bool) {
	s := c.Stacks[stack]
	if len(s) == 0 {
		return "", false
	}
	v := s[len(s)-1]
	c.Stacks[stack] = s[:len(s)-1]
	return v, true
}

// peek reads a stack's top frame without removing it. WRITE stack and the
// "PUSH stack,stack'" copy form both read this way: neither consumes the
// source stack.
func (c *Context) peek(stack string) string {
	s := c.Stacks[stack]
	if len(s) == 0 {
		return ""
	}
	return s[len(s)-1]
}

// Node is the minimal surface the VM needs from an ast.Node, kept as an
// interface so rulelang has no import-cycle dependency on package ast.
type Node interface {
	PropValue(name string) (string, bool)
	SetProp(name, value string)
	RemoveProp(name string) bool
	Value() string
	Marker() string
	// ChildLines returns the text of every immediate Line child, feeding
	// EXEC's "input" (the concatenation of a node's children's line
	// values).
	ChildLines() []string
}

// Cursor holds one node-visit's resume position into each of its matching
// rules' own instruction lists. A fresh Cursor is created once per node as
// compileRecursive/preprocessRecursive visits it, then threaded through
// exactly two passes (EvaluatePre, EvaluatePost) -- mirroring
// preprocess_recursive's rules_stack: every matched rule keeps its own
// cursor, run forward (file order) before yielding and in reverse (LIFO)
// after, rather than one flattened instruction stream shared by every
// matching rule.
type Cursor struct {
	rules []*Rule
	pos   []int
}

// NewCursor prepares a cursor over the rules matched for one node.
func NewCursor(rules []*Rule) *Cursor {
	return &Cursor{rules: rules, pos: make([]int, len(rules))}
}

// resolveArg resolves one instruction argument against the current node,
// context and rule settings: a quoted string literal is run through
// expand(); a StackRef peeks a named context stack (never pops it); a
// PropRef reads a node property; Int/unknown fall back to their literal
// text.
func resolveArg(a Arg, node Node, ctx *Context, settings Settings) string {
	switch a.Kind {
	case ArgStr:
		return expand(a.Str, node, ctx, settings)
	case ArgPropRef:
		v, _ := node.PropValue(a.PropRef)
		return v
	case ArgStackRef:
		return ctx.peek(a.StackRef)
	default:
		return a.String()
	}
}

// EvaluatePre runs every rule in cur from its current resume position up
// to (and past) its next YIELD, or to completion if it has none, in file
// (forward) order. Call once before descending into a node's children.
func EvaluatePre(cur *Cursor, ctx *Context, deps *[]types.Dependency, node Node) (string, error) {
	var out strings.Builder
	for i, r := range cur.rules {
		s, next, err := evalOne(r, cur.pos[i], ctx, deps, node)
		if err != nil {
			return "", err
		}
		cur.pos[i] = next
		out.WriteString(s)
	}
	return out.String(), nil
}

// EvaluatePost resumes every rule in cur to completion, in reverse (LIFO)
// order: the last-matched rule runs its tail first. Call once after
// returning from a node's children. Mirrors preprocess_recursive's
// "rules_stack.reverse()" before the post-yield pass.
func EvaluatePost(cur *Cursor, ctx *Context, deps *[]types.Dependency, node Node) (string, error) {
	var out strings.Builder
	for i := len(cur.rules) - 1; i >= 0; i-- {
		r := cur.rules[i]
		s, next, err := evalOne(r, cur.pos[i], ctx, deps, node)
		if err != nil {
			return "", err
		}
		cur.pos[i] = next
		out.WriteString(s)
	}
	return out.String(), nil
}

// resolveExecArg resolves one of EXEC's three bare-token arguments: a
// $prop reference still reads the named node property, but a plain
// identifier or quoted literal is taken as its own raw text rather than
// expanded or peeked off a context stack.
func resolveExecArg(a Arg, node Node) string {
	if a.Kind == ArgPropRef {
		v, _ := node.PropValue(a.PropRef)
		return v
	}
	return a.String()
}

func execInput(node Node) (string, bool) {
	lines := node.ChildLines()
	if len(lines) == 0 {
		return "", false
	}
	return strings.Join(lines, "\n"), true
}

func evalOne(r *Rule, start int, ctx *Context, deps *[]types.Dependency, node Node) (string, int, error) {
	instrs := r.Instructions
	var out strings.Builder

	for i := start; i < len(instrs); i++ {
		instr := instrs[i]
		op := strings.ToUpper(instr.Op)
		args := make([]Arg, len(instr.Args))
		for j, a := range instr.Args {
			args[j] = fromAST(a)
		}

		switch op {
		case "NOOP":
			// nothing.
		case "YIELD":
			return out.String(), i + 1, nil
		case "PUSH":
			if len(args) < 2 {
				return "", 0, &EvalError{Kind: "Arity", Message: "PUSH requires stack,value"}
			}
			stackName := args[0].String()
			val := resolveArg(args[1], node, ctx, r.Settings)
			ctx.push(stackName, val)
			// PUSH src,... / PUSH ref,... also mirrors into the node's
			// own props, so a later "$src"/"$ref" lookup (and
			// preprocess_includes) sees the same resolved value.
			if stackName == "src" || stackName == "ref" {
				node.SetProp(stackName, val)
			}
		case "POP":
			if len(args) < 1 {
				return "", 0, &EvalError{Kind: "Arity", Message: "POP requires stack or prop"}
			}
			if args[0].Kind == ArgPropRef {
				node.RemoveProp(args[0].PropRef)
			} else {
				ctx.pop(args[0].String())
			}
		case "SET":
			if len(args) < 2 {
				return "", 0, &EvalError{Kind: "Arity", Message: "SET requires stack,value"}
			}
			stackName := args[0].String()
			val := resolveArg(args[1], node, ctx, r.Settings)
			s := ctx.Stacks[stackName]
			if len(s) == 0 {
				ctx.Stacks[stackName] = []string{val}
			} else {
				s[len(s)-1] = val
			}
		case "SWAP":
			if len(args) < 2 {
				return "", 0, &EvalError{Kind: "Arity", Message: "SWAP requires stack,stack"}
			}
			a, b := args[0].String(), args[1].String()
			ctx.Stacks[a], ctx.Stacks[b] = ctx.Stacks[b], ctx.Stacks[a]
		case "DRAIN":
			if len(args) < 1 {
				return "", 0, &EvalError{Kind: "Arity", Message: "DRAIN requires stack"}
			}
			delete(ctx.Stacks, args[0].String())
		case "WRITE":
			if len(args) < 1 {
				return "", 0, &EvalError{Kind: "Arity", Message: "WRITE requires a value"}
			}
			out.WriteString(resolveArg(args[0], node, ctx, r.Settings))
		case "WRITEALL":
			if len(args) < 1 {
				return "", 0, &EvalError{Kind: "Arity", Message: "WRITEALL requires stack"}
			}
			sep := ""
			if len(args) > 1 {
				sep = resolveArg(args[1], node, ctx, r.Settings)
			}
			out.WriteString(strings.Join(ctx.Stacks[args[0].String()], sep))
		case "EXEC":
			if len(args) < 3 {
				return "", 0, &EvalError{Kind: "Arity", Message: "EXEC requires cmd,(mediatype|file),uri-path"}
			}
			// EXEC's arguments are bare structural tokens (a command name,
			// a media type or the literal word "file", a URI path), not
			// stack references or string literals needing \v/$name
			// expansion, so they resolve to their own raw text rather than
			// through resolveArg -- except a $prop reference, which still
			// reads the node property it names.
			cmd := resolveExecArg(args[0], node)
			kind := resolveExecArg(args[1], node)
			uriPath := resolveExecArg(args[2], node)
			artifact := types.ExecArtifact{Kind: types.ExecStdout, MediaType: kind}
			if kind == "file" {
				artifact = types.ExecArtifact{Kind: types.ExecFile, Path: uriPath}
			}
			input, hasInput := execInput(node)
			if deps != nil {
				*deps = append(*deps, types.Dependency{
					Kind:     types.DepExec,
					Cmd:      cmd,
					Input:    input,
					HasInput: hasInput,
					Artifact: artifact,
					ID:       uriPath,
				})
			}
		default:
			return "", 0, &EvalError{Kind: "UnknownOp", Message: "unknown instruction: " + instr.Op}
		}
	}
	return out.String(), len(instrs), nil
}
