package rulelang

import "fmt"

// ArgKind distinguishes which alternative of ArgAST fired, mirroring the
// original Arg enum in compiler/rule_argument.rs.
type ArgKind int

const (
	ArgStr ArgKind = iota
	ArgInt
	ArgStackRef
	ArgPropRef
)

// Arg is the resolved, engine-facing argument value (ArgAST is the parse
// tree; Arg is what the VM actually operates on).
type Arg struct {
	Kind     ArgKind
	Str      string
	Int      int
	StackRef string
	PropRef  string
}

func (a Arg) String() string {
	switch a.Kind {
	case ArgStr:
		return a.Str
	case ArgInt:
		return fmt.Sprintf("%d", a.Int)
	case ArgStackRef:
		return a.StackRef
	case ArgPropRef:
		return "$" + a.PropRef
	default:
		return ""
	}
}

func fromAST(a *ArgAST) Arg {
	switch {
	case a.Str != nil:
		return Arg{Kind: ArgStr, Str: *a.Str}
	case a.Int != nil:
		return Arg{Kind: ArgInt, Int: *a.Int}
	case a.PropRef != nil:
		return Arg{Kind: ArgPropRef, PropRef: (*a.PropRef)[1:]}
	case a.StackRef != nil:
		return Arg{Kind: ArgStackRef, StackRef: *a.StackRef}
	default:
		return Arg{}
	}
}
