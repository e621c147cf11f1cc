package rulelang

import "fmt"

// ParseError reports a malformed rule file. Kind is one of MissingPreamble,
// OrphanPattern (a pattern before any RULES: section), OrphanInstruction
// (an indented line outside any rule) or BadInstruction (a line the
// instruction grammar rejects, including an unknown opcode).
type ParseError struct {
	Kind    string
	Message string
	Line    int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("rule parse error (%s) at line %d: %s", e.Kind, e.Line, e.Message)
}

// EvalError reports a VM instruction that failed at evaluation time: Kind
// is Arity (too few arguments for the opcode) or UnknownOp. Reading an
// empty stack or a missing property is not an error; it yields "".
type EvalError struct {
	Kind    string
	Message string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("rule eval error (%s): %s", e.Kind, e.Message)
}
