// Package rulelang parses murk rule files and interprets their instructions
// against an AST node plus an evaluation context. A rule file groups rules
// under "PREPROCESS RULES:" / "COMPILE RULES:" sections; each rule binds a
// path pattern ("Root/Block(>)/Section") to an indented block of
// instructions.
package rulelang

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// instructionLexer tokenizes one instruction line. Grounded on
// ritamzico-pgraph/internal/dsl/grammar.go's dslLexer: a Keyword set for
// opcodes, then literal/reference token kinds, then punctuation/whitespace.
var instructionLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Keyword", Pattern: `(?i)\b(NOOP|PUSH|POP|SET|SWAP|DRAIN|WRITEALL|WRITE|YIELD|EXEC)\b`},
	{Name: "PropRef", Pattern: `\$[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Str", Pattern: `"(\\"|[^"])*"`},
	{Name: "Int", Pattern: `[-+]?\d+`},
	{Name: "StackRef", Pattern: `[a-zA-Z_][a-zA-Z0-9_./-]*`},
	{Name: "Punct", Pattern: `[()\[\],]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// ArgAST is one argument to an instruction: exactly one alternative is set,
// mirroring the Arg enum (Str/Int/StackRef/PropRef) from the original
// compiler/rule_argument.rs.
type ArgAST struct {
	Str      *string `parser:"  @Str"`
	Int      *int    `parser:"| @Int"`
	PropRef  *string `parser:"| @PropRef"`
	StackRef *string `parser:"| @StackRef"`
}

// InstructionAST is one line: an opcode keyword followed by zero or more
// comma-separated arguments. Shaped after dsl.CreateEdgeAST's flat
// field-per-clause layout.
type InstructionAST struct {
	Op   string    `parser:"@Keyword"`
	Args []*ArgAST `parser:"(@@ (\",\" @@)*)?"`
}

// instructionParser intentionally does NOT use participle.Unquote: murk's
// own escapes (\v, \m) are not valid Go string escapes, so strconv-based
// unquoting would reject them. Str keeps its surrounding quotes in the raw
// token text; stripQuotes below removes them without interpreting
// anything inside, leaving \v, \m, \n, \" and $name intact for the
// runtime expand() pass.
var instructionParser = participle.MustBuild[InstructionAST](
	participle.Lexer(instructionLexer),
	participle.Elide("Whitespace"),
)

// parseInstructionLine parses a single trimmed instruction line.
func parseInstructionLine(line string) (*InstructionAST, error) {
	ast, err := instructionParser.ParseString("", line)
	if err != nil {
		return nil, err
	}
	for _, a := range ast.Args {
		if a.Str != nil {
			*a.Str = stripQuotes(*a.Str)
		}
	}
	return ast, nil
}

// stripQuotes removes a Str token's surrounding double quotes, leaving its
// interior (including any \" escape sequence) untouched.
func stripQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
