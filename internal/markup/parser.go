// Package markup is a minimal parser for murk's block-structured source
// syntax: a block header line starts with a one-character marker (">",
// "#" or "!") followed by its header tokens (">name" for a
// blockquote-like block, "#name" for a titled section), and its body is
// the following tab-indented lines; bare lines become Line nodes directly
// under their parent, with no Section wrapper. This grammar itself is outside this spec's scope --
// only enough of it exists here to produce the ast.Node trees the
// preprocessor and compiler operate on.
package markup

import (
	"strings"

	"github.com/ritamzico/murk/internal/ast"
)

// Parse turns raw source text into a Root node.
func Parse(src string) *ast.Node {
	lines := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")
	root := ast.NewRoot().Done()
	root.Children = parseLines(lines, 0)
	return root
}

// parseLines consumes lines at exactly the given indent depth, returning
// the nodes produced (each bare line becomes one Line node; a header line
// opens a Block whose body is the next deeper indent level).
func parseLines(lines []string, depth int) []*ast.Node {
	var out []*ast.Node
	i := 0
	for i < len(lines) {
		raw := lines[i]
		if strings.TrimSpace(raw) == "" {
			i++
			continue
		}
		indent := leadingTabs(raw)
		if indent < depth {
			break
		}
		text := strings.TrimSpace(raw)

		if tag, name, ok := parseHeader(text); ok {
			body, consumed := collectBody(lines[i+1:], depth+1)
			block := ast.NewBlock(tag, strings.Fields(name)...).Done()
			block.Children = parseLines(body, 0)
			out = append(out, block)
			i += 1 + consumed
			continue
		}

		out = append(out, ast.NewLine(text))
		i++
	}
	return out
}

// collectBody returns the lines belonging to a header's indented body and
// how many source lines that consumed.
func collectBody(lines []string, depth int) ([]string, int) {
	var body []string
	n := 0
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			body = append(body, "")
			n++
			continue
		}
		if leadingTabs(l) < depth {
			break
		}
		body = append(body, strings.TrimPrefix(l, strings.Repeat("\t", depth)))
		n++
	}
	return body, n
}

func leadingTabs(s string) int {
	n := 0
	for n < len(s) && s[n] == '\t' {
		n++
	}
	return n
}

// parseHeader recognizes a block-opening line like ">quote", "#Title" or
// "!name".
func parseHeader(line string) (tag, name string, ok bool) {
	if line == "" {
		return "", "", false
	}
	switch line[0] {
	case '>', '#', '!':
		return string(line[0]), strings.TrimSpace(line[1:]), true
	default:
		return "", "", false
	}
}
