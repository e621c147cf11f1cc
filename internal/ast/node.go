// Package ast represents parsed murk documents. Nodes form a tree, but a
// node may also carry a Pointer that redirects a compiler/preprocessor walk
// into a different part of the tree (or a different document entirely)
// without the two trees owning each other.
package ast

import "strings"

// Rule names the grammar production a node was built from. It doubles as
// the leading path segment used by the rule VM's pattern matcher.
type Rule string

const (
	Root      Rule = "Root"
	Block     Rule = "Block"
	Section   Rule = "Section"
	Paragraph Rule = "Paragraph"
	Line      Rule = "Line"
	Ellipsis  Rule = "Ellipsis"
)

// Prop is one (key, value) node property. Props are kept as an ordered
// slice rather than a map: POP prop removes only the first matching entry,
// and a rule file may legitimately set the same key twice.
type Prop struct {
	Key   string
	Value string
}

// Node is one element of a parsed document tree.
type Node struct {
	Rule Rule
	// Props are the node's (key, value) pairs parsed from its header line
	// (e.g. src="foo", id=bar) plus anything PUSH src/ref adds during
	// preprocessing/compiling.
	Props []Prop
	// Text is the node's own scalar value: a Line's (or folded
	// Paragraph's) literal text. Distinct from Headers, which name a
	// Block/Section rather than holding running text.
	Text string
	// MarkerChar is the token that opened this node in source: ">", "*",
	// "#", the three-space code marker, and so on. Empty for nodes with
	// no marker (Line, Ellipsis).
	MarkerChar string
	// Headers are the whitespace-delimited tokens from a Block/Section's
	// header line, in source order.
	Headers  []string
	Children []*Node
	Pointer  *Pointer
	// Errors are annotations attached by a failed parse/preprocess step
	// that didn't abort the whole run (e.g. an unresolved include left
	// standing so the rest of the document still builds).
	Errors []string
}

// NodeBuilder assembles a Node fluently, mirroring the teacher's and the
// original Rust implementation's test-construction helpers.
type NodeBuilder struct {
	node *Node
}

func NewRoot() *NodeBuilder {
	return &NodeBuilder{node: &Node{Rule: Root}}
}

// NewBlock starts a Block node opened by marker (">", "#", ...) with the
// given header tokens.
func NewBlock(marker string, headers ...string) *NodeBuilder {
	return &NodeBuilder{node: &Node{Rule: Block, MarkerChar: marker, Headers: headers}}
}

func NewSection() *NodeBuilder {
	return &NodeBuilder{node: &Node{Rule: Section}}
}

func NewLine(text string) *Node {
	return &Node{Rule: Line, Text: text}
}

func NewEllipsis() *Node {
	return &Node{Rule: Ellipsis}
}

func (b *NodeBuilder) AddProp(key, value string) *NodeBuilder {
	b.node.Props = append(b.node.Props, Prop{Key: key, Value: value})
	return b
}

func (b *NodeBuilder) WithHeaders(headers ...string) *NodeBuilder {
	b.node.Headers = headers
	return b
}

func (b *NodeBuilder) AddChildren(children ...*Node) *NodeBuilder {
	b.node.Children = append(b.node.Children, children...)
	return b
}

func (b *NodeBuilder) Done() *Node { return b.node }

// FindProp returns the value of the first prop named key.
func (n *Node) FindProp(key string) (string, bool) {
	for _, p := range n.Props {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// SetProp updates the first prop named key in place, or appends a new one.
func (n *Node) SetProp(key, value string) {
	for i, p := range n.Props {
		if p.Key == key {
			n.Props[i].Value = value
			return
		}
	}
	n.Props = append(n.Props, Prop{Key: key, Value: value})
}

// RemoveProp deletes the first prop named key, reporting whether one was
// found. Mirrors the rule VM's "POP prop" opcode.
func (n *Node) RemoveProp(key string) bool {
	for i, p := range n.Props {
		if p.Key == key {
			n.Props = append(n.Props[:i], n.Props[i+1:]...)
			return true
		}
	}
	return false
}

// PropValue, SetProp, Value, Marker and RemoveProp satisfy rulelang.Node so
// rule instructions can read and mutate a node during preprocessing/
// compiling without rulelang importing package ast (which would import
// rulelang back for rule evaluation, an import cycle).
func (n *Node) PropValue(name string) (string, bool) { return n.FindProp(name) }

func (n *Node) Value() string  { return n.Text }
func (n *Node) Marker() string { return n.MarkerChar }

// ChildLines returns the text of every immediate Line child, in order, for
// EXEC's "input from the node's children's concatenated line values".
func (n *Node) ChildLines() []string {
	var lines []string
	for _, c := range n.Children {
		if c.Rule == Line {
			lines = append(lines, c.Text)
		}
	}
	return lines
}

// BuildPath reproduces the original ast.rs Node::build_path switch: each
// rule kind contributes one bracketed path segment, joined to the parent
// prefix with a single space, so rule-file path patterns like
// "[] [SEC] LINE" can match against it.
func (n *Node) BuildPath(prefix string) string {
	var seg string
	switch n.Rule {
	case Root, Block:
		seg = "[" + strings.Join(n.Headers, " ") + "]"
	case Section:
		if len(n.Headers) > 0 {
			seg = "[SEC " + strings.Join(n.Headers, " ") + "]"
		} else {
			seg = "[SEC]"
		}
	case Paragraph:
		seg = "[PAR]"
	case Line:
		seg = "LINE"
	default: // Ellipsis and anything else
		seg = "?"
	}
	if prefix == "" {
		return seg
	}
	return prefix + " " + seg
}

// Equal implements the "two pointers to the same target always compare
// equal, nodes never recurse into pointer targets while comparing"
// invariant: pointer identity is reduced to presence/absence.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.Rule != other.Rule || n.Text != other.Text || n.MarkerChar != other.MarkerChar {
		return false
	}
	if len(n.Headers) != len(other.Headers) {
		return false
	}
	for i := range n.Headers {
		if n.Headers[i] != other.Headers[i] {
			return false
		}
	}
	if (n.Pointer == nil) != (other.Pointer == nil) {
		return false
	}
	if len(n.Children) != len(other.Children) {
		return false
	}
	for i := range n.Children {
		if !n.Children[i].Equal(other.Children[i]) {
			return false
		}
	}
	return true
}
