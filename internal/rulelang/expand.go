package rulelang

import "strings"

// expand runs one single pass of murk's string-literal substitution over a
// Str argument's raw (still-escaped) text: \v becomes the current node's
// value (HTML-escaped unless settings.IsUnescapedValue), \m its marker,
// \n a newline, \" a literal quote, and every $name becomes the node's
// "name" prop if it has one, else the top of the context stack "name".
func expand(s string, node Node, ctx *Context, settings Settings) string {
	var out strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'v':
				v := node.Value()
				if !settings.IsUnescapedValue {
					v = htmlEscapeValue(v)
				}
				out.WriteString(v)
				i++
				continue
			case 'm':
				out.WriteString(node.Marker())
				i++
				continue
			case 'n':
				out.WriteByte('\n')
				i++
				continue
			case '"':
				out.WriteByte('"')
				i++
				continue
			}
		}
		if c == '$' {
			j := i + 1
			for j < len(s) && isNameByte(s[j]) {
				j++
			}
			if j > i+1 {
				name := s[i+1 : j]
				if v, ok := node.PropValue(name); ok {
					out.WriteString(v)
				} else {
					out.WriteString(ctx.peek(name))
				}
				i = j - 1
				continue
			}
		}
		out.WriteByte(c)
	}
	return out.String()
}

func isNameByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

// htmlEscapeValue escapes only the three characters that would otherwise
// be read as markup when a node's value is interpolated into output:
// unlike html/template's escaper, quotes are left alone.
func htmlEscapeValue(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
