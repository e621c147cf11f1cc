package rulelang

import (
	"regexp"
	"strings"
)

// Settings carries one rule's own knobs, declared by its "IS <FLAGS>"
// line: whether it composes with other matches for the same path (all
// matching rules run, in file order) or wins outright and stops the
// search, whether bare Line children under it fold into Paragraphs,
// whether its string arguments' \v substitution is used verbatim without
// HTML-escaping, and the default src/ref resolution schemes.
type Settings struct {
	IsComposable     bool
	IsParagraphable  bool
	IsUnescapedValue bool
	DefaultSrc       string
	DefaultRef       string
}

// Merge layers override on top of s, returning a new Settings: the
// boolean flags OR together (a node's headers/paragraphs/includes are
// governed by whichever matched rule turned a flag on) and a non-empty
// override default replaces s's. Used to combine every rule matched for
// one node into the single Settings preprocess_headers/_includes/
// _paragraphs dispatch against.
func (s Settings) Merge(override Settings) Settings {
	out := s
	out.IsComposable = s.IsComposable || override.IsComposable
	out.IsParagraphable = s.IsParagraphable || override.IsParagraphable
	out.IsUnescapedValue = s.IsUnescapedValue || override.IsUnescapedValue
	if override.DefaultSrc != "" {
		out.DefaultSrc = override.DefaultSrc
	}
	if override.DefaultRef != "" {
		out.DefaultRef = override.DefaultRef
	}
	return out
}

// Rule binds a compiled path-pattern matcher and its own settings to an
// ordered instruction list, for one stage (PREPROCESS or COMPILE).
type Rule struct {
	Stage        string // "PREPROCESS" or "COMPILE"
	PatternSrc   string
	pattern      *regexp.Regexp
	Settings     Settings
	Instructions []*InstructionAST
}

// compilePattern turns a path pattern into a regexp per the murk rule
// grammar: a literal "[" becomes `\[ ?`, "]" becomes ` ?\]`, "..." becomes
// any run of non-"]" characters, and every other character is matched
// literally.
func compilePattern(src string) *regexp.Regexp {
	var out strings.Builder
	out.WriteString("^")
	runes := []rune(src)
	for i := 0; i < len(runes); i++ {
		switch {
		case runes[i] == '[':
			out.WriteString(`\[ ?`)
		case runes[i] == ']':
			out.WriteString(` ?\]`)
		case runes[i] == '.' && i+2 < len(runes) && runes[i+1] == '.' && runes[i+2] == '.':
			out.WriteString(`[^\]]*`)
			i += 2
		default:
			out.WriteString(regexp.QuoteMeta(string(runes[i])))
		}
	}
	out.WriteString("$")
	return regexp.MustCompile(out.String())
}

func newRule(stage, patternSrc string, settings Settings, instr []*InstructionAST) *Rule {
	return &Rule{Stage: stage, PatternSrc: patternSrc, pattern: compilePattern(patternSrc), Settings: settings, Instructions: instr}
}

func (r *Rule) matches(path string) bool {
	return r.pattern.MatchString(path)
}

// Lang is a fully parsed rule file: its declared name and output media
// type (from the "RULES FOR <name> PRODUCE <media-type>" preamble) plus
// the PREPROCESS and COMPILE rule sets, queried by path during a tree
// walk.
type Lang struct {
	Name      string
	MediaType string
	rules     []*Rule
}

// New constructs an empty Lang with no rules, for callers (ParseFile,
// tests) that build up its rule set afterward.
func New(name, mediaType string) *Lang {
	return &Lang{Name: name, MediaType: mediaType}
}

// AddRule appends a parsed rule, preserving file order (the order
// composable matching and LIFO post-yield evaluation both depend on).
func (l *Lang) AddRule(r *Rule) {
	l.rules = append(l.rules, r)
}

// Default returns the zero-rule language used by compiler/preprocessor
// tests that only exercise structural walking (mirrors Lang::default in
// the original: plaintext, no rules).
func Default() *Lang {
	return &Lang{Name: "plaintext", MediaType: "text/plain"}
}

// MatchRules returns, in file order, the rules of stage whose pattern
// matches path: the first match, then further matches for as long as each
// matched rule in turn declares itself composable. A non-composable match
// wins outright and stops the search.
func (l *Lang) MatchRules(stage, path string) []*Rule {
	var out []*Rule
	for _, r := range l.rules {
		if r.Stage != stage || !r.matches(path) {
			continue
		}
		out = append(out, r)
		if !r.Settings.IsComposable {
			break
		}
	}
	return out
}
