package rulelang

import "strings"

// ParseFile parses a full rule file. Its outer structure -- a single
// "RULES FOR <name> PRODUCE <media-type>" preamble, then repeated
// "PREPROCESS RULES:" / "COMPILE RULES:" section headers each holding
// zero or more rules (a bare path-pattern line followed by an indented
// "IS <FLAGS>" settings line and instruction block) -- is significant-
// whitespace block structure that participle's simple lexer does not
// model well, so it is hand-parsed line by line; each instruction line is
// then handed to the participle-built line parser in grammar.go. This
// split mirrors the teacher's own layering of an outer line-oriented
// dispatcher (dsl.Parser.ParseLine) over an inner expression grammar
// (dsl's participle Grammar).
func ParseFile(defaultName, src string) (*Lang, error) {
	lines := strings.Split(src, "\n")

	var lang *Lang
	var stage string
	var curPattern string
	var curSettings Settings
	var curInstr []*InstructionAST
	haveRule := false

	flush := func() {
		if haveRule {
			lang.AddRule(newRule(stage, curPattern, curSettings, curInstr))
		}
		curPattern = ""
		curSettings = Settings{}
		curInstr = nil
		haveRule = false
	}

	lineNo := 0
	for _, raw := range lines {
		lineNo++
		line := strings.TrimRight(raw, " \t\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		indented := strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")

		if lang == nil {
			name, media, err := parsePreamble(trimmed, lineNo)
			if err != nil {
				return nil, err
			}
			if name == "" {
				name = defaultName
			}
			lang = New(name, media)
			continue
		}

		if !indented {
			switch {
			case strings.EqualFold(trimmed, "PREPROCESS RULES:"):
				flush()
				stage = "PREPROCESS"
				continue
			case strings.EqualFold(trimmed, "COMPILE RULES:"):
				flush()
				stage = "COMPILE"
				continue
			default:
				if stage == "" {
					return nil, &ParseError{Kind: "OrphanPattern", Message: "pattern declared before a RULES: section", Line: lineNo}
				}
				flush()
				curPattern = trimmed
				haveRule = true
				continue
			}
		}

		// An indented line belongs to the pattern most recently opened.
		if !haveRule {
			return nil, &ParseError{Kind: "OrphanInstruction", Message: "instruction line outside any rule", Line: lineNo}
		}
		upper := strings.ToUpper(trimmed)
		if upper == "IS" || strings.HasPrefix(upper, "IS ") {
			curSettings = parseFlags(strings.Fields(trimmed)[1:])
			continue
		}
		instr, err := parseInstructionLine(trimmed)
		if err != nil {
			return nil, &ParseError{Kind: "BadInstruction", Message: err.Error(), Line: lineNo}
		}
		curInstr = append(curInstr, instr)
	}
	flush()

	if lang == nil {
		return nil, &ParseError{Kind: "MissingPreamble", Message: "rule file has no RULES FOR ... PRODUCE ... preamble", Line: lineNo}
	}
	return lang, nil
}

// parsePreamble parses the rule file's single opening line: "RULES FOR
// <name> PRODUCE <media-type>".
func parsePreamble(line string, lineNo int) (name, mediaType string, err error) {
	const prefix = "RULES FOR "
	if !strings.HasPrefix(line, prefix) {
		return "", "", &ParseError{Kind: "MissingPreamble", Message: "expected \"RULES FOR <name> PRODUCE <media-type>\", got: " + line, Line: lineNo}
	}
	rest := strings.TrimPrefix(line, prefix)
	const sep = " PRODUCE "
	idx := strings.Index(rest, sep)
	if idx < 0 {
		return "", "", &ParseError{Kind: "MissingPreamble", Message: "expected \"PRODUCE <media-type>\" in: " + line, Line: lineNo}
	}
	name = strings.TrimSpace(rest[:idx])
	mediaType = strings.TrimSpace(rest[idx+len(sep):])
	return name, mediaType, nil
}

// parseFlags turns an "IS <FLAGS>" line's tokens into Settings: bare
// keywords toggle the boolean flags, and DEFAULT_SRC=/DEFAULT_REF=
// key-value tokens set the default src/ref resolution schemes.
func parseFlags(tokens []string) Settings {
	var s Settings
	for _, t := range tokens {
		switch {
		case strings.EqualFold(t, "COMPOSABLE"):
			s.IsComposable = true
		case strings.EqualFold(t, "PARAGRAPHABLE"):
			s.IsParagraphable = true
		case strings.EqualFold(t, "UNESCAPED_VALUE"):
			s.IsUnescapedValue = true
		case strings.HasPrefix(strings.ToUpper(t), "DEFAULT_SRC="):
			s.DefaultSrc = t[len("DEFAULT_SRC="):]
		case strings.HasPrefix(strings.ToUpper(t), "DEFAULT_REF="):
			s.DefaultRef = t[len("DEFAULT_REF="):]
		}
	}
	return s
}
