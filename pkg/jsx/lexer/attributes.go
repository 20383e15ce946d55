package lexer

import (
	"regexp"
	"strings"
)

var (
	attrNameRe = regexp.MustCompile(`^([A-Za-z_$][\w$.:-]*)\s*=\s*`)
	bareNameRe = regexp.MustCompile(`^([A-Za-z_$][\w$.:-]*)`)
)

// ParseAttributes extracts name/value pairs from the text between a tag
// name and its closing '>'. Malformed input never fails: unrecognized
// characters are skipped one at a time, so the loop always terminates.
func ParseAttributes(s string) Attrs {
	return parseAttributes(s, false)
}

func parseAttributes(s string, bare bool) Attrs {
	var attrs Attrs
	i := 0

	for i < len(s) {
		rest := s[i:]

		m := attrNameRe.FindStringSubmatch(rest)
		if m == nil {
			if bare {
				if name := bareNameRe.FindString(rest); name != "" && bareBoundary(s, i+len(name)) {
					attrs.Set(name, Bool(true))
					i = skipSpace(s, i+len(name))
					continue
				}
			}
			i++
			continue
		}

		name := m[1]
		i += len(m[0])
		if i >= len(s) {
			break
		}

		switch c := s[i]; {
		case c == '{':
			end, ok := matchBrace(s, i)
			if !ok {
				i = end
				continue
			}
			attrs.Set(name, classifyExpr(s[i+1:end-1]))
			i = end
		case c == '"' || c == '\'':
			closing := strings.IndexByte(s[i+1:], c)
			if closing < 0 {
				i++
				continue
			}
			attrs.Set(name, String(s[i+1:i+1+closing]))
			i += closing + 2
		default:
			i++
		}

		i = skipSpace(s, i)
	}

	return attrs
}

// matchBrace scans from the '{' at start and returns the index just past
// its matching '}'. Quoted strings inside the expression are opaque. The
// scan is bounded by the remaining input; ok is false when the braces
// never balance, in which case end is where scanning stopped.
func matchBrace(s string, start int) (end int, ok bool) {
	depth := 0
	var quote byte
	i := start
	for limit := len(s) - start; limit > 0; limit-- {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote && s[i-1] != '\\' {
				quote = 0
			}
		case c == '"' || c == '\'' || c == '`':
			quote = c
		case c == '{':
			depth++
		case c == '}':
			depth--
		}
		i++
		if depth == 0 {
			return i, true
		}
	}
	return i, false
}

func bareBoundary(s string, i int) bool {
	return i >= len(s) || isSpace(s[i]) || s[i] == '/'
}

func skipSpace(s string, i int) int {
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return i
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}
