package mutate

import (
	"regexp"
	"strings"
)

// Tag is an opening tag located in source text. End is exclusive.
type Tag struct {
	Start       int
	End         int
	Name        string
	Text        string
	SelfClosing bool
}

var tagNameRe = regexp.MustCompile(`^<([A-Za-z_][\w.-]*)`)

// FindOpenTag returns the first opening tag carrying id="<id>" or
// id='<id>'. Quotes and {...} groups inside tags are skipped, so arrow
// functions in attributes do not end the tag early.
func FindOpenTag(src, id string) (Tag, bool) {
	idRe := regexp.MustCompile(`(?:^|\s)id\s*=\s*["']` + regexp.QuoteMeta(id) + `["']`)

	for i := 0; i < len(src); i++ {
		if src[i] != '<' {
			continue
		}
		m := tagNameRe.FindStringSubmatch(src[i:])
		if m == nil {
			continue
		}
		end := tagEnd(src, i+1)
		if end < 0 {
			return Tag{}, false
		}
		text := src[i : end+1]
		if idRe.MatchString(text[len(m[0]):]) {
			return Tag{
				Start:       i,
				End:         end + 1,
				Name:        m[1],
				Text:        text,
				SelfClosing: strings.HasSuffix(text, "/>"),
			}, true
		}
		i = end
	}
	return Tag{}, false
}

// MatchingClose returns the offset of the closing tag that balances open,
// counting nested tags with the same name. Self-closing nested tags do not
// change the depth.
func MatchingClose(src string, open Tag) (int, bool) {
	if open.SelfClosing {
		return 0, false
	}
	opener := "<" + open.Name
	closer := "</" + open.Name

	depth := 1
	pos := open.End
	for pos < len(src) {
		nextClose := indexTag(src, closer, pos)
		if nextClose < 0 {
			return 0, false
		}
		nextOpen := indexTag(src, opener, pos)

		if nextOpen >= 0 && nextOpen < nextClose {
			end := tagEnd(src, nextOpen+1)
			if end < 0 {
				return 0, false
			}
			if src[end-1] != '/' {
				depth++
			}
			pos = end + 1
			continue
		}

		depth--
		if depth == 0 {
			return nextClose, true
		}
		pos = nextClose + len(closer)
	}
	return 0, false
}

// indexTag finds prefix at or after from where it is followed by a
// character that cannot continue a tag name.
func indexTag(src, prefix string, from int) int {
	for from < len(src) {
		i := strings.Index(src[from:], prefix)
		if i < 0 {
			return -1
		}
		i += from
		next := i + len(prefix)
		if next >= len(src) || !isNameChar(src[next]) {
			return i
		}
		from = next
	}
	return -1
}

func isNameChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-' || c == '.'
}

// tagEnd returns the index of the '>' closing the tag whose body starts at
// start, honoring quotes and braces; the first '>' is used when they never
// balance.
func tagEnd(s string, start int) int {
	depth := 0
	var quote byte
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'' || c == '`':
			quote = c
		case c == '{':
			depth++
		case c == '}':
			if depth > 0 {
				depth--
			}
		case c == '>' && depth == 0:
			return i
		}
	}
	if i := strings.IndexByte(s[start:], '>'); i >= 0 {
		return start + i
	}
	return -1
}

// matchBrace returns the index just past the '}' matching the '{' at start.
func matchBrace(s string, start int) (int, bool) {
	depth := 0
	var quote byte
	for i := start; i < len(s); i++ {
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
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}

// Span is the byte range of a root element. End is exclusive.
type Span struct {
	Start int
	End   int
}

// FindRootElements returns the spans of top-level elements in document
// order. Quoted attribute values and {...} groups are skipped. Text and
// expressions at the top level are not elements and are not reported.
func FindRootElements(src string) []Span {
	var roots []Span
	depth := 0
	start := -1

	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '{':
			if end, ok := matchBrace(src, i); ok {
				i = end - 1
			}
		case '<':
			if i+1 < len(src) && src[i+1] == '/' {
				end := strings.IndexByte(src[i:], '>')
				if end < 0 {
					return roots
				}
				end += i
				if depth > 0 {
					depth--
					if depth == 0 && start >= 0 {
						roots = append(roots, Span{Start: start, End: end + 1})
						start = -1
					}
				}
				i = end
				continue
			}

			end := tagEnd(src, i+1)
			if end < 0 {
				return roots
			}
			if depth == 0 {
				start = i
			}
			if src[end-1] == '/' {
				if depth == 0 {
					roots = append(roots, Span{Start: i, End: end + 1})
					start = -1
				}
			} else {
				depth++
			}
			i = end
		}
	}
	return roots
}
