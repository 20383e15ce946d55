package mutate

import "strings"

// Indent is the per-level indentation used for inserted snippets.
const Indent = "  "

// InsertIntoContainer inserts snippet as the last child of the element
// with id. Each non-blank snippet line is indented one level deeper than
// the line holding the container's closing tag, and a newline plus the
// snippet is spliced in directly before that closing tag. ok is false, and
// src is returned unchanged, when the container is missing, self-closing
// or never closed.
func InsertIntoContainer(src, id, snippet string) (string, bool) {
	open, ok := FindOpenTag(src, id)
	if !ok {
		return src, false
	}
	closeAt, ok := MatchingClose(src, open)
	if !ok {
		return src, false
	}

	indent := lineIndent(src, closeAt) + Indent
	return src[:closeAt] + "\n" + IndentLines(snippet, indent) + src[closeAt:], true
}

// lineIndent returns the leading whitespace of the line containing offset.
func lineIndent(src string, offset int) string {
	lineStart := strings.LastIndexByte(src[:offset], '\n') + 1
	i := lineStart
	for i < offset && (src[i] == ' ' || src[i] == '\t') {
		i++
	}
	return src[lineStart:i]
}

// IndentLines prefixes every non-blank line of s with indent.
func IndentLines(s, indent string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n")
}

// Append adds snippet after everything in src, separated by one blank line
// and followed by a newline.
func Append(src, snippet string) string {
	sep := "\n"
	if strings.HasSuffix(src, "\n") {
		sep = ""
	}
	return src + sep + "\n" + strings.TrimSpace(snippet) + "\n"
}

// InsertAt inserts snippet at byte offset pos with one blank line before
// it. Offset 0 puts the snippet first with one blank line after it.
func InsertAt(src, snippet string, pos int) string {
	clean := strings.TrimSpace(snippet)
	if pos <= 0 {
		return clean + "\n\n" + src
	}
	if pos > len(src) {
		pos = len(src)
	}
	return src[:pos] + "\n\n" + clean + src[pos:]
}

// InsertAtRoot inserts snippet at a root insertion point. Index 0 is
// before the first root element, index i (1..n) is directly after root
// element i, and anything larger appends. Blank source becomes the snippet.
func InsertAtRoot(src, snippet string, index int) string {
	if strings.TrimSpace(src) == "" {
		return snippet
	}
	if index <= 0 {
		return InsertAt(src, snippet, 0)
	}
	roots := FindRootElements(src)
	if index <= len(roots) {
		return InsertAt(src, snippet, roots[index-1].End)
	}
	return Append(src, snippet)
}
