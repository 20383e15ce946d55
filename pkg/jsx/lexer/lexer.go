// Package lexer tokenizes restricted JSX-like markup.
//
// The grammar is deliberately small:
//
//	'</' name '>'              CloseTag
//	'<' name attrs ['/'] '>'   OpenTag (self-closing when the tag text ends in '/')
//	'{' chars '}'              Expression (the first unescaped '}' ends it)
//	chars up to '<' or '{'     Text (trimmed; whitespace-only runs are dropped)
//
// Every branch consumes at least one byte, so tokenizing always terminates
// and never fails. Malformed input degrades into whatever tokens the rules
// above produce.
package lexer

import (
	"fmt"
	"strings"
)

// TokenType identifies the kind of token.
type TokenType int

const (
	EOF TokenType = iota
	OPEN_TAG
	CLOSE_TAG
	TEXT
	EXPRESSION
)

func (t TokenType) String() string {
	switch t {
	case EOF:
		return "EOF"
	case OPEN_TAG:
		return "OPEN_TAG"
	case CLOSE_TAG:
		return "CLOSE_TAG"
	case TEXT:
		return "TEXT"
	case EXPRESSION:
		return "EXPRESSION"
	default:
		return fmt.Sprintf("TokenType(%d)", int(t))
	}
}

// Position locates a token in the source. Line and Column are 1-based.
type Position struct {
	Offset int
	Line   int
	Column int
}

// Token is a lexical unit. Name, Attrs and SelfClosing apply to tags;
// Value applies to TEXT and EXPRESSION.
type Token struct {
	Type        TokenType
	Name        string
	Attrs       Attrs
	SelfClosing bool
	Value       string
	Pos         Position
	End         int  // byte offset just past the token
	Unclosed    bool // tag or expression ran to end of input
}

func (t Token) String() string {
	switch t.Type {
	case OPEN_TAG:
		if t.SelfClosing {
			return fmt.Sprintf("<%s/>", t.Name)
		}
		return fmt.Sprintf("<%s>", t.Name)
	case CLOSE_TAG:
		return fmt.Sprintf("</%s>", t.Name)
	case TEXT:
		return fmt.Sprintf("%q", t.Value)
	case EXPRESSION:
		return "{" + t.Value + "}"
	default:
		return t.Type.String()
	}
}

// Options tunes tokenizing.
type Options struct {
	// BareAttributes treats a name with no "=value" as a boolean true
	// attribute, e.g. <Button disabled>. Off by default.
	BareAttributes bool
}

// Lexer scans markup into tokens.
type Lexer struct {
	input    string
	position int
	line     int
	column   int
	opts     Options
}

// New creates a Lexer with default options.
func New(input string) *Lexer {
	return NewWithOptions(input, Options{})
}

// NewWithOptions creates a Lexer.
func NewWithOptions(input string, opts Options) *Lexer {
	return &Lexer{input: input, line: 1, column: 1, opts: opts}
}

// Tokenize returns every token in input. The result never contains EOF.
func Tokenize(input string) []Token {
	return TokenizeWithOptions(input, Options{})
}

// TokenizeWithOptions is Tokenize with explicit options.
func TokenizeWithOptions(input string, opts Options) []Token {
	l := NewWithOptions(input, opts)
	var tokens []Token
	for {
		tok := l.NextToken()
		if tok.Type == EOF {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

// NextToken returns the next token, or an EOF token at end of input.
func (l *Lexer) NextToken() Token {
	for l.position < len(l.input) {
		start := l.pos()

		switch l.input[l.position] {
		case '<':
			if l.peek() == '/' {
				return l.readCloseTag(start)
			}
			return l.readOpenTag(start)
		case '{':
			return l.readExpression(start)
		default:
			if tok, ok := l.readText(start); ok {
				return tok
			}
		}
	}
	return Token{Type: EOF, Pos: l.pos(), End: len(l.input)}
}

func (l *Lexer) readCloseTag(start Position) Token {
	body := l.position + 2
	end := strings.IndexByte(l.input[body:], '>')
	tok := Token{Type: CLOSE_TAG, Pos: start}
	var name string
	if end < 0 {
		name = l.input[body:]
		tok.Unclosed = true
		l.advanceTo(len(l.input))
	} else {
		name = l.input[body : body+end]
		l.advanceTo(body + end + 1)
	}
	// </Box/> closes Box
	tok.Name = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(name), "/"))
	tok.End = l.position
	return tok
}

func (l *Lexer) readOpenTag(start Position) Token {
	body := l.position + 1
	end := findTagEnd(l.input, body)
	tok := Token{Type: OPEN_TAG, Pos: start}

	var content string
	if end < 0 {
		content = l.input[body:]
		tok.Unclosed = true
		l.advanceTo(len(l.input))
	} else {
		content = l.input[body:end]
		l.advanceTo(end + 1)
	}
	tok.End = l.position

	trimmed := strings.TrimSpace(content)
	tok.SelfClosing = strings.HasSuffix(trimmed, "/")

	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return tok
	}
	rawName := fields[0]
	tok.Name = strings.Replace(rawName, "/", "", 1)

	if rest := strings.TrimSpace(trimmed[len(rawName):]); rest != "" {
		tok.Attrs = parseAttributes(rest, l.opts.BareAttributes)
	}
	return tok
}

func (l *Lexer) readExpression(start Position) Token {
	body := l.position + 1
	end := -1
	for i := body; i < len(l.input); i++ {
		if l.input[i] == '}' && l.input[i-1] != '\\' {
			end = i
			break
		}
	}

	tok := Token{Type: EXPRESSION, Pos: start}
	if end < 0 {
		tok.Value = l.input[body:]
		tok.Unclosed = true
		l.advanceTo(len(l.input))
	} else {
		tok.Value = l.input[body:end]
		l.advanceTo(end + 1)
	}
	tok.End = l.position
	return tok
}

// readText consumes up to the next '<' or '{'. ok is false when the run was
// whitespace only.
func (l *Lexer) readText(start Position) (Token, bool) {
	end := strings.IndexAny(l.input[l.position:], "<{")
	if end < 0 {
		end = len(l.input)
	} else {
		end += l.position
	}

	raw := l.input[l.position:end]
	l.advanceTo(end)

	text := strings.TrimSpace(raw)
	if text == "" {
		return Token{}, false
	}
	return Token{Type: TEXT, Value: text, Pos: start, End: end}, true
}

// findTagEnd returns the index of the '>' that ends the tag whose content
// starts at start. Quoted strings and {...} groups are skipped so that
// arrow functions and comparisons inside attribute expressions stay in the
// tag. When quotes or braces never balance, the first '>' is used.
func findTagEnd(s string, start int) int {
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

func (l *Lexer) peek() byte {
	if l.position+1 >= len(l.input) {
		return 0
	}
	return l.input[l.position+1]
}

func (l *Lexer) pos() Position {
	return Position{Offset: l.position, Line: l.line, Column: l.column}
}

// advanceTo moves to offset, keeping line and column in step.
func (l *Lexer) advanceTo(offset int) {
	if offset > len(l.input) {
		offset = len(l.input)
	}
	for ; l.position < offset; l.position++ {
		if l.input[l.position] == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}
	}
}
