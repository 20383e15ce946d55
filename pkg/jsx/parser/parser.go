// Package parser builds a node tree from a token stream.
//
// The builder keeps a stack of open elements. Elements are attached to
// their parent (or the root list) when they open, so an element that is
// never closed still appears in the tree with whatever children followed it.
//
// In the default lenient mode a closing tag pops the innermost open element
// whatever its name, and a closing tag with nothing open is ignored. Strict
// mode builds the same tree but also reports mismatched, stray and unclosed
// tags.
package parser

import (
	"github.com/sambeau/jsxplay/pkg/jsx/ast"
	perrors "github.com/sambeau/jsxplay/pkg/jsx/errors"
	"github.com/sambeau/jsxplay/pkg/jsx/lexer"
)

// Options tunes tree building.
type Options struct {
	Strict bool
}

// Parser builds a tree from tokens.
type Parser struct {
	tokens []lexer.Token
	opts   Options
	errors []*perrors.Error
}

// New creates a parser over tokens.
func New(tokens []lexer.Token, opts Options) *Parser {
	return &Parser{tokens: tokens, opts: opts}
}

// Parse tokenizes and builds src leniently. It never fails.
func Parse(src string) []*ast.Node {
	return New(lexer.Tokenize(src), Options{}).Build()
}

// ParseWithOptions tokenizes and builds src. The error is non-nil only in
// strict mode, and is the first problem found; the tree is still returned.
func ParseWithOptions(src string, lexOpts lexer.Options, opts Options) ([]*ast.Node, error) {
	p := New(lexer.TokenizeWithOptions(src, lexOpts), opts)
	roots := p.Build()
	if err := p.Err(); err != nil {
		return roots, err
	}
	return roots, nil
}

// Build consumes the tokens and returns the root nodes in document order.
func (p *Parser) Build() []*ast.Node {
	var roots []*ast.Node
	var stack []*ast.Node

	attach := func(n *ast.Node) {
		if len(stack) > 0 {
			stack[len(stack)-1].AppendChild(n)
		} else {
			roots = append(roots, n)
		}
	}

	for _, tok := range p.tokens {
		switch tok.Type {
		case lexer.OPEN_TAG:
			if tok.Unclosed {
				p.strictError("PARSE-0004", tok.Pos, map[string]any{"Offset": tok.Pos.Offset})
			}
			el := ast.NewElement(tok.Name, tok.Attrs)
			el.SelfClosing = tok.SelfClosing
			el.Pos = tok.Pos
			attach(el)
			if !tok.SelfClosing {
				stack = append(stack, el)
			}

		case lexer.CLOSE_TAG:
			if len(stack) == 0 {
				p.strictError("PARSE-0002", tok.Pos, map[string]any{"Got": tok.Name})
				continue
			}
			top := stack[len(stack)-1]
			if top.Tag != tok.Name {
				p.strictError("PARSE-0001", tok.Pos, map[string]any{"Expected": top.Tag, "Got": tok.Name})
			}
			stack = stack[:len(stack)-1]

		case lexer.TEXT, lexer.EXPRESSION:
			if tok.Value == "" {
				continue
			}
			var leaf *ast.Node
			if tok.Type == lexer.TEXT {
				leaf = ast.NewText(tok.Value)
			} else {
				leaf = ast.NewExpression(tok.Value)
			}
			leaf.Pos = tok.Pos
			attach(leaf)
		}
	}

	for i := len(stack) - 1; i >= 0; i-- {
		p.strictError("PARSE-0003", stack[i].Pos, map[string]any{"Name": stack[i].Tag})
	}

	return roots
}

// Errors returns every problem recorded in strict mode, in discovery order.
func (p *Parser) Errors() []*perrors.Error {
	return p.errors
}

// Err returns the first recorded problem, or nil.
func (p *Parser) Err() error {
	if len(p.errors) == 0 {
		return nil
	}
	return p.errors[0]
}

func (p *Parser) strictError(code string, pos lexer.Position, data map[string]any) {
	if !p.opts.Strict {
		return
	}
	p.errors = append(p.errors, perrors.NewWithPosition(code, pos.Line, pos.Column, data))
}
