// Package format pretty-prints node trees back to markup.
//
// Output is stable: formatting the result of parsing formatted output
// gives the same text, and parsing it gives back the same tree.
package format

import (
	"strings"

	"github.com/sambeau/jsxplay/pkg/jsx/ast"
	"github.com/sambeau/jsxplay/pkg/jsx/parser"
)

// MaxLineWidth is the target maximum line length.
const MaxLineWidth = 100

// Indentation matches the snippets inserted by the editor.
const (
	IndentWidth  = 2
	IndentString = "  "
)

// Format renders roots separated by blank lines, with a trailing newline.
func Format(roots []*ast.Node) string {
	p := NewPrinter()
	for i, n := range roots {
		if i > 0 {
			p.newline()
		}
		p.node(n)
	}
	return p.String()
}

// Source parses src leniently and formats the result.
func Source(src string) string {
	return Format(parser.Parse(src))
}

func (p *Printer) node(n *ast.Node) {
	p.writeIndent()
	switch n.Kind {
	case ast.TextNode:
		p.writeln(n.Value)
		return
	case ast.ExpressionNode:
		p.writeln("{" + n.Value + "}")
		return
	}

	open := openTag(n)
	if !p.wouldFitOnLine(open) && len(n.Props) > 1 {
		p.writeMultilineOpen(n)
	} else if n.SelfClosing && len(n.Children) == 0 {
		p.writeln(open)
		return
	} else {
		if inline, ok := inlineElement(n, open); ok && p.wouldFitOnLine(inline) {
			p.writeln(inline)
			return
		}
		p.writeln(open)
	}

	if n.SelfClosing && len(n.Children) == 0 {
		return
	}

	p.indentInc()
	for _, c := range n.Children {
		p.node(c)
	}
	p.indentDec()
	p.writeIndent()
	p.writeln("</" + n.Tag + ">")
}

// writeMultilineOpen writes one attribute per line.
func (p *Printer) writeMultilineOpen(n *ast.Node) {
	p.writeln("<" + n.Tag)
	p.indentInc()
	for _, a := range n.Props {
		p.writeIndent()
		p.writeln(a.Name + "=" + a.Value.Source())
	}
	p.indentDec()
	p.writeIndent()
	if n.SelfClosing && len(n.Children) == 0 {
		p.writeln("/>")
	} else {
		p.writeln(">")
	}
}

func openTag(n *ast.Node) string {
	var sb strings.Builder
	sb.WriteString("<" + n.Tag)
	for _, a := range n.Props {
		sb.WriteString(" " + a.Name + "=" + a.Value.Source())
	}
	if n.SelfClosing && len(n.Children) == 0 {
		sb.WriteString(" />")
	} else {
		sb.WriteString(">")
	}
	return sb.String()
}

// inlineElement renders an element whose children are all leaves on one line.
func inlineElement(n *ast.Node, open string) (string, bool) {
	var sb strings.Builder
	sb.WriteString(open)
	for i, c := range n.Children {
		switch c.Kind {
		case ast.TextNode:
			if i > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(c.Value)
		case ast.ExpressionNode:
			sb.WriteString("{" + c.Value + "}")
		default:
			return "", false
		}
	}
	sb.WriteString("</" + n.Tag + ">")
	return sb.String(), true
}
