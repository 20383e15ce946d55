package format

import "strings"

// Printer manages formatting state and output
type Printer struct {
	output  strings.Builder
	indent  int
	linePos int
}

// NewPrinter creates a new Printer instance
func NewPrinter() *Printer {
	return &Printer{}
}

// String returns the formatted output
func (p *Printer) String() string {
	return p.output.String()
}

func (p *Printer) write(s string) {
	p.output.WriteString(s)
	if idx := strings.LastIndex(s, "\n"); idx >= 0 {
		p.linePos = len(s) - idx - 1
	} else {
		p.linePos += len(s)
	}
}

func (p *Printer) writeln(s string) {
	p.write(s)
	p.newline()
}

func (p *Printer) newline() {
	p.output.WriteString("\n")
	p.linePos = 0
}

func (p *Printer) writeIndent() {
	p.write(strings.Repeat(IndentString, p.indent))
}

func (p *Printer) indentInc() {
	p.indent++
}

func (p *Printer) indentDec() {
	if p.indent > 0 {
		p.indent--
	}
}

// wouldFitOnLine checks if s fits when written at the current indentation.
func (p *Printer) wouldFitOnLine(s string) bool {
	if strings.Contains(s, "\n") {
		return false
	}
	return p.indent*IndentWidth+len(s) <= MaxLineWidth
}
