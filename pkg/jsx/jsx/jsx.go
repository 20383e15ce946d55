// Package jsx is the public API for embedding the markup toolchain: it
// parses, checks, formats and renders JSX-like source, and exposes the
// textual edits the playground applies.
package jsx

import (
	"github.com/sambeau/jsxplay/pkg/jsx/ast"
	perrors "github.com/sambeau/jsxplay/pkg/jsx/errors"
	"github.com/sambeau/jsxplay/pkg/jsx/format"
	"github.com/sambeau/jsxplay/pkg/jsx/htmlrender"
	"github.com/sambeau/jsxplay/pkg/jsx/lexer"
	"github.com/sambeau/jsxplay/pkg/jsx/materialize"
	"github.com/sambeau/jsxplay/pkg/jsx/mutate"
	"github.com/sambeau/jsxplay/pkg/jsx/parser"
)

// Options controls parsing and rendering. The zero value parses leniently,
// logs to stdout and renders with the default component registry.
type Options struct {
	Strict         bool
	BareAttributes bool

	Logger   Logger
	Env      map[string]any
	Registry materialize.Registry[htmlrender.Component]

	// Override may adjust element props before rendering.
	Override func(n *ast.Node, props materialize.Props)
}

func (o Options) lexer() lexer.Options {
	return lexer.Options{BareAttributes: o.BareAttributes}
}

func (o Options) logger() Logger {
	if o.Logger == nil {
		return StdoutLogger()
	}
	return o.Logger
}

// Parse builds the tree for src. In strict mode the first structural
// problem is returned along with the best-effort tree.
func Parse(src string, opts Options) ([]*ast.Node, error) {
	return parser.ParseWithOptions(src, opts.lexer(), parser.Options{Strict: opts.Strict})
}

// Check parses src strictly and returns every structural problem found.
func Check(src string, opts Options) []*perrors.Error {
	p := parser.New(lexer.TokenizeWithOptions(src, opts.lexer()), parser.Options{Strict: true})
	p.Build()
	return p.Errors()
}

// Format pretty-prints src.
func Format(src string, opts Options) (string, error) {
	roots, err := Parse(src, opts)
	if err != nil {
		return "", err
	}
	return format.Format(roots), nil
}

// Result is a rendered document. Handlers stay live until the Result is
// dropped.
type Result struct {
	HTML     string
	Roots    []*ast.Node
	Warnings []*perrors.Error

	renderer *htmlrender.Renderer
}

// Dispatch runs the handler for event on the element with id.
func (r *Result) Dispatch(id, event string) bool {
	if r.renderer == nil {
		return false
	}
	return r.renderer.Dispatch(id, event)
}

// Render parses and renders src to HTML.
func Render(src string, opts Options) (*Result, error) {
	roots, err := Parse(src, opts)
	if err != nil {
		return nil, err
	}
	return RenderTree(roots, opts)
}

// RenderTree renders an already parsed tree.
func RenderTree(roots []*ast.Node, opts Options) (*Result, error) {
	logger := opts.logger()
	env := opts.Env
	if env == nil {
		env = materialize.DefaultEnv(logger)
	}
	r := htmlrender.NewRenderer(opts.Registry, materialize.Options{
		Logger:   logger,
		Env:      env,
		Override: opts.Override,
	})
	out, err := r.Render(roots)
	if err != nil {
		return nil, err
	}
	return &Result{HTML: out, Roots: roots, Warnings: r.Warnings(), renderer: r}, nil
}

// UpdateColor sets the color of the element with id, rewriting only its
// opening tag.
func UpdateColor(src, id, color string, kind mutate.ColorKind) (string, bool) {
	return mutate.UpdateColor(src, id, color, kind)
}

// InsertIntoContainer appends snippet as the last child of the element
// with id.
func InsertIntoContainer(src, id, snippet string) (string, bool) {
	return mutate.InsertIntoContainer(src, id, snippet)
}

// InsertAtRoot inserts snippet at a root insertion point.
func InsertAtRoot(src, snippet string, index int) string {
	return mutate.InsertAtRoot(src, snippet, index)
}

// Roots returns the byte spans of the top-level elements.
func Roots(src string) []mutate.Span {
	return mutate.FindRootElements(src)
}
