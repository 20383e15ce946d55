// Package materialize converts a node tree into renderable elements.
//
// The materializer does not know what an element is. A Factory builds
// elements and a Registry resolves component names; both are supplied by
// the caller, so the same tree can become HTML nodes, a test double, or
// anything else.
package materialize

import (
	"sort"
	"strings"

	"github.com/sambeau/jsxplay/pkg/jsx/ast"
	perrors "github.com/sambeau/jsxplay/pkg/jsx/errors"
	"github.com/sambeau/jsxplay/pkg/jsx/lexer"
	"github.com/sambeau/jsxplay/pkg/jsx/literal"
	"github.com/sambeau/jsxplay/pkg/jsx/style"
)

// Props are the resolved properties handed to a Factory. Values are
// string, float64, bool, nil (null), Undefined, style.Map (style and sx)
// or Handler (on* props).
type Props map[string]any

// Undefined is the value of props written as {undefined}.
var Undefined = literal.Undefined

// Handler is a zero-argument event handler built from an on* prop.
type Handler func()

// Registry resolves uppercase component names.
type Registry[T any] interface {
	Lookup(name string) (T, bool)
	Names() []string
}

// MapRegistry is a Registry backed by a map.
type MapRegistry[T any] map[string]T

// Lookup implements Registry.
func (r MapRegistry[T]) Lookup(name string) (T, bool) {
	t, ok := r[name]
	return t, ok
}

// Names returns the registered names in sorted order.
func (r MapRegistry[T]) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ElementType describes what a Factory should create. Tag is the native tag
// name; it is the fallback tag when a component could not be resolved.
type ElementType[T any] struct {
	Name      string // name as written in the markup
	Tag       string
	Component T
	Resolved  bool
}

// Factory builds elements of type E from element types of type T.
type Factory[T, E any] interface {
	Create(typ ElementType[T], props Props, children []E) E
	Text(value string) E
	Fragment(children []E) E
}

// Options configures a Materializer.
type Options struct {
	Logger Logger

	// Env is the host environment visible to event handler bodies.
	Env map[string]any

	// Override may adjust an element's props just before it is created.
	Override func(n *ast.Node, props Props)

	// FallbackTag replaces unresolved component names. Defaults to "div".
	FallbackTag string
}

// Materializer converts trees. It never modifies the tree it is given.
type Materializer[T, E any] struct {
	registry Registry[T]
	factory  Factory[T, E]
	opts     Options
	warnings []*perrors.Error
}

// New creates a Materializer.
func New[T, E any](registry Registry[T], factory Factory[T, E], opts Options) *Materializer[T, E] {
	if opts.Logger == nil {
		opts.Logger = DefaultLogger
	}
	if opts.FallbackTag == "" {
		opts.FallbackTag = "div"
	}
	return &Materializer[T, E]{registry: registry, factory: factory, opts: opts}
}

// Materialize converts roots. ok is false when there are no roots; a single
// root becomes one element and several roots are wrapped in a fragment.
func (m *Materializer[T, E]) Materialize(roots []*ast.Node) (elem E, ok bool) {
	switch len(roots) {
	case 0:
		return elem, false
	case 1:
		return m.Node(roots[0]), true
	default:
		children := make([]E, len(roots))
		for i, r := range roots {
			children[i] = m.Node(r)
		}
		return m.factory.Fragment(children), true
	}
}

// Node converts a single node and its descendants.
func (m *Materializer[T, E]) Node(n *ast.Node) E {
	switch n.Kind {
	case ast.TextNode, ast.ExpressionNode:
		return m.factory.Text(n.Value)
	}

	children := make([]E, 0, len(n.Children))
	for _, c := range n.Children {
		children = append(children, m.Node(c))
	}

	if n.Tag == "" {
		return m.factory.Fragment(children)
	}

	props := m.props(n)
	if m.opts.Override != nil {
		m.opts.Override(n, props)
	}
	return m.factory.Create(m.resolve(n.Tag), props, children)
}

// Warnings returns the problems logged so far.
func (m *Materializer[T, E]) Warnings() []*perrors.Error {
	return m.warnings
}

func (m *Materializer[T, E]) resolve(name string) ElementType[T] {
	typ := ElementType[T]{Name: name, Tag: name}
	if !ast.IsComponentName(name) {
		return typ
	}
	if c, ok := m.registry.Lookup(name); ok {
		typ.Component = c
		typ.Resolved = true
		return typ
	}
	typ.Tag = m.opts.FallbackTag
	m.warn(perrors.NewUndefinedComponent(name, m.registry.Names()))
	return typ
}

func (m *Materializer[T, E]) props(n *ast.Node) Props {
	props := make(Props, len(n.Props))
	for _, attr := range n.Props {
		props[attr.Name] = Value(attr.Value)
	}

	for _, key := range []string{"style", "sx"} {
		raw, ok := props[key].(string)
		if !ok {
			continue
		}
		normalized, tier := style.Normalize(raw)
		if tier == style.TierNone {
			m.warn(perrors.New("STYLE-0001", map[string]any{"Prop": key, "Value": raw}))
		}
		props[key] = normalized
	}

	for key, v := range props {
		raw, ok := v.(string)
		if !ok || len(key) <= 2 || !strings.HasPrefix(key, "on") {
			continue
		}
		if h := m.handler(key, raw); h != nil {
			props[key] = h
		}
	}

	return props
}

func (m *Materializer[T, E]) warn(err *perrors.Error) {
	m.warnings = append(m.warnings, err)
	m.opts.Logger.LogLine("warning:", err.Error())
}

// Value converts an attribute value to its prop form. Unresolved
// expressions stay as their verbatim "{...}" text.
func Value(v lexer.Value) any {
	switch v.Kind {
	case lexer.StringValue, lexer.ExprValue:
		return v.Str
	case lexer.NumberValue:
		return v.Num
	case lexer.BoolValue:
		return v.Bool
	case lexer.UndefinedValue:
		return Undefined
	default:
		return nil
	}
}
