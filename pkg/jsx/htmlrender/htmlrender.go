// Package htmlrender renders materialized trees as HTML using
// golang.org/x/net/html nodes.
//
// Components from the registry become plain HTML elements with MUI-style
// class names; sx and shorthand props are expanded to inline CSS. Event
// handlers cannot run in the page, so they are kept server side and
// exposed through Dispatch, keyed by element id.
package htmlrender

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/sambeau/jsxplay/pkg/jsx/ast"
	perrors "github.com/sambeau/jsxplay/pkg/jsx/errors"
	"github.com/sambeau/jsxplay/pkg/jsx/lexer"
	"github.com/sambeau/jsxplay/pkg/jsx/materialize"
	"github.com/sambeau/jsxplay/pkg/jsx/style"
)

// HandlerAttr marks elements that have server-side handlers. Its value is
// a space separated list of event props, e.g. "onClick".
const HandlerAttr = "data-jsx-on"

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// attribute names that components pass straight through
var passThrough = map[string]bool{
	"id": true, "title": true, "role": true, "type": true, "href": true,
	"disabled": true, "name": true, "value": true, "placeholder": true,
	"src": true, "alt": true, "target": true, "tabIndex": true,
}

// Factory builds *html.Node elements. It implements
// materialize.Factory[Component, *html.Node].
type Factory struct {
	handlers map[string]materialize.Handler
	autoID   int
}

// NewFactory creates an empty Factory.
func NewFactory() *Factory {
	return &Factory{handlers: map[string]materialize.Handler{}}
}

// Text implements materialize.Factory.
func (f *Factory) Text(value string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: value}
}

// Fragment implements materialize.Factory. Fragments are document nodes;
// Create splices their children into the parent.
func (f *Factory) Fragment(children []*html.Node) *html.Node {
	frag := &html.Node{Type: html.DocumentNode}
	appendAll(frag, children)
	return frag
}

// Create implements materialize.Factory.
func (f *Factory) Create(typ materialize.ElementType[Component], props materialize.Props, children []*html.Node) *html.Node {
	c := typ.Component
	tag := typ.Tag
	if typ.Resolved {
		tag = c.Tag
		if name, ok := props[c.TagProp].(string); ok && c.TagProp != "" && isTagName(name) {
			tag = strings.ToLower(name)
		}
	}

	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	attrs := map[string]string{}
	css := map[string]string{}
	var classes []string
	if c.Class != "" {
		classes = append(classes, c.Class)
	}
	for k, v := range c.Attrs {
		attrs[k] = v
	}

	var events []string
	for _, key := range sortedKeys(props) {
		v := props[key]
		switch val := v.(type) {
		case materialize.Handler:
			events = append(events, key)
			continue
		case style.Map:
			if key == "sx" {
				mergeCSS(css, expandSx(val))
			} else {
				mergeCSS(css, cssDecls(val))
			}
			continue
		}

		switch {
		case key == "className":
			if s, ok := v.(string); ok {
				classes = append(classes, s)
			}
		case key == c.TagProp || key == c.LabelProp || key == "children" || key == "key":
		case typ.Resolved && key == "open" && c.Modal:
		case typ.Resolved && c.Flex && (key == "direction" || key == "spacing"):
		case typ.Resolved && isSystemProp(key):
			mergeCSS(css, expandSx(style.Map{key: v}))
		case typ.Resolved && key == "variant":
			if s, ok := v.(string); ok {
				classes = append(classes, strings.TrimSuffix(c.Class, "-root")+"-"+s)
			}
		default:
			name := key
			if typ.Resolved && !passThrough[key] && !strings.HasPrefix(key, "aria-") && !strings.HasPrefix(key, "data-") {
				name = "data-" + style.KebabKey(key)
			}
			if s, ok := attrValue(v); ok {
				attrs[name] = s
			}
		}
	}

	if typ.Resolved {
		if c.Flex {
			css["display"] = "flex"
			css["flex-direction"] = "column"
			if dir, ok := props["direction"].(string); ok {
				css["flex-direction"] = dir
			}
			if sp, ok := props["spacing"]; ok {
				css["gap"] = spacing(sp)
			}
		}
		if c.Modal && props["open"] != true {
			attrs["hidden"] = ""
		}
	}

	if len(events) > 0 {
		id, _ := props["id"].(string)
		if id == "" {
			f.autoID++
			id = fmt.Sprintf("jsx-%d", f.autoID)
			attrs["id"] = id
		}
		for _, event := range events {
			f.handlers[handlerKey(id, event)] = props[event].(materialize.Handler)
		}
		attrs[HandlerAttr] = strings.Join(events, " ")
	}

	if len(classes) > 0 {
		attrs["class"] = strings.Join(classes, " ")
	}
	if len(css) > 0 {
		attrs["style"] = joinCSS(css)
	}
	for _, k := range sortedKeys(attrs) {
		n.Attr = append(n.Attr, html.Attribute{Key: k, Val: attrs[k]})
	}

	if typ.Resolved && c.LabelProp != "" {
		if label, ok := attrValue(props[c.LabelProp]); ok {
			n.AppendChild(&html.Node{Type: html.TextNode, Data: label})
		}
	}
	if !voidElements[tag] {
		appendAll(n, children)
	}
	return n
}

// Dispatch invokes the handler registered for event on the element with
// id. It reports whether a handler existed.
func (f *Factory) Dispatch(id, event string) bool {
	h, ok := f.handlers[handlerKey(id, event)]
	if !ok {
		return false
	}
	h()
	return true
}

// Handlers returns the registered handler keys ("id/event"), sorted.
func (f *Factory) Handlers() []string {
	return sortedKeys(f.handlers)
}

// Renderer materializes and renders trees with the default registry.
type Renderer struct {
	factory *Factory
	m       *materialize.Materializer[Component, *html.Node]
}

// NewRenderer creates a Renderer. A nil registry uses DefaultRegistry.
func NewRenderer(registry materialize.Registry[Component], opts materialize.Options) *Renderer {
	if registry == nil {
		registry = DefaultRegistry()
	}
	f := NewFactory()
	return &Renderer{
		factory: f,
		m:       materialize.New[Component, *html.Node](registry, f, opts),
	}
}

// Render materializes roots and writes them as HTML. An empty tree renders
// as the empty string.
func (r *Renderer) Render(roots []*ast.Node) (string, error) {
	n, ok := r.m.Materialize(roots)
	if !ok {
		return "", nil
	}
	return Render(n)
}

// Dispatch forwards to the factory's handler table.
func (r *Renderer) Dispatch(id, event string) bool {
	return r.factory.Dispatch(id, event)
}

// Warnings returns materialization warnings from the last render.
func (r *Renderer) Warnings() []*perrors.Error {
	return r.m.Warnings()
}

// Render serializes n.
func Render(n *html.Node) (string, error) {
	var sb strings.Builder
	if err := html.Render(&sb, n); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return sb.String(), nil
}

func handlerKey(id, event string) string {
	return id + "/" + event
}

func appendAll(parent *html.Node, children []*html.Node) {
	for _, child := range children {
		if child.Type == html.DocumentNode {
			for gc := child.FirstChild; gc != nil; {
				next := gc.NextSibling
				child.RemoveChild(gc)
				parent.AppendChild(gc)
				gc = next
			}
			continue
		}
		parent.AppendChild(child)
	}
}

func attrValue(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case float64:
		return lexer.FormatNumber(val), true
	case bool:
		if val {
			return "", true
		}
		return "", false
	default:
		return "", false
	}
}

func cssDecls(m style.Map) map[string]string {
	out := map[string]string{}
	for k, v := range m {
		switch v.(type) {
		case map[string]any, []any, nil:
			continue
		}
		prop := style.KebabKey(k)
		out[prop] = style.CSSValue(prop, v)
	}
	return out
}

func mergeCSS(dst, src map[string]string) {
	for k, v := range src {
		dst[k] = v
	}
}

func joinCSS(css map[string]string) string {
	keys := sortedKeys(css)
	decls := make([]string, len(keys))
	for i, k := range keys {
		decls[i] = k + ": " + css[k]
	}
	return strings.Join(decls, "; ")
}

func isTagName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
