package materialize

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sambeau/jsxplay/pkg/jsx/ast"
	"github.com/sambeau/jsxplay/pkg/jsx/lexer"
	"github.com/sambeau/jsxplay/pkg/jsx/parser"
	"github.com/sambeau/jsxplay/pkg/jsx/style"
)

// elem is a test element: enough structure to assert on without a DOM.
type elem struct {
	Kind      string // element, text, fragment
	Name      string
	Tag       string
	Component string
	Props     Props
	Children  []*elem
	Text      string
}

type recordingFactory struct{}

func (recordingFactory) Create(typ ElementType[string], props Props, children []*elem) *elem {
	return &elem{Kind: "element", Name: typ.Name, Tag: typ.Tag, Component: typ.Component, Props: props, Children: children}
}

func (recordingFactory) Text(value string) *elem {
	return &elem{Kind: "text", Text: value}
}

func (recordingFactory) Fragment(children []*elem) *elem {
	return &elem{Kind: "fragment", Children: children}
}

type testLogger struct{ lines []string }

func (l *testLogger) Log(values ...any) { l.LogLine(values...) }
func (l *testLogger) LogLine(values ...any) {
	l.lines = append(l.lines, formatLogValues(values...))
}

var registry = MapRegistry[string]{
	"Box":    "mui.Box",
	"Button": "mui.Button",
	"Dialog": "mui.Dialog",
}

func newTest(opts Options) (*Materializer[string, *elem], *testLogger) {
	logger := &testLogger{}
	opts.Logger = logger
	return New[string, *elem](registry, recordingFactory{}, opts), logger
}

func TestMaterializeRootCounts(t *testing.T) {
	m, _ := newTest(Options{})

	if _, ok := m.Materialize(nil); ok {
		t.Error("zero roots should report ok=false")
	}

	one, ok := m.Materialize(parser.Parse(`<Box>Hi</Box>`))
	if !ok || one.Kind != "element" || one.Component != "mui.Box" {
		t.Errorf("single root = %+v", one)
	}

	many, ok := m.Materialize(parser.Parse(`<Box /><Button>Go</Button>text`))
	if !ok || many.Kind != "fragment" || len(many.Children) != 3 {
		t.Fatalf("multiple roots = %+v", many)
	}
	if many.Children[2].Kind != "text" || many.Children[2].Text != "text" {
		t.Errorf("third child = %+v", many.Children[2])
	}
}

func TestMaterializeResolution(t *testing.T) {
	m, logger := newTest(Options{})
	root, _ := m.Materialize(parser.Parse(`<div><Button>a</Button><Buton>b</Buton><span>{name}</span></div>`))

	if root.Tag != "div" || root.Component != "" {
		t.Errorf("native tag = %+v", root)
	}
	button := root.Children[0]
	if button.Tag != "Button" || button.Component != "mui.Button" {
		t.Errorf("registered component = %+v", button)
	}
	unknown := root.Children[1]
	if unknown.Tag != "div" || unknown.Name != "Buton" || unknown.Component != "" {
		t.Errorf("unresolved component = %+v", unknown)
	}
	expr := root.Children[2].Children[0]
	if expr.Kind != "text" || expr.Text != "name" {
		t.Errorf("expression child = %+v", expr)
	}

	if len(m.Warnings()) != 1 || m.Warnings()[0].Code != "UNDEF-0001" {
		t.Fatalf("warnings = %v", m.Warnings())
	}
	if !strings.Contains(strings.Join(logger.lines, "\n"), "Did you mean 'Button'?") {
		t.Errorf("log = %q", logger.lines)
	}
}

func TestMaterializeProps(t *testing.T) {
	m, _ := newTest(Options{})
	src := `<Box id="b" n={2} on={true} z={null} u={undefined} e={value} sx={{p: 2, mt: 2}} style={{"color": "red"}} />`
	root, _ := m.Materialize(parser.Parse(src))

	want := Props{
		"id":    "b",
		"n":     2.0,
		"on":    true,
		"z":     nil,
		"u":     Undefined,
		"e":     "{value}",
		"sx":    style.Map{"p": "2", "mt": "2"},
		"style": style.Map{"color": "red"},
	}
	if diff := cmp.Diff(want, root.Props, cmp.Comparer(func(a, b Handler) bool { return true })); diff != "" {
		t.Errorf("props mismatch (-want +got):\n%s", diff)
	}
}

func TestMaterializeBadStyleLogsAndEmpties(t *testing.T) {
	m, logger := newTest(Options{})
	root, _ := m.Materialize(parser.Parse(`<div style="color: red">x</div>`))

	got, ok := root.Props["style"].(style.Map)
	if !ok || len(got) != 0 {
		t.Errorf("style = %#v, want empty map", root.Props["style"])
	}
	if len(logger.lines) != 1 || !strings.Contains(logger.lines[0], "could not parse style") {
		t.Errorf("log = %q", logger.lines)
	}
}

func TestMaterializeDoesNotMutateTree(t *testing.T) {
	roots := parser.Parse(`<Box sx={{p: 2}} onClick="alert(1)" />`)
	m, _ := newTest(Options{})
	m.Materialize(roots)

	v, _ := roots[0].Props.Get("sx")
	if v.Kind != lexer.ExprValue || v.Str != "{{p: 2}}" {
		t.Errorf("tree sx changed to %+v", v)
	}
	v, _ = roots[0].Props.Get("onClick")
	if v.Kind != lexer.StringValue {
		t.Errorf("tree onClick changed to %+v", v)
	}
}

func TestMaterializeHandlers(t *testing.T) {
	var calls []string
	env := map[string]any{
		"alert": func(args ...any) any {
			for _, a := range args {
				calls = append(calls, a.(string))
			}
			return nil
		},
	}

	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"string body", `<Button onClick="alert('plain')" />`, []string{"plain"}},
		{"arrow", `<Button onClick={() => alert("arrow")} />`, []string{"arrow"}},
		{"arrow block", `<Button onClick={() => { alert("a"); alert("b") }} />`, []string{"a", "b"}},
		{"statement block", `<Button onClick={alert("x"); alert("y")} />`, []string{"x", "y"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls = nil
			m, logger := newTest(Options{Env: env})
			root, _ := m.Materialize(parser.Parse(tt.src))

			h, ok := root.Props["onClick"].(Handler)
			if !ok {
				t.Fatalf("onClick = %#v, want Handler", root.Props["onClick"])
			}
			if len(calls) != 0 {
				t.Fatal("handler ran before it was invoked")
			}
			h()
			if diff := cmp.Diff(tt.want, calls); diff != "" {
				t.Errorf("calls mismatch (-want +got):\n%s\nlog: %q", diff, logger.lines)
			}
		})
	}
}

func TestMaterializeHandlerFailureIsLogged(t *testing.T) {
	m, logger := newTest(Options{Env: map[string]any{}})
	root, _ := m.Materialize(parser.Parse(`<Button onClick="alert(" />`))

	h := root.Props["onClick"].(Handler)
	h()

	if len(m.Warnings()) != 1 || m.Warnings()[0].Code != "HANDLER-0001" {
		t.Errorf("warnings = %v, log = %q", m.Warnings(), logger.lines)
	}
}

func TestMaterializeHandlerLeftAsIs(t *testing.T) {
	n := ast.NewElement("button", lexer.Attrs{{Name: "onClick", Value: lexer.String("{open")}})
	m, _ := newTest(Options{})
	got := m.Node(n)
	if got.Props["onClick"] != "{open" {
		t.Errorf("onClick = %#v", got.Props["onClick"])
	}
}

func TestMaterializeOverrideAndFragment(t *testing.T) {
	m, _ := newTest(Options{
		Override: func(n *ast.Node, props Props) {
			if n.Tag == "Dialog" {
				props["open"] = true
			}
		},
	})
	root, _ := m.Materialize(parser.Parse(`<><Dialog open={false} /><p>x</p></>`))

	if root.Kind != "fragment" || len(root.Children) != 2 {
		t.Fatalf("root = %+v", root)
	}
	if root.Children[0].Props["open"] != true {
		t.Errorf("override not applied: %+v", root.Children[0].Props)
	}
}

func TestDefaultEnv(t *testing.T) {
	logger := &testLogger{}
	m := New[string, *elem](registry, recordingFactory{}, Options{Logger: logger, Env: DefaultEnv(logger)})
	root, _ := m.Materialize(parser.Parse(`<Button onClick={() => alert("hello")} />`))
	root.Props["onClick"].(Handler)()

	if len(logger.lines) != 1 || logger.lines[0] != "alert: hello" {
		t.Errorf("log = %q", logger.lines)
	}
}
