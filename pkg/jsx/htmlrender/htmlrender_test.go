package htmlrender

import (
	"strings"
	"testing"

	"github.com/sambeau/jsxplay/pkg/jsx/ast"
	"github.com/sambeau/jsxplay/pkg/jsx/materialize"
	"github.com/sambeau/jsxplay/pkg/jsx/parser"
)

type nopLogger struct{}

func (nopLogger) Log(...any)     {}
func (nopLogger) LogLine(...any) {}

func render(t *testing.T, src string, opts materialize.Options) (string, *Renderer) {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}
	r := NewRenderer(nil, opts)
	out, err := r.Render(parser.Parse(src))
	if err != nil {
		t.Fatalf("Render(%q) error: %v", src, err)
	}
	return out, r
}

func TestRenderComponents(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "box with sx",
			src:  `<Box id="box-1" sx={{p: 2, mt: 2}}>Hi</Box>`,
			want: `<div class="MuiBox-root" id="box-1" style="margin-top: 16px; padding: 16px">Hi</div>`,
		},
		{
			name: "typography component prop",
			src:  `<Typography variant="headingMd" component="h1">Title</Typography>`,
			want: `<h1 class="MuiTypography-root MuiTypography-headingMd">Title</h1>`,
		},
		{
			name: "stack layout props",
			src:  `<Stack direction="row" spacing={2} mt={2}></Stack>`,
			want: `<div class="MuiStack-root" style="display: flex; flex-direction: row; gap: 16px; margin-top: 16px"></div>`,
		},
		{
			name: "chip label",
			src:  `<Chip sx={{ mt: 2 }} label="New Chip" color="primary" variant="outlined" />`,
			want: `<div class="MuiChip-root MuiChip-outlined" data-color="primary" style="margin-top: 16px">New Chip</div>`,
		},
		{
			name: "closed dialog is hidden",
			src:  `<Dialog open={false} id="d"><DialogTitle>T</DialogTitle></Dialog>`,
			want: `<div class="MuiDialog-root" hidden="" id="d" role="dialog"><h2 class="MuiDialogTitle-root">T</h2></div>`,
		},
		{
			name: "open dialog",
			src:  `<Dialog open={true} id="d"></Dialog>`,
			want: `<div class="MuiDialog-root" id="d" role="dialog"></div>`,
		},
		{
			name: "native tags and style",
			src:  `<section style={{backgroundColor: "#fff"}}><span title="t">{name}</span></section>`,
			want: `<section style="background-color: #fff"><span title="t">name</span></section>`,
		},
		{
			name: "numeric style values",
			src:  `<p style={{fontSize: 12, lineHeight: 1.5, margin: 0, transition: ["a"]}}>x</p>`,
			want: `<p style="font-size: 12px; line-height: 1.5; margin: 0">x</p>`,
		},
		{
			name: "unknown component falls back to div",
			src:  `<Widget variant="x">w</Widget>`,
			want: `<div variant="x">w</div>`,
		},
		{
			name: "void element drops children",
			src:  `<Divider>ignored</Divider>`,
			want: `<hr class="MuiDivider-root"/>`,
		},
		{
			name: "multiple roots",
			src:  "<p>a</p>\n<p>b</p>",
			want: `<p>a</p><p>b</p>`,
		},
		{
			name: "nested fragment is spliced",
			src:  `<div><><b>x</b><i>y</i></></div>`,
			want: `<div><b>x</b><i>y</i></div>`,
		},
		{
			name: "text is escaped",
			src:  `<p>a &amp; b</p>`,
			want: `<p>a &amp;amp; b</p>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := render(t, tt.src, materialize.Options{})
			if got != tt.want {
				t.Errorf("Render(%q) =\n  %s\nwant\n  %s", tt.src, got, tt.want)
			}
		})
	}
}

func TestRenderEmpty(t *testing.T) {
	got, _ := render(t, "  ", materialize.Options{})
	if got != "" {
		t.Errorf("Render(empty) = %q", got)
	}
}

func TestRenderHandlersAndDispatch(t *testing.T) {
	var clicked []string
	env := map[string]any{
		"alert": func(args ...any) any {
			clicked = append(clicked, args[0].(string))
			return nil
		},
	}
	src := `<Box><Button id="b" variant="contained" onClick="alert('go')">Go</Button><Button onClick="alert('anon')">Anon</Button></Box>`
	got, r := render(t, src, materialize.Options{Env: env})

	want := `<button class="MuiButton-root MuiButton-contained" data-jsx-on="onClick" id="b" type="button">Go</button>`
	if !strings.Contains(got, want) {
		t.Errorf("output %s\nmissing %s", got, want)
	}
	if !strings.Contains(got, `id="jsx-1"`) {
		t.Errorf("anonymous handler element has no generated id: %s", got)
	}

	if !r.Dispatch("b", "onClick") {
		t.Fatal("Dispatch(b, onClick) found no handler")
	}
	if !r.Dispatch("jsx-1", "onClick") {
		t.Fatal("Dispatch(jsx-1, onClick) found no handler")
	}
	if r.Dispatch("b", "onHover") || r.Dispatch("missing", "onClick") {
		t.Error("Dispatch reported a handler that does not exist")
	}
	if len(clicked) != 2 || clicked[0] != "go" || clicked[1] != "anon" {
		t.Errorf("clicked = %v", clicked)
	}
}

func TestRenderOverrideOpensDialog(t *testing.T) {
	opts := materialize.Options{
		Override: func(n *ast.Node, props materialize.Props) {
			if n.Tag == "Dialog" {
				props["open"] = true
			}
		},
	}
	got, _ := render(t, `<Dialog open={false} id="demo-dialog"></Dialog>`, opts)
	if strings.Contains(got, "hidden") {
		t.Errorf("dialog still hidden: %s", got)
	}
}

func TestRenderWarnings(t *testing.T) {
	_, r := render(t, `<Buton>x</Buton>`, materialize.Options{})
	if w := r.Warnings(); len(w) != 1 || w[0].Code != "UNDEF-0001" {
		t.Errorf("Warnings() = %v", w)
	}
}

func TestExpandSx(t *testing.T) {
	got := expandSx(map[string]any{"px": 1.5, "bgcolor": "primary.main", "fontWeight": 700.0, "m": "auto", "nested": map[string]any{}})
	want := map[string]string{
		"padding-left":     "12px",
		"padding-right":    "12px",
		"background-color": "primary.main",
		"font-weight":      "700",
		"margin":           "auto",
	}
	if len(got) != len(want) {
		t.Fatalf("expandSx = %v", got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}
}
