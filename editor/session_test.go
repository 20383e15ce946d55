package editor

import (
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sambeau/jsxplay/pkg/jsx/ast"
	perrors "github.com/sambeau/jsxplay/pkg/jsx/errors"
	"github.com/sambeau/jsxplay/pkg/jsx/mutate"
	"github.com/sambeau/jsxplay/pkg/jsx/parser"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newSession(t *testing.T, initial string) (*Session, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.UnixMilli(1700000000000)}
	return New(Options{Initial: initial, Clock: clock.Now}), clock
}

func errCode(err error) string {
	var e *perrors.Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

func TestDropSecondDialogRejected(t *testing.T) {
	dialog, _ := Lookup("Dialog")
	initial := `<Box id="c">x</Box>` + "\n\n" + dialog.Code(time.UnixMilli(1))
	s, clock := newSession(t, initial)

	if err := s.BeginDrag("Dialog"); err != nil {
		t.Fatal(err)
	}
	if ok, err := s.DragOverContainer("c"); !ok || err != nil {
		t.Fatalf("DragOverContainer = %v, %v", ok, err)
	}
	changed, err := s.Drop()
	if changed || errCode(err) != "EDIT-0001" {
		t.Fatalf("Drop = %v, %v; want rejection", changed, err)
	}
	if s.Code() != initial {
		t.Error("source changed after rejected drop")
	}
	if s.State() != Idle {
		t.Errorf("state = %s, want idle", s.State())
	}

	msg, ok := s.Warning()
	if !ok || msg != "Only one Dialog component can be added. Please remove the existing Dialog first." {
		t.Errorf("Warning = %q, %v", msg, ok)
	}
	clock.Advance(DefaultWarningTTL)
	if _, ok := s.Warning(); ok {
		t.Error("warning still visible after TTL")
	}
}

func TestDialogTextIsNotADialog(t *testing.T) {
	s, _ := newSession(t, `<Box id="c"><Typography title="<Dialog">not a Dialog</Typography></Box>`)
	s.BeginDrag("Dialog")
	s.DragOverContainer("c")
	if changed, err := s.Drop(); !changed || err != nil {
		t.Fatalf("Drop = %v, %v; want success", changed, err)
	}
	if n := ast.CountTag(parser.Parse(s.Code()), "Dialog"); n != 1 {
		t.Errorf("Dialog count = %d, want 1", n)
	}
}

func TestRootDropOnlyAcceptsBox(t *testing.T) {
	initial := "<Box id=\"c\">\n  <Chip label=\"a\" />\n</Box>"
	s, _ := newSession(t, initial)

	s.BeginDrag("Chip")
	if err := s.DragOverInsertionPoint(1); err != nil {
		t.Fatal(err)
	}
	changed, err := s.Drop()
	if changed || errCode(err) != "EDIT-0002" {
		t.Fatalf("Drop = %v, %v; want rejection", changed, err)
	}
	if s.Code() != initial {
		t.Error("source changed after rejected drop")
	}
	if msg, _ := s.Warning(); msg != "Only Box components can be added as root elements." {
		t.Errorf("Warning = %q", msg)
	}

	s.BeginDrag("Chip")
	if ok, _ := s.DragOverContainer("c"); !ok {
		t.Fatal("c is not a container")
	}
	if changed, err := s.Drop(); !changed || err != nil {
		t.Fatalf("Drop into container = %v, %v", changed, err)
	}
	want := "<Box id=\"c\">\n  <Chip label=\"a\" />\n\n" +
		"  <Chip sx={{ mt: 2 }} label=\"New Chip\" color=\"primary\" variant=\"outlined\" />\n</Box>"
	if s.Code() != want {
		t.Errorf("Code:\n got %q\nwant %q", s.Code(), want)
	}

	c := ast.FindByID(parser.Parse(s.Code()), "c")
	if c == nil || len(c.Children) != 2 || c.Children[1].Tag != "Chip" {
		t.Errorf("container children = %v", c)
	}
}

func TestRootDropBox(t *testing.T) {
	s, _ := newSession(t, "<Box>A</Box>\n\n<Box>B</Box>\n")
	s.BeginDrag("Box")
	s.DragOverInsertionPoint(1)
	if changed, err := s.Drop(); !changed || err != nil {
		t.Fatalf("Drop = %v, %v", changed, err)
	}
	want := "<Box>A</Box>\n\n<Box id=\"box-1700000000000\" sx={{ p: 2, mt: 2 }}>New Box</Box>\n\n<Box>B</Box>\n"
	if s.Code() != want {
		t.Errorf("Code:\n got %q\nwant %q", s.Code(), want)
	}
}

func TestDropWithoutTargetIsNoop(t *testing.T) {
	s, _ := newSession(t, `<Box id="c"><Button id="b">x</Button></Box>`)
	s.BeginDrag("Chip")
	if ok, err := s.DragOverContainer("b"); ok || err != nil {
		t.Fatalf("DragOverContainer(b) = %v, %v; want not a container", ok, err)
	}
	if s.State() != OverNothing {
		t.Errorf("state = %s, want over-nothing", s.State())
	}
	if changed, err := s.Drop(); changed || err != nil {
		t.Errorf("Drop = %v, %v; want no-op", changed, err)
	}
	if _, ok := s.Warning(); ok {
		t.Error("no-op drop produced a warning")
	}
}

func TestDragStateTransitions(t *testing.T) {
	s, _ := newSession(t, `<Box id="c">x</Box>`)

	if err := s.DragOverNothing(); errCode(err) != "EDIT-0004" {
		t.Errorf("DragOverNothing while idle = %v", err)
	}
	if _, err := s.Drop(); errCode(err) != "EDIT-0004" {
		t.Errorf("Drop while idle = %v", err)
	}
	if err := s.BeginDrag("Table"); errCode(err) != "EDIT-0003" {
		t.Errorf("BeginDrag(Table) = %v", err)
	}

	var states []State
	s.BeginDrag("Box")
	states = append(states, s.State())
	s.DragOverContainer("c")
	states = append(states, s.State())
	s.DragLeave()
	states = append(states, s.State())
	s.DragOverInsertionPoint(0)
	states = append(states, s.State())
	s.DragOverNothing()
	states = append(states, s.State())
	if err := s.BeginDrag("Box"); errCode(err) != "EDIT-0004" {
		t.Errorf("BeginDrag while dragging = %v", err)
	}
	s.CancelDrag()
	states = append(states, s.State())

	want := []State{Dragging, OverContainer, Dragging, OverInsertionPoint, OverNothing, Idle}
	if diff := cmp.Diff(want, states); diff != "" {
		t.Errorf("states mismatch (-want +got):\n%s", diff)
	}
}

func TestPaint(t *testing.T) {
	s, _ := newSession(t, `<Box id="x" sx={{p: 2}}>Hi</Box>`)
	cursor := s.Cursor().(*StateCursor)

	s.SelectColor("#ff0000", mutate.Background)
	if !strings.Contains(cursor.Style(), `fill="%23ff0000"`) {
		t.Errorf("cursor style = %q", cursor.Style())
	}

	res, err := s.Click("x", "")
	if err != nil || !res.Painted {
		t.Fatalf("Click = %+v, %v", res, err)
	}
	if want := `<Box id="x" sx={{p: 2, bgcolor: "#ff0000"}}>Hi</Box>`; s.Code() != want {
		t.Errorf("Code = %s, want %s", s.Code(), want)
	}
	if cursor.Style() != "" || s.Painting() {
		t.Error("paint tool still armed after painting")
	}
}

func TestPaintReleasesCursorOnEveryPath(t *testing.T) {
	s, _ := newSession(t, `<Box id="x">Hi</Box>`)
	cursor := s.Cursor().(*StateCursor)

	s.SelectColor("red", mutate.Text)
	if _, err := s.Paint("missing"); errCode(err) != "MUTATE-0001" {
		t.Errorf("Paint(missing) = %v", err)
	}
	if cursor.Style() != "" {
		t.Error("cursor kept after failed paint")
	}

	s.SelectColor("red", mutate.Text)
	if res, _ := s.Click("", ""); res.Painted {
		t.Error("background click painted")
	}
	if cursor.Style() != "" || s.Painting() {
		t.Error("background click did not cancel painting")
	}

	s.SelectColor("red", mutate.Text)
	s.Close()
	if cursor.Style() != "" {
		t.Error("Close kept the cursor")
	}

	if _, err := s.Paint("x"); errCode(err) != "EDIT-0004" {
		t.Errorf("Paint without color = %v", err)
	}
	if s.Code() != `<Box id="x">Hi</Box>` {
		t.Errorf("source changed: %s", s.Code())
	}
}

func TestPaintSameColorTwice(t *testing.T) {
	s, _ := newSession(t, `<Box id="x">Hi</Box>`)

	s.SelectColor("#00ff00", mutate.Text)
	if changed, err := s.Paint("x"); !changed || err != nil {
		t.Fatalf("first Paint = %v, %v", changed, err)
	}
	painted := s.Code()

	s.SelectColor("#00ff00", mutate.Text)
	changed, err := s.Paint("x")
	if err != nil {
		t.Fatalf("repainting with the same color: %v", err)
	}
	if changed || s.Code() != painted {
		t.Errorf("Paint = %v, code %s; want no change", changed, s.Code())
	}
}

func TestHistory(t *testing.T) {
	var changes []string
	s := New(Options{Initial: "<Box />", OnChange: func(code string) { changes = append(changes, code) }})

	if err := s.Undo(); errCode(err) != "EDIT-0005" {
		t.Errorf("Undo on fresh session = %v", err)
	}

	s.SetCode("<Chip />")
	s.SetCode("<Chip />")
	s.SetCode("<Box>x</Box>")
	if err := s.Undo(); err != nil {
		t.Fatal(err)
	}
	if s.Code() != "<Chip />" {
		t.Errorf("after Undo Code = %q", s.Code())
	}
	s.Reset()
	if s.Code() != "<Box />" {
		t.Errorf("after Reset Code = %q", s.Code())
	}
	s.Undo()
	if s.Code() != "<Chip />" {
		t.Errorf("Reset was not undoable: %q", s.Code())
	}

	want := []string{"<Chip />", "<Box>x</Box>", "<Chip />", "<Box />", "<Chip />"}
	if diff := cmp.Diff(want, changes); diff != "" {
		t.Errorf("OnChange mismatch (-want +got):\n%s", diff)
	}
}

func TestRender(t *testing.T) {
	s := New(Options{})
	p := s.Render()
	if p.Error != "" {
		t.Fatalf("Render error: %s", p.Error)
	}
	if !strings.Contains(p.HTML, `<h1 class="MuiTypography-root MuiTypography-headingMd" id="typo-1">Component Visualizer</h1>`) {
		t.Errorf("HTML = %s", p.HTML)
	}
}

func TestRenderErrorKeepsSource(t *testing.T) {
	s := New(Options{Initial: `<Box><Chip></Box>`, Strict: true})
	p := s.Render()
	if p.Error == "" || !p.Retry {
		t.Errorf("Render = %+v; want error with retry", p)
	}
	if s.Code() != `<Box><Chip></Box>` {
		t.Errorf("source changed: %s", s.Code())
	}
}

func TestDialogPreview(t *testing.T) {
	dialog, _ := Lookup("Dialog")
	s, _ := newSession(t, dialog.Code(time.UnixMilli(1)))

	if p := s.Render(); !strings.Contains(p.HTML, `hidden=""`) {
		t.Fatalf("dialog open before click: %s", p.HTML)
	}
	if res, _ := s.Click(OpenDialogID, ""); !res.DialogOpen {
		t.Error("open button did not open the dialog")
	}
	if p := s.Render(); strings.Contains(p.HTML, `hidden=""`) {
		t.Errorf("dialog still hidden: %s", p.HTML)
	}
	if !strings.Contains(s.Code(), "open={false}") {
		t.Error("opening the dialog edited the source")
	}
	s.Click(CloseDialogID, "")
	if p := s.Render(); !strings.Contains(p.HTML, `hidden=""`) {
		t.Errorf("dialog not closed: %s", p.HTML)
	}
}

func TestClickRunsHandler(t *testing.T) {
	s, _ := newSession(t, `<Button id="b" onClick={() => alert("hi")}>Go</Button>`)
	res, err := s.Click("b", "")
	if err != nil || !res.Handled {
		t.Fatalf("Click = %+v, %v", res, err)
	}
	if p := s.Render(); !cmp.Equal(p.Log, []string{"alert: hi"}) {
		t.Errorf("Log = %v", p.Log)
	}
}

func TestPalette(t *testing.T) {
	entries, err := Palette()
	if err != nil {
		t.Fatal(err)
	}
	var kinds []string
	for _, e := range entries {
		kinds = append(kinds, e.Kind)
	}
	if diff := cmp.Diff([]string{"Box", "Chip", "Dialog"}, kinds); diff != "" {
		t.Errorf("kinds mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(entries[0].DocHTML, "<strong>container</strong>") {
		t.Errorf("Box doc = %s", entries[0].DocHTML)
	}
	if !entries[0].Root || entries[1].Root || !entries[2].Singleton {
		t.Errorf("flags = %+v", entries)
	}
}

func TestCursorStyle(t *testing.T) {
	got := CursorStyle("rgb(1, 2, 3)")
	if !strings.Contains(got, `fill="rgb(1%2C%202%2C%203)"`) {
		t.Errorf("CursorStyle = %s", got)
	}
	if !strings.HasSuffix(got, "') 8 8, auto") {
		t.Errorf("CursorStyle hotspot = %s", got)
	}
}
