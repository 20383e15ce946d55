// Package editor implements the playground's editing session: the source
// text and its history, the drag and drop insertion flow, the paint tool
// and the live preview.
//
// Every change replaces the whole source string. The parsed tree is always
// recomputed from the text and is never edited directly.
package editor

import (
	"sync"
	"time"

	"github.com/sambeau/jsxplay/pkg/jsx/ast"
	perrors "github.com/sambeau/jsxplay/pkg/jsx/errors"
	"github.com/sambeau/jsxplay/pkg/jsx/jsx"
	"github.com/sambeau/jsxplay/pkg/jsx/materialize"
	"github.com/sambeau/jsxplay/pkg/jsx/mutate"
)

// InitialCode is the document a new session starts with.
const InitialCode = `<Box id="box-1" sx={{p: 2, mt: 2}}>
  <Typography id="typo-1" variant="headingMd" component="h1">Component Visualizer</Typography>
  <Stack id="stack-1" direction="row" spacing={2} mt={2}>
    <Button id="button-1" variant="contained">Primary</Button>
    <Button id="button-2" variant="outlined">Secondary</Button>
  </Stack>
 </Box>`

// Element ids that open and close the Dialog preview.
const (
	OpenDialogID  = "open-dialog-button"
	CloseDialogID = "close-dialog-button"
)

// DefaultWarningTTL is how long a rejection warning stays visible.
const DefaultWarningTTL = 5 * time.Second

const maxHistory = 100

// Options configures a Session.
type Options struct {
	// Initial is the reset document. Defaults to InitialCode.
	Initial string
	// Start is the document the session opens with. Defaults to Initial.
	Start string

	Strict         bool
	BareAttributes bool
	Color          mutate.Options

	WarningTTL time.Duration
	Clock      func() time.Time

	// Cursor receives the paint cursor. Defaults to a StateCursor.
	Cursor Cursor

	// Logger also receives materialization diagnostics and handler output.
	Logger jsx.Logger

	// OnChange is called with the new source after every change, outside
	// the session lock.
	OnChange func(code string)
}

// Session is one editor. It is safe for concurrent use; operations are
// applied one at a time.
type Session struct {
	mu   sync.Mutex
	opts Options

	code    string
	history []string

	state  State
	kind   string
	target string
	index  int

	warning      string
	warningUntil time.Time

	painting   bool
	paintColor string
	paintKind  mutate.ColorKind

	dialogOpen bool
	result     *jsx.Result
	log        *jsx.BufferedLogger
}

// New creates a session holding opts.Initial.
func New(opts Options) *Session {
	if opts.Initial == "" {
		opts.Initial = InitialCode
	}
	if opts.WarningTTL <= 0 {
		opts.WarningTTL = DefaultWarningTTL
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Cursor == nil {
		opts.Cursor = &StateCursor{}
	}
	if opts.Start == "" {
		opts.Start = opts.Initial
	}
	return &Session{
		opts: opts,
		code: opts.Start,
		log:  jsx.NewBufferedLogger(),
	}
}

// Code returns the current source.
func (s *Session) Code() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code
}

// State returns the drag and drop state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Cursor returns the cursor the session drives.
func (s *Session) Cursor() Cursor {
	return s.opts.Cursor
}

// SetCode replaces the source, recording the previous text for Undo.
func (s *Session) SetCode(code string) {
	s.mu.Lock()
	changed := s.replace(code)
	s.mu.Unlock()
	s.notify(changed, code)
}

// Reset restores the initial document. It can be undone.
func (s *Session) Reset() {
	s.mu.Lock()
	changed := s.replace(s.opts.Initial)
	s.dialogOpen = false
	s.mu.Unlock()
	s.notify(changed, s.opts.Initial)
}

// Undo restores the text before the last change.
func (s *Session) Undo() error {
	s.mu.Lock()
	if len(s.history) == 0 {
		s.mu.Unlock()
		return perrors.New("EDIT-0005", nil)
	}
	last := len(s.history) - 1
	s.code = s.history[last]
	s.history = s.history[:last]
	s.result = nil
	code := s.code
	s.mu.Unlock()
	s.notify(true, code)
	return nil
}

// replace swaps in code and records history. Callers hold s.mu.
func (s *Session) replace(code string) bool {
	if code == s.code {
		return false
	}
	s.history = append(s.history, s.code)
	if len(s.history) > maxHistory {
		s.history = s.history[len(s.history)-maxHistory:]
	}
	s.code = code
	s.result = nil
	return true
}

func (s *Session) notify(changed bool, code string) {
	if changed && s.opts.OnChange != nil {
		s.opts.OnChange(code)
	}
}

func (s *Session) jsxOptions() jsx.Options {
	return jsx.Options{
		Strict:         s.opts.Strict,
		BareAttributes: s.opts.BareAttributes,
	}
}

// parse builds the tree for the current text. Callers hold s.mu.
func (s *Session) parse() []*ast.Node {
	roots, _ := jsx.Parse(s.code, jsx.Options{BareAttributes: s.opts.BareAttributes})
	return roots
}

// Preview is a rendering of the current source.
type Preview struct {
	HTML     string   `json:"html"`
	Error    string   `json:"error,omitempty"`
	Retry    bool     `json:"retry,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Log      []string `json:"log,omitempty"`
	Cursor   string   `json:"cursor,omitempty"`
}

// Render materializes the current source. A failed parse or render is
// reported in Preview.Error with Retry set; the source is not touched.
func (s *Session) Render() Preview {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.render()
}

func (s *Session) render() Preview {
	var p Preview
	if c, ok := s.opts.Cursor.(*StateCursor); ok {
		p.Cursor = c.Style()
	}

	opts := s.jsxOptions()
	opts.Logger = s.logger()
	roots, err := jsx.Parse(s.code, opts)
	if err != nil {
		s.result = nil
		p.Error = err.Error()
		p.Retry = true
		return p
	}

	var dialog *ast.Node
	if s.dialogOpen {
		dialog = ast.Find(roots, func(n *ast.Node) bool { return n.Tag == "Dialog" })
	}
	opts.Override = func(n *ast.Node, props materialize.Props) {
		if n == dialog {
			props["open"] = true
		}
	}

	res, err := jsx.RenderTree(roots, opts)
	if err != nil {
		s.result = nil
		p.Error = err.Error()
		p.Retry = true
		return p
	}
	s.result = res
	p.HTML = res.HTML
	for _, w := range res.Warnings {
		p.Warnings = append(p.Warnings, w.Message)
	}
	p.Log = s.log.Drain()
	return p
}

func (s *Session) logger() jsx.Logger {
	if s.opts.Logger == nil {
		return s.log
	}
	return teeLogger{s.log, s.opts.Logger}
}

type teeLogger [2]jsx.Logger

func (t teeLogger) Log(values ...any) {
	for _, l := range t {
		l.Log(values...)
	}
}

func (t teeLogger) LogLine(values ...any) {
	for _, l := range t {
		l.LogLine(values...)
	}
}

// Warning returns the visible warning, if any. Warnings expire after the
// configured TTL.
func (s *Session) Warning() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.warning == "" {
		return "", false
	}
	if !s.opts.Clock().Before(s.warningUntil) {
		s.warning = ""
		return "", false
	}
	return s.warning, true
}

// reject shows err as a warning and returns it. Callers hold s.mu.
func (s *Session) reject(err *perrors.Error) error {
	s.warning = err.Message
	s.warningUntil = s.opts.Clock().Add(s.opts.WarningTTL)
	return err
}

// BeginDrag starts dragging a palette component.
func (s *Session) BeginDrag(kind string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Idle {
		return perrors.New("EDIT-0004", map[string]any{"Action": "start a drag", "State": s.state.String()})
	}
	if _, err := Lookup(kind); err != nil {
		return err
	}
	s.state = Dragging
	s.kind = kind
	s.target = ""
	s.index = 0
	return nil
}

// CancelDrag abandons a drag without dropping.
func (s *Session) CancelDrag() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endDrag()
}

func (s *Session) endDrag() {
	s.state = Idle
	s.kind = ""
	s.target = ""
	s.index = 0
}

func (s *Session) requireDrag(action string) error {
	if !s.state.dragging() {
		return perrors.New("EDIT-0004", map[string]any{"Action": action, "State": s.state.String()})
	}
	return nil
}

// DragOverContainer moves the drag over the element with id. It reports
// whether that element is a container; if not, the drag is over nothing.
func (s *Session) DragOverContainer(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireDrag("drag over a container"); err != nil {
		return false, err
	}
	n := ast.FindByID(s.parse(), id)
	if n == nil || !IsContainer(n.Tag) {
		s.state = OverNothing
		s.target = ""
		return false, nil
	}
	s.state = OverContainer
	s.target = id
	return true, nil
}

// DragOverInsertionPoint moves the drag over root insertion point index:
// 0 is before the first root element and i is after root element i.
func (s *Session) DragOverInsertionPoint(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireDrag("drag over an insertion point"); err != nil {
		return err
	}
	if index < 0 {
		index = 0
	}
	s.state = OverInsertionPoint
	s.index = index
	s.target = ""
	return nil
}

// DragOverNothing moves the drag somewhere it cannot be dropped.
func (s *Session) DragOverNothing() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireDrag("drag"); err != nil {
		return err
	}
	s.state = OverNothing
	s.target = ""
	return nil
}

// DragLeave moves the drag out of the preview; it is still in progress.
func (s *Session) DragLeave() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireDrag("leave"); err != nil {
		return err
	}
	s.state = Dragging
	s.target = ""
	return nil
}

// Drop inserts the dragged component at the current target. It reports
// whether the source changed. Rejected drops leave the source untouched,
// show a warning and return the reason. The session is idle afterwards.
func (s *Session) Drop() (bool, error) {
	s.mu.Lock()
	if err := s.requireDrag("drop"); err != nil {
		s.mu.Unlock()
		return false, err
	}
	over := s.state
	s.state = Dropped
	code, err := s.drop(over)
	s.endDrag()
	changed := err == nil && s.replace(code)
	s.mu.Unlock()

	s.notify(changed, code)
	return changed, err
}

// drop computes the text after dropping while over. Callers hold s.mu.
func (s *Session) drop(over State) (string, error) {
	snippet, err := Lookup(s.kind)
	if err != nil {
		return s.code, err
	}
	if snippet.Singleton && ast.CountTag(s.parse(), snippet.Kind) > 0 {
		return s.code, s.reject(perrors.New("EDIT-0001", map[string]any{"Kind": snippet.Kind}))
	}

	code := snippet.Code(s.opts.Clock())
	switch over {
	case OverContainer:
		updated, ok := mutate.InsertIntoContainer(s.code, s.target, code)
		if !ok {
			return s.code, s.reject(perrors.New("MUTATE-0002", map[string]any{"ID": s.target}))
		}
		return updated, nil

	case OverInsertionPoint:
		if !snippet.Root {
			return s.code, s.reject(perrors.New("EDIT-0002", map[string]any{"Allowed": rootKinds()}))
		}
		return mutate.InsertAtRoot(s.code, code, s.index), nil
	}
	return s.code, nil
}

func rootKinds() string {
	kind := ""
	for _, k := range []string{"Box", "Chip", "Dialog"} {
		if snippets[k].Root {
			if kind != "" {
				kind += " and "
			}
			kind += k
		}
	}
	return kind
}

// SelectColor arms the paint tool and applies the paint cursor.
func (s *Session) SelectColor(color string, kind mutate.ColorKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.painting = true
	s.paintColor = color
	s.paintKind = kind
	s.opts.Cursor.Set(CursorStyle(color))
}

// Painting reports whether the paint tool is armed.
func (s *Session) Painting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.painting
}

// CancelPaint disarms the paint tool and restores the cursor.
func (s *Session) CancelPaint() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releasePaint()
}

func (s *Session) releasePaint() {
	if s.painting {
		s.opts.Cursor.Reset()
	}
	s.painting = false
	s.paintColor = ""
	s.paintKind = ""
}

// Paint applies the selected color to the element with id and disarms the
// paint tool, whether or not the element could be updated.
func (s *Session) Paint(id string) (bool, error) {
	s.mu.Lock()
	if !s.painting {
		s.mu.Unlock()
		return false, perrors.New("EDIT-0004", map[string]any{"Action": "paint", "State": "no color is selected"})
	}
	code, err := s.paint(id)
	changed := err == nil && s.replace(code)
	s.mu.Unlock()

	s.notify(changed, code)
	return changed, err
}

func (s *Session) paint(id string) (string, error) {
	defer s.releasePaint()
	if id == "" {
		return s.code, nil
	}
	updated, ok := mutate.UpdateColorWithOptions(s.code, id, s.paintColor, s.paintKind, s.opts.Color)
	if !ok {
		return s.code, perrors.New("MUTATE-0001", map[string]any{"ID": id})
	}
	return updated, nil
}

// ClickResult describes what a preview click did.
type ClickResult struct {
	Painted    bool `json:"painted"`
	Handled    bool `json:"handled"`
	DialogOpen bool `json:"dialog_open"`
}

// Click handles a click on the preview element with id; "" is the preview
// background. With the paint tool armed the click paints the element, or
// cancels painting on the background. Otherwise the Dialog buttons toggle
// the Dialog preview and the element's handler for event runs.
func (s *Session) Click(id, event string) (ClickResult, error) {
	if s.Painting() {
		if id == "" {
			s.CancelPaint()
			return ClickResult{DialogOpen: s.DialogOpen()}, nil
		}
		changed, err := s.Paint(id)
		return ClickResult{Painted: changed, DialogOpen: s.DialogOpen()}, err
	}

	if event == "" {
		event = "onClick"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch id {
	case OpenDialogID:
		s.dialogOpen = true
	case CloseDialogID:
		s.dialogOpen = false
	}
	if s.result == nil {
		s.render()
	}
	var handled bool
	if s.result != nil && id != "" {
		handled = s.result.Dispatch(id, event)
	}
	return ClickResult{Handled: handled, DialogOpen: s.dialogOpen}, nil
}

// DialogOpen reports whether the Dialog preview is open.
func (s *Session) DialogOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dialogOpen
}

// Close releases the paint cursor and abandons any drag.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releasePaint()
	s.endDrag()
	s.dialogOpen = false
}
