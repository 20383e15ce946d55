package editor

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	perrors "github.com/sambeau/jsxplay/pkg/jsx/errors"
)

// Snippet is a component that can be dragged from the palette.
type Snippet struct {
	Kind  string
	Label string

	// Doc is a markdown description shown as the palette tooltip.
	Doc string

	// Container snippets accept drops of other components.
	Container bool
	// Root snippets may be dropped between top-level elements.
	Root bool
	// Singleton snippets may appear at most once in the document.
	Singleton bool

	template string
}

// Code returns the snippet's markup. Generated ids use now in Unix
// milliseconds.
func (s Snippet) Code(now time.Time) string {
	return strings.ReplaceAll(s.template, "{{id}}", fmt.Sprintf("box-%d", now.UnixMilli()))
}

const dialogTemplate = `<Box id="{{id}}" sx={{ p: 2, mt: 2 }}>
  <Button variant="contained" id="open-dialog-button">Open Dialog</Button>
  <Dialog
    open={false}
    id="demo-dialog"
    aria-labelledby="dialog-title"
    aria-describedby="dialog-description"
  >
    <DialogTitle id="dialog-title">Dialog Title</DialogTitle>
    <DialogContent>
      <DialogContentText id="dialog-description">
        This is a sample dialog content. You can place any content here.
      </DialogContentText>
    </DialogContent>
    <DialogActions>
      <Button variant="outlined" id="close-dialog-button">Cancel</Button>
      <Button variant="contained">Confirm</Button>
    </DialogActions>
  </Dialog>
</Box>
`

var snippets = map[string]Snippet{
	"Box": {
		Kind:      "Box",
		Label:     "Box",
		Doc:       "A **container**. Drop it between top-level elements or inside another Box.",
		Container: true,
		Root:      true,
		template:  `<Box id="{{id}}" sx={{ p: 2, mt: 2 }}>New Box</Box>` + "\n",
	},
	"Chip": {
		Kind:     "Chip",
		Label:    "Chip",
		Doc:      "A compact label. Chips can only be dropped **inside a Box**.",
		template: `<Chip sx={{ mt: 2 }} label="New Chip" color="primary" variant="outlined" />` + "\n",
	},
	"Dialog": {
		Kind:      "Dialog",
		Label:     "Dialog",
		Doc:       "A Box holding a `Dialog` and the button that opens it.\n\nOnly **one** Dialog may exist at a time.",
		Singleton: true,
		template:  dialogTemplate,
	},
}

// Lookup returns the snippet for kind.
func Lookup(kind string) (Snippet, error) {
	s, ok := snippets[kind]
	if !ok {
		return Snippet{}, perrors.New("EDIT-0003", map[string]any{"Kind": kind})
	}
	return s, nil
}

// IsContainer reports whether elements with tag accept dropped children.
func IsContainer(tag string) bool {
	return snippets[tag].Container
}

// PaletteEntry is a snippet as listed to clients.
type PaletteEntry struct {
	Kind      string `json:"kind"`
	Label     string `json:"label"`
	DocHTML   string `json:"doc"`
	Container bool   `json:"container"`
	Root      bool   `json:"root"`
	Singleton bool   `json:"singleton"`
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Palette lists every snippet in kind order with its doc rendered to HTML.
func Palette() ([]PaletteEntry, error) {
	kinds := make([]string, 0, len(snippets))
	for k := range snippets {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	entries := make([]PaletteEntry, 0, len(kinds))
	for _, k := range kinds {
		s := snippets[k]
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(s.Doc), &buf); err != nil {
			return nil, fmt.Errorf("render %s doc: %w", k, err)
		}
		entries = append(entries, PaletteEntry{
			Kind:      s.Kind,
			Label:     s.Label,
			DocHTML:   strings.TrimSpace(buf.String()),
			Container: s.Container,
			Root:      s.Root,
			Singleton: s.Singleton,
		})
	}
	return entries, nil
}
