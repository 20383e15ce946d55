package editor

import (
	"strings"
	"sync"
)

// Cursor is the pointer style applied to the whole page while the paint
// tool is active.
type Cursor interface {
	Set(style string)
	Reset()
}

// StateCursor remembers the applied style so clients can poll it.
type StateCursor struct {
	mu    sync.Mutex
	style string
}

func (c *StateCursor) Set(style string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.style = style
}

func (c *StateCursor) Reset() {
	c.Set("")
}

// Style returns the applied style, or "" when the default cursor is shown.
func (c *StateCursor) Style() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.style
}

// CursorStyle returns a CSS cursor value drawing a diamond filled with color.
func CursorStyle(color string) string {
	return `url('data:image/svg+xml;utf8,<svg xmlns="http://www.w3.org/2000/svg" width="16" height="16" viewBox="0 0 16 16">` +
		`<polygon points="8,1 15,8 8,15 1,8" fill="` + encodeURIComponent(color) + `"/></svg>') 8 8, auto`
}

// encodeURIComponent escapes s for use inside a data URL, leaving the
// same characters unescaped as browsers do.
func encodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			strings.IndexByte("-_.!~*'()", c) >= 0:
			sb.WriteByte(c)
		default:
			sb.WriteByte('%')
			sb.WriteByte(hex[c>>4])
			sb.WriteByte(hex[c&0x0f])
		}
	}
	return sb.String()
}

// Swatches are the paint colors offered next to the palette.
var Swatches = []string{
	"#f44336", "#e91e63", "#9c27b0", "#673ab7", "#3f51b5",
	"#2196f3", "#03a9f4", "#00bcd4", "#009688", "#4caf50",
	"#8bc34a", "#cddc39", "#ffeb3b", "#ffc107", "#ff9800",
	"#ff5722", "#795548", "#9e9e9e", "#607d8b", "#000000",
}
