package mutate

import (
	"regexp"
	"strings"

	"github.com/sambeau/jsxplay/pkg/jsx/ast"
	perrors "github.com/sambeau/jsxplay/pkg/jsx/errors"
	"github.com/sambeau/jsxplay/pkg/jsx/style"
)

// ColorKind selects which color property a paint operation writes.
type ColorKind string

const (
	Background ColorKind = "background"
	Text       ColorKind = "text"
)

// ParseColorKind validates a color kind name.
func ParseColorKind(s string) (ColorKind, error) {
	switch k := ColorKind(strings.ToLower(strings.TrimSpace(s))); k {
	case Background, Text:
		return k, nil
	default:
		return "", perrors.New("MUTATE-0003", map[string]any{"Kind": s})
	}
}

// cssProp is the CSS property name for the kind.
func (k ColorKind) cssProp() string {
	if k == Background {
		return "background-color"
	}
	return "color"
}

// sxProp is the shorthand property name for the kind.
func (k ColorKind) sxProp() string {
	if k == Background {
		return "bgcolor"
	}
	return "color"
}

// NewProp selects the attribute added when an element has neither a style
// nor an sx attribute.
type NewProp int

const (
	// NewStyle adds style={{prop: value}} to every element.
	NewStyle NewProp = iota
	// NewSxForComponents adds sx={{prop: "value"}} to uppercase components
	// and style={{prop: value}} to native tags.
	NewSxForComponents
)

// Options tunes UpdateColor.
type Options struct {
	NewProp NewProp
	// InlineComponent is the component whose style attribute uses
	// camelCase property names. Defaults to "Button".
	InlineComponent string
}

// UpdateColor sets the background or text color of the element with id by
// rewriting only its opening tag. ok is false, and src is returned
// unchanged, when the element is missing or its tag cannot be rewritten.
// An element that already has the color reports ok with src unchanged.
func UpdateColor(src, id, color string, kind ColorKind) (string, bool) {
	return UpdateColorWithOptions(src, id, color, kind, Options{})
}

// UpdateColorWithOptions is UpdateColor with explicit options.
func UpdateColorWithOptions(src, id, color string, kind ColorKind, opts Options) (string, bool) {
	if opts.InlineComponent == "" {
		opts.InlineComponent = "Button"
	}

	tag, ok := FindOpenTag(src, id)
	if !ok {
		return src, false
	}

	updated, ok := rewriteTag(tag, color, kind, opts)
	if !ok {
		return src, false
	}
	if updated == tag.Text {
		return src, true
	}
	return src[:tag.Start] + updated + src[tag.End:], true
}

func rewriteTag(tag Tag, color string, kind ColorKind, opts Options) (string, bool) {
	text := tag.Text

	if tag.Name == opts.InlineComponent {
		prop := style.CamelKey(kind.cssProp())
		if blob, ok := findBlob(text, "style"); ok {
			return blob.replace(text, setStyleProp(blob.object(text), prop, color)), true
		}
		if !hasAttr(text, "style") {
			return addAttr(text, "style={{"+prop+": "+color+"}}"), true
		}
	}

	if blob, ok := findBlob(text, "style"); ok {
		return blob.replace(text, setStyleProp(blob.object(text), kind.cssProp(), color)), true
	}
	if blob, ok := findBlob(text, "sx"); ok {
		return blob.replace(text, setSxProp(blob.object(text), kind.sxProp(), color)), true
	}
	if hasAttr(text, "style") || hasAttr(text, "sx") {
		return text, false
	}

	if opts.NewProp == NewSxForComponents && ast.IsComponentName(tag.Name) {
		return addAttr(text, `sx={{`+kind.sxProp()+`: "`+color+`"}}`), true
	}
	return addAttr(text, "style={{"+kind.cssProp()+": "+color+"}}"), true
}

// blob is the object literal inside name={...}: Start and End bound the
// inner {...} within the tag text.
type blob struct {
	Start int
	End   int
}

func (b blob) object(text string) string { return text[b.Start:b.End] }

func (b blob) replace(text, object string) string {
	return text[:b.Start] + object + text[b.End:]
}

func attrRe(name string) *regexp.Regexp {
	return regexp.MustCompile(`\s` + regexp.QuoteMeta(name) + `\s*=\s*\{`)
}

func hasAttr(text, name string) bool {
	return regexp.MustCompile(`\s` + regexp.QuoteMeta(name) + `\s*=`).MatchString(text)
}

// findBlob locates name={{...}} in a tag and returns the inner object.
func findBlob(text, name string) (blob, bool) {
	loc := attrRe(name).FindStringIndex(text)
	if loc == nil {
		return blob{}, false
	}
	outer := loc[1] - 1
	outerEnd, ok := matchBrace(text, outer)
	if !ok {
		return blob{}, false
	}

	inner := outer + 1
	for inner < outerEnd && isSpaceByte(text[inner]) {
		inner++
	}
	if text[inner] != '{' {
		return blob{}, false
	}
	innerEnd, ok := matchBrace(text, inner)
	if !ok || innerEnd > outerEnd-1 {
		return blob{}, false
	}
	return blob{Start: inner, End: innerEnd}, true
}

// setStyleProp writes prop: value (unquoted) into a style object.
func setStyleProp(object, prop, value string) string {
	re := regexp.MustCompile(`(^|[\s,{])(` + regexp.QuoteMeta(prop) + `)\s*:\s*["']?[^,"'{}]+["']?`)
	if loc := re.FindStringSubmatchIndex(object); loc != nil {
		return object[:loc[0]] + object[loc[2]:loc[3]] + prop + ": " + value + object[loc[1]:]
	}
	if re := regexp.MustCompile(`(^|[\s,{])` + regexp.QuoteMeta(prop) + `\s*:`); re.MatchString(object) {
		return object
	}
	return insertProp(object, prop+": "+value)
}

// setSxProp writes prop: "value" (quoted) into an sx object.
func setSxProp(object, prop, value string) string {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(prop) + `\b\s*:\s*["']?[^,"'{}]+["']?`)
	if loc := re.FindStringIndex(object); loc != nil {
		return object[:loc[0]] + prop + `: "` + value + `"` + object[loc[1]:]
	}
	if regexp.MustCompile(`\b` + regexp.QuoteMeta(prop) + `\b`).MatchString(object) {
		return object
	}
	return insertProp(object, prop+`: "`+value+`"`)
}

// insertProp adds pair just before the object's closing brace, separated
// by ", " when the object already has content.
func insertProp(object, pair string) string {
	last := strings.LastIndexByte(object, '}')
	if last < 0 {
		return object
	}
	head := object[:last]
	trimmed := strings.TrimRight(head, " \t\r\n")
	trailing := head[len(trimmed):]

	content := strings.TrimSpace(strings.TrimPrefix(trimmed, "{"))
	sep := ""
	switch {
	case content == "":
	case strings.HasSuffix(content, ","):
		sep = " "
	default:
		sep = ", "
	}
	return trimmed + sep + pair + trailing + object[last:]
}

// addAttr appends attr to an opening tag, keeping a self-closing slash last.
func addAttr(text, attr string) string {
	if strings.HasSuffix(text, "/>") {
		head := strings.TrimRight(text[:len(text)-2], " \t\r\n")
		return head + " " + attr + " />"
	}
	return text[:len(text)-1] + " " + attr + ">"
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
