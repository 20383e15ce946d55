// Package style turns the textual value of a style or sx attribute into a
// key/value mapping.
//
// Three readings are tried in order:
//
//  1. strict JSON
//  2. "key: value" pairs after stripping the outer braces
//  3. the literal evaluator, which accepts nested objects, arrays and
//     single-quoted strings
//
// When none succeeds the result is an empty mapping; Normalize never fails.
package style

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sambeau/jsxplay/pkg/jsx/literal"
)

// Map is a normalized style mapping.
type Map = map[string]any

// Tier records which reading produced a Map.
type Tier int

const (
	TierNone Tier = iota
	TierJSON
	TierPairs
	TierLiteral
)

func (t Tier) String() string {
	switch t {
	case TierJSON:
		return "json"
	case TierPairs:
		return "pairs"
	case TierLiteral:
		return "literal"
	default:
		return "none"
	}
}

var pairRe = regexp.MustCompile(`([a-zA-Z-]+)\s*:\s*([^;,]+)(?:,|$)`)

// Normalize parses raw. On failure it returns an empty, non-nil Map and
// TierNone.
func Normalize(raw string) (Map, Tier) {
	raw = strings.TrimSpace(raw)

	var m Map
	if err := json.Unmarshal([]byte(raw), &m); err == nil && m != nil {
		return m, TierJSON
	}

	if !strings.HasPrefix(raw, "{") || !strings.HasSuffix(raw, "}") {
		return Map{}, TierNone
	}

	inner := stripDoubleBraces(raw)

	if m, ok := parsePairs(inner); ok {
		return m, TierPairs
	}

	if m, err := literal.ParseObject(inner); err == nil {
		return m, TierLiteral
	}

	return Map{}, TierNone
}

// stripDoubleBraces turns "{{a: 1}}" into "{a: 1}". Single-brace input is
// returned unchanged.
func stripDoubleBraces(s string) string {
	if strings.HasPrefix(s, "{{") && strings.HasSuffix(s, "}}") {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

// parsePairs reads flat "key: value" lists. Values containing braces or
// brackets belong to nested structures this reading cannot represent.
func parsePairs(obj string) (Map, bool) {
	body := strings.TrimPrefix(obj, "{")
	body = strings.TrimSuffix(body, "}")

	matches := pairRe.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil, false
	}

	m := Map{}
	for _, match := range matches {
		value := strings.TrimSpace(match[2])
		if strings.ContainsAny(value, "{}[]") {
			return nil, false
		}
		m[strings.TrimSpace(match[1])] = unquote(value)
	}
	return m, true
}

func unquote(s string) string {
	if len(s) >= 2 {
		if q := s[0]; (q == '"' || q == '\'') && s[len(s)-1] == q {
			return s[1 : len(s)-1]
		}
	}
	return s
}

var titleCaser = cases.Title(language.Und, cases.NoLower)

// CamelKey converts a CSS property name to its camelCase form,
// e.g. background-color to backgroundColor.
func CamelKey(name string) string {
	parts := strings.Split(name, "-")
	var sb strings.Builder
	for i, part := range parts {
		if part == "" {
			continue
		}
		if i == 0 || sb.Len() == 0 {
			sb.WriteString(part)
			continue
		}
		sb.WriteString(titleCaser.String(part))
	}
	return sb.String()
}

// KebabKey converts a camelCase property name to CSS form,
// e.g. backgroundColor to background-color.
func KebabKey(name string) string {
	var sb strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'A' && c <= 'Z' {
			if i > 0 {
				sb.WriteByte('-')
			}
			sb.WriteByte(c + ('a' - 'A'))
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// CSS renders m as an inline declaration list with kebab-case names in
// sorted order. Nested objects are skipped.
func CSS(m Map) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var decls []string
	for _, k := range keys {
		v := m[k]
		switch v.(type) {
		case map[string]any, []any, nil:
			continue
		}
		if literal.IsUndefined(v) {
			continue
		}
		prop := KebabKey(k)
		decls = append(decls, fmt.Sprintf("%s: %s", prop, CSSValue(prop, v)))
	}
	return strings.Join(decls, "; ")
}

// unitless lists the CSS properties whose numeric values take no unit.
var unitless = map[string]bool{
	"animation-iteration-count": true, "aspect-ratio": true,
	"border-image-outset": true, "border-image-slice": true, "border-image-width": true,
	"column-count": true, "columns": true,
	"flex": true, "flex-grow": true, "flex-shrink": true, "flex-order": true,
	"font-weight": true, "line-clamp": true, "line-height": true,
	"grid-area": true, "grid-row": true, "grid-row-end": true, "grid-row-start": true,
	"grid-column": true, "grid-column-end": true, "grid-column-start": true,
	"opacity": true, "order": true, "orphans": true, "scale": true, "tab-size": true,
	"widows": true, "z-index": true, "zoom": true,
	"fill-opacity": true, "flood-opacity": true, "stop-opacity": true,
	"stroke-dasharray": true, "stroke-dashoffset": true, "stroke-miterlimit": true,
	"stroke-opacity": true, "stroke-width": true,
}

// CSSValue renders v as the value of the CSS property prop. Non-zero
// numbers get a px unit unless prop is unitless, so fontSize: 12 becomes
// 12px.
func CSSValue(prop string, v any) string {
	if n, ok := v.(float64); ok && n != 0 && !unitless[prop] {
		return FormatValue(n) + "px"
	}
	return FormatValue(v)
}

// FormatValue renders a scalar style value.
func FormatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(val)
	}
}
