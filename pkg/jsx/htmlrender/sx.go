package htmlrender

import (
	"strconv"
	"strings"

	"github.com/sambeau/jsxplay/pkg/jsx/style"
)

// spacingUnit is the pixel size of one theme spacing step.
const spacingUnit = 8

var spacingProps = map[string][]string{
	"p":   {"padding"},
	"pt":  {"padding-top"},
	"pb":  {"padding-bottom"},
	"pl":  {"padding-left"},
	"pr":  {"padding-right"},
	"px":  {"padding-left", "padding-right"},
	"py":  {"padding-top", "padding-bottom"},
	"m":   {"margin"},
	"mt":  {"margin-top"},
	"mb":  {"margin-bottom"},
	"ml":  {"margin-left"},
	"mr":  {"margin-right"},
	"mx":  {"margin-left", "margin-right"},
	"my":  {"margin-top", "margin-bottom"},
	"gap": {"gap"},
}

var aliasProps = map[string]string{
	"bgcolor": "background-color",
}

// isSystemProp reports whether a component prop is a styling shorthand
// rather than an attribute.
func isSystemProp(name string) bool {
	_, spacing := spacingProps[name]
	_, alias := aliasProps[name]
	return spacing || alias
}

// expandSx converts an sx mapping into CSS declarations.
func expandSx(sx style.Map) map[string]string {
	out := map[string]string{}
	for k, v := range sx {
		switch v.(type) {
		case map[string]any, []any, nil:
			continue
		}
		if props, ok := spacingProps[k]; ok {
			for _, p := range props {
				out[p] = spacing(v)
			}
			continue
		}
		if alias, ok := aliasProps[k]; ok {
			out[alias] = style.FormatValue(v)
			continue
		}
		prop := style.KebabKey(k)
		out[prop] = style.CSSValue(prop, v)
	}
	return out
}

// spacing turns theme steps into pixels; other values pass through.
func spacing(v any) string {
	switch n := v.(type) {
	case float64:
		return style.FormatValue(n*spacingUnit) + "px"
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return style.FormatValue(f*spacingUnit) + "px"
		}
		return n
	default:
		return style.FormatValue(v)
	}
}
