package htmlrender

import "github.com/sambeau/jsxplay/pkg/jsx/materialize"

// Component describes how a registered component name renders to HTML.
type Component struct {
	Tag   string // HTML tag
	Class string // class names always applied

	// TagProp names a prop that may replace Tag, e.g. Typography's
	// component="h1".
	TagProp string

	// LabelProp names a prop rendered as the element's text, e.g. Chip's label.
	LabelProp string

	// Modal elements are hidden unless their open prop is true.
	Modal bool

	// Flex lays children out with flexbox; direction and spacing props apply.
	Flex bool

	Attrs map[string]string // fixed attributes
}

// DefaultRegistry returns the component set used by the playground.
func DefaultRegistry() materialize.MapRegistry[Component] {
	return materialize.MapRegistry[Component]{
		"Box":               {Tag: "div", Class: "MuiBox-root"},
		"Container":         {Tag: "div", Class: "MuiContainer-root"},
		"Paper":             {Tag: "div", Class: "MuiPaper-root"},
		"Card":              {Tag: "div", Class: "MuiCard-root"},
		"CardContent":       {Tag: "div", Class: "MuiCardContent-root"},
		"Grid":              {Tag: "div", Class: "MuiGrid-root", Flex: true},
		"Stack":             {Tag: "div", Class: "MuiStack-root", Flex: true},
		"Typography":        {Tag: "p", Class: "MuiTypography-root", TagProp: "component"},
		"Button":            {Tag: "button", Class: "MuiButton-root", Attrs: map[string]string{"type": "button"}},
		"IconButton":        {Tag: "button", Class: "MuiIconButton-root", Attrs: map[string]string{"type": "button"}},
		"Link":              {Tag: "a", Class: "MuiLink-root"},
		"Chip":              {Tag: "div", Class: "MuiChip-root", LabelProp: "label"},
		"Avatar":            {Tag: "div", Class: "MuiAvatar-root"},
		"Alert":             {Tag: "div", Class: "MuiAlert-root", Attrs: map[string]string{"role": "alert"}},
		"Divider":           {Tag: "hr", Class: "MuiDivider-root"},
		"TextField":         {Tag: "input", Class: "MuiTextField-root"},
		"Dialog":            {Tag: "div", Class: "MuiDialog-root", Modal: true, Attrs: map[string]string{"role": "dialog"}},
		"DialogTitle":       {Tag: "h2", Class: "MuiDialogTitle-root"},
		"DialogContent":     {Tag: "div", Class: "MuiDialogContent-root"},
		"DialogContentText": {Tag: "p", Class: "MuiDialogContentText-root"},
		"DialogActions":     {Tag: "div", Class: "MuiDialogActions-root"},
	}
}
