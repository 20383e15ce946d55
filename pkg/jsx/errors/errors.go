// Package errors provides structured error types for the JSX toolkit.
//
// Error is a single error type used by the tree builder, the materializer,
// the text mutators and the editor. Each error carries a class, a catalog
// code and enough metadata for display, JSON transport and programmatic
// handling.
package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// ErrorClass categorizes errors for filtering and templating.
type ErrorClass string

const (
	ClassParse     ErrorClass = "parse"     // Tree building
	ClassStyle     ErrorClass = "style"     // Style/sx normalization
	ClassHandler   ErrorClass = "handler"   // Event handler compile/run
	ClassUndefined ErrorClass = "undefined" // Unresolved component names
	ClassMutate    ErrorClass = "mutate"    // Text surgery
	ClassEdit      ErrorClass = "edit"      // Editor policy rejections
	ClassIO        ErrorClass = "io"        // File operations
	ClassDatabase  ErrorClass = "database"  // Snapshot store
)

// Error represents any structured error raised by the toolkit.
type Error struct {
	Class   ErrorClass     `json:"class"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hints   []string       `json:"hints,omitempty"`
	Line    int            `json:"line"`   // 1-based, 0 if unknown
	Column  int            `json:"column"` // 1-based, 0 if unknown
	File    string         `json:"file,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.String()
}

// String returns a formatted string representation of the error.
func (e *Error) String() string {
	var sb strings.Builder

	if e.File != "" {
		sb.WriteString(e.File)
		sb.WriteString(": ")
	}
	if e.Line > 0 {
		sb.WriteString(fmt.Sprintf("line %d, column %d: ", e.Line, e.Column))
	}

	sb.WriteString(e.Message)

	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// PrettyString returns a multi-line formatted string for terminals.
func (e *Error) PrettyString() string {
	var sb strings.Builder

	switch e.Class {
	case ClassParse:
		sb.WriteString("Parse error")
	case ClassEdit:
		sb.WriteString("Edit rejected")
	default:
		sb.WriteString("Error")
	}

	if e.File != "" {
		sb.WriteString(":\n  in: ")
		sb.WriteString(e.File)
		if e.Line > 0 {
			sb.WriteString(fmt.Sprintf("\n  at: line %d, column %d", e.Line, e.Column))
		}
		sb.WriteString("\n  ")
	} else if e.Line > 0 {
		sb.WriteString(fmt.Sprintf(": line %d, column %d\n  ", e.Line, e.Column))
	} else {
		sb.WriteString(":\n  ")
	}

	sb.WriteString(e.Message)

	for i, hint := range e.Hints {
		sb.WriteString("\n  ")
		if i == 0 {
			sb.WriteString("Hint: ")
		} else {
			sb.WriteString("  or: ")
		}
		sb.WriteString(hint)
	}

	return sb.String()
}

// ToJSON returns the error as JSON bytes.
func (e *Error) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// WithFile returns a copy of the error with the file path set.
func (e *Error) WithFile(file string) *Error {
	c := *e
	c.File = file
	return &c
}

// WithPosition returns a copy of the error with line and column set.
func (e *Error) WithPosition(line, column int) *Error {
	c := *e
	c.Line = line
	c.Column = column
	return &c
}

// Is reports whether target is an *Error with the same code.
// It lets callers use errors.Is against catalog sentinels built with New.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// ErrorDef defines an error in the catalog.
type ErrorDef struct {
	Class    ErrorClass
	Template string   // Message template with {{.placeholders}}
	Hints    []string // Hint templates
}

// ErrorCatalog maps error codes to their definitions.
var ErrorCatalog = map[string]ErrorDef{
	// Parse errors (PARSE-0xxx)
	"PARSE-0001": {
		Class:    ClassParse,
		Template: "mismatched tags: expected </{{.Expected}}>, got </{{.Got}}>",
		Hints:    []string{"close <{{.Expected}}> before closing <{{.Got}}>"},
	},
	"PARSE-0002": {
		Class:    ClassParse,
		Template: "unexpected closing tag </{{.Got}}> with no open element",
	},
	"PARSE-0003": {
		Class:    ClassParse,
		Template: "unclosed tag <{{.Name}}>",
		Hints:    []string{"add </{{.Name}}> or write <{{.Name}} />"},
	},
	"PARSE-0004": {
		Class:    ClassParse,
		Template: "tag at offset {{.Offset}} is never terminated with '>'",
	},

	// Style errors (STYLE-0xxx)
	"STYLE-0001": {
		Class:    ClassStyle,
		Template: "could not parse {{.Prop}} value {{.Value}}",
		Hints:    []string{"use {{`{{`}}key: value{{`}}`}} or a JSON object"},
	},

	// Handler errors (HANDLER-0xxx)
	"HANDLER-0001": {
		Class:    ClassHandler,
		Template: "could not compile {{.Prop}} handler: {{.Reason}}",
	},
	"HANDLER-0002": {
		Class:    ClassHandler,
		Template: "{{.Prop}} handler failed: {{.Reason}}",
	},

	// Undefined errors (UNDEF-0xxx)
	"UNDEF-0001": {
		Class:    ClassUndefined,
		Template: "component '{{.Name}}' is not registered, rendering as div",
	},

	// Mutation errors (MUTATE-0xxx)
	"MUTATE-0001": {
		Class:    ClassMutate,
		Template: "no element with id '{{.ID}}'",
	},
	"MUTATE-0002": {
		Class:    ClassMutate,
		Template: "element '{{.ID}}' has no matching closing tag",
	},
	"MUTATE-0003": {
		Class:    ClassMutate,
		Template: "unknown color target '{{.Kind}}'",
		Hints:    []string{"use 'background' or 'text'"},
	},

	// Editor policy errors (EDIT-0xxx)
	"EDIT-0001": {
		Class:    ClassEdit,
		Template: "Only one {{.Kind}} component can be added. Please remove the existing {{.Kind}} first.",
	},
	"EDIT-0002": {
		Class:    ClassEdit,
		Template: "Only {{.Allowed}} components can be added as root elements.",
	},
	"EDIT-0003": {
		Class:    ClassEdit,
		Template: "unknown component '{{.Kind}}'",
	},
	"EDIT-0004": {
		Class:    ClassEdit,
		Template: "cannot {{.Action}} while {{.State}}",
	},
	"EDIT-0005": {
		Class:    ClassEdit,
		Template: "nothing to undo",
	},

	// IO errors (IO-0xxx)
	"IO-0001": {
		Class:    ClassIO,
		Template: "failed to read '{{.Path}}': {{.Reason}}",
	},
	"IO-0002": {
		Class:    ClassIO,
		Template: "failed to write '{{.Path}}': {{.Reason}}",
	},

	// Database errors (DB-0xxx)
	"DB-0001": {
		Class:    ClassDatabase,
		Template: "unsupported store driver '{{.Driver}}'",
		Hints:    []string{"use sqlite, postgres or mysql"},
	},
	"DB-0002": {
		Class:    ClassDatabase,
		Template: "snapshot {{.ID}} not found",
	},
}

// New creates an Error from the catalog.
// If the code is not found, a generic error is created from data["message"].
func New(code string, data map[string]any) *Error {
	def, ok := ErrorCatalog[code]
	if !ok {
		msg := code
		if data != nil {
			if m, ok := data["message"].(string); ok {
				msg = m
			}
		}
		return &Error{
			Class:   ClassParse,
			Code:    code,
			Message: msg,
			Data:    data,
		}
	}

	msg := renderTemplate(def.Template, data)

	var hints []string
	for _, hintTmpl := range def.Hints {
		if rendered := renderTemplate(hintTmpl, data); rendered != "" {
			hints = append(hints, rendered)
		}
	}

	return &Error{
		Class:   def.Class,
		Code:    code,
		Message: msg,
		Hints:   hints,
		Data:    data,
	}
}

// NewWithPosition creates an Error with position information.
func NewWithPosition(code string, line, column int, data map[string]any) *Error {
	err := New(code, data)
	err.Line = line
	err.Column = column
	return err
}

// NewSimple creates an error without using the catalog.
func NewSimple(class ErrorClass, message string) *Error {
	return &Error{
		Class:   class,
		Message: message,
	}
}

func renderTemplate(tmplStr string, data map[string]any) string {
	if data == nil {
		return tmplStr
	}

	tmpl, err := template.New("error").Option("missingkey=zero").Parse(tmplStr)
	if err != nil {
		return tmplStr
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return tmplStr
	}
	return strings.ReplaceAll(buf.String(), "<no value>", "")
}

// levenshteinDistance computes the edit distance between two strings.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,
				matrix[i][j-1]+1,
				matrix[i-1][j-1]+cost,
			)
		}
	}

	return matrix[len(a)][len(b)]
}

// threshold allows one edit for short names, two for medium, three for long.
func threshold(input string) int {
	switch {
	case len(input) >= 7:
		return 3
	case len(input) >= 4:
		return 2
	default:
		return 1
	}
}

// FindClosestMatch returns the candidate closest to input, or "" when
// nothing is within the edit threshold. Exact matches are not suggested.
func FindClosestMatch(input string, candidates []string) string {
	matches := FindTopMatches(input, candidates, 1)
	if len(matches) == 0 {
		return ""
	}
	return matches[0]
}

// FindTopMatches returns up to n candidates within the edit threshold,
// closest first. Comparison is case-insensitive.
func FindTopMatches(input string, candidates []string, n int) []string {
	if input == "" || len(candidates) == 0 || n <= 0 {
		return nil
	}

	type match struct {
		value    string
		distance int
	}

	limit := threshold(input)
	inputLower := strings.ToLower(input)

	var matches []match
	for _, c := range candidates {
		d := levenshteinDistance(inputLower, strings.ToLower(c))
		if d > 0 && d <= limit {
			matches = append(matches, match{c, d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].distance != matches[j].distance {
			return matches[i].distance < matches[j].distance
		}
		return matches[i].value < matches[j].value
	})

	if len(matches) > n {
		matches = matches[:n]
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.value
	}
	return out
}

// NewUndefinedComponent creates an UNDEF-0001 error with a "Did you mean"
// hint when a registered name is close to the requested one.
func NewUndefinedComponent(name string, registered []string) *Error {
	err := New("UNDEF-0001", map[string]any{"Name": name})
	if suggestion := FindClosestMatch(name, registered); suggestion != "" {
		err.Hints = append(err.Hints, fmt.Sprintf("Did you mean '%s'?", suggestion))
	}
	return err
}
