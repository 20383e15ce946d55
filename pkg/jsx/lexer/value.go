package lexer

import (
	"math"
	"strconv"
	"strings"
)

// ValueKind identifies the variant held by a Value.
type ValueKind int

const (
	StringValue    ValueKind = iota // "text" or 'text'
	NumberValue                     // {42}
	BoolValue                       // {true} / {false}
	NullValue                       // {null}
	UndefinedValue                  // {undefined}
	ExprValue                       // any other {expression}, kept verbatim
)

var kindNames = [...]string{"string", "number", "bool", "null", "undefined", "expr"}

func (k ValueKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is a typed attribute value.
//
// For ExprValue, Str holds the original text including its surrounding
// braces, e.g. "{{p: 2}}" for sx={{p: 2}}.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
}

// String returns a StringValue.
func String(s string) Value { return Value{Kind: StringValue, Str: s} }

// Number returns a NumberValue.
func Number(f float64) Value { return Value{Kind: NumberValue, Num: f} }

// Bool returns a BoolValue.
func Bool(b bool) Value { return Value{Kind: BoolValue, Bool: b} }

// Null returns a NullValue.
func Null() Value { return Value{Kind: NullValue} }

// Undefined returns the undefined sentinel. It is distinct from Null.
func Undefined() Value { return Value{Kind: UndefinedValue} }

// Expr returns an unresolved expression value. raw must include its braces.
func Expr(raw string) Value { return Value{Kind: ExprValue, Str: raw} }

// Source renders the value the way it is written after "name=".
func (v Value) Source() string {
	switch v.Kind {
	case StringValue:
		if strings.Contains(v.Str, `"`) && !strings.Contains(v.Str, "'") {
			return "'" + v.Str + "'"
		}
		return `"` + v.Str + `"`
	case NumberValue:
		return "{" + FormatNumber(v.Num) + "}"
	case BoolValue:
		return "{" + strconv.FormatBool(v.Bool) + "}"
	case NullValue:
		return "{null}"
	case UndefinedValue:
		return "{undefined}"
	default:
		return v.Str
	}
}

// String implements fmt.Stringer for debugging output.
func (v Value) String() string {
	switch v.Kind {
	case StringValue:
		return strconv.Quote(v.Str)
	case NumberValue:
		return FormatNumber(v.Num)
	case BoolValue:
		return strconv.FormatBool(v.Bool)
	case NullValue:
		return "null"
	case UndefinedValue:
		return "undefined"
	default:
		return v.Str
	}
}

// FormatNumber formats f without exponent noise for integral values.
func FormatNumber(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// parseNumber accepts the numeric literal forms of the host expression
// language: decimal, exponent, 0x/0o/0b prefixes and Infinity.
func parseNumber(s string) (float64, bool) {
	switch s {
	case "":
		return 0, false
	case "Infinity", "+Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}

	lower := strings.ToLower(s)
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") || strings.Contains(s, "_") {
		return 0, false
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}

	body := strings.TrimLeft(lower, "+-")
	if strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0o") || strings.HasPrefix(body, "0b") {
		if i, err := strconv.ParseInt(lower, 0, 64); err == nil {
			return float64(i), true
		}
	}
	return 0, false
}

// classifyExpr maps the inside of {...} to a typed value.
func classifyExpr(inner string) Value {
	switch trimmed := strings.TrimSpace(inner); trimmed {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	case "null":
		return Null()
	case "undefined":
		return Undefined()
	default:
		if f, ok := parseNumber(trimmed); ok {
			return Number(f)
		}
		return Expr("{" + inner + "}")
	}
}

// Attr is a single name/value pair.
type Attr struct {
	Name  string
	Value Value
}

// Attrs is an ordered attribute mapping. Names are unique; setting an
// existing name replaces its value in place.
type Attrs []Attr

// Get returns the value for name.
func (a Attrs) Get(name string) (Value, bool) {
	for _, attr := range a {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return Value{}, false
}

// Has reports whether name is present.
func (a Attrs) Has(name string) bool {
	_, ok := a.Get(name)
	return ok
}

// Set adds or replaces name.
func (a *Attrs) Set(name string, v Value) {
	for i := range *a {
		if (*a)[i].Name == name {
			(*a)[i].Value = v
			return
		}
	}
	*a = append(*a, Attr{Name: name, Value: v})
}

// Names returns attribute names in source order.
func (a Attrs) Names() []string {
	names := make([]string, len(a))
	for i, attr := range a {
		names[i] = attr.Name
	}
	return names
}

// Clone returns an independent copy.
func (a Attrs) Clone() Attrs {
	if a == nil {
		return nil
	}
	out := make(Attrs, len(a))
	copy(out, a)
	return out
}
