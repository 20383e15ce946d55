// Package literal evaluates the data subset of the host expression
// language: object and array literals, strings, numbers, booleans, null
// and undefined. Identifiers, calls and operators are rejected, so
// evaluating untrusted markup can never run code.
//
// It also recognizes the shape of arrow functions so that event handler
// attributes like {() => save()} can be split into parameters and body
// without evaluating them.
package literal

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
)

type undefined struct{}

func (undefined) String() string { return "undefined" }

// Undefined is the value produced by the undefined keyword. It is distinct
// from nil, which represents null.
var Undefined any = undefined{}

// IsUndefined reports whether v is the Undefined sentinel.
func IsUndefined(v any) bool {
	_, ok := v.(undefined)
	return ok
}

// ParseValue evaluates src as a single literal value. Numbers are always
// float64.
func ParseValue(src string) (any, error) {
	env := map[string]any{"undefined": Undefined}
	guard := &literalOnly{}

	program, err := expr.Compile(src,
		expr.Env(env),
		expr.DisableAllBuiltins(),
		expr.Patch(guard),
	)
	if guard.err != nil {
		return nil, guard.err
	}
	if err != nil {
		return nil, fmt.Errorf("literal: %w", err)
	}

	v, err := expr.Run(program, env)
	if err != nil {
		return nil, fmt.Errorf("literal: %w", err)
	}
	return normalize(v), nil
}

// ParseObject evaluates src and requires the result to be an object.
func ParseObject(src string) (map[string]any, error) {
	v, err := ParseValue(src)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("literal: expected object, got %T", v)
	}
	return obj, nil
}

// literalOnly rejects every node that is not part of a literal. The bare
// name null becomes nil; undefined resolves through the environment.
type literalOnly struct {
	err error
}

func (v *literalOnly) Visit(node *ast.Node) {
	if v.err != nil {
		return
	}
	switch n := (*node).(type) {
	case *ast.NilNode, *ast.BoolNode, *ast.IntegerNode, *ast.FloatNode,
		*ast.StringNode, *ast.ArrayNode, *ast.MapNode, *ast.PairNode:
	case *ast.IdentifierNode:
		switch n.Value {
		case "undefined":
		case "null":
			ast.Patch(node, &ast.NilNode{})
		default:
			v.err = fmt.Errorf("literal: unexpected identifier %q", n.Value)
		}
	case *ast.UnaryNode:
		if !isSign(n.Operator) || !isNumber(n.Node) {
			v.err = fmt.Errorf("literal: unexpected operator %q", n.Operator)
		}
	default:
		v.err = fmt.Errorf("literal: unexpected %T", n)
	}
}

func isSign(op string) bool { return op == "-" || op == "+" }

func isNumber(n ast.Node) bool {
	switch n.(type) {
	case *ast.IntegerNode, *ast.FloatNode:
		return true
	}
	return false
}

// normalize converts the integers expr produces into float64 throughout v.
func normalize(v any) any {
	switch val := v.(type) {
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case []any:
		for i := range val {
			val[i] = normalize(val[i])
		}
		return val
	case map[string]any:
		for k := range val {
			val[k] = normalize(val[k])
		}
		return val
	}
	return v
}

// Arrow is the parsed shape of an arrow function.
type Arrow struct {
	Params []string
	Body   string // statements when Block is true, otherwise one expression
	Block  bool
}

// ParseArrow recognizes "(a, b) => body", "a => body" and "() => { ... }".
// It reports false when src is not an arrow function.
func ParseArrow(src string) (*Arrow, bool) {
	src = strings.TrimSpace(src)
	idx := topLevelArrow(src)
	if idx < 0 {
		return nil, false
	}

	head := strings.TrimSpace(src[:idx])
	body := strings.TrimSpace(src[idx+2:])
	if body == "" {
		return nil, false
	}

	head = strings.TrimSpace(strings.TrimPrefix(head, "async "))
	var params []string
	switch {
	case strings.HasPrefix(head, "(") && strings.HasSuffix(head, ")"):
		inner := strings.TrimSpace(head[1 : len(head)-1])
		if inner != "" {
			for _, p := range strings.Split(inner, ",") {
				p = strings.TrimSpace(p)
				if !isIdentifier(p) {
					return nil, false
				}
				params = append(params, p)
			}
		}
	case isIdentifier(head):
		params = []string{head}
	default:
		return nil, false
	}

	arrow := &Arrow{Params: params, Body: body}
	if strings.HasPrefix(body, "{") && strings.HasSuffix(body, "}") {
		arrow.Block = true
		arrow.Body = strings.TrimSpace(body[1 : len(body)-1])
	}
	return arrow, true
}

// topLevelArrow returns the index of the first "=>" outside strings and
// brackets, or -1.
func topLevelArrow(s string) int {
	depth := 0
	var quote byte
	for i := 0; i < len(s)-1; i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'' || c == '`':
			quote = c
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		case c == '=' && s[i+1] == '>' && depth == 0:
			return i
		}
	}
	return -1
}

// SplitStatements splits a statement block on top-level ';' and newlines.
// Empty statements are dropped.
func SplitStatements(body string) []string {
	var out []string
	depth := 0
	var quote byte
	start := 0

	flush := func(end int) {
		if stmt := strings.TrimSpace(body[start:end]); stmt != "" {
			out = append(out, stmt)
		}
		start = end + 1
	}

	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'' || c == '`':
			quote = c
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		case (c == ';' || c == '\n') && depth == 0:
			flush(i)
		}
	}
	if start < len(body) {
		flush(len(body))
	}
	return out
}

func isIdentifier(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentStart(s[i]) && !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
