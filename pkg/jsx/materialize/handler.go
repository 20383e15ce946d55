package materialize

import (
	"fmt"
	"maps"
	"strings"

	"github.com/expr-lang/expr"

	perrors "github.com/sambeau/jsxplay/pkg/jsx/errors"
	"github.com/sambeau/jsxplay/pkg/jsx/literal"
)

// handler wraps an on* prop value in a zero-argument closure:
//
//	onClick="count()"            the body runs as statements
//	onClick={() => count()}      the arrow function is invoked with no arguments
//	onClick={count(); done()}    the inner text runs as statements
//
// A value that opens with '{' but does not close with '}' is not a handler
// and nil is returned. Nothing is compiled until the handler is invoked.
func (m *Materializer[T, E]) handler(prop, raw string) Handler {
	var body string
	var params []string

	switch {
	case !strings.HasPrefix(raw, "{"):
		body = raw
	case strings.HasSuffix(raw, "}") && len(raw) >= 2:
		inner := strings.TrimSpace(raw[1 : len(raw)-1])
		body = inner
		if strings.Contains(inner, "=>") {
			if arrow, ok := literal.ParseArrow(inner); ok {
				body = arrow.Body
				params = arrow.Params
			}
		}
	default:
		return nil
	}

	return func() {
		m.run(prop, body, params)
	}
}

// run executes each statement of body against the host environment. The
// first failure is logged and stops the remaining statements.
func (m *Materializer[T, E]) run(prop, body string, params []string) {
	defer func() {
		if r := recover(); r != nil {
			m.warn(perrors.New("HANDLER-0002", map[string]any{"Prop": prop, "Reason": fmt.Sprint(r)}))
		}
	}()

	env := make(map[string]any, len(m.opts.Env)+len(params))
	maps.Copy(env, m.opts.Env)
	for _, p := range params {
		env[p] = nil
	}

	for _, stmt := range literal.SplitStatements(body) {
		program, err := expr.Compile(stmt, expr.Env(env), expr.AllowUndefinedVariables())
		if err != nil {
			m.warn(perrors.New("HANDLER-0001", map[string]any{"Prop": prop, "Reason": firstLine(err.Error())}))
			return
		}
		if _, err := expr.Run(program, env); err != nil {
			m.warn(perrors.New("HANDLER-0002", map[string]any{"Prop": prop, "Reason": firstLine(err.Error())}))
			return
		}
	}
}

// DefaultEnv returns a handler environment with alert and console.log
// wired to logger.
func DefaultEnv(logger Logger) map[string]any {
	logFn := func(args ...any) any {
		logger.LogLine(args...)
		return nil
	}
	return map[string]any{
		"alert": func(args ...any) any {
			logger.LogLine(append([]any{"alert:"}, args...)...)
			return nil
		},
		"console": map[string]any{
			"log":   logFn,
			"warn":  logFn,
			"error": logFn,
		},
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
