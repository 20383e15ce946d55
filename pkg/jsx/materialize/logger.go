package materialize

import (
	"fmt"
	"os"
	"strings"
)

// Logger receives diagnostics produced while materializing. Style and
// handler failures are reported here instead of being returned.
type Logger interface {
	Log(values ...any)
	LogLine(values ...any)
}

type stdoutLogger struct{}

func (l *stdoutLogger) Log(values ...any) {
	fmt.Fprint(os.Stdout, formatLogValues(values...))
}

func (l *stdoutLogger) LogLine(values ...any) {
	fmt.Fprintln(os.Stdout, formatLogValues(values...))
}

// DefaultLogger writes to stdout.
var DefaultLogger Logger = &stdoutLogger{}

func formatLogValues(values ...any) string {
	if len(values) == 0 {
		return ""
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, " ")
}
