package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	perrors "github.com/sambeau/jsxplay/pkg/jsx/errors"
	"github.com/sambeau/jsxplay/pkg/jsx/jsx"
	"github.com/sambeau/jsxplay/pkg/jsx/mutate"
)

const PROMPT = ">> "
const PROMPT_HTML = "<> "
const CONTINUATION_PROMPT = ".. "

const LOGO = `
░░█ █▀ ▀▄▀
█▄█ ▄█ █░█ `

// Component names and commands for tab completion
var completionWords = []string{
	"<Box", "<Button", "<Chip", "<Card", "<CardContent", "<Container", "<Dialog",
	"<DialogActions", "<DialogContent", "<DialogContentText", "<DialogTitle",
	"<Divider", "<Grid", "<Paper", "<Stack", "<TextField", "<Typography",
	":help", ":doc", ":tree", ":fmt", ":html", ":roots", ":check", ":color",
	":insert", ":click", ":reset", ":log",
}

// Session is the document a REPL edits. Each complete markup entry is
// appended to it as a new root element.
type Session struct {
	Source   string
	htmlMode bool
	logger   *jsx.BufferedLogger
	result   *jsx.Result
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{logger: jsx.NewBufferedLogger()}
}

// Start starts the REPL with line editing, history, and tab completion
func Start(in io.Reader, out io.Writer, version string) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(filterCompletions)

	historyFile := filepath.Join(os.TempDir(), ".jsx_history")
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Fprintf(out, "%s", LOGO)
	fmt.Fprintln(out, "v", version)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Type 'exit' or Ctrl+D to quit")
	fmt.Fprintln(out, "Type ':help' for REPL commands")
	fmt.Fprintln(out, "")

	s := NewSession()
	var inputBuffer strings.Builder

	for {
		prompt := PROMPT
		if s.htmlMode {
			prompt = PROMPT_HTML
		}
		if inputBuffer.Len() > 0 {
			prompt = CONTINUATION_PROMPT
		}
		input, err := line.Prompt(prompt)
		if err != nil {
			if err == liner.ErrPromptAborted {
				if inputBuffer.Len() > 0 {
					fmt.Fprintln(out, "^C (cleared)")
				} else {
					fmt.Fprintln(out, "^C")
				}
				inputBuffer.Reset()
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(out, "\nGoodbye!")
				return
			}
			fmt.Fprintf(out, "Error reading input: %v\n", err)
			continue
		}

		trimmed := strings.TrimSpace(input)
		if inputBuffer.Len() == 0 && (trimmed == "exit" || trimmed == "quit") {
			fmt.Fprintln(out, "Goodbye!")
			return
		}
		if inputBuffer.Len() == 0 && strings.HasPrefix(trimmed, ":") {
			s.Command(trimmed, out)
			continue
		}
		if inputBuffer.Len() == 0 && trimmed == "" {
			continue
		}

		if inputBuffer.Len() > 0 {
			inputBuffer.WriteString("\n")
		}
		inputBuffer.WriteString(input)

		full := inputBuffer.String()
		if needsMoreInput(full) {
			continue
		}
		line.AppendHistory(full)
		s.Eval(full, out)
		inputBuffer.Reset()
	}
}

// Eval appends markup to the document and prints the new tree, or its
// HTML in html mode.
func (s *Session) Eval(input string, out io.Writer) {
	if errs := jsx.Check(input, jsx.Options{}); len(errs) > 0 {
		printStructuredErrors(out, errs)
		return
	}
	if strings.TrimSpace(s.Source) == "" {
		s.Source = strings.TrimSpace(input) + "\n"
	} else {
		s.Source = mutate.Append(s.Source, input)
	}
	s.show(out)
}

func (s *Session) show(out io.Writer) {
	if s.htmlMode {
		s.printHTML(out)
		return
	}
	s.printTree(out)
}

func (s *Session) printTree(out io.Writer) {
	roots, _ := jsx.Parse(s.Source, jsx.Options{})
	for _, r := range roots {
		fmt.Fprintln(out, r.String())
	}
}

func (s *Session) printHTML(out io.Writer) {
	res, err := jsx.Render(s.Source, jsx.Options{Logger: s.logger})
	if err != nil {
		fmt.Fprintf(out, "Render error: %v\n", err)
		return
	}
	s.result = res
	for _, w := range res.Warnings {
		fmt.Fprintln(out, "warning:", w.Error())
	}
	io.WriteString(out, res.HTML)
	io.WriteString(out, "\n")
}

// Command handles REPL meta-commands that start with ':'. It reports
// whether the command was recognized.
func (s *Session) Command(cmd string, out io.Writer) bool {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return false
	}
	args := fields[1:]

	switch fields[0] {
	case ":help", ":h", ":?":
		fmt.Fprintln(out, "REPL Commands:")
		fmt.Fprintln(out, "  :help, :h, :?            Show this help")
		fmt.Fprintln(out, "  :doc                     Show the document source")
		fmt.Fprintln(out, "  :tree                    Show the parsed tree")
		fmt.Fprintln(out, "  :fmt                     Format the document")
		fmt.Fprintln(out, "  :html                    Toggle HTML output mode")
		fmt.Fprintln(out, "  :roots                   List root element spans")
		fmt.Fprintln(out, "  :check                   Report structural problems")
		fmt.Fprintln(out, "  :color ID KIND COLOR     Set background or text color")
		fmt.Fprintln(out, "  :insert ID MARKUP        Append MARKUP inside element ID")
		fmt.Fprintln(out, "  :click ID [EVENT]        Run an element's handler")
		fmt.Fprintln(out, "  :log                     Show handler output")
		fmt.Fprintln(out, "  :reset                   Clear the document")
		fmt.Fprintln(out, "  exit, quit               Exit the REPL")

	case ":doc":
		io.WriteString(out, s.Source)

	case ":tree":
		s.printTree(out)

	case ":fmt":
		formatted, err := jsx.Format(s.Source, jsx.Options{})
		if err != nil {
			fmt.Fprintf(out, "Format error: %v\n", err)
			break
		}
		s.Source = formatted
		io.WriteString(out, s.Source)

	case ":html":
		s.htmlMode = !s.htmlMode
		if s.htmlMode {
			fmt.Fprintln(out, "HTML output mode ON")
		} else {
			fmt.Fprintln(out, "HTML output mode OFF")
		}

	case ":roots":
		for i, span := range jsx.Roots(s.Source) {
			first, _, _ := strings.Cut(s.Source[span.Start:span.End], "\n")
			fmt.Fprintf(out, "  %d: %d-%d %s\n", i+1, span.Start, span.End, first)
		}

	case ":check":
		errs := jsx.Check(s.Source, jsx.Options{})
		if len(errs) == 0 {
			fmt.Fprintln(out, "OK")
			break
		}
		printStructuredErrors(out, errs)

	case ":color":
		if len(args) != 3 {
			fmt.Fprintln(out, "usage: :color ID background|text COLOR")
			break
		}
		kind, err := mutate.ParseColorKind(args[1])
		if err != nil {
			fmt.Fprintln(out, err.Error())
			break
		}
		src, ok := jsx.UpdateColor(s.Source, args[0], args[2], kind)
		if !ok {
			fmt.Fprintln(out, perrors.New("MUTATE-0001", map[string]any{"ID": args[0]}).Error())
			break
		}
		s.Source = src
		s.show(out)

	case ":insert":
		if len(args) < 2 {
			fmt.Fprintln(out, "usage: :insert ID MARKUP")
			break
		}
		snippet := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(cmd[len(":insert"):]), args[0]))
		src, ok := jsx.InsertIntoContainer(s.Source, args[0], snippet)
		if !ok {
			code := "MUTATE-0002"
			if _, found := mutate.FindOpenTag(s.Source, args[0]); !found {
				code = "MUTATE-0001"
			}
			fmt.Fprintln(out, perrors.New(code, map[string]any{"ID": args[0]}).Error())
			break
		}
		s.Source = src
		s.show(out)

	case ":click":
		if len(args) == 0 {
			fmt.Fprintln(out, "usage: :click ID [EVENT]")
			break
		}
		event := "onClick"
		if len(args) > 1 {
			event = args[1]
		}
		if s.result == nil {
			res, err := jsx.Render(s.Source, jsx.Options{Logger: s.logger})
			if err != nil {
				fmt.Fprintf(out, "Render error: %v\n", err)
				break
			}
			s.result = res
		}
		if !s.result.Dispatch(args[0], event) {
			fmt.Fprintf(out, "no %s handler on %s\n", event, args[0])
			break
		}
		for _, l := range s.logger.Drain() {
			fmt.Fprintln(out, l)
		}

	case ":log":
		for _, l := range s.logger.Lines() {
			fmt.Fprintln(out, l)
		}

	case ":reset":
		s.Source = ""
		s.result = nil
		s.logger.Reset()
		fmt.Fprintln(out, "Document cleared")

	default:
		fmt.Fprintf(out, "Unknown command: %s (type :help for commands)\n", fields[0])
		return false
	}

	if fields[0] != ":click" && fields[0] != ":log" && fields[0] != ":html" {
		s.result = nil
	}
	return true
}

// filterCompletions returns completion suggestions based on current input
func filterCompletions(line string) []string {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	if last := line[len(line)-1]; last == ' ' || last == '\t' {
		return nil
	}

	// The word being typed starts after the last space or tag end
	start := strings.LastIndexAny(line, " \t>") + 1
	prefix, lastWord := line[:start], line[start:]

	var matches []string
	for _, word := range completionWords {
		if strings.HasPrefix(word, lastWord) {
			matches = append(matches, prefix+word)
		}
	}
	return matches
}

// needsMoreInput checks if the input has unclosed braces or tags
func needsMoreInput(input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return false
	}

	braceCount := 0
	tagCount := 0
	var quote byte

	for i := 0; i < len(input); i++ {
		ch := input[i]

		if quote != 0 {
			if ch == quote && input[i-1] != '\\' {
				quote = 0
			}
			continue
		}

		switch ch {
		case '"', '\'':
			if braceCount > 0 {
				quote = ch
			}
		case '{':
			braceCount++
		case '}':
			braceCount--
		case '<':
			if i+1 >= len(input) {
				return true
			}
			next := input[i+1]
			if next == '/' {
				if i+2 < len(input) && isTagNameStart(input[i+2]) {
					tagCount--
				}
			} else if isTagNameStart(next) {
				end := findTagEnd(input, i)
				if end < 0 {
					return true
				}
				if input[end-1] != '/' {
					tagCount++
				}
				i = end
			}
		}
	}

	return braceCount > 0 || tagCount > 0
}

func isTagNameStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

// findTagEnd finds the closing '>' for a tag starting at pos, skipping
// quoted values and {...} groups.
func findTagEnd(input string, pos int) int {
	var quote byte
	depth := 0
	for i := pos + 1; i < len(input); i++ {
		ch := input[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == '{':
			depth++
		case ch == '}':
			depth--
		case ch == '>' && depth <= 0:
			return i
		}
	}
	return -1
}

func printStructuredErrors(out io.Writer, errs []*perrors.Error) {
	for _, err := range errs {
		io.WriteString(out, err.PrettyString())
		io.WriteString(out, "\n")
	}
}
