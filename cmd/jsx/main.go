package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/goodsign/monday"

	"github.com/sambeau/jsxplay/config"
	"github.com/sambeau/jsxplay/editor"
	"github.com/sambeau/jsxplay/pkg/jsx/ast"
	perrors "github.com/sambeau/jsxplay/pkg/jsx/errors"
	"github.com/sambeau/jsxplay/pkg/jsx/jsx"
	"github.com/sambeau/jsxplay/pkg/jsx/mutate"
	"github.com/sambeau/jsxplay/pkg/jsx/repl"
	"github.com/sambeau/jsxplay/store"
)

// Version is set at compile time via -ldflags
var Version = "0.1.0-dev"

// errUsage is returned after usage has been printed.
var errUsage = errors.New("usage")

// exitError carries a specific exit status.
type exitError int

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
}

func main() {
	c := &cli{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr, getenv: os.Getenv}
	os.Exit(c.run(context.Background(), os.Args[1:]))
}

// run dispatches a subcommand and returns the process exit code.
func (c *cli) run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		repl.Start(c.stdin, c.stdout, Version)
		return 0
	}

	var err error
	switch args[0] {
	case "-h", "--help", "help":
		c.printHelp(c.stdout)
		return 0
	case "-V", "--version", "version":
		fmt.Fprintf(c.stdout, "jsx version %s\n", Version)
		return 0
	case "repl":
		repl.Start(c.stdin, c.stdout, Version)
		return 0
	case "tree":
		err = c.treeCommand(args[1:])
	case "fmt":
		err = c.fmtCommand(args[1:])
	case "html":
		err = c.htmlCommand(args[1:])
	case "check":
		err = c.checkCommand(args[1:])
	case "roots":
		err = c.rootsCommand(args[1:])
	case "color":
		err = c.colorCommand(args[1:])
	case "insert":
		err = c.insertCommand(args[1:])
	case "snapshots":
		err = c.snapshotsCommand(ctx, args[1:])
	default:
		fmt.Fprintf(c.stderr, "Error: unknown command %q\n\n", args[0])
		c.printHelp(c.stderr)
		return 2
	}

	var code exitError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &code):
		return int(code)
	case errors.Is(err, errUsage):
		return 2
	default:
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return 1
	}
}

func (c *cli) printHelp(w io.Writer) {
	fmt.Fprintf(w, `jsx - JSX-like markup toolkit version %s

Usage:
  jsx                               Start interactive REPL
  jsx tree <file>                   Print the parsed tree
  jsx fmt [-w|-l|-d] <file>...      Format markup files
  jsx html [--strict] <file>        Render a file to HTML
  jsx check <file>...               Report structural problems
  jsx roots <file>                  List the top-level elements
  jsx color [-w] [--sx] <file> <id> <background|text> <color>
  jsx insert [-w] [--into ID | --at N] <file> <Box|Chip|Dialog>
  jsx snapshots [--config PATH] [--since DATE] [--limit N]

A file argument of "-" reads standard input.

Examples:
  jsx check app.jsx                       Exit 1 if app.jsx has problems
  jsx fmt -w app.jsx                      Format app.jsx in place
  jsx color -w app.jsx box-1 background "#f44336"
  jsx insert --into box-1 app.jsx Chip    Print app.jsx with a Chip added
  jsx snapshots --since "last week"       List recent snapshots
`, Version)
}

// readSource reads filename, or stdin for "-".
func (c *cli) readSource(filename string) (string, error) {
	if filename == "-" {
		data, err := io.ReadAll(c.stdin)
		return string(data), err
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", perrors.New("IO-0001", map[string]any{"Path": filename, "Reason": err.Error()})
	}
	return string(data), nil
}

// writeResult prints src, or writes it back to filename with -w.
func (c *cli) writeResult(filename, src string, write bool) error {
	if !write || filename == "-" {
		io.WriteString(c.stdout, src)
		return nil
	}
	if err := os.WriteFile(filename, []byte(src), 0644); err != nil {
		return perrors.New("IO-0002", map[string]any{"Path": filename, "Reason": err.Error()})
	}
	return nil
}

// parseFlags parses a subcommand's flags, printing usage to stderr on error.
func (c *cli) parseFlags(fs *flag.FlagSet, args []string, usage string) error {
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\nUsage: %s\n", err, usage)
		return errUsage
	}
	return nil
}

func (c *cli) treeCommand(args []string) error {
	fs := flag.NewFlagSet("tree", flag.ContinueOnError)
	bare := fs.Bool("bare", false, "Accept bare attribute values")
	if err := c.parseFlags(fs, args, "jsx tree [--bare] <file>"); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(c.stderr, "Usage: jsx tree [--bare] <file>")
		return errUsage
	}

	src, err := c.readSource(fs.Arg(0))
	if err != nil {
		return err
	}
	roots, _ := jsx.Parse(src, jsx.Options{BareAttributes: *bare})
	for _, r := range roots {
		fmt.Fprintln(c.stdout, r.String())
	}
	return nil
}

// fmtCommand handles the 'jsx fmt' subcommand
func (c *cli) fmtCommand(args []string) error {
	fs := flag.NewFlagSet("fmt", flag.ContinueOnError)
	write := fs.Bool("w", false, "Write result to source file instead of stdout")
	diff := fs.Bool("d", false, "Display diffs instead of rewriting files")
	list := fs.Bool("l", false, "List files whose formatting differs from jsx fmt's")
	const usage = "jsx fmt [-w|-l|-d] <file>..."
	if err := c.parseFlags(fs, args, usage); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fmt.Fprintf(c.stderr, "Error: no files specified\nUsage: %s\n", usage)
		return errUsage
	}

	failed := false
	for _, filename := range fs.Args() {
		if err := c.formatFile(filename, *write, *diff, *list); err != nil {
			fmt.Fprintf(c.stderr, "Error formatting %s: %v\n", filename, err)
			failed = true
		}
	}
	if failed {
		return exitError(1)
	}
	return nil
}

func (c *cli) formatFile(filename string, write, diff, list bool) error {
	source, err := c.readSource(filename)
	if err != nil {
		return err
	}

	if errs := jsx.Check(source, jsx.Options{}); len(errs) > 0 {
		c.printStructuredErrors(filename, source, errs)
		return fmt.Errorf("parse errors")
	}
	formatted, err := jsx.Format(source, jsx.Options{})
	if err != nil {
		return err
	}
	if !strings.HasSuffix(formatted, "\n") {
		formatted += "\n"
	}
	changed := formatted != source

	switch {
	case list:
		if changed {
			fmt.Fprintln(c.stdout, filename)
		}
		return nil
	case diff:
		if changed {
			c.showDiff(filename, source, formatted)
		}
		return nil
	case write:
		if !changed {
			return nil
		}
	}
	return c.writeResult(filename, formatted, write)
}

// showDiff displays a simple line diff between original and formatted content
func (c *cli) showDiff(filename, original, formatted string) {
	fmt.Fprintf(c.stdout, "diff %s\n", filename)

	origLines := strings.Split(original, "\n")
	fmtLines := strings.Split(formatted, "\n")

	for i := range max(len(fmtLines), len(origLines)) {
		origLine, fmtLine := "", ""
		if i < len(origLines) {
			origLine = origLines[i]
		}
		if i < len(fmtLines) {
			fmtLine = fmtLines[i]
		}
		if origLine == fmtLine {
			continue
		}
		if origLine != "" {
			fmt.Fprintf(c.stdout, "-%d: %s\n", i+1, origLine)
		}
		if fmtLine != "" {
			fmt.Fprintf(c.stdout, "+%d: %s\n", i+1, fmtLine)
		}
	}
}

func (c *cli) htmlCommand(args []string) error {
	fs := flag.NewFlagSet("html", flag.ContinueOnError)
	strict := fs.Bool("strict", false, "Fail on the first structural problem")
	bare := fs.Bool("bare", false, "Accept bare attribute values")
	const usage = "jsx html [--strict] [--bare] <file>"
	if err := c.parseFlags(fs, args, usage); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(c.stderr, "Usage: %s\n", usage)
		return errUsage
	}

	filename := fs.Arg(0)
	src, err := c.readSource(filename)
	if err != nil {
		return err
	}

	// Handler output and diagnostics go to stderr, markup to stdout
	res, err := jsx.Render(src, jsx.Options{
		Strict:         *strict,
		BareAttributes: *bare,
		Logger:         jsx.WriterLogger(c.stderr),
	})
	if err != nil {
		var perr *perrors.Error
		if errors.As(err, &perr) {
			c.printStructuredErrors(filename, src, []*perrors.Error{perr})
			return exitError(1)
		}
		return err
	}
	io.WriteString(c.stdout, res.HTML)
	if !strings.HasSuffix(res.HTML, "\n") {
		io.WriteString(c.stdout, "\n")
	}
	return nil
}

// checkCommand checks the structure of one or more files
func (c *cli) checkCommand(args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(c.stderr, "Error: check requires at least one file")
		return errUsage
	}

	hasErrors := false
	for _, filename := range args {
		src, err := c.readSource(filename)
		if err != nil {
			fmt.Fprintf(c.stderr, "Error reading %s: %v\n", filename, err)
			return exitError(2)
		}
		if errs := jsx.Check(src, jsx.Options{}); len(errs) > 0 {
			c.printStructuredErrors(filename, src, errs)
			hasErrors = true
		}
	}
	if hasErrors {
		return exitError(1)
	}
	return nil
}

func (c *cli) rootsCommand(args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(c.stderr, "Usage: jsx roots <file>")
		return errUsage
	}
	src, err := c.readSource(args[0])
	if err != nil {
		return err
	}

	roots, _ := jsx.Parse(src, jsx.Options{})
	elements := make([]*ast.Node, 0, len(roots))
	for _, r := range roots {
		if r.Kind == ast.ElementNode {
			elements = append(elements, r)
		}
	}
	for i, span := range jsx.Roots(src) {
		label := ""
		if i < len(elements) {
			label = elements[i].Tag
			if id := elements[i].ID(); id != "" {
				label += "#" + id
			}
		}
		fmt.Fprintf(c.stdout, "%d\t%d-%d\t%s\n", i, span.Start, span.End, label)
	}
	return nil
}

func (c *cli) colorCommand(args []string) error {
	fs := flag.NewFlagSet("color", flag.ContinueOnError)
	write := fs.Bool("w", false, "Write result to source file instead of stdout")
	sx := fs.Bool("sx", false, "Add sx rather than style to components without either")
	const usage = "jsx color [-w] [--sx] <file> <id> <background|text> <color>"
	if err := c.parseFlags(fs, args, usage); err != nil {
		return err
	}
	if fs.NArg() != 4 {
		fmt.Fprintf(c.stderr, "Usage: %s\n", usage)
		return errUsage
	}

	filename, id, color := fs.Arg(0), fs.Arg(1), fs.Arg(3)
	kind, err := mutate.ParseColorKind(fs.Arg(2))
	if err != nil {
		return err
	}
	src, err := c.readSource(filename)
	if err != nil {
		return err
	}

	opts := mutate.Options{}
	if *sx {
		opts.NewProp = mutate.NewSxForComponents
	}
	updated, ok := mutate.UpdateColorWithOptions(src, id, color, kind, opts)
	if !ok {
		return perrors.New("MUTATE-0001", map[string]any{"ID": id})
	}
	return c.writeResult(filename, updated, *write)
}

// insertCommand drops a palette component into a file, applying the same
// rules as the playground.
func (c *cli) insertCommand(args []string) error {
	fs := flag.NewFlagSet("insert", flag.ContinueOnError)
	write := fs.Bool("w", false, "Write result to source file instead of stdout")
	into := fs.String("into", "", "Append inside the container with this id")
	at := fs.Int("at", -1, "Insert at this root insertion point (0 is before the first root)")
	const usage = "jsx insert [-w] [--into ID | --at N] <file> <Box|Chip|Dialog>"
	if err := c.parseFlags(fs, args, usage); err != nil {
		return err
	}
	if fs.NArg() != 2 || (*into != "" && *at >= 0) {
		fmt.Fprintf(c.stderr, "Usage: %s\n", usage)
		return errUsage
	}

	filename := fs.Arg(0)
	snippet, err := editor.Lookup(fs.Arg(1))
	if err != nil {
		return err
	}
	src, err := c.readSource(filename)
	if err != nil {
		return err
	}

	roots, _ := jsx.Parse(src, jsx.Options{})
	if snippet.Singleton && ast.CountTag(roots, snippet.Kind) > 0 {
		return perrors.New("EDIT-0001", map[string]any{"Kind": snippet.Kind})
	}

	code := snippet.Code(time.Now())
	var updated string
	switch {
	case *into != "":
		n := ast.FindByID(roots, *into)
		if n == nil {
			return perrors.New("MUTATE-0001", map[string]any{"ID": *into})
		}
		if !editor.IsContainer(n.Tag) {
			return fmt.Errorf("element '%s' is a %s, not a container", *into, n.Tag)
		}
		var ok bool
		if updated, ok = mutate.InsertIntoContainer(src, *into, code); !ok {
			return perrors.New("MUTATE-0002", map[string]any{"ID": *into})
		}
	default:
		if !snippet.Root {
			return perrors.New("EDIT-0002", map[string]any{"Allowed": "Box"})
		}
		index := *at
		if index < 0 {
			index = len(jsx.Roots(src))
		}
		updated = mutate.InsertAtRoot(src, code, index)
	}
	return c.writeResult(filename, updated, *write)
}

// snapshotsCommand lists saved snapshots with dates in the configured locale.
func (c *cli) snapshotsCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("snapshots", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to config file")
	since := fs.String("since", "", "Only list snapshots saved at or after this date")
	limit := fs.Int("limit", 20, "Maximum number of snapshots")
	show := fs.Int64("show", 0, "Print the code of the snapshot with this id")
	const usage = "jsx snapshots [--config PATH] [--since DATE] [--limit N] [--show ID]"
	if err := c.parseFlags(fs, args, usage); err != nil {
		return err
	}

	cfg, _, err := config.LoadWithPath(*configPath, c.getenv)
	if errors.Is(err, config.ErrNoConfig) {
		cfg, err = config.Defaults(), nil
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var from time.Time
	if *since != "" {
		if from, err = dateparse.ParseLocal(*since); err != nil {
			return fmt.Errorf("invalid --since %q: %w", *since, err)
		}
	}

	st, err := store.Open(store.Config{Driver: cfg.Store.Driver, DSN: cfg.Store.DSN})
	if err != nil {
		return err
	}
	defer st.Close()

	if *show > 0 {
		snap, err := st.Get(*show)
		if err != nil {
			return err
		}
		io.WriteString(c.stdout, snap.Code)
		if !strings.HasSuffix(snap.Code, "\n") {
			io.WriteString(c.stdout, "\n")
		}
		return nil
	}

	snaps, err := st.List(from, *limit)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		fmt.Fprintln(c.stdout, "No snapshots found.")
		return nil
	}

	locale, _ := config.MondayLocale(cfg.Locale)
	fmt.Fprintf(c.stdout, "%-6s %-28s %-24s %s\n", "ID", "SAVED", "LABEL", "ROOTS")
	fmt.Fprintln(c.stdout, strings.Repeat("-", 66))
	for _, s := range snaps {
		label := s.Label
		if label == "" {
			label = "(none)"
		}
		if len(label) > 24 {
			label = label[:21] + "..."
		}
		saved := monday.Format(s.Created.Local(), "Mon 2 Jan 2006 15:04", locale)
		fmt.Fprintf(c.stdout, "%-6d %-28s %-24s %d\n", s.ID, saved, label, len(jsx.Roots(s.Code)))
	}
	fmt.Fprintf(c.stdout, "\nTotal: %d snapshot(s)\n", len(snaps))
	return nil
}

// printStructuredErrors prints parser errors with source context
func (c *cli) printStructuredErrors(filename, source string, errs []*perrors.Error) {
	lines := strings.Split(source, "\n")
	for _, err := range errs {
		if err.File == "" && filename != "-" {
			err = err.WithFile(filename)
		}
		fmt.Fprintln(c.stderr, err.PrettyString())
		c.printSourceContext(lines, err.Line, err.Column)
	}
}

// printSourceContext prints the source line and error pointer
func (c *cli) printSourceContext(lines []string, lineNum, colNum int) {
	if lineNum <= 0 || lineNum > len(lines) {
		return
	}

	sourceLine := lines[lineNum-1]
	trimmed := strings.TrimLeft(sourceLine, " \t")
	trimCount := len(sourceLine) - len(trimmed)

	fmt.Fprintf(c.stderr, "    %s\n", trimmed)
	if colNum > 0 {
		pointer := strings.Repeat(" ", max(colNum-1-trimCount, 0)) + "^"
		fmt.Fprintf(c.stderr, "    %s\n", pointer)
	}
}
