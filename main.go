package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sambeau/jsxplay/config"
	"github.com/sambeau/jsxplay/server"
)

// Version is set at build time via -ldflags
var Version = "0.1.0-dev"

func main() {
	ctx := context.Background()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.Getenv); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main entry point, designed for testability (Mat Ryer pattern)
func run(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string) error {
	flags := flag.NewFlagSet("jsxplay", flag.ContinueOnError)
	flags.SetOutput(io.Discard) // Suppress default -h output

	var (
		configPath  = flags.String("config", "", "Path to config file")
		devMode     = flags.Bool("dev", false, "Development mode (live reload and dev log)")
		quietMode   = flags.Bool("quiet", false, "Suppress request logs (sets log level to error)")
		port        = flags.Int("port", 0, "Override listen port")
		sourceFile  = flags.String("file", "", "Source file to edit")
		profile     = flags.String("profile", "", "Developer profile to apply")
		showVersion = flags.Bool("version", false, "Show version")
		showHelp    = flags.Bool("help", false, "Show help")
	)
	// -as alias for --profile
	flags.StringVar(profile, "as", "", "Alias for --profile")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(stdout)
			return nil
		}
		printUsage(stderr)
		return err
	}

	if *showHelp {
		printUsage(stdout)
		return nil
	}

	if *showVersion {
		fmt.Fprintf(stdout, "jsxplay version %s\n", Version)
		return nil
	}

	// Set up signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// A config file is optional; without one the defaults apply
	cfg, configFile, err := config.LoadWithPath(*configPath, getenv)
	if errors.Is(err, config.ErrNoConfig) {
		cfg, configFile, err = config.Defaults(), "", nil
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if *profile != "" {
		if err := config.ApplyDeveloper(cfg, *profile); err != nil {
			return fmt.Errorf("applying profile %q: %w", *profile, err)
		}
	}

	// Apply CLI overrides
	if *devMode {
		cfg.Server.Dev = true
	}
	if *quietMode {
		cfg.Logging.Level = "error"
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *sourceFile != "" {
		cfg.Source.File = *sourceFile
	}

	// Full validation after CLI overrides applied
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	for _, warning := range config.Warnings(cfg) {
		fmt.Fprintf(stderr, "warning: %s\n", warning)
	}

	srv, err := server.New(cfg, configFile, stdout, stderr)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return srv.Run(ctx)
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `jsxplay - A live playground for JSX-like component markup

Usage:
  jsxplay [options]

Options:
  --config PATH    Path to config file (default: auto-detect)
  --dev            Development mode (live reload and dev log)
  --quiet          Suppress request logs
  --port PORT      Override listen port
  --file PATH      Source file to edit (written back on every change)
  --profile NAME   Apply a developer profile from the config (alias: --as)
  --version        Show version
  --help           Show this help

Config Resolution:
  1. --config flag
  2. JSXPLAY_CONFIG environment variable
  3. ./jsxplay.yaml
  4. ~/.config/jsxplay/jsxplay.yaml
  5. built-in defaults

Examples:
  jsxplay                       Start with auto-detected config
  jsxplay --dev --file app.jsx  Edit app.jsx with live reload
  jsxplay --config app.yaml     Use specific config file
  jsxplay --as alice            Use the developer profile "alice"

`)
}
