package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/goodsign/monday"
	"gopkg.in/yaml.v3"
)

// ErrNoConfig is returned when no explicit path was given and no config
// file exists in any of the default locations.
var ErrNoConfig = errors.New("no config file found (tried JSXPLAY_CONFIG, jsxplay.yaml, ~/.config/jsxplay/jsxplay.yaml)")

// Load reads configuration from the specified path or default locations.
// Environment variables in ${VAR} or ${VAR:-default} format are interpolated.
func Load(configPath string, getenv func(string) string) (*Config, error) {
	cfg, _, err := LoadWithPath(configPath, getenv)
	return cfg, err
}

// LoadWithPath reads configuration and returns both the config and the resolved path.
func LoadWithPath(configPath string, getenv func(string) string) (*Config, string, error) {
	path, err := resolveConfigPath(configPath, getenv)
	if err != nil {
		return nil, "", err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve config path: %w", err)
	}
	baseDir := filepath.Dir(absPath)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read config: %w", err)
	}

	data = interpolateEnv(data, getenv)

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.BaseDir = baseDir
	cfg.Source.File = resolvePath(baseDir, cfg.Source.File)
	cfg.Dev.LogDatabase = resolvePath(baseDir, cfg.Dev.LogDatabase)
	if cfg.Store.Driver == "" || cfg.Store.Driver == "sqlite" {
		if cfg.Store.DSN != ":memory:" {
			cfg.Store.DSN = resolvePath(baseDir, cfg.Store.DSN)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, "", err
	}

	return cfg, absPath, nil
}

func resolvePath(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// resolveConfigPath finds the config file to use.
// Order: explicit path > JSXPLAY_CONFIG env > ./jsxplay.yaml > ~/.config/jsxplay/jsxplay.yaml
func resolveConfigPath(explicit string, getenv func(string) string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	if envPath := getenv("JSXPLAY_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("JSXPLAY_CONFIG file not found: %s", envPath)
		}
		return envPath, nil
	}

	if _, err := os.Stat("jsxplay.yaml"); err == nil {
		return "jsxplay.yaml", nil
	}

	home, err := os.UserHomeDir()
	if err == nil {
		xdgPath := filepath.Join(home, ".config", "jsxplay", "jsxplay.yaml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath, nil
		}
	}

	return "", ErrNoConfig
}

// envPattern matches ${VAR} or ${VAR:-default}
var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// interpolateEnv replaces ${VAR} and ${VAR:-default} patterns with environment values.
func interpolateEnv(data []byte, getenv func(string) string) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		parts := envPattern.FindSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		value := getenv(string(parts[1]))
		if value == "" && len(parts) >= 3 && len(parts[2]) > 0 {
			value = string(parts[2])
		}
		return []byte(value)
	})
}

// Validate checks the configuration for errors. Call it again after
// applying CLI overrides.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port: %d (must be 1-65535)", cfg.Server.Port))
	}

	switch cfg.Editor.StyleProp {
	case "", "style", "sx":
	default:
		errs = append(errs, fmt.Sprintf("invalid editor.style_prop: %q (must be style or sx)", cfg.Editor.StyleProp))
	}
	if cfg.Editor.WarningTTL < 0 {
		errs = append(errs, fmt.Sprintf("invalid editor.warning_ttl: %s (must not be negative)", cfg.Editor.WarningTTL))
	}

	switch cfg.Store.Driver {
	case "", "sqlite":
	case "postgres", "mysql":
		if cfg.Store.DSN == "" {
			errs = append(errs, fmt.Sprintf("store.dsn is required for driver %q", cfg.Store.Driver))
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid store.driver: %q (must be sqlite, postgres, or mysql)", cfg.Store.Driver))
	}

	if cfg.Compression.Enabled {
		switch cfg.Compression.Level {
		case "", "none", "fastest", "default", "best":
		default:
			errs = append(errs, fmt.Sprintf("invalid compression.level: %q (must be none, fastest, default, or best)", cfg.Compression.Level))
		}
		if cfg.Compression.MinSize < 0 {
			errs = append(errs, fmt.Sprintf("invalid compression.min_size: %d", cfg.Compression.MinSize))
		}
	}

	switch cfg.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid logging.level: %q (must be debug, info, warn, or error)", cfg.Logging.Level))
	}
	switch cfg.Logging.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("invalid logging.format: %q (must be text or json)", cfg.Logging.Format))
	}

	if _, err := ParseSize(cfg.Dev.LogMaxSize); err != nil {
		errs = append(errs, fmt.Sprintf("invalid dev.log_max_size: %v", err))
	}
	if cfg.Dev.LogTruncatePct < 0 || cfg.Dev.LogTruncatePct > 100 {
		errs = append(errs, fmt.Sprintf("invalid dev.log_truncate_pct: %d (must be 0-100)", cfg.Dev.LogTruncatePct))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Warnings returns non-fatal configuration issues worth reporting at startup.
func Warnings(cfg *Config) []string {
	var warnings []string

	if cfg.Source.File == "" {
		warnings = append(warnings, "source.file is not set: edits are kept in memory only")
	}
	if cfg.Source.Watch && cfg.Source.File == "" {
		warnings = append(warnings, "source.watch has no effect without source.file")
	}
	if _, ok := MondayLocale(cfg.Locale); !ok {
		warnings = append(warnings, fmt.Sprintf("unknown locale %q: snapshot dates use en_US", cfg.Locale))
	}
	if !cfg.Server.Dev && cfg.Server.Host != "localhost" && cfg.Server.Host != "127.0.0.1" {
		warnings = append(warnings, fmt.Sprintf("server.host %q exposes the editor beyond this machine", cfg.Server.Host))
	}

	return warnings
}

// ParseSize parses a human-readable size string like "10MB" into bytes.
func ParseSize(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}

	s = strings.TrimSpace(strings.ToUpper(s))

	// Longest suffix first so "B" doesn't match before "MB"
	suffixes := []struct {
		suffix string
		mult   int64
	}{
		{"GB", 1024 * 1024 * 1024},
		{"MB", 1024 * 1024},
		{"KB", 1024},
		{"B", 1},
	}

	for _, sf := range suffixes {
		if strings.HasSuffix(s, sf.suffix) {
			numStr := strings.TrimSpace(strings.TrimSuffix(s, sf.suffix))
			var num int64
			if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
				return 0, fmt.Errorf("invalid size number: %s", numStr)
			}
			return num * sf.mult, nil
		}
	}

	var num int64
	if _, err := fmt.Sscanf(s, "%d", &num); err != nil {
		return 0, fmt.Errorf("invalid size format: %s (use B, KB, MB, or GB suffix)", s)
	}
	return num, nil
}

// ApplyDeveloper applies a named developer profile to the configuration.
// Only non-zero values in the developer config override the base config.
func ApplyDeveloper(cfg *Config, profileName string) error {
	if cfg.Developers == nil {
		return fmt.Errorf("no developer profiles defined in config")
	}

	dev, ok := cfg.Developers[profileName]
	if !ok {
		var names []string
		for name := range cfg.Developers {
			names = append(names, name)
		}
		sort.Strings(names)
		return fmt.Errorf("unknown developer profile %q (available: %s)", profileName, strings.Join(names, ", "))
	}

	if dev.Port != 0 {
		cfg.Server.Port = dev.Port
	}
	if dev.Source != "" {
		cfg.Source.File = resolvePath(cfg.BaseDir, dev.Source)
	}
	if dev.StoreDB != "" {
		if cfg.Store.Driver == "" || cfg.Store.Driver == "sqlite" {
			cfg.Store.DSN = resolvePath(cfg.BaseDir, dev.StoreDB)
		} else {
			cfg.Store.DSN = dev.StoreDB
		}
	}
	if dev.Logging.Level != "" {
		cfg.Logging.Level = dev.Logging.Level
	}
	if dev.Logging.Format != "" {
		cfg.Logging.Format = dev.Logging.Format
	}
	if dev.Logging.Output != "" {
		cfg.Logging.Output = dev.Logging.Output
	}

	return nil
}

// MondayLocale maps a locale string to a monday.Locale for date formatting.
// The second result is false when the locale is unknown and the US
// fallback was returned.
func MondayLocale(locale string) (monday.Locale, bool) {
	locale = strings.ToLower(strings.ReplaceAll(locale, "-", "_"))
	if locale == "" {
		return monday.LocaleEnUS, true
	}

	localeMap := map[string]monday.Locale{
		"en":    monday.LocaleEnUS,
		"en_us": monday.LocaleEnUS,
		"en_gb": monday.LocaleEnGB,
		"de":    monday.LocaleDeDE,
		"de_de": monday.LocaleDeDE,
		"fr":    monday.LocaleFrFR,
		"fr_fr": monday.LocaleFrFR,
		"fr_ca": monday.LocaleFrCA,
		"es":    monday.LocaleEsES,
		"es_es": monday.LocaleEsES,
		"it":    monday.LocaleItIT,
		"it_it": monday.LocaleItIT,
		"pt":    monday.LocalePtPT,
		"pt_pt": monday.LocalePtPT,
		"pt_br": monday.LocalePtBR,
		"nl":    monday.LocaleNlNL,
		"nl_nl": monday.LocaleNlNL,
		"nl_be": monday.LocaleNlBE,
		"ru":    monday.LocaleRuRU,
		"pl":    monday.LocalePlPL,
		"sv":    monday.LocaleSvSE,
		"da":    monday.LocaleDaDK,
		"fi":    monday.LocaleFiFI,
		"nb":    monday.LocaleNbNO,
		"ja":    monday.LocaleJaJP,
		"zh":    monday.LocaleZhCN,
		"zh_cn": monday.LocaleZhCN,
		"zh_tw": monday.LocaleZhTW,
		"ko":    monday.LocaleKoKR,
		"tr":    monday.LocaleTrTR,
		"uk":    monday.LocaleUkUA,
	}

	if l, ok := localeMap[locale]; ok {
		return l, true
	}
	if i := strings.IndexByte(locale, '_'); i > 0 {
		if l, ok := localeMap[locale[:i]]; ok {
			return l, true
		}
	}
	return monday.LocaleEnUS, false
}
