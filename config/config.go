package config

import "time"

// Config represents the complete jsxplay configuration
type Config struct {
	BaseDir     string                     `yaml:"-"` // Directory containing config file, for resolving relative paths
	Server      ServerConfig               `yaml:"server"`
	Source      SourceConfig               `yaml:"source"`
	Editor      EditorConfig               `yaml:"editor"`
	Compression CompressionConfig          `yaml:"compression"`
	Store       StoreConfig                `yaml:"store"`
	Dev         DevConfig                  `yaml:"dev"`
	Logging     LoggingConfig              `yaml:"logging"`
	Locale      string                     `yaml:"locale"`     // Locale for snapshot dates (e.g. "en_GB", "de")
	Developers  map[string]DeveloperConfig `yaml:"developers"` // Named developer profiles for per-developer overrides
}

// DeveloperConfig holds per-developer overrides
// All fields are optional - only non-zero values override the base config
type DeveloperConfig struct {
	Port    int           `yaml:"port"`    // Override server.port
	Source  string        `yaml:"source"`  // Override source.file
	StoreDB string        `yaml:"store"`   // Override store.dsn
	Logging LoggingConfig `yaml:"logging"` // Override logging settings
}

// ServerConfig holds server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	Dev  bool   `yaml:"-"` // Set via CLI flag, not config
}

// SourceConfig controls where the edited markup lives
type SourceConfig struct {
	File    string `yaml:"file"`    // JSX file loaded at startup and written on every change (optional)
	Initial string `yaml:"initial"` // Inline markup used when no file is set or the file is missing
	Watch   bool   `yaml:"watch"`   // Reload the session when the file changes on disk
}

// EditorConfig holds editing session settings
type EditorConfig struct {
	Strict         bool          `yaml:"strict"`          // Reject malformed markup instead of recovering
	BareAttributes bool          `yaml:"bare_attributes"` // Accept attributes without a value (disabled={true})
	StyleProp      string        `yaml:"style_prop"`      // Attribute created by color edits: "style" or "sx"
	WarningTTL     time.Duration `yaml:"warning_ttl"`     // How long rejected-drop warnings stay visible
}

// CompressionConfig holds response compression settings
type CompressionConfig struct {
	Enabled bool   `yaml:"enabled"`  // Enable gzip compression (default: true)
	Level   string `yaml:"level"`    // Compression level: none, fastest, default, best (default: default)
	MinSize int    `yaml:"min_size"` // Minimum response size to compress in bytes (default: 1024)
}

// StoreConfig holds snapshot storage settings
type StoreConfig struct {
	Driver string `yaml:"driver"` // sqlite, postgres, mysql (default: sqlite)
	DSN    string `yaml:"dsn"`    // Path for sqlite, connection string otherwise
}

// DevConfig holds development mode settings
type DevConfig struct {
	LogDatabase    string `yaml:"log_database"`     // Path to dev log database (default: .jsxplay-dev.db)
	LogMaxSize     string `yaml:"log_max_size"`     // Max size before truncation (default: 10MB)
	LogTruncatePct int    `yaml:"log_truncate_pct"` // Percentage to remove on truncation (default: 25)
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
	Output string `yaml:"output"` // stderr, stdout, or file path
}

// Defaults returns a Config with sensible default values
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Editor: EditorConfig{
			StyleProp:  "style",
			WarningTTL: 5 * time.Second,
		},
		Compression: CompressionConfig{
			Enabled: true,
			Level:   "default",
			MinSize: 1024,
		},
		Store: StoreConfig{
			Driver: "sqlite",
			DSN:    "jsxplay.db",
		},
		Dev: DevConfig{
			LogDatabase:    ".jsxplay-dev.db",
			LogMaxSize:     "10MB",
			LogTruncatePct: 25,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Locale: "en_US",
	}
}
