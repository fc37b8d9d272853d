package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/a3tai/mcp-pdf-engine/internal/pdf/redact"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/textpos"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort          = 8080
	DefaultHost          = "127.0.0.1"
	DefaultLogLevel      = "info"
	DefaultMaxFileSize   = 100 * 1024 * 1024 // 100MB
	DefaultMaxMergeFiles = 50
	DefaultTextBackend   = string(textpos.BackendAuto)
	DefaultRedactColor   = string(redact.Black)
	DefaultScanWorkers   = 4

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for the PDF MCP server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// PDFDirectory confines every input path
	PDFDirectory string

	// OutputDirectory receives one directory per job
	OutputDirectory string

	// Engine configuration
	MaxFileSize   int64 // Maximum PDF file size in bytes
	MaxMergeFiles int
	TextBackend   string
	RedactColor   string
	ScanWorkers   int

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	return &Config{
		Mode:            ModeStdio, // Default to stdio mode for MCP compatibility
		Host:            DefaultHost,
		Port:            DefaultPort,
		PDFDirectory:    currentDir,
		OutputDirectory: filepath.Join(currentDir, "output"),
		MaxFileSize:     DefaultMaxFileSize,
		MaxMergeFiles:   DefaultMaxMergeFiles,
		TextBackend:     DefaultTextBackend,
		RedactColor:     DefaultRedactColor,
		ScanWorkers:     DefaultScanWorkers,
		Version:         "1.0.0",
		ServerName:      "mcp-pdf-engine",
		LogLevel:        DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	if err := populateConfigFromViper(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Expand paths if needed
	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}
	if cfg.OutputDirectory == "" && cfg.PDFDirectory != "" {
		cfg.OutputDirectory = filepath.Join(cfg.PDFDirectory, "output")
	}
	if cfg.OutputDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.OutputDirectory); err == nil {
			cfg.OutputDirectory = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	// Set environment variable prefix
	viper.SetEnvPrefix("MCP_PDF")
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.PDFDirectory)
	// Empty means <dir>/output, resolved after parsing
	viper.SetDefault("outdir", "")
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("maxmergefiles", cfg.MaxMergeFiles)
	viper.SetDefault("textbackend", cfg.TextBackend)
	viper.SetDefault("redactcolor", cfg.RedactColor)
	viper.SetDefault("scanworkers", cfg.ScanWorkers)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for streamable HTTP")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("dir", cfg.PDFDirectory, "Directory containing input PDF files")
	pflag.String("outdir", "", "Directory receiving job outputs (default <dir>/output)")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.String("maxfilesize", fmt.Sprint(cfg.MaxFileSize), "Maximum PDF file size in bytes, or with a KB/MB/GB suffix")
	pflag.Int("maxmergefiles", cfg.MaxMergeFiles, "Maximum number of files in one merge")
	pflag.String("textbackend", cfg.TextBackend, "Text position backend (native, ledongthuc, auto)")
	pflag.String("redactcolor", cfg.RedactColor, "Default redaction color (black, white, gray)")
	pflag.Int("scanworkers", cfg.ScanWorkers, "Documents scanned concurrently by batch scans")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, key := range []string{
		"mode", "host", "port", "dir", "outdir", "loglevel",
		"maxfilesize", "maxmergefiles", "textbackend", "redactcolor", "scanworkers",
	} {
		_ = viper.BindPFlag(key, pflag.Lookup(key))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nMCP PDF Engine - A Model Context Protocol server that merges, splits, "+
			"compresses and redacts PDF files\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                         "+
			"# stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/pdfs --outdir=/tmp/out   "+
			"# stdio mode with custom directories\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --dir=/path/to/pdfs       # server mode\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --redactcolor=gray --maxfilesize=250MB  # engine tuning\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_MODE          Server mode\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_HOST          Server host\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_PORT          Server port\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_DIR           Input PDF directory\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_OUTDIR        Output directory\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_LOGLEVEL      Log level\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_MAXFILESIZE   Maximum file size\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_MAXMERGEFILES Maximum files per merge\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_TEXTBACKEND   Text position backend\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_REDACTCOLOR   Default redaction color\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_SCANWORKERS   Batch scan concurrency\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper.
// Environment values arrive as strings and are coerced with cast.
func populateConfigFromViper(cfg *Config) error {
	var err error

	cfg.Mode = strings.ToLower(viper.GetString("mode"))
	cfg.Host = viper.GetString("host")
	cfg.PDFDirectory = viper.GetString("dir")
	cfg.OutputDirectory = viper.GetString("outdir")
	cfg.LogLevel = strings.ToLower(viper.GetString("loglevel"))
	cfg.TextBackend = strings.ToLower(viper.GetString("textbackend"))
	cfg.RedactColor = strings.ToLower(viper.GetString("redactcolor"))

	port, portErr := cast.ToIntE(viper.Get("port"))
	err = multierr.Append(err, fieldError("port", portErr))
	cfg.Port = port

	mergeFiles, mergeErr := cast.ToIntE(viper.Get("maxmergefiles"))
	err = multierr.Append(err, fieldError("maxmergefiles", mergeErr))
	cfg.MaxMergeFiles = mergeFiles

	workers, workersErr := cast.ToIntE(viper.Get("scanworkers"))
	err = multierr.Append(err, fieldError("scanworkers", workersErr))
	cfg.ScanWorkers = workers

	size, sizeErr := ParseSize(viper.Get("maxfilesize"))
	err = multierr.Append(err, fieldError("maxfilesize", sizeErr))
	cfg.MaxFileSize = size

	return err
}

func fieldError(key string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", key, err)
}

var sizeUnits = []struct {
	suffix string
	factor int64
}{
	{"GB", 1024 * 1024 * 1024},
	{"MB", 1024 * 1024},
	{"KB", 1024},
	{"B", 1},
}

// ParseSize converts a byte count such as 1048576, "1048576", "512KB" or
// "100MB" into bytes.
func ParseSize(v any) (int64, error) {
	s, ok := v.(string)
	if !ok {
		return cast.ToInt64E(v)
	}

	s = strings.ToUpper(strings.TrimSpace(s))
	for _, unit := range sizeUnits {
		if number, found := strings.CutSuffix(s, unit.suffix); found {
			number = strings.TrimSpace(number)
			n, err := cast.ToInt64E(number)
			if err != nil || number == "" {
				return 0, fmt.Errorf("invalid size %q", v)
			}
			return n * unit.factor, nil
		}
	}

	n, err := cast.ToInt64E(s)
	if err != nil || s == "" {
		return 0, fmt.Errorf("invalid size %q", v)
	}
	return n, nil
}

// Validate checks the configuration and reports every problem found.
// Missing input and output directories are created.
func (c *Config) Validate() error {
	var err error

	if c.Mode != ModeStdio && c.Mode != ModeServer {
		err = multierr.Append(err, errors.New("mode must be either 'stdio' or 'server'"))
	}

	// Port only matters in server mode
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		err = multierr.Append(err, errors.New("port must be between 1 and 65535"))
	}

	if c.PDFDirectory == "" {
		err = multierr.Append(err, errors.New("PDF directory cannot be empty"))
	} else {
		err = multierr.Append(err, ensureDirectory("PDF", c.PDFDirectory))
	}

	if c.OutputDirectory != "" {
		err = multierr.Append(err, ensureDirectory("output", c.OutputDirectory))
	}

	if c.MaxFileSize <= 0 {
		err = multierr.Append(err, errors.New("maximum file size must be positive"))
	}

	if c.MaxMergeFiles < 2 {
		err = multierr.Append(err, errors.New("maximum merge files must be at least 2"))
	}

	if c.ScanWorkers < 1 {
		err = multierr.Append(err, errors.New("scan workers must be at least 1"))
	}

	if _, parseErr := textpos.ParseBackendType(c.TextBackend); parseErr != nil {
		err = multierr.Append(err, parseErr)
	}

	if _, parseErr := redact.ParseColor(c.RedactColor); parseErr != nil {
		err = multierr.Append(err, parseErr)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		err = multierr.Append(err,
			fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel))
	}

	return err
}

// ensureDirectory creates dir if it does not exist
func ensureDirectory(label, dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(dir, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create %s directory %s: %w", label, dir, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot access %s directory %s: %w", label, dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s directory %s is not a directory", label, dir)
	}
	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, PDFDirectory: %s, OutputDirectory: %s, "+
		"LogLevel: %s, MaxFileSize: %d, MaxMergeFiles: %d, TextBackend: %s, RedactColor: %s, ScanWorkers: %d}",
		c.Mode, c.Host, c.Port, c.PDFDirectory, c.OutputDirectory,
		c.LogLevel, c.MaxFileSize, c.MaxMergeFiles, c.TextBackend, c.RedactColor, c.ScanWorkers)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
