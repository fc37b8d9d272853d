package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// validConfig returns a configuration whose directories live under t.TempDir
func validConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.PDFDirectory = dir
	cfg.OutputDirectory = filepath.Join(dir, "output")
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mode != "stdio" {
		t.Errorf("Expected default mode to be 'stdio', got '%s'", cfg.Mode)
	}
	if cfg.Host != "127.0.0.1" {
		t.Errorf("Expected default host to be '127.0.0.1', got '%s'", cfg.Host)
	}
	if cfg.Port != 8080 {
		t.Errorf("Expected default port to be 8080, got %d", cfg.Port)
	}
	if cfg.ServerName != "mcp-pdf-engine" {
		t.Errorf("Expected default server name to be 'mcp-pdf-engine', got '%s'", cfg.ServerName)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level to be 'info', got '%s'", cfg.LogLevel)
	}
	if cfg.MaxFileSize != 100*1024*1024 {
		t.Errorf("Expected default max file size to be 100MB, got %d", cfg.MaxFileSize)
	}
	if cfg.MaxMergeFiles != 50 {
		t.Errorf("Expected default max merge files to be 50, got %d", cfg.MaxMergeFiles)
	}
	if cfg.TextBackend != "auto" {
		t.Errorf("Expected default text backend to be 'auto', got '%s'", cfg.TextBackend)
	}
	if cfg.RedactColor != "black" {
		t.Errorf("Expected default redact color to be 'black', got '%s'", cfg.RedactColor)
	}
	if cfg.ScanWorkers != 4 {
		t.Errorf("Expected default scan workers to be 4, got %d", cfg.ScanWorkers)
	}

	currentDir, _ := os.Getwd()
	if cfg.PDFDirectory != currentDir {
		t.Errorf("Expected default PDF directory to be '%s', got '%s'", currentDir, cfg.PDFDirectory)
	}
	if cfg.OutputDirectory != filepath.Join(currentDir, "output") {
		t.Errorf("Expected default output directory under '%s', got '%s'", currentDir, cfg.OutputDirectory)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"valid config - stdio mode", func(*Config) {}, ""},
		{"valid config - server mode", func(c *Config) { c.Mode = ModeServer }, ""},
		{"invalid mode", func(c *Config) { c.Mode = "invalid" }, "mode must be either"},
		{"invalid port - too low (server mode)", func(c *Config) {
			c.Mode = ModeServer
			c.Port = 0
		}, "port must be between"},
		{"invalid port - too high (server mode)", func(c *Config) {
			c.Mode = ModeServer
			c.Port = 70000
		}, "port must be between"},
		{"invalid port ignored in stdio mode", func(c *Config) { c.Port = 0 }, ""},
		{"empty PDF directory", func(c *Config) { c.PDFDirectory = "" }, "PDF directory cannot be empty"},
		{"zero max file size", func(c *Config) { c.MaxFileSize = 0 }, "maximum file size must be positive"},
		{"merge limit too small", func(c *Config) { c.MaxMergeFiles = 1 }, "maximum merge files"},
		{"no scan workers", func(c *Config) { c.ScanWorkers = 0 }, "scan workers"},
		{"unknown text backend", func(c *Config) { c.TextBackend = "ocr" }, "ocr"},
		{"unknown redact color", func(c *Config) { c.RedactColor = "pink" }, "pink"},
		{"invalid log level", func(c *Config) { c.LogLevel = "trace" }, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Config.Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Config.Validate() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidate_ReportsEveryProblem(t *testing.T) {
	cfg := validConfig(t)
	cfg.Mode = "invalid"
	cfg.MaxFileSize = -1
	cfg.LogLevel = "loud"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Config.Validate() expected error")
	}
	for _, want := range []string{"mode must be either", "maximum file size", "invalid log level"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Config.Validate() error %q does not mention %q", err, want)
		}
	}
}

func TestConfigValidateDirectoryCreation(t *testing.T) {
	tempParent := t.TempDir()
	inputDir := filepath.Join(tempParent, "non-existent", "pdfs")
	outputDir := filepath.Join(tempParent, "out", "jobs")

	cfg := validConfig(t)
	cfg.PDFDirectory = inputDir
	cfg.OutputDirectory = outputDir

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Config.Validate() unexpected error: %v", err)
	}

	for _, dir := range []string{inputDir, outputDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("Directory should have been created: %s", dir)
			continue
		}
		if !info.IsDir() {
			t.Errorf("Expected %s to be a directory", dir)
		}
	}
}

func TestConfigValidate_DirectoryIsFile(t *testing.T) {
	cfg := validConfig(t)
	file := filepath.Join(cfg.PDFDirectory, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	cfg.OutputDirectory = file

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "is not a directory") {
		t.Errorf("Config.Validate() error = %v, want 'is not a directory'", err)
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		input   any
		want    int64
		wantErr bool
	}{
		{int64(1024), 1024, false},
		{2048, 2048, false},
		{"4096", 4096, false},
		{"512KB", 512 * 1024, false},
		{"100MB", 100 * 1024 * 1024, false},
		{"2gb", 2 * 1024 * 1024 * 1024, false},
		{" 10 MB ", 10 * 1024 * 1024, false},
		{"12B", 12, false},
		{"lots", 0, true},
		{"MB", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseSize(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSize(%v) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSize(%v) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestConfigAddress(t *testing.T) {
	cfg := &Config{
		Host: "192.168.1.1",
		Port: 9090,
	}

	expected := "192.168.1.1:9090"
	if got := cfg.Address(); got != expected {
		t.Errorf("Config.Address() = %v, want %v", got, expected)
	}
}

func TestConfigIsDebug(t *testing.T) {
	tests := []struct {
		logLevel string
		want     bool
	}{
		{"debug", true},
		{"info", false},
		{"warn", false},
		{"error", false},
	}

	for _, tt := range tests {
		t.Run(tt.logLevel, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel}
			if got := cfg.IsDebug(); got != tt.want {
				t.Errorf("Config.IsDebug() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigString(t *testing.T) {
	cfg := &Config{
		Mode:            "server",
		Host:            "localhost",
		Port:            8080,
		PDFDirectory:    "/home/user/pdfs",
		OutputDirectory: "/home/user/out",
		LogLevel:        "debug",
		MaxFileSize:     1024,
		MaxMergeFiles:   10,
		TextBackend:     "native",
		RedactColor:     "gray",
		ScanWorkers:     2,
	}

	result := cfg.String()

	expectedSubstrings := []string{
		"Mode: server",
		"Host: localhost",
		"Port: 8080",
		"PDFDirectory: /home/user/pdfs",
		"OutputDirectory: /home/user/out",
		"LogLevel: debug",
		"MaxFileSize: 1024",
		"MaxMergeFiles: 10",
		"TextBackend: native",
		"RedactColor: gray",
		"ScanWorkers: 2",
	}

	for _, substr := range expectedSubstrings {
		if !strings.Contains(result, substr) {
			t.Errorf("Config.String() result doesn't contain expected substring: %s\nGot: %s", substr, result)
		}
	}
}

func TestConfigModes(t *testing.T) {
	tests := []struct {
		mode       string
		wantServer bool
		wantStdio  bool
	}{
		{ModeServer, true, false},
		{ModeStdio, false, true},
		{"invalid", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		cfg := &Config{Mode: tt.mode}
		if got := cfg.IsServerMode(); got != tt.wantServer {
			t.Errorf("Config{Mode: %q}.IsServerMode() = %v, want %v", tt.mode, got, tt.wantServer)
		}
		if got := cfg.IsStdioMode(); got != tt.wantStdio {
			t.Errorf("Config{Mode: %q}.IsStdioMode() = %v, want %v", tt.mode, got, tt.wantStdio)
		}
	}
}
