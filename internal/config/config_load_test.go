package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var envVars = []string{
	"MCP_PDF_MODE",
	"MCP_PDF_HOST",
	"MCP_PDF_PORT",
	"MCP_PDF_DIR",
	"MCP_PDF_OUTDIR",
	"MCP_PDF_LOGLEVEL",
	"MCP_PDF_MAXFILESIZE",
	"MCP_PDF_MAXMERGEFILES",
	"MCP_PDF_TEXTBACKEND",
	"MCP_PDF_REDACTCOLOR",
	"MCP_PDF_SCANWORKERS",
}

// Helper function to reset pflag.CommandLine for testing
func resetFlags() {
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	viper.Reset()
}

// Helper function to clear environment variables
func clearEnvVars() {
	for _, name := range envVars {
		os.Unsetenv(name)
	}
}

// loadWithArgs runs LoadFromFlags against args, restoring global state afterwards
func loadWithArgs(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	originalArgs := os.Args
	t.Cleanup(func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	})

	os.Args = append([]string{"mcp-pdf-engine"}, args...)
	resetFlags()
	return LoadFromFlags()
}

func TestLoadFromFlags_DefaultConfig(t *testing.T) {
	clearEnvVars()
	tempDir := t.TempDir()

	cfg, err := loadWithArgs(t, "--dir="+tempDir)
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Mode != "stdio" {
		t.Errorf("LoadFromFlags() Mode = %v, want %v", cfg.Mode, "stdio")
	}
	if cfg.Host != "127.0.0.1" {
		t.Errorf("LoadFromFlags() Host = %v, want %v", cfg.Host, "127.0.0.1")
	}
	if cfg.Port != 8080 {
		t.Errorf("LoadFromFlags() Port = %v, want %v", cfg.Port, 8080)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LoadFromFlags() LogLevel = %v, want %v", cfg.LogLevel, "info")
	}
	if cfg.MaxFileSize != 100*1024*1024 {
		t.Errorf("LoadFromFlags() MaxFileSize = %v, want %v", cfg.MaxFileSize, 100*1024*1024)
	}
	if cfg.MaxMergeFiles != 50 {
		t.Errorf("LoadFromFlags() MaxMergeFiles = %v, want %v", cfg.MaxMergeFiles, 50)
	}
	if cfg.TextBackend != "auto" {
		t.Errorf("LoadFromFlags() TextBackend = %v, want %v", cfg.TextBackend, "auto")
	}
	if cfg.RedactColor != "black" {
		t.Errorf("LoadFromFlags() RedactColor = %v, want %v", cfg.RedactColor, "black")
	}
	if cfg.ScanWorkers != 4 {
		t.Errorf("LoadFromFlags() ScanWorkers = %v, want %v", cfg.ScanWorkers, 4)
	}

	wantOut := filepath.Join(tempDir, "output")
	if cfg.OutputDirectory != wantOut {
		t.Errorf("LoadFromFlags() OutputDirectory = %v, want %v", cfg.OutputDirectory, wantOut)
	}
	if _, err := os.Stat(wantOut); err != nil {
		t.Errorf("output directory should have been created: %v", err)
	}
}

func TestLoadFromFlags_ValidFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(t *testing.T, cfg *Config)
	}{
		{
			name: "server mode with custom host and port",
			args: []string{"--mode=server", "--host=0.0.0.0", "--port=9090"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Mode != "server" || cfg.Host != "0.0.0.0" || cfg.Port != 9090 {
					t.Errorf("unexpected server settings: %s", cfg)
				}
			},
		},
		{
			name: "debug logging",
			args: []string{"--loglevel=debug"},
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.IsDebug() {
					t.Errorf("LoadFromFlags() LogLevel = %v, want debug", cfg.LogLevel)
				}
			},
		},
		{
			name: "max file size in bytes",
			args: []string{"--maxfilesize=50000000"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.MaxFileSize != 50000000 {
					t.Errorf("LoadFromFlags() MaxFileSize = %v, want %v", cfg.MaxFileSize, 50000000)
				}
			},
		},
		{
			name: "max file size with unit",
			args: []string{"--maxfilesize=250MB"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.MaxFileSize != 250*1024*1024 {
					t.Errorf("LoadFromFlags() MaxFileSize = %v, want %v", cfg.MaxFileSize, 250*1024*1024)
				}
			},
		},
		{
			name: "engine settings",
			args: []string{"--maxmergefiles=10", "--textbackend=Native", "--redactcolor=gray", "--scanworkers=8"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.MaxMergeFiles != 10 || cfg.TextBackend != "native" ||
					cfg.RedactColor != "gray" || cfg.ScanWorkers != 8 {
					t.Errorf("unexpected engine settings: %s", cfg)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars()
			tempDir := t.TempDir()

			cfg, err := loadWithArgs(t, append(tt.args, "--dir="+tempDir)...)
			if err != nil {
				t.Fatalf("LoadFromFlags() unexpected error: %v", err)
			}
			tt.verify(t, cfg)
		})
	}
}

func TestLoadFromFlags_OutputDirectoryFlag(t *testing.T) {
	clearEnvVars()
	tempDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "jobs")

	cfg, err := loadWithArgs(t, "--dir="+tempDir, "--outdir="+outDir)
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}
	if cfg.OutputDirectory != outDir {
		t.Errorf("LoadFromFlags() OutputDirectory = %v, want %v", cfg.OutputDirectory, outDir)
	}
}

func TestLoadFromFlags_EnvironmentVariables(t *testing.T) {
	clearEnvVars()
	tempDir := t.TempDir()

	t.Setenv("MCP_PDF_MODE", "server")
	t.Setenv("MCP_PDF_HOST", "192.168.1.1")
	t.Setenv("MCP_PDF_PORT", "3000")
	t.Setenv("MCP_PDF_DIR", tempDir)
	t.Setenv("MCP_PDF_LOGLEVEL", "warn")
	t.Setenv("MCP_PDF_MAXFILESIZE", "200MB")
	t.Setenv("MCP_PDF_MAXMERGEFILES", "12")
	t.Setenv("MCP_PDF_REDACTCOLOR", "white")
	t.Setenv("MCP_PDF_SCANWORKERS", "2")

	cfg, err := loadWithArgs(t)
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Mode != "server" {
		t.Errorf("LoadFromFlags() Mode = %v, want %v", cfg.Mode, "server")
	}
	if cfg.Host != "192.168.1.1" {
		t.Errorf("LoadFromFlags() Host = %v, want %v", cfg.Host, "192.168.1.1")
	}
	if cfg.Port != 3000 {
		t.Errorf("LoadFromFlags() Port = %v, want %v", cfg.Port, 3000)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LoadFromFlags() LogLevel = %v, want %v", cfg.LogLevel, "warn")
	}
	if cfg.MaxFileSize != 200*1024*1024 {
		t.Errorf("LoadFromFlags() MaxFileSize = %v, want %v", cfg.MaxFileSize, 200*1024*1024)
	}
	if cfg.MaxMergeFiles != 12 {
		t.Errorf("LoadFromFlags() MaxMergeFiles = %v, want %v", cfg.MaxMergeFiles, 12)
	}
	if cfg.RedactColor != "white" {
		t.Errorf("LoadFromFlags() RedactColor = %v, want %v", cfg.RedactColor, "white")
	}
	if cfg.ScanWorkers != 2 {
		t.Errorf("LoadFromFlags() ScanWorkers = %v, want %v", cfg.ScanWorkers, 2)
	}
}

func TestLoadFromFlags_FlagOverridesEnvironment(t *testing.T) {
	clearEnvVars()
	tempDir := t.TempDir()

	t.Setenv("MCP_PDF_MODE", "server")
	t.Setenv("MCP_PDF_HOST", "192.168.1.1")
	t.Setenv("MCP_PDF_PORT", "3000")

	cfg, err := loadWithArgs(t, "--mode=stdio", "--host=localhost", "--port=8888", "--dir="+tempDir)
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Mode != "stdio" {
		t.Errorf("LoadFromFlags() Mode = %v, want %v (should override env)", cfg.Mode, "stdio")
	}
	if cfg.Host != "localhost" {
		t.Errorf("LoadFromFlags() Host = %v, want %v (should override env)", cfg.Host, "localhost")
	}
	if cfg.Port != 8888 {
		t.Errorf("LoadFromFlags() Port = %v, want %v (should override env)", cfg.Port, 8888)
	}
}

func TestLoadFromFlags_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		env     map[string]string
		wantErr string
	}{
		{"invalid mode", []string{"--mode=invalid"}, nil, "mode must be either 'stdio' or 'server'"},
		{"invalid port", []string{"--mode=server", "--port=99999"}, nil, "port must be between 1 and 65535"},
		{"invalid log level", []string{"--loglevel=invalid"}, nil, "invalid log level"},
		{"invalid size", []string{"--maxfilesize=huge"}, nil, "maxfilesize"},
		{"invalid text backend", []string{"--textbackend=ocr"}, nil, "ocr"},
		{"non-numeric env port", nil, map[string]string{"MCP_PDF_PORT": "eighty"}, "port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars()
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			tempDir := t.TempDir()

			_, err := loadWithArgs(t, append(tt.args, "--dir="+tempDir)...)
			if err == nil {
				t.Fatal("LoadFromFlags() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadFromFlags() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFlags_VersionFlag(t *testing.T) {
	clearEnvVars()

	_, err := loadWithArgs(t, "--version")
	if err == nil {
		t.Error("LoadFromFlags() expected version error")
	}
	if err != nil && err.Error() != "version requested" {
		t.Errorf("LoadFromFlags() error = %v, want 'version requested'", err)
	}
}
