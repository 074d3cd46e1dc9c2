package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// clearEnv blanks every variable Load reads. Viper ignores empty values.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"FILE", "WORK_DIR", "LOG_LEVEL", "FORMAT", "MODEL", "API_KEY"} {
		t.Setenv(EnvPrefix+"_"+key, "")
	}
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("HOME", t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := Load(New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wd, _ := os.Getwd()
	if cfg.File != filepath.Join(wd, DefaultFile) {
		t.Errorf("expected file in working dir, got %s", cfg.File)
	}
	if cfg.LogLevel != "info" || cfg.Format != "json" || cfg.Model != DefaultModel {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.RequireAPIKey(); err == nil {
		t.Error("expected missing API key to be reported")
	}
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	workDir := t.TempDir()
	t.Setenv("MEMSEARCH_WORK_DIR", workDir)
	t.Setenv("MEMSEARCH_FILE", "kb.json")
	t.Setenv("MEMSEARCH_LOG_LEVEL", "DEBUG")
	t.Setenv("MEMSEARCH_FORMAT", "yaml")
	t.Setenv("GOOGLE_API_KEY", "key-123")

	cfg, err := Load(New(t.TempDir()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.File != filepath.Join(workDir, "kb.json") {
		t.Errorf("expected file relative to work dir, got %s", cfg.File)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.LogLevel)
	}
	if cfg.Format != "yaml" {
		t.Errorf("expected format yaml, got %s", cfg.Format)
	}
	if cfg.APIKey != "key-123" {
		t.Errorf("expected API key from GOOGLE_API_KEY, got %q", cfg.APIKey)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	content := "file: /var/lib/memsearch/kb.json\nformat: yaml\nmodel: gemini-2.5-pro\n"
	if err := os.WriteFile(filepath.Join(dir, "memsearch.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MEMSEARCH_FORMAT", "json")

	cfg, err := Load(New(dir))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.File != "/var/lib/memsearch/kb.json" {
		t.Errorf("expected absolute file kept, got %s", cfg.File)
	}
	if cfg.Model != "gemini-2.5-pro" {
		t.Errorf("expected model from file, got %s", cfg.Model)
	}
	if cfg.Format != "json" {
		t.Errorf("expected environment to override file, got %s", cfg.Format)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"bad format", map[string]string{"MEMSEARCH_FORMAT": "xml"}, "format must be one of"},
		{"bad level", map[string]string{"MEMSEARCH_LOG_LEVEL": "loud"}, "log_level must be one of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(New(t.TempDir()))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoad_MalformedConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "memsearch.yaml"), []byte("format: [unclosed\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(New(dir)); err == nil || !strings.Contains(err.Error(), "failed to read config") {
		t.Errorf("expected read error, got %v", err)
	}
}
