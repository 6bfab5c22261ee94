package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"gifsprite/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("GIFSPRITE_TEMPLATE", "")
	t.Setenv("GIFSPRITE_LOG_LEVEL", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "state", "gifsprite")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Paths.LogDir != filepath.Join(wantState, "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.History.Path != filepath.Join(wantState, "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.History.Path)
	}
	if !cfg.History.Enabled {
		t.Fatal("expected history enabled by default")
	}
	if cfg.Assembly.TemplatePath != "" {
		t.Fatalf("expected built-in template by default, got %q", cfg.Assembly.TemplatePath)
	}
	if cfg.Assembly.DefaultAnchor != 0 {
		t.Fatalf("expected default anchor 0, got %d", cfg.Assembly.DefaultAnchor)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "gifsprite.toml")
	templatePath := filepath.Join(tempDir, "template.json")
	if err := os.WriteFile(templatePath, []byte(`{"spriteTemplate":{},"costumeTemplate":{}}`), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}

	type payload struct {
		Paths struct {
			StateDir string `toml:"state_dir"`
		} `toml:"paths"`
		Assembly struct {
			TemplatePath  string `toml:"template_path"`
			DefaultAnchor int    `toml:"default_anchor"`
		} `toml:"assembly"`
		Logging struct {
			Format string `toml:"format"`
			Level  string `toml:"level"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Paths.StateDir = filepath.Join(tempDir, "state")
	custom.Assembly.TemplatePath = templatePath
	custom.Assembly.DefaultAnchor = 6
	custom.Logging.Format = "JSON"
	custom.Logging.Level = "Debug"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}
	t.Setenv("GIFSPRITE_LOG_LEVEL", "")

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Assembly.TemplatePath != templatePath {
		t.Fatalf("expected template path from file, got %q", cfg.Assembly.TemplatePath)
	}
	if cfg.Assembly.DefaultAnchor != 6 {
		t.Fatalf("expected default anchor 6, got %d", cfg.Assembly.DefaultAnchor)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized logging settings, got %+v", cfg.Logging)
	}
	if cfg.Paths.LogDir != filepath.Join(tempDir, "state", "logs") {
		t.Fatalf("expected log dir under state dir, got %q", cfg.Paths.LogDir)
	}
}

func TestLogDirFollowsXDGStateHome(t *testing.T) {
	tempHome := t.TempDir()
	stateHome := filepath.Join(tempHome, "xdg-state")
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_STATE_HOME", stateHome)
	t.Setenv("GIFSPRITE_TEMPLATE", "")
	t.Setenv("GIFSPRITE_LOG_LEVEL", "")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	want := filepath.Join(stateHome, "gifsprite", "logs")
	if cfg.Paths.LogDir != want {
		t.Fatalf("log dir should follow XDG_STATE_HOME: got %q want %q", cfg.Paths.LogDir, want)
	}
	if cfg.LogFilePath() != filepath.Join(want, "gifsprite.log") {
		t.Fatalf("unexpected log file path: %q", cfg.LogFilePath())
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "anchor too large", content: "[assembly]\ndefault_anchor = 9\n", want: "default_anchor"},
		{name: "negative anchor", content: "[assembly]\ndefault_anchor = -1\n", want: "default_anchor"},
		{name: "log format", content: "[logging]\nformat = \"xml\"\n", want: "logging.format"},
		{name: "missing template", content: "[assembly]\ntemplate_path = \"/nonexistent/template.json\"\n", want: "template_path"},
		{name: "bad toml", content: "[assembly\n", want: "parse config"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "gifsprite.toml")
			if err := os.WriteFile(configPath, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(configPath)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestEnvTemplateFallback(t *testing.T) {
	tempDir := t.TempDir()
	templatePath := filepath.Join(tempDir, "env-template.yaml")
	if err := os.WriteFile(templatePath, []byte("spriteTemplate: {}\ncostumeTemplate: {}\n"), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	t.Setenv("GIFSPRITE_TEMPLATE", templatePath)

	cfg, _, _, err := config.Load(filepath.Join(tempDir, "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Assembly.TemplatePath != templatePath {
		t.Fatalf("expected template path from env, got %q", cfg.Assembly.TemplatePath)
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("GIFSPRITE_TEMPLATE", "")
	target := filepath.Join(tempHome, "nested", "config.toml")

	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("Load sample failed: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Paths.StateDir != filepath.Join(tempHome, ".local", "state", "gifsprite") {
		t.Fatalf("unexpected state dir from sample: %q", cfg.Paths.StateDir)
	}
	if cfg.Paths.LogDir != filepath.Join(cfg.Paths.StateDir, "logs") {
		t.Fatalf("unexpected log dir from sample: %q", cfg.Paths.LogDir)
	}
}
