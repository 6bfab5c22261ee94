package main

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gifsprite/internal/config"
	"gifsprite/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	project    string
	animation  string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("GIFSPRITE_TEMPLATE", "")
	t.Setenv("GIFSPRITE_LOG_LEVEL", "")

	configPath := filepath.Join(homeDir, ".config", "gifsprite", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	workDir := filepath.Join(base, "work")
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		t.Fatalf("mkdir work dir: %v", err)
	}
	project := testsupport.WriteProject(t, workDir)
	animation := testsupport.WriteGIF(t, filepath.Join(workDir, "walk.gif"),
		testsupport.SolidFrame(10, 8, color.NRGBA{R: 255, A: 255}),
		testsupport.SolidFrame(10, 8, color.NRGBA{G: 255, A: 255}),
		testsupport.SolidFrame(10, 8, color.NRGBA{B: 255, A: 255}),
	)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		baseDir:    base,
		project:    project,
		animation:  animation,
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nstate_dir = %q\nlog_dir = %q\n\n[assembly]\ntemplate_path = %q\ndefault_anchor = %d\n\n[history]\nenabled = %t\npath = %q\n\n[logging]\nlevel = \"error\"\n",
		cfg.Paths.StateDir,
		cfg.Paths.LogDir,
		cfg.Assembly.TemplatePath,
		cfg.Assembly.DefaultAnchor,
		cfg.History.Enabled,
		cfg.History.Path,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
