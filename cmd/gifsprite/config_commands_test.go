package main

import (
	"os"
	"path/filepath"
	"testing"

	"gifsprite/internal/config"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)
	requireContains(t, out, "built-in")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, _, _, err := config.Load(target); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected refusal to overwrite existing config")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidateRejectsBadFile(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.WriteFile(env.configPath, []byte("[assembly]\ndefault_anchor = 12\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := runCLI(t, []string{"config", "validate"}, env.configPath); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLogLevelFlagValidated(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"--log-level", "loud", "config", "validate"}, env.configPath); err == nil {
		t.Fatal("expected invalid --log-level to fail")
	}
	if _, _, err := runCLI(t, []string{"--log-level", "debug", "config", "validate"}, env.configPath); err != nil {
		t.Fatalf("--log-level debug: %v", err)
	}
}
