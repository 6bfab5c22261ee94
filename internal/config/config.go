package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Assembly contains defaults applied when a sprite is added to a project.
type Assembly struct {
	// TemplatePath points at a sprite/costume template file. Empty selects the
	// built-in Scratch 3 template.
	TemplatePath string `toml:"template_path"`
	// DefaultAnchor is the rotation-center anchor (0-8) used when the caller
	// does not pass one.
	DefaultAnchor int `toml:"default_anchor"`
}

// History contains configuration for the run journal.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"` // Default: <state_dir>/history.db
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for gifsprite.
//
// Configuration sections:
//   - Paths: state and log directories
//   - Assembly: template location and default anchor
//   - History: sqlite run journal
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Assembly Assembly `toml:"assembly"`
	History  History  `toml:"history"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/gifsprite/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err == nil {
			if info.IsDir() {
				return "", false, fmt.Errorf("config path %q is a directory", expanded)
			}
			return expanded, true, nil
		}
		if os.IsNotExist(err) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}

	defaultPath, err := expandPath("~/.config/gifsprite/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("gifsprite.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.History.Enabled && c.History.Path != "" {
		if err := os.MkdirAll(filepath.Dir(c.History.Path), 0o755); err != nil {
			return fmt.Errorf("create history directory: %w", err)
		}
	}
	return nil
}

// HistoryPath returns the journal database location.
func (c *Config) HistoryPath() string {
	if strings.TrimSpace(c.History.Path) != "" {
		return c.History.Path
	}
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LogFilePath returns the file log output is mirrored to, or "" when log_dir is unset.
func (c *Config) LogFilePath() string {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "gifsprite.log")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultStateDir() string {
	if base, ok := os.LookupEnv("XDG_STATE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "gifsprite")
	}
	return defaultStateDirFallback
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
