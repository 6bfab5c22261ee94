package testsupport

import (
	"path/filepath"
	"testing"

	"gifsprite/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "state", "logs")
	cfgVal.History.Path = filepath.Join(base, "state", "history.db")

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithTemplate points the config at a template file.
func WithTemplate(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Assembly.TemplatePath = path
	}
}

// WithDefaultAnchor sets the anchor used when a command omits --anchor.
func WithDefaultAnchor(anchor int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Assembly.DefaultAnchor = anchor
	}
}

// WithHistoryDisabled turns off the run journal.
func WithHistoryDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
