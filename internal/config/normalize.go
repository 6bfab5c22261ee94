package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeAssembly(); err != nil {
		return err
	}
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir()
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.StateDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAssembly() error {
	c.Assembly.TemplatePath = strings.TrimSpace(c.Assembly.TemplatePath)
	if c.Assembly.TemplatePath == "" {
		if value, ok := os.LookupEnv("GIFSPRITE_TEMPLATE"); ok {
			c.Assembly.TemplatePath = strings.TrimSpace(value)
		}
	}
	var err error
	if c.Assembly.TemplatePath, err = expandPath(c.Assembly.TemplatePath); err != nil {
		return fmt.Errorf("assembly.template_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeHistory() error {
	var err error
	c.History.Path = strings.TrimSpace(c.History.Path)
	if c.History.Path == "" {
		c.History.Path = filepath.Join(c.Paths.StateDir, "history.db")
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if value, ok := os.LookupEnv("GIFSPRITE_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
