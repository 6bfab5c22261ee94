package config

const (
	defaultStateDirFallback = "~/.local/state/gifsprite"
	defaultAnchor           = 0
	defaultHistoryEnabled   = true
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir(),
		},
		Assembly: Assembly{
			DefaultAnchor: defaultAnchor,
		},
		History: History{
			Enabled: defaultHistoryEnabled,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
