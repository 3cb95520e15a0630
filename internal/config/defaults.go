package config

const (
	defaultConfigPath      = "~/.config/curadiff/config.toml"
	defaultRawDir          = "~/.local/share/curadiff/raw"
	defaultDiffDir         = "~/.local/share/curadiff/diff"
	defaultLogDir          = "~/.local/share/curadiff/logs"
	defaultLedgerPath      = "~/.local/share/curadiff/ledger.db"
	defaultTimeoutSeconds  = 120
	defaultUserAgent       = "curadiff/dev"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	envSessionToken        = "CURADIFF_SESSION_TOKEN"
	envSessionCookie       = "CURADIFF_SESSION_COOKIE"
	maxDownloadTimeoutSecs = 3600
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			RawDir:  defaultRawDir,
			DiffDir: defaultDiffDir,
			LogDir:  defaultLogDir,
		},
		Download: Download{
			TimeoutSeconds: defaultTimeoutSeconds,
			UserAgent:      defaultUserAgent,
		},
		Ledger: Ledger{
			Enabled: true,
			Path:    defaultLedgerPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
