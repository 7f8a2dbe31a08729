package config

const (
	defaultListen   = ":8080"
	defaultUpstream = "http://localhost:11434"
	defaultTools    = "all"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Proxy: ProxyConfig{
			Listen:   defaultListen,
			Upstream: defaultUpstream,
		},
		Format: FormatConfig{
			Raw:   false,
			Tools: defaultTools,
		},
		Log: LogConfig{
			Debug: false,
		},
	}
}
