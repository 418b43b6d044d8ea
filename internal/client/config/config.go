// Package config handles configuration for the CLI client.
package config

// Config holds runtime settings for the taskflow CLI.
//
// Fields:
//   - ServerBaseURL: base URL of the backend HTTP endpoint, no trailing slash.
type Config struct {
	ServerBaseURL string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:3000"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
