// Package config holds runtime settings for the wallet CLI.
package config

import "time"

// Config holds runtime settings for the wallet CLI.
//
// Fields:
//   - ServerBaseURL: base URL of the backend REST API, including the API
//     prefix (e.g. "http://localhost:8080/api").
//   - CacheDBPath: path of the local SQLite cache database.
//   - RequestTimeout: per-request HTTP timeout.
//   - DemoMode: when true, the wallet runs against the seeded offline
//     engine instead of the backend; no login is required.
type Config struct {
	ServerBaseURL  string
	CacheDBPath    string
	RequestTimeout time.Duration
	DemoMode       bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://localhost:8080/api"
	c.CacheDBPath = "wallet.db"
	c.RequestTimeout = 15 * time.Second
	c.DemoMode = false
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
