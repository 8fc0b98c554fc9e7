package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/avasilkov/walletapp/internal/flagx"
	"github.com/avasilkov/walletapp/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify the timeout either as a string like
// "15s" or as integer nanoseconds.
type JsonConfig struct {
	ServerBaseURL  string         `json:"server_base_url"`
	CacheDBPath    string         `json:"cache_db_path"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	DemoMode       *bool          `json:"demo_mode"`
}

// parseJson overlays Config with values loaded from a JSON file referenced
// by the -c or -config flags. Missing file path means no JSON is loaded.
// Read or unmarshal errors panic (caller may recover).
//
// Intended usage is: defaults -> parseJson -> parseFlags, where later stages
// override earlier ones.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerBaseURL != "" {
		cfg.ServerBaseURL = jc.ServerBaseURL
	}
	if jc.CacheDBPath != "" {
		cfg.CacheDBPath = jc.CacheDBPath
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = time.Duration(jc.RequestTimeout.Duration)
	}
	if jc.DemoMode != nil {
		cfg.DemoMode = *jc.DemoMode
	}
}
