package config

import (
	"encoding/json"
	"os"

	"github.com/StepanDemidovets/taskflow/internal/flagx"
)

// JsonConfig mirrors Config for JSON configuration files.
type JsonConfig struct {
	ServerBaseURL string `json:"server_base_url"`
}

// parseJson loads configuration values from an optional JSON file into the
// provided Config instance. The file path comes from the -c or -config
// command-line flags. If the file cannot be read or contains invalid JSON,
// the function panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.ServerBaseURL != "" {
		config.ServerBaseURL = c.ServerBaseURL
	}
}
