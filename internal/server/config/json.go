package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/StepanDemidovets/taskflow/internal/flagx"
)

// JsonConfig is an intermediate DTO used only for reading JSON configuration
// files. Validity is expressed in minutes so the file stays hand-editable.
// After unmarshalling, non-zero fields are copied into the runtime Config.
type JsonConfig struct {
	EndpointAddrHTTP     string `json:"endpoint_addr_http"`
	DataDir              string `json:"data_dir"`
	UploadsDir           string `json:"uploads_dir"`
	SecretKey            string `json:"secret_key"`
	TokenValidityMinutes int    `json:"token_validity_minutes"`
	StoreBackend         string `json:"store_backend"`
	DatabaseDSN          string `json:"database_dsn"`
	BlobBackend          string `json:"blob_backend"`
	S3RootUser           string `json:"s3_root_user"`
	S3RootPassword       string `json:"s3_root_password"`
	S3Bucket             string `json:"s3_bucket"`
	S3Region             string `json:"s3_region"`
	S3BaseEndpoint       string `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from an optional JSON file into the
// provided Config instance. The file path comes from the -c or -config
// command-line flags; when neither is set, no JSON file is loaded. If the
// file cannot be read or contains invalid JSON, the function panics.
//
// Only fields present (non-zero) in the file override the current values, so
// a partial config file overlays cleanly on the defaults.
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

	if c.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = c.EndpointAddrHTTP
	}
	if c.DataDir != "" {
		config.DataDir = c.DataDir
	}
	if c.UploadsDir != "" {
		config.UploadsDir = c.UploadsDir
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.TokenValidityMinutes != 0 {
		config.TokenValidityDuration = time.Duration(c.TokenValidityMinutes) * time.Minute
	}
	if c.StoreBackend != "" {
		config.StoreBackend = c.StoreBackend
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.BlobBackend != "" {
		config.BlobBackend = c.BlobBackend
	}
	if c.S3RootUser != "" {
		config.S3RootUser = c.S3RootUser
	}
	if c.S3RootPassword != "" {
		config.S3RootPassword = c.S3RootPassword
	}
	if c.S3Bucket != "" {
		config.S3Bucket = c.S3Bucket
	}
	if c.S3Region != "" {
		config.S3Region = c.S3Region
	}
	if c.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = c.S3BaseEndpoint
	}
}
