package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/weekplanner/internal/timex"
	"github.com/tidwall/jsonc"
)

// JsonConfig is the on-disk shape of the server config file. Durations are
// timex.Duration so both "15m" and integer nanoseconds are accepted. Only
// keys present in the file override the running config.
type JsonConfig struct {
	ListenAddr        *string         `json:"listen_addr"`
	DatabaseDSN       *string         `json:"database_dsn"`
	SecretKey         *string         `json:"secret_key"`
	SessionValidity   *timex.Duration `json:"session_validity"`
	BcryptCost        *int            `json:"bcrypt_cost"`
	S3RootUser        *string         `json:"s3_root_user"`
	S3RootPassword    *string         `json:"s3_root_password"`
	S3Bucket          *string         `json:"s3_bucket"`
	S3Region          *string         `json:"s3_region"`
	S3BaseEndpoint    *string         `json:"s3_base_endpoint"`
	BackupURLValidity *timex.Duration `json:"backup_url_validity"`
}

// parseJson loads path (if non-empty) into config. Comments and trailing
// commas are allowed.
func parseJson(config *Config, path string) error {
	if path == "" {
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(jsonc.ToJSON(raw), c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setStr := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	setDur := func(dst *time.Duration, v *timex.Duration) {
		if v != nil {
			*dst = v.Duration
		}
	}

	setStr(&config.ListenAddr, c.ListenAddr)
	setStr(&config.DatabaseDSN, c.DatabaseDSN)
	setStr(&config.SecretKey, c.SecretKey)
	setDur(&config.SessionValidity, c.SessionValidity)
	if c.BcryptCost != nil {
		config.BcryptCost = *c.BcryptCost
	}
	setStr(&config.S3RootUser, c.S3RootUser)
	setStr(&config.S3RootPassword, c.S3RootPassword)
	setStr(&config.S3Bucket, c.S3Bucket)
	setStr(&config.S3Region, c.S3Region)
	setStr(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setDur(&config.BackupURLValidity, c.BackupURLValidity)
	return nil
}
