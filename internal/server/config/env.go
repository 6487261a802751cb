package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "WEEKPLANNER_"

// parseEnv overlays WEEKPLANNER_* variables onto config. When envFile is
// set it is loaded first; variables already present in the environment win
// over the file. Without an explicit file a .env in the working directory is
// picked up if present.
func parseEnv(config *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return fmt.Errorf("load .env: %w", err)
		}
	}

	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) error {
		v, ok := os.LookupEnv(envPrefix + name)
		if !ok {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = d
		return nil
	}

	str("LISTEN_ADDR", &config.ListenAddr)
	str("DATABASE_DSN", &config.DatabaseDSN)
	str("SECRET_KEY", &config.SecretKey)
	str("S3_ROOT_USER", &config.S3RootUser)
	str("S3_ROOT_PASSWORD", &config.S3RootPassword)
	str("S3_BUCKET", &config.S3Bucket)
	str("S3_REGION", &config.S3Region)
	str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)

	if err := dur("SESSION_VALIDITY", &config.SessionValidity); err != nil {
		return err
	}
	if err := dur("BACKUP_URL_VALIDITY", &config.BackupURLValidity); err != nil {
		return err
	}
	if v, ok := os.LookupEnv(envPrefix + "BCRYPT_COST"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sBCRYPT_COST: %w", envPrefix, err)
		}
		config.BcryptCost = n
	}
	return nil
}
