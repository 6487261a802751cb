package config

import (
	"flag"
	"fmt"

	"github.com/dmitrijs2005/weekplanner/internal/flagx"
)

// serverFlags are the short flags parseFlags owns:
//
//	-a string    HTTP bind address (e.g., ":8080")
//	-d string    PostgreSQL DSN
//	-s string    token HMAC secret key
//	-t duration  session validity (e.g., "168h")
//	-k int       bcrypt cost
//	-u string    S3 root user
//	-p string    S3 root password
//	-b string    S3 bucket name
//	-g string    S3 region
//	-e string    S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-x duration  presigned backup URL validity
var serverFlags = []string{"-a", "-d", "-s", "-t", "-k", "-u", "-p", "-b", "-g", "-e", "-x"}

// parseFlags overlays config with the flags above. Everything else in args,
// -c and -env-file included, is filtered out first.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("weekplanner-server", flag.ContinueOnError)

	fs.StringVar(&config.ListenAddr, "a", config.ListenAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.DurationVar(&config.SessionValidity, "t", config.SessionValidity, "session validity")
	fs.IntVar(&config.BcryptCost, "k", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.DurationVar(&config.BackupURLValidity, "x", config.BackupURLValidity, "backup URL validity")

	if err := fs.Parse(flagx.FilterArgs(args, serverFlags)); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}
