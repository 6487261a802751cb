// Package config resolves runtime settings for the weekplanner CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file given with --config. Comments and trailing commas
//     are accepted.
//  3. Command-line flags and WEEKPLANNER_* environment variables, parsed by
//     kong in the cli package and passed in as Overrides.
//
// # JSON schema
//
// Durations accept strings like "15s" or integer nanoseconds:
//
//	{
//	  // where the remote entity service listens
//	  "server_url": "http://127.0.0.1:8080",
//	  "data_dir": "~/.local/share/weekplanner",
//	  "request_timeout": "15s",
//	  "debug": false
//	}
package config
