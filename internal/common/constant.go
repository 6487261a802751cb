// Package common contains shared constants and sentinel errors used across
// planner components.
package common

const (
	// AuthorizationHeaderName carries the bearer token on outbound requests.
	AuthorizationHeaderName = "Authorization"

	// BearerPrefix precedes the token in the Authorization header.
	BearerPrefix = "Bearer "

	// MinPasswordLength is enforced by both identity ledgers.
	MinPasswordLength = 6

	// MaxPasswordLength is the most bcrypt will hash, in bytes.
	MaxPasswordLength = 72
)
