// Package cryptox holds the two password digests used by the planner: the
// argon2id key + sha256 verifier kept in the client's offline ledger, and the
// bcrypt hash stored by the server.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// SaltSize is the length of a freshly generated ledger salt.
const SaltSize = 32

// DeriveMasterKey stretches password with argon2id.
func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// MakeVerifier is the value stored in place of the key itself.
func MakeVerifier(masterKey []byte) []byte {
	hash := sha256.Sum256(masterKey)
	return hash[:]
}

// CheckVerifier recomputes the verifier for password and compares it with
// stored in constant time.
func CheckVerifier(password, salt, stored []byte) bool {
	candidate := MakeVerifier(DeriveMasterKey(password, salt))
	return subtle.ConstantTimeCompare(candidate, stored) == 1
}

// HashPassword returns the bcrypt hash of password and the salt portion
// embedded in it.
func HashPassword(password string, cost int) (hash string, salt string, err error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", "", err
	}
	hash = string(b)
	// $2a$10$<22 chars salt><31 chars hash>
	if len(hash) >= 29 {
		salt = hash[7:29]
	}
	return hash, salt, nil
}

// CheckPassword reports whether password matches the bcrypt hash.
func CheckPassword(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}
