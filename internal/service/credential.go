package service

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost matches the cost used when accounts register, so rehashed
// legacy passwords end up indistinguishable from fresh ones.
const bcryptCost = 12

// HashPassword hashes a plaintext password for storage.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// IsHashed reports whether a stored credential is a bcrypt hash rather
// than a legacy plaintext password.
func IsHashed(stored string) bool {
	return strings.HasPrefix(stored, "$2")
}

// VerifyCredential checks a supplied password against the stored
// credential. Stored values beginning with "$2" are treated as bcrypt
// hashes; anything else is a legacy plaintext password and is compared
// in constant time. rehash is true when the password matched via the
// plaintext path and the account should be upgraded to a bcrypt hash.
func VerifyCredential(stored, supplied string) (ok, rehash bool) {
	// An account with no stored credential can never authenticate.
	if stored == "" {
		return false, false
	}
	if IsHashed(stored) {
		err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied))
		return err == nil, false
	}
	ok = subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
	return ok, ok
}
