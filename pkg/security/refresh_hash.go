package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashTokenID returns the hex SHA-256 of a refresh token's jti. Only this
// digest is persisted.
func HashTokenID(jti string) string {
	h := sha256.Sum256([]byte(jti))
	return hex.EncodeToString(h[:])
}

// TokenIDMatches compares jti against a stored digest in constant time.
func TokenIDMatches(jti, storedHash string) bool {
	provided := HashTokenID(jti)
	return subtle.ConstantTimeCompare([]byte(provided), []byte(storedHash)) == 1
}
