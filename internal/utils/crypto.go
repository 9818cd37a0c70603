package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// SHA256Hex is used to store refresh tokens without keeping the raw value.
func SHA256Hex(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// RandomHex returns n random bytes hex encoded.
func RandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
