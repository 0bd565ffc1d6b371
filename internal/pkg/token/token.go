// Package token implements the opaque confirmation tokens that bind a
// pending booking to its opt-in email link.
package token

import (
	"crypto/rand"
	"encoding/hex"
)

// Tokens are 32 bytes of CSPRNG output, hex-encoded. Generated once at
// booking creation, never regenerated.
const (
	rawLen     = 32
	EncodedLen = rawLen * 2
)

func Generate() (string, error) {
	buf := make([]byte, rawLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// ValidFormat checks length and charset before any lookup, so malformed
// input never reaches the data layer.
func ValidFormat(t string) bool {
	if len(t) != EncodedLen {
		return false
	}
	_, err := hex.DecodeString(t)
	return err == nil
}
