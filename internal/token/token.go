// ABOUTME: Cryptographically random alphanumeric token generation
// ABOUTME: Used for auth token identifiers, session ids, and signing keys

package token

import (
	"crypto/rand"
	"fmt"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// maxByte is the largest multiple of len(alphabet) below 256. Bytes at or
// above it are rejected so every character is drawn uniformly.
const maxByte = 248

// Generate returns a random string of exactly n alphanumeric characters.
// It is safe for concurrent use. If the entropy source fails, tokens cannot
// be minted safely at any weaker strength, so Generate panics rather than
// returning an error.
func Generate(n int) string {
	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			panic(fmt.Sprintf("token: entropy source failed: %v", err))
		}
		for _, b := range buf {
			if b >= maxByte {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out)
}
