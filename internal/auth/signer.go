// ABOUTME: HMAC signer for admin session claims using HS256 JWTs
// ABOUTME: Holds a process-lifetime key, fixed in debug mode, random otherwise

package auth

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-jwt/jwt/v5"

	"github.com/solatis/trapperkeeper/internal/token"
)

// debugSigningKey is a publicly known constant. NewSigner only uses it when
// debug mode is explicitly enabled, so that local runs and tests produce
// reproducible tokens.
const debugSigningKey = "trapperkeeper"

// signingKeyLength is the length of the generated production key.
const signingKeyLength = 32

// ErrVerificationFailed is returned when a token's signature does not match
// the process key or its payload cannot be deserialized. Verification is
// all-or-nothing; there is no partial acceptance.
var ErrVerificationFailed = errors.New("session verification failed")

// Session is a stateless admin-identity claim. It is never persisted; the
// ID exists only to make each signed payload unique.
type Session struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type sessionClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
	Username  string `json:"username"`
}

// Signer signs and verifies session claims. The key is established once at
// construction and shared by reference for the process lifetime; it must
// not be mutated after that.
type Signer struct {
	key []byte
}

// NewSigner creates a Signer. In debug mode the key is the fixed, publicly
// known debug constant. Otherwise a fresh random key is generated; it is
// never persisted, so all sessions become invalid across a restart.
func NewSigner(debug bool) *Signer {
	if debug {
		slog.Warn("debug mode enabled, using hard-coded signing key")
		return &Signer{key: []byte(debugSigningKey)}
	}
	return &Signer{key: []byte(token.Generate(signingKeyLength))}
}

// Encode serializes sess into a signed compact token. It is deterministic
// for the same key and session; failure indicates a programmer error, not
// a runtime condition.
func (s *Signer) Encode(sess Session) (string, error) {
	claims := sessionClaims{
		SessionID: sess.ID,
		Username:  sess.Username,
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("signing session claims: %w", err)
	}
	return signed, nil
}

// Decode recomputes the signature over tokenString and rejects it unless
// the signature matches the process key and the payload deserializes into
// a session claim.
func (s *Signer) Decode(tokenString string) (Session, error) {
	var claims sessionClaims
	tok, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		// Only HMAC signatures are acceptable for session tokens
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	if !tok.Valid {
		return Session{}, ErrVerificationFailed
	}

	return Session{ID: claims.SessionID, Username: claims.Username}, nil
}
