// ABOUTME: Session codec and cookie binding for admin authentication
// ABOUTME: Mints signed session cookies and recovers sessions from requests

package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/solatis/trapperkeeper/internal/config"
	"github.com/solatis/trapperkeeper/internal/token"
)

const (
	// SessionCookieName is the cookie carrying the signed session token.
	SessionCookieName = "authorization"

	// SessionMaxAge is the cookie lifetime in seconds.
	SessionMaxAge = 86400

	sessionIDLength = 32
)

// ErrUnauthenticated is returned when a request carries no valid session.
// A missing cookie and a present-but-invalid cookie are indistinguishable
// to callers; the session layer treats both as "not authenticated".
var ErrUnauthenticated = errors.New("not authenticated")

// Mint builds a Session with a fresh random id and the given username, and
// signs it into a token string.
func (s *Signer) Mint(username string) (Session, string, error) {
	sess := Session{
		ID:       token.Generate(sessionIDLength),
		Username: username,
	}

	signed, err := s.Encode(sess)
	if err != nil {
		return Session{}, "", err
	}
	return sess, signed, nil
}

// Recover validates a signed session token. Any failure collapses into
// ErrUnauthenticated; callers redirect to login rather than report a fault.
func (s *Signer) Recover(tokenString string) (Session, error) {
	sess, err := s.Decode(tokenString)
	if err != nil {
		return Session{}, ErrUnauthenticated
	}
	return sess, nil
}

// SessionFromRequest extracts and verifies the session cookie from request
// headers. Handlers that need a session call this explicitly.
func SessionFromRequest(s *Signer, r *http.Request) (Session, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return Session{}, ErrUnauthenticated
	}
	return s.Recover(cookie.Value)
}

// SetSessionCookie writes the signed session token to the response. Secure
// should match the deployment's TLS policy.
func SetSessionCookie(w http.ResponseWriter, signed string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   SessionMaxAge,
		HttpOnly: true,
		Secure:   secure,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// Login is a transient credential-check input. It is never stored.
type Login struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// dummyHash is compared against when the username does not match, so that
// rejection timing does not reveal whether the username was correct.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// VerifyLogin compares login against the configured administrator
// credentials. The configured password may be a bcrypt hash, in which case
// the supplied password is verified against it; otherwise both values are
// compared in constant time.
func VerifyLogin(admin config.AdminConfig, login Login) bool {
	userOK := subtle.ConstantTimeCompare([]byte(login.Username), []byte(admin.Username)) == 1

	if isBcryptHash(admin.Password) {
		target := admin.Password
		if !userOK {
			target = dummyHash
		}
		passOK := bcrypt.CompareHashAndPassword([]byte(target), []byte(login.Password)) == nil
		return userOK && passOK
	}

	passOK := subtle.ConstantTimeCompare([]byte(login.Password), []byte(admin.Password)) == 1
	return userOK && passOK
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") ||
		strings.HasPrefix(s, "$2b$") ||
		strings.HasPrefix(s, "$2y$")
}
