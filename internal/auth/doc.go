// Package auth implements admin authentication for trapperkeeper.
//
// A Signer holds a process-lifetime HS256 key and converts Session claims
// to and from signed compact tokens. Sessions are entirely stateless: they
// are carried in the "authorization" cookie and never stored server-side,
// so they are invalidated only by cookie expiry or by the signing key
// changing (every restart in production mode).
//
// The Signer is constructed once in main and passed to whatever needs it;
// there is no package-level key state.
package auth
