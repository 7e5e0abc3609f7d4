// Package web serves the trapperkeeper HTTP surface.
//
// The JSON API under /api/v1 manages trapps, their auth tokens, and
// filter rules. The admin UI under /admin is server-rendered HTML gated
// by an HMAC-signed session cookie; the unscoped auth token API routes
// share that gate since they cross trapp boundaries.
package web
