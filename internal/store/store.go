// ABOUTME: Entity types and sentinel errors for trapperkeeper persistence
// ABOUTME: Defines Trapp and AuthToken structs shared by all store operations

package store

import "errors"

// ErrNotFound is returned when a requested entity does not exist. Absence
// is a normal outcome; callers branch on it rather than report a fault.
var ErrNotFound = errors.New("not found")

// ErrTrappNotFound is returned when an auth token references a trapp that
// does not exist. It surfaces from the foreign-key constraint; no separate
// existence pre-check is performed.
var ErrTrappNotFound = errors.New("trapp not found")

// ErrUnknownRuleType is returned when a stored rule carries a discriminator
// outside the defined set. This is data corruption and fails the whole
// read; rows are never silently skipped or guessed at.
var ErrUnknownRuleType = errors.New("unknown rule type")

// ErrAcquireTimeout is returned when the pool cannot hand out a connection
// within the bounded wait.
var ErrAcquireTimeout = errors.New("connection pool exhausted")

// Trapp is a tenant-owned application container. It owns zero or more auth
// tokens; deleting a trapp cascades to them.
type Trapp struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// AuthToken is an opaque bearer credential scoped to one trapp. The ID is
// the bearer value itself, a 32-character random string.
type AuthToken struct {
	ID      string `json:"id"`
	TrappID int64  `json:"trapp_id"`
	Name    string `json:"name"`
}
