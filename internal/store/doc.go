// Package store provides persistent storage for trapperkeeper using SQLite.
//
// # Architecture
//
// A Pool is a bounded set of reusable connections. Open runs all embedded
// migrations before returning, so callers can never observe a partially
// migrated schema. Every data operation is a package-level function taking
// the *sql.Conn the caller acquired; the store never acquires connections
// on its own. Acquisition happens at the call boundary, which also lets a
// caller run several operations in one transaction scope when needed.
//
// # Data models
//
//   - Trapp: tenant-owned application container
//   - AuthToken: opaque bearer credential owned by one trapp (FK-enforced,
//     ON DELETE CASCADE)
//   - Rule: polymorphic filter split across the rules parent table and one
//     type-specific child table, resolved into a closed set of variants
//     (FilterTrappRule, FilterFieldRule)
//
// # SQLite configuration
//
// The DSN carries pragma parameters applied to every physical connection:
//
//	PRAGMA foreign_keys=ON;
//	PRAGMA journal_mode=WAL;
//	PRAGMA busy_timeout=5000;
//
// # Error handling
//
//   - ErrNotFound: requested entity does not exist (a normal outcome)
//   - ErrTrappNotFound: auth token insert against a nonexistent trapp
//   - ErrUnknownRuleType: stored discriminator outside the defined set
//   - ErrAcquireTimeout: pool exhausted within the bounded wait
//
// All operations accept context.Context for cancellation.
package store
