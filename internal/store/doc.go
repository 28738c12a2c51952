// Package store persists run records. Two implementations share one
// contract: an in-memory store for tests and a SQLite store for durable
// operation.
//
// Concurrency model: each run is owned by one logical workflow instance, but
// a single run may receive concurrent external calls (e.g. two simultaneous
// approval submissions). Update therefore serializes mutation per request ID
// with a keyed lock, guaranteeing the audit log is strictly append-ordered
// and gated steps fire at most once per run. Distinct runs share no mutable
// state.
package store
