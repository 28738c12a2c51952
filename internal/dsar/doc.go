// Package dsar defines the run record: the single source of truth for one
// data-subject-access-request, threaded through every step of the workflow.
//
// The record is created at request submission, mutated exclusively by engine
// step functions, and becomes read-only once it reaches a terminal state
// (delivered for access requests, confirmed for erasure requests).
package dsar
