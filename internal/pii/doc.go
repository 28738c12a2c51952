// Package pii detects personal data in artifact content and derives
// redaction proposals from the findings.
//
// Detection is deterministic and side-effect free: identical input yields
// identical output on every call, which keeps it safe to run in parallel
// across artifacts.
package pii
