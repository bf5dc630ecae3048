// Package stores provides execution history persistence for Prism.
// The SQLite implementation records workflow executions and their
// per-engine outcomes, with schema migrations embedded in the binary.
package stores
