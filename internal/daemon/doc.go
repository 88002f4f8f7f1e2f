// Package daemon coordinates the long-running liner process.
//
// It wires configuration, the catalog store, and the publish runner into a
// single lifecycle with flock-based locking to prevent multiple instances,
// and drives the fixed-interval scheduler that triggers digest runs. Keep
// orchestration logic here: run semantics live in the publish package while
// the daemon focuses on startup, shutdown, and scheduling.
package daemon
