// Package database provides SQLite-based storage for seocheck.
//
// The CheckDB stores:
//   - Ignore lists per post or taxonomy term, so the override store can run
//     without a CMS backend
//   - Evaluation history for the history command
//   - Settled link verification records, reused across runs
//
// SQLite is provided by modernc.org/sqlite, which is CGO-free. The database
// is a single file opened with one connection in WAL mode.
package database
