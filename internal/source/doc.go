// Package source provides document change sources for the recompute loop:
// an in-memory source driven by code, and a file source that re-reads an
// HTML file whenever it changes on disk.
package source
