// Package recompute keeps a derived evaluation in sync with a document that
// is being edited.
//
// A Loop subscribes to a Source's change signal and debounces it. When the
// debounce window elapses it captures a snapshot and the current metadata
// and compares both with what the last successful evaluation used. Only a
// material difference runs the evaluation again. Results are published
// wholesale.
//
//	Idle --Start--> Watching --signal--> Debouncing --fire--> Watching
//	  ^                |                      |
//	  +------Stop------+----------Stop--------+
package recompute
