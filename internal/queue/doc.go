// Package queue provides a FIFO executor that runs expensive per-item work
// one task at a time.
//
// It is used wherever many independent async units (verifying links row by
// row, rendering report rows) must not run concurrently. Effective
// concurrency is always 1; the queue is unbounded and has no priorities.
package queue
