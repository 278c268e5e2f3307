// Package engine wires the checkers, the aggregator, the override store and
// the link verifier into one evaluation of a document.
//
// An Evaluator turns a snapshot and its metadata into an Evaluation: the
// page check group and the keyword check group, each categorized against
// the confirmed ignore list, plus their combined summary. A Session runs an
// Evaluator inside a recompute loop and re-evaluates after every confirmed
// ignore or restore.
package engine
