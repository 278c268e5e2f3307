// Package checker implements the content rules of the SEO check engine.
//
// Every rule is a pure function from resolved document fields to exactly
// one model.Check. Rules never return errors: missing input degrades to a
// suggestion or warning check, and Run converts a panicking rule into a
// warning so one bad rule can not blank the whole report.
package checker
