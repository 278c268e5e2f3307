// Package report renders evaluations and link reports.
//
// Three formats are available:
//   - SimpleWriter: plain text for the terminal
//   - JSONWriter: JSON for CI jobs and other tools
//   - MarkdownWriter: Markdown for pull request comments
//
// All of them implement Writer, so commands pick one from the flags and
// never look at the concrete type again.
package report
