// Package aggregate turns raw checks into the categorized view and the
// compact status indicator shown to users.
//
// Categorize routes checks into buckets, honoring the ignore list.
// Summarize derives one status with the precedence
// error > warning > suggestion > success. Combine merges the summaries of
// independently evaluated groups (for example page checks and keyword
// checks) by summing their counts like-for-like.
package aggregate
