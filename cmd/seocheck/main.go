// Package main provides the entry point for the seocheck CLI.
//
// seocheck evaluates the on-page SEO of a document: page structure checks,
// focus keyword checks and outbound link verification, with per-document
// ignore lists stored locally or on a WordPress REST backend.
//
// Usage:
//
//	seocheck check page.html --keyword "cold brew"
//	seocheck watch page.html --keyword "cold brew" --links
//
// See --help for all available options.
package main

func main() {
	Execute()
}
