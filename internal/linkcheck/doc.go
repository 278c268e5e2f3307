// Package linkcheck extracts outbound links from document content and
// verifies that they are reachable.
//
// Extraction parses the markup with golang.org/x/net/html and also picks
// up bare absolute URLs from plain text. Verification runs with a fixed
// number of workers (errgroup.SetLimit), prefers HEAD and falls back to
// GET, and remembers settled results in a Cache so a URL is fetched once
// per session unless a forced refresh is requested.
package linkcheck
