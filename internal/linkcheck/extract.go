package linkcheck

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// bareURLRegex finds absolute URLs written as plain text.
// Trailing punctuation is trimmed separately.
var bareURLRegex = regexp.MustCompile(`https?://[^\s"'<>()\[\]{}]+`)

// Extract returns every absolute http(s) URL referenced as a link target in
// content, de-duplicated by exact string and in document order.
//
// content may be HTML or plain text containing anchors. Anchor hrefs come
// first in document order, followed by bare URLs found in text nodes.
// Relative hrefs are ignored: only absolute targets can be verified.
func Extract(content string) []string {
	if strings.TrimSpace(content) == "" {
		return []string{}
	}

	seen := make(map[string]bool)
	links := make([]string, 0)
	add := func(raw string) {
		u, ok := normalize(raw)
		if !ok || seen[u] {
			return
		}
		seen[u] = true
		links = append(links, u)
	}

	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		// html.Parse only fails on reader errors; fall back to text scanning.
		for _, m := range bareURLRegex.FindAllString(content, -1) {
			add(trimTrailingPunct(m))
		}
		return links
	}

	var text []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if n.Data == "a" {
				add(getAttr(n, "href"))
			}
			if n.Data == "script" || n.Data == "style" {
				return
			}
		case html.TextNode:
			text = append(text, n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	for _, t := range text {
		for _, m := range bareURLRegex.FindAllString(t, -1) {
			add(trimTrailingPunct(m))
		}
	}

	return links
}

// normalize keeps only absolute http(s) URLs with a host.
func normalize(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", false
	}
	return raw, true
}

func trimTrailingPunct(s string) string {
	return strings.TrimRight(s, ".,;:!?")
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// Filter drops URLs whose path matches any of the glob patterns.
// Patterns use the same syntax as the site configuration
// (e.g. "/wp-admin/*", "*.pdf").
func Filter(urls []string, patterns []string) []string {
	if len(patterns) == 0 {
		return urls
	}
	kept := make([]string, 0, len(urls))
	for _, raw := range urls {
		u, err := url.Parse(raw)
		if err != nil {
			continue
		}
		path := u.Path
		if path == "" {
			path = "/"
		}
		skip := false
		for _, p := range patterns {
			if matchPattern(p, path) {
				skip = true
				break
			}
		}
		if !skip {
			kept = append(kept, raw)
		}
	}
	return kept
}

// matchPattern checks if a path matches a glob pattern.
//   - "/admin/*" matches "/admin" and everything below it
//   - "*.pdf" matches any path ending in .pdf
//   - anything else goes through filepath.Match, then against the base name
func matchPattern(pattern, path string) bool {
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}

	if strings.HasPrefix(pattern, "*.") && strings.HasSuffix(path, strings.TrimPrefix(pattern, "*")) {
		return true
	}

	if matched, err := filepath.Match(pattern, path); err == nil && matched {
		return true
	}

	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		if matched, err := filepath.Match(pattern, filepath.Base(path)); err == nil && matched {
			return true
		}
	}

	return false
}
