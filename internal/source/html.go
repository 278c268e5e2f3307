package source

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/seocheck/internal/model"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// FromHTML builds a snapshot from an HTML document. pageURL becomes the
// snapshot URL; when it is empty the canonical link is used instead.
func FromHTML(r io.Reader, pageURL string) (model.Snapshot, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var (
		snap    model.Snapshot
		body    *html.Node
		ogDesc  string
		ogURL   string
		titleOK bool
	)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Title:
				if !titleOK {
					snap.Title = collapse(textOf(n))
					titleOK = true
				}
			case atom.Meta:
				content := getAttr(n, "content")
				switch {
				case strings.EqualFold(getAttr(n, "name"), "description"):
					snap.Description = collapse(content)
				case strings.EqualFold(getAttr(n, "property"), "og:description"):
					ogDesc = collapse(content)
				case strings.EqualFold(getAttr(n, "property"), "og:url"):
					ogURL = strings.TrimSpace(content)
				}
			case atom.Link:
				if hasToken(getAttr(n, "rel"), "canonical") {
					snap.Permalink = strings.TrimSpace(getAttr(n, "href"))
				}
			case atom.Body:
				body = n
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if snap.Description == "" {
		snap.Description = ogDesc
	}
	if snap.Permalink == "" {
		snap.Permalink = ogURL
	}
	snap.URL = pageURL
	if snap.URL == "" {
		snap.URL = snap.Permalink
	}

	if body != nil {
		snap.Content = collapse(visibleText(body))
		var buf bytes.Buffer
		for c := body.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(&buf, c); err != nil {
				return model.Snapshot{}, fmt.Errorf("failed to render body: %w", err)
			}
		}
		snap.HTML = buf.String()
	}

	return snap, nil
}

// FromString is FromHTML over a string.
func FromString(s, pageURL string) (model.Snapshot, error) {
	return FromHTML(strings.NewReader(s), pageURL)
}

// getAttr returns the value of the named attribute, or "".
func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func hasToken(list, token string) bool {
	for _, f := range strings.Fields(list) {
		if strings.EqualFold(f, token) {
			return true
		}
	}
	return false
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

// visibleText concatenates text nodes outside script-like elements,
// separating block boundaries with spaces.
func visibleText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode {
			sb.WriteByte(' ')
		}
	}
	walk(n)
	return sb.String()
}

// collapse trims s and folds whitespace runs into single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
