package model

import "slices"

// Snapshot is the editor-agnostic capture of a document at one point in
// time. It is a value: adapters build a fresh one on every capture and
// nothing mutates it afterwards.
type Snapshot struct {
	// Title is the document title as the editor currently shows it.
	Title string `json:"title"`

	// Description is the meta description or excerpt.
	Description string `json:"description"`

	// URL is the path or absolute URL of the document.
	URL string `json:"url"`

	// Content is the body as plain text, HTML already stripped.
	Content string `json:"content"`

	// HTML is the raw body markup. Link extraction reads it; the checkers
	// never do. Empty when the adapter only has plain text.
	HTML string `json:"-"`

	// Permalink is the public URL, when the adapter knows it.
	Permalink string `json:"permalink,omitempty"`
}

// Metadata is the per-document evaluation input that does not come from
// the editor surface: the focus keyword, SEO overrides of title and
// description, and the confirmed ignore list.
type Metadata struct {
	Keyword             string   `json:"keyword,omitempty"`
	TitleOverride       string   `json:"titleOverride,omitempty"`
	DescriptionOverride string   `json:"descriptionOverride,omitempty"`
	Ignored             []string `json:"ignored,omitempty"`
}

// Clone returns a deep copy so callers can keep it as "last used" state.
func (m Metadata) Clone() Metadata {
	m.Ignored = slices.Clone(m.Ignored)
	return m
}

// ResolvedTitle returns the SEO title override when set, else the
// snapshot title.
func (m Metadata) ResolvedTitle(s Snapshot) string {
	if m.TitleOverride != "" {
		return m.TitleOverride
	}
	return s.Title
}

// ResolvedDescription returns the description override when set, else the
// snapshot description.
func (m Metadata) ResolvedDescription(s Snapshot) string {
	if m.DescriptionOverride != "" {
		return m.DescriptionOverride
	}
	return s.Description
}
