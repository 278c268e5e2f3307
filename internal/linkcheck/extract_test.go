package linkcheck

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "empty content",
			content: "",
			want:    []string{},
		},
		{
			name: "anchors in document order",
			content: `<p>See <a href="https://b.example/x">b</a> and <a href="https://a.example/">a</a>.</p>
<p><a href="https://b.example/x">again</a></p>`,
			want: []string{"https://b.example/x", "https://a.example/"},
		},
		{
			name:    "relative and non-http links are skipped",
			content: `<a href="/about">about</a><a href="mailto:me@example.com">mail</a><a href="#top">top</a><a href="javascript:void(0)">js</a><a href="ftp://files.example/">ftp</a>`,
			want:    []string{},
		},
		{
			name:    "bare urls in plain text",
			content: "Read https://docs.example/guide, then http://blog.example/post.",
			want:    []string{"https://docs.example/guide", "http://blog.example/post"},
		},
		{
			name:    "anchor text url is not duplicated",
			content: `<a href="https://a.example/">https://a.example/</a>`,
			want:    []string{"https://a.example/"},
		},
		{
			name:    "script bodies are not scanned",
			content: `<script>fetch("https://api.example/track")</script><a href="https://a.example/">a</a>`,
			want:    []string{"https://a.example/"},
		},
		{
			name:    "exact string dedupe keeps variants",
			content: `<a href="https://a.example">a</a><a href="https://a.example/">a</a>`,
			want:    []string{"https://a.example", "https://a.example/"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Extract(tt.content)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Extract mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilter(t *testing.T) {
	t.Parallel()

	urls := []string{
		"https://a.example/wp-admin/options.php",
		"https://a.example/files/report.pdf",
		"https://a.example/blog/post",
		"https://a.example",
	}

	got := Filter(urls, []string{"/wp-admin/*", "*.pdf"})
	want := []string{"https://a.example/blog/post", "https://a.example"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Filter mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(urls, Filter(urls, nil)); diff != "" {
		t.Errorf("nil patterns should keep everything:\n%s", diff)
	}
}

func TestMatchPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"/admin/*", "/admin/users", true},
		{"/admin/*", "/admin", true},
		{"/admin/*", "/administrator", false},
		{"*.pdf", "/docs/file.pdf", true},
		{"*.pdf", "/docs/file.html", false},
		{"/api/v?", "/api/v1", true},
		{"feed*", "/blog/feed.xml", true},
	}
	for _, tt := range tests {
		if got := matchPattern(tt.pattern, tt.path); got != tt.want {
			t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
		}
	}
}
