package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/nao1215/seocheck/internal/checker"
	"github.com/nao1215/seocheck/internal/model"
)

// linkServer answers 200 on /ok and 404 everywhere else, counting
// requests.
type linkServer struct {
	*httptest.Server
	hits atomic.Int64
}

func newLinkServer(t *testing.T) *linkServer {
	t.Helper()
	s := &linkServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		if r.URL.Path == "/ok" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

// linkedPage returns coffeePage with one working and one broken link.
func (s *linkServer) linkedPage() string {
	body := fmt.Sprintf(`<p>I love coffee beans. <a href="%[1]s/ok">Roasters</a> and <a href="%[1]s/missing">Old shop</a></p>`, s.URL)
	return strings.Replace(coffeePage, "<p>I love coffee beans.</p>", body, 1)
}

func decodeLinks(t *testing.T, out string) []model.LinkRecord {
	t.Helper()
	var records []model.LinkRecord
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("failed to decode link report: %v\n%s", err, out)
	}
	return records
}

func statusByURL(records []model.LinkRecord) map[string]model.LinkStatus {
	m := make(map[string]model.LinkStatus, len(records))
	for _, r := range records {
		m[r.URL] = r.Status
	}
	return m
}

func TestNewLinksCmd(t *testing.T) {
	t.Parallel()

	cmd := NewLinksCmd()

	if cmd.Use != "links <file.html>" {
		t.Errorf("unexpected Use: got %q", cmd.Use)
	}
	for _, name := range []string{"url", "config", "db-dir", "no-db", "workers", "link-timeout", "link-cache-ttl", "exclude", "json", "markdown", "output", "force", "strict"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected flag %q to exist", name)
		}
	}
	if cmd.Flags().Lookup("keyword") != nil {
		t.Error("links does not evaluate keywords")
	}
}

func TestRunLinksCmd(t *testing.T) {
	t.Parallel()

	t.Run("reports working and broken links", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		srv := newLinkServer(t)
		page := writeFile(t, env.dir, "page.html", srv.linkedPage())

		stdout, stderr, err := runRoot(t, env.args("links", page, "--json")...)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		records := decodeLinks(t, stdout)
		if len(records) != 2 {
			t.Fatalf("expected 2 links, got %d: %v", len(records), records)
		}
		got := statusByURL(records)
		if got[srv.URL+"/ok"] != model.LinkOK {
			t.Errorf("expected /ok to be ok, got %q", got[srv.URL+"/ok"])
		}
		if got[srv.URL+"/missing"] != model.LinkBroken {
			t.Errorf("expected /missing to be broken, got %q", got[srv.URL+"/missing"])
		}
		if !strings.Contains(stderr, "Verifying links 2/2") {
			t.Errorf("expected progress on stderr, got %q", stderr)
		}
	})

	t.Run("strict fails on broken links", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		srv := newLinkServer(t)
		page := writeFile(t, env.dir, "page.html", srv.linkedPage())

		stdout, _, err := runRoot(t, env.args("links", page, "--strict")...)
		if !errors.Is(err, errBrokenLinks) {
			t.Errorf("expected errBrokenLinks, got %v", err)
		}
		if !strings.Contains(stdout, "1 ok, 1 broken, 0 pending") {
			t.Errorf("expected link totals in the report, got:\n%s", stdout)
		}
	})

	t.Run("exclude patterns skip links", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		srv := newLinkServer(t)
		page := writeFile(t, env.dir, "page.html", srv.linkedPage())

		stdout, _, err := runRoot(t, env.args("links", page, "--json", "--strict", "--exclude", "/missing")...)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		records := decodeLinks(t, stdout)
		if len(records) != 1 || records[0].URL != srv.URL+"/ok" {
			t.Errorf("expected only /ok, got %v", records)
		}
	})

	t.Run("stored results are reused until forced", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		srv := newLinkServer(t)
		page := writeFile(t, env.dir, "page.html", srv.linkedPage())

		if _, _, err := runRoot(t, env.args("links", page)...); err != nil {
			t.Fatalf("first run: %v", err)
		}
		first := srv.hits.Load()
		if first == 0 {
			t.Fatal("expected the first run to reach the server")
		}

		stdout, _, err := runRoot(t, env.args("links", page, "--json")...)
		if err != nil {
			t.Fatalf("second run: %v", err)
		}
		if got := srv.hits.Load(); got != first {
			t.Errorf("expected stored results to be reused, server hits went from %d to %d", first, got)
		}
		if got := statusByURL(decodeLinks(t, stdout)); got[srv.URL+"/missing"] != model.LinkBroken {
			t.Errorf("expected the stored broken record, got %v", got)
		}

		if _, _, err := runRoot(t, env.args("links", page, "--force")...); err != nil {
			t.Fatalf("forced run: %v", err)
		}
		if got := srv.hits.Load(); got <= first {
			t.Errorf("expected --force to verify again, server hits stayed at %d", got)
		}
	})

	t.Run("zero cache TTL verifies again", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		srv := newLinkServer(t)
		page := writeFile(t, env.dir, "page.html", srv.linkedPage())

		if _, _, err := runRoot(t, env.args("links", page)...); err != nil {
			t.Fatalf("first run: %v", err)
		}
		first := srv.hits.Load()

		if _, _, err := runRoot(t, env.args("links", page, "--link-cache-ttl", "0")...); err != nil {
			t.Fatalf("second run: %v", err)
		}
		if got := srv.hits.Load(); got <= first {
			t.Errorf("expected links to be verified again, server hits stayed at %d", got)
		}
	})
}

func TestRunCheckCmdWithLinks(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	srv := newLinkServer(t)
	page := writeFile(t, env.dir, "page.html", srv.linkedPage())

	stdout, _, err := runRoot(t, env.args("check", page, "-k", "coffee beans", "--links", "--json")...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ev := decodeJSONReport(t, stdout).Evaluation
	if len(ev.Links) != 2 {
		t.Fatalf("expected 2 link records, got %v", ev.Links)
	}
	if ids := checkIDs(ev.Page.Bad); len(ids) != 1 || ids[0] != checker.RuleBrokenLinks {
		t.Errorf("expected %s to be bad, got %v", checker.RuleBrokenLinks, ids)
	}
	if got := ev.Summary.StatusOrEmpty(); got != model.StatusError {
		t.Errorf("expected overall status error, got %q", got)
	}
}
