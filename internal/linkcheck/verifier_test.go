package linkcheck

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/seocheck/internal/model"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestClient returns a client whose idle connections are closed when
// the test ends.
func newTestClient(t *testing.T) *http.Client {
	t.Helper()
	tr := &http.Transport{}
	t.Cleanup(tr.CloseIdleConnections)
	return &http.Client{Transport: tr}
}

func TestVerifyScenario(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	v := NewVerifier(newTestClient(t),
		WithTimeout(100*time.Millisecond),
		WithLogger(quietLogger()),
	)

	urls := []string{srv.URL + "/missing", srv.URL + "/slow", srv.URL + "/ok"}

	var (
		mu       sync.Mutex
		progress []model.Progress
	)
	records, err := v.Verify(context.Background(), urls, VerifyOptions{
		Progress: func(p model.Progress) {
			mu.Lock()
			progress = append(progress, p)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	if records[0].Status != model.LinkBroken || records[0].HTTPStatus != http.StatusNotFound {
		t.Errorf("expected broken 404, got %+v", records[0])
	}
	if records[1].Status != model.LinkBroken || records[1].HTTPStatus != model.HTTPStatusRequestFailed {
		t.Errorf("expected broken http_request_failed, got %+v", records[1])
	}
	if records[1].Details == "" {
		t.Error("expected details for timed out link")
	}
	if records[2].Status != model.LinkOK {
		t.Errorf("expected ok, got %+v", records[2])
	}

	last := progress[len(progress)-1]
	if last.Current != 3 || last.Total != 3 {
		t.Errorf("expected final progress 3/3, got %+v", last)
	}
	for i := 1; i < len(progress); i++ {
		if progress[i].Current != progress[i-1].Current+1 {
			t.Errorf("progress must increase by one per settled url: %+v", progress)
			break
		}
	}
}

func TestVerifyConcurrencyBound(t *testing.T) {
	t.Parallel()

	const workers = 3
	var (
		inFlight atomic.Int32
		peak     atomic.Int32
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	urls := make([]string, 0, 12)
	for i := range 12 {
		urls = append(urls, srv.URL+"/page/"+string(rune('a'+i)))
	}

	v := NewVerifier(newTestClient(t), WithWorkers(workers), WithLogger(quietLogger()))
	if _, err := v.Verify(context.Background(), urls, VerifyOptions{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := peak.Load(); got > workers {
		t.Errorf("expected at most %d requests in flight, observed %d", workers, got)
	}
	if got := v.Peak(); got > workers {
		t.Errorf("verifier reported peak %d above limit %d", got, workers)
	}
}

func TestVerifyCache(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	v := NewVerifier(newTestClient(t), WithLogger(quietLogger()))
	urls := []string{srv.URL + "/a"}

	t.Run("second pass is served from cache", func(t *testing.T) {
		for range 2 {
			if _, err := v.Verify(context.Background(), urls, VerifyOptions{}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if hits.Load() != 1 {
			t.Errorf("expected exactly 1 request, got %d", hits.Load())
		}
	})

	t.Run("force refresh re-verifies", func(t *testing.T) {
		if _, err := v.Verify(context.Background(), urls, VerifyOptions{Force: true}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if hits.Load() != 2 {
			t.Errorf("expected 2 requests after force, got %d", hits.Load())
		}
	})

	t.Run("invalidate re-verifies", func(t *testing.T) {
		v.Cache().Invalidate(urls...)
		if _, err := v.Verify(context.Background(), urls, VerifyOptions{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if hits.Load() != 3 {
			t.Errorf("expected 3 requests after invalidate, got %d", hits.Load())
		}
	})

	t.Run("duplicate urls in one pass are fetched once", func(t *testing.T) {
		v.Cache().Clear()
		records, err := v.Verify(context.Background(), []string{srv.URL + "/b", srv.URL + "/b"}, VerifyOptions{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 1 {
			t.Errorf("expected 1 record, got %d", len(records))
		}
		if hits.Load() != 4 {
			t.Errorf("expected 4 requests, got %d", hits.Load())
		}
	})
}

func TestVerifyHeadFallback(t *testing.T) {
	t.Parallel()

	var methods sync.Map
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods.Store(r.Method, true)
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	v := NewVerifier(newTestClient(t), WithLogger(quietLogger()))
	records, err := v.Verify(context.Background(), []string{srv.URL}, VerifyOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if records[0].Status != model.LinkOK {
		t.Errorf("expected GET fallback to succeed, got %+v", records[0])
	}
	if _, ok := methods.Load(http.MethodGet); !ok {
		t.Error("expected a GET request")
	}
}

func TestVerifyCancelled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	v := NewVerifier(newTestClient(t), WithLogger(quietLogger()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records, err := v.Verify(ctx, []string{srv.URL + "/a"}, VerifyOptions{})
	if err == nil {
		t.Fatal("expected context error")
	}
	if records != nil {
		t.Errorf("expected no records, got %+v", records)
	}
	if v.Cache().Len() != 0 {
		t.Error("results of a cancelled pass must not be cached")
	}
}

func TestVerifyConcurrencyBoundAcrossPasses(t *testing.T) {
	t.Parallel()

	const workers = 2
	var (
		inFlight atomic.Int32
		peak     atomic.Int32
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	v := NewVerifier(newTestClient(t), WithWorkers(workers), WithLogger(quietLogger()))

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, pass := range []string{"first", "second"} {
		urls := make([]string, 0, 6)
		for i := range 6 {
			urls = append(urls, srv.URL+"/"+pass+"/"+string(rune('a'+i)))
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := v.Verify(context.Background(), urls, VerifyOptions{})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := peak.Load(); got > workers {
		t.Errorf("expected at most %d requests in flight across passes, observed %d", workers, got)
	}
	if got := v.Peak(); got > workers {
		t.Errorf("verifier reported peak %d above limit %d", got, workers)
	}
}

func TestVerifyJoinedPassSurvivesCancellation(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			close(started)
			<-r.Context().Done()
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	v := NewVerifier(newTestClient(t), WithLogger(quietLogger()))
	urls := []string{srv.URL + "/slow"}

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	errA := make(chan error, 1)
	go func() {
		_, err := v.Verify(ctxA, urls, VerifyOptions{})
		errA <- err
	}()
	<-started

	type outcome struct {
		records []model.LinkRecord
		err     error
	}
	resB := make(chan outcome, 1)
	go func() {
		records, err := v.Verify(context.Background(), urls, VerifyOptions{})
		resB <- outcome{records, err}
	}()

	// Give the second pass time to join the verification in flight.
	time.Sleep(50 * time.Millisecond)
	cancelA()

	if err := <-errA; !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancelled pass to return context.Canceled, got %v", err)
	}

	b := <-resB
	if b.err != nil {
		t.Fatalf("joined pass: unexpected error: %v", b.err)
	}
	if len(b.records) != 1 || b.records[0].Status != model.LinkOK {
		t.Fatalf("joined pass must verify the link itself, got %+v", b.records)
	}

	again, err := v.Verify(context.Background(), urls, VerifyOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again[0].Status != model.LinkOK {
		t.Errorf("expected cached ok record, got %+v", again[0])
	}
}

func TestCacheRecords(t *testing.T) {
	t.Parallel()

	c := NewCache()
	c.Put(model.LinkRecord{URL: "https://a.example", Status: model.LinkOK})

	got := c.Records([]string{"https://a.example", "https://b.example"})
	if got[0].Status != model.LinkOK {
		t.Errorf("expected cached ok record, got %+v", got[0])
	}
	if got[1].Status != model.LinkPending {
		t.Errorf("expected pending for unknown url, got %+v", got[1])
	}
}
