package linkcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nao1215/seocheck/internal/model"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// Default verifier settings.
const (
	// DefaultWorkers is the number of links verified at the same time.
	DefaultWorkers = 5

	// DefaultTimeout bounds one link verification, HEAD and GET fallback
	// included.
	DefaultTimeout = 10 * time.Second

	// DefaultUserAgent identifies the verifier to the sites it probes.
	DefaultUserAgent = "seocheck-link-verifier/1.0 (+https://github.com/nao1215/seocheck)"

	// maxDrainBytes caps how much of a GET body is read before closing,
	// so keep-alive connections can be reused.
	maxDrainBytes = 64 * 1024
)

// Verifier checks outbound links with bounded concurrency.
//
// Design decision: the worker limit is a semaphore owned by the Verifier
// rather than a per-pass errgroup limit because:
//  1. Overlapping passes (a background pass and a forced foreground pass)
//     share the same target sites
//  2. Peak reports what the whole verifier did, not one pass
type Verifier struct {
	// client performs the HEAD/GET requests.
	client *http.Client

	// workers is the maximum number of requests in flight.
	workers int

	// slots bounds requests across every pass of this verifier.
	slots *semaphore.Weighted

	// timeout bounds a single URL verification.
	timeout time.Duration

	// userAgent is the User-Agent header to use.
	userAgent string

	// cache holds settled records across passes.
	cache *Cache

	// sf collapses concurrent verifications of the same URL.
	sf singleflight.Group

	// inFlight and peak count requests currently running.
	inFlight atomic.Int64
	peak     atomic.Int64

	logger *slog.Logger
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithWorkers sets the concurrency limit. Non-positive values are ignored.
func WithWorkers(n int) Option {
	return func(v *Verifier) {
		if n > 0 {
			v.workers = n
		}
	}
}

// WithTimeout sets the per-URL timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(v *Verifier) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(v *Verifier) {
		if ua != "" {
			v.userAgent = ua
		}
	}
}

// WithCache makes the verifier share an existing cache.
func WithCache(c *Cache) Option {
	return func(v *Verifier) {
		if c != nil {
			v.cache = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Verifier) {
		v.logger = logger
	}
}

// NewVerifier creates a Verifier. A nil client means http.DefaultClient.
func NewVerifier(client *http.Client, opts ...Option) *Verifier {
	if client == nil {
		client = http.DefaultClient
	}
	v := &Verifier{
		client:    client,
		workers:   DefaultWorkers,
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(v)
	}

	v.slots = semaphore.NewWeighted(int64(v.workers))
	if v.cache == nil {
		v.cache = NewCache()
	}
	if v.logger == nil {
		v.logger = slog.Default()
	}

	return v
}

// Cache returns the verifier's result cache.
func (v *Verifier) Cache() *Cache {
	return v.cache
}

// InFlight returns the number of requests currently running.
func (v *Verifier) InFlight() int64 {
	return v.inFlight.Load()
}

// Peak returns the highest number of simultaneous requests observed.
func (v *Verifier) Peak() int64 {
	return v.peak.Load()
}

// VerifyOptions tunes one verification pass.
type VerifyOptions struct {
	// Force re-verifies URLs that already have a settled record.
	Force bool

	// Progress is called after each URL settles. Calls are serialized.
	Progress func(model.Progress)
}

// Verify checks every URL in urls and returns one record per URL, in input
// order.
//
// The set of URLs is fixed when Verify is called; links added to the
// document while a pass is running are picked up by the next pass.
// Settled records from earlier passes are reused unless opts.Force is set.
// Per-URL failures become broken records and never abort the pass.
//
// If ctx is cancelled, Verify stops dispatching, discards the results of
// requests still running and returns ctx.Err().
func (v *Verifier) Verify(ctx context.Context, urls []string, opts VerifyOptions) ([]model.LinkRecord, error) {
	urls = dedupe(urls)

	todo := make([]string, 0, len(urls))
	for _, u := range urls {
		if r, ok := v.cache.Get(u); ok && r.Settled() && !opts.Force {
			continue
		}
		todo = append(todo, u)
	}

	v.logger.Debug("verifying links",
		"total", len(urls),
		"to_verify", len(todo),
		"workers", v.workers,
		"force", opts.Force,
	)

	var (
		progressMu sync.Mutex
		current    int
	)
	total := len(todo)
	report := func() {
		if opts.Progress == nil {
			return
		}
		progressMu.Lock()
		defer progressMu.Unlock()
		current++
		opts.Progress(model.Progress{Current: current, Total: total})
	}

	if opts.Progress != nil {
		opts.Progress(model.Progress{Current: 0, Total: total})
	}

	var g errgroup.Group
	g.SetLimit(v.workers)

	for _, u := range todo {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			rec, err := v.verifyShared(ctx, u, opts.Force)
			if err != nil || ctx.Err() != nil {
				// Owner went away; do not publish a result.
				return nil
			}
			v.cache.Put(rec)
			report()
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // workers never return errors

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return v.cache.Records(urls), nil
}

// verifyShared verifies u, joining an identical verification already in
// flight from another pass.
//
// Design decision: a joined pass never adopts the outcome of a flight whose
// own pass was cancelled. The flight reports the cancellation as an error,
// and a joined pass that is still alive verifies the URL again itself.
func (v *Verifier) verifyShared(ctx context.Context, u string, force bool) (model.LinkRecord, error) {
	key := u
	if force {
		key = "force:" + u
	}
	for {
		res, err, _ := v.sf.Do(key, func() (any, error) {
			rec, err := v.verifyOne(ctx, u)
			if err != nil {
				return nil, err
			}
			return rec, nil
		})
		if err == nil {
			return res.(model.LinkRecord), nil //nolint:forcetypeassert // always a LinkRecord
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.LinkRecord{}, ctxErr
		}
		v.logger.Debug("shared link verification was cancelled, retrying", "url", u)
	}
}

// verifyOne issues HEAD, then GET when HEAD did not give a usable answer.
// It returns an error only when ctx itself is done, so no record describes
// a pass that went away.
func (v *Verifier) verifyOne(ctx context.Context, u string) (model.LinkRecord, error) {
	if err := v.slots.Acquire(ctx, 1); err != nil {
		return model.LinkRecord{}, err
	}
	defer v.slots.Release(1)

	reqCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	status, err := v.do(reqCtx, http.MethodHead, u)
	if err != nil || status >= http.StatusBadRequest {
		// Many servers reject or mishandle HEAD. Only a timeout is final,
		// since the GET would share the same deadline.
		if !isTimeout(err) {
			status, err = v.do(reqCtx, http.MethodGet, u)
		}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return model.LinkRecord{}, ctxErr
	}

	rec := model.LinkRecord{URL: u, CheckedAt: time.Now()}
	switch {
	case err != nil:
		rec.Status = model.LinkBroken
		rec.HTTPStatus = model.HTTPStatusRequestFailed
		rec.Details = failureDetails(err, v.timeout)
	case status >= http.StatusBadRequest:
		rec.Status = model.LinkBroken
		rec.HTTPStatus = status
		rec.Details = fmt.Sprintf("The server responded with HTTP %d %s.", status, http.StatusText(status))
	default:
		rec.Status = model.LinkOK
		rec.HTTPStatus = status
	}

	if rec.Status == model.LinkBroken {
		v.logger.Debug("broken link", "url", u, "http_status", rec.HTTPStatus, "details", rec.Details)
	}
	return rec, nil
}

// do performs one request and returns the response status code.
func (v *Verifier) do(ctx context.Context, method, u string) (int, error) {
	n := v.inFlight.Add(1)
	defer v.inFlight.Add(-1)
	for {
		p := v.peak.Load()
		if n <= p || v.peak.CompareAndSwap(p, n) {
			break
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", v.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")

	resp, err := v.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes)) //nolint:errcheck // best effort drain

	return resp.StatusCode, nil
}

// isTimeout reports whether err is a deadline or network timeout.
func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// failureDetails explains a request that produced no HTTP response.
func failureDetails(err error, timeout time.Duration) string {
	if isTimeout(err) {
		return fmt.Sprintf("The request timed out after %s without a response.", timeout)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "The host name could not be resolved: " + dnsErr.Name + "."
	}
	return "The request failed before the server responded: " + err.Error()
}

func dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
