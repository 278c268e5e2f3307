package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/seocheck/internal/model"
)

const (
	// DefaultTimeout bounds a single backend request.
	DefaultTimeout = 30 * time.Second

	ignorePath   = "checks/ignore-page-check"
	pagePath     = "checks/page"
	taxonomyPath = "checks/taxonomy"

	nonceHeader = "X-WP-Nonce"

	// maxBodySize caps how much of a response is read.
	maxBodySize = 4 << 20
)

// Client talks to the checks REST API.
type Client struct {
	base       *url.URL
	httpClient *http.Client
	nonce      string
	username   string
	password   string
	userAgent  string
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithNonce sends nonce in the X-WP-Nonce header.
func WithNonce(nonce string) Option {
	return func(cl *Client) {
		cl.nonce = nonce
	}
}

// WithBasicAuth authenticates with an application password.
func WithBasicAuth(username, password string) Option {
	return func(cl *Client) {
		cl.username = username
		cl.password = password
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(cl *Client) {
		cl.userAgent = ua
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// NewClient creates a client rooted at baseURL, for example
// https://example.com/wp-json/surerank/v1.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	c := &Client{
		base:      u,
		userAgent: "seocheck",
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

type ignoreRequest struct {
	PostID    int64  `json:"post_id"`
	ID        string `json:"id"`
	CheckType string `json:"check_type"`
}

type ignoreResponse struct {
	Status string   `json:"status"`
	Checks []string `json:"checks"`
}

// IgnoredChecks fetches the ignore list of key.
func (c *Client) IgnoredChecks(ctx context.Context, key model.EntityKey) ([]string, error) {
	q := url.Values{}
	q.Set("post_id", strconv.FormatInt(key.ID, 10))
	q.Set("check_type", string(key.Type))

	var resp ignoreResponse
	if err := c.do(ctx, http.MethodGet, ignorePath, q, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Checks == nil {
		return []string{}, nil
	}
	return resp.Checks, nil
}

// IgnoreCheck adds checkID to the ignore list of key and returns the
// updated list.
func (c *Client) IgnoreCheck(ctx context.Context, key model.EntityKey, checkID string) ([]string, error) {
	return c.mutate(ctx, http.MethodPost, key, checkID)
}

// RestoreCheck removes checkID from the ignore list of key and returns
// the updated list.
func (c *Client) RestoreCheck(ctx context.Context, key model.EntityKey, checkID string) ([]string, error) {
	return c.mutate(ctx, http.MethodDelete, key, checkID)
}

func (c *Client) mutate(ctx context.Context, method string, key model.EntityKey, checkID string) ([]string, error) {
	body := ignoreRequest{PostID: key.ID, ID: checkID, CheckType: string(key.Type)}

	var resp ignoreResponse
	if err := c.do(ctx, method, ignorePath, nil, body, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "" && resp.Status != "success" {
		return nil, fmt.Errorf("%w: status %q", ErrUnexpectedResponse, resp.Status)
	}
	if resp.Checks != nil {
		return resp.Checks, nil
	}

	// Older endpoints only answer {status: success}; read the list back.
	c.logger.Debug("ignore response carried no list, refetching", "entity", key.String())
	return c.IgnoredChecks(ctx, key)
}

type pageCheck struct {
	Message     string `json:"message"`
	Description any    `json:"description"`
	Status      string `json:"status"`
}

type pageChecksResponse struct {
	Status string               `json:"status"`
	Checks map[string]pageCheck `json:"checks"`
}

// PageChecks fetches the server-computed checks of a post or taxonomy
// term. Entries with an unknown status are logged and skipped. The result
// is ordered by check id.
func (c *Client) PageChecks(ctx context.Context, key model.EntityKey) ([]model.Check, error) {
	q := url.Values{}
	path := pagePath
	switch key.Type {
	case model.EntityTaxonomy:
		path = taxonomyPath
		q.Set("term_id", strconv.FormatInt(key.ID, 10))
	case model.EntityPost:
		q.Set("post_id", strconv.FormatInt(key.ID, 10))
	default:
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownEntityType, key.Type)
	}

	var resp pageChecksResponse
	if err := c.do(ctx, http.MethodGet, path, q, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "success" {
		return nil, fmt.Errorf("%w: status %q", ErrUnexpectedResponse, resp.Status)
	}

	ids := make([]string, 0, len(resp.Checks))
	for id := range resp.Checks {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	checks := make([]model.Check, 0, len(ids))
	for _, id := range ids {
		pc := resp.Checks[id]
		status, err := model.ParseStatus(pc.Status)
		if err != nil {
			c.logger.Warn("skipping server check", "id", id, "error", err)
			continue
		}
		check, err := model.NewCheck(id, pc.Message, status)
		if err != nil {
			c.logger.Warn("skipping server check", "id", id, "error", err)
			continue
		}
		check.Description = describe(pc.Description)
		checks = append(checks, check)
	}
	return checks, nil
}

// describe flattens a description that may be a string or a list of strings.
func describe(v any) string {
	switch d := v.(type) {
	case string:
		return d
	case []any:
		parts := make([]string, 0, len(d))
		for _, p := range d {
			if s, ok := p.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	default:
		return ""
	}
}

type wpError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.base.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.nonce != "" {
		req.Header.Set(nonceHeader, c.nonce)
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	c.logger.Debug("backend request", "method", method, "url", u.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var wp wpError
		if json.Unmarshal(data, &wp) == nil && wp.Message != "" {
			apiErr.Code = wp.Code
			apiErr.Message = wp.Message
		}
		return apiErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %w", ErrUnexpectedResponse, err)
	}
	return nil
}
