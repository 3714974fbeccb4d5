package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yourorg/wandermate/internal/redact"
)

// ErrNotConfigured is returned by clients whose API key is missing.
var ErrNotConfigured = errors.New("upstream not configured")

// StatusError is a non-success HTTP response.
type StatusError struct {
	Service string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s error status %d: %s", e.Service, e.Code, e.Body)
}

// NewHTTPClient returns the client shared by all upstream calls.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

type caller struct {
	service string
	http    *http.Client
	logger  *slog.Logger
}

func newCaller(service string, c *http.Client, logger *slog.Logger) caller {
	if c == nil {
		c = NewHTTPClient(0)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return caller{service: service, http: c, logger: logger}
}

func (c caller) getJSON(ctx context.Context, endpoint string, params url.Values, header http.Header, out interface{}) error {
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return c.do(req, out)
}

func (c caller) postForm(ctx context.Context, endpoint string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

func (c caller) do(req *http.Request, out interface{}) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", c.service, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s read body: %w", c.service, err)
	}
	c.logger.Debug("upstream call", "service", c.service, "method", req.Method,
		"url", redact.Default.URL(req.URL.String()), "status", resp.StatusCode, "elapsed", time.Since(start))
	if resp.StatusCode != http.StatusOK {
		return &StatusError{Service: c.service, Code: resp.StatusCode, Body: truncate(strings.TrimSpace(string(data)), 300)}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s decode: %w", c.service, err)
	}
	return nil
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}

// truncate shortens s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
