package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// TextModel turns a prompt into generated text.
type TextModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client is an OpenAI-compatible chat completions client.
type Client struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	// MaxRetries is the number of extra attempts after a transport error,
	// 429 or 5xx. Zero means a single attempt.
	MaxRetries int
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type completionRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	Messages    []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// retryable marks a failed attempt that may succeed if sent again.
// after overrides the backoff when the server asked for a delay.
type retryable struct {
	err   error
	after time.Duration
}

func (r *retryable) Error() string { return r.err.Error() }
func (r *retryable) Unwrap() error { return r.err }

var waitFn = defaultWait

// defaultWait pauses between attempts and returns early when ctx ends.
func defaultWait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Generate sends prompt as a single user message and returns the first
// choice's content.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
		Messages:    []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/chat/completions"
	log := orDiscard(c.Logger)
	log.Debug("llm request", "url", endpoint, "model", c.Model, "prompt_len", len(prompt))

	retries := max(c.MaxRetries, 0)
	for attempt := 0; ; attempt++ {
		content, err := c.send(ctx, endpoint, body)
		if err == nil {
			log.Debug("llm response", "content_len", len(content))
			return content, nil
		}
		var again *retryable
		if !errors.As(err, &again) || attempt >= retries {
			return "", err
		}
		delay := backoff(attempt)
		if again.after > 0 {
			delay = again.after
		}
		log.Debug("llm retry", "attempt", attempt+1, "delay", delay, "error", again.err)
		if werr := waitFn(ctx, delay); werr != nil {
			return "", werr
		}
	}
}

func (c *Client) send(ctx context.Context, endpoint string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		return "", &retryable{err: err}
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &retryable{err: err}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", &retryable{err: statusErr(resp.StatusCode, data), after: retryAfter(resp.Header)}
	case resp.StatusCode >= 500:
		return "", &retryable{err: statusErr(resp.StatusCode, data)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", statusErr(resp.StatusCode, data)
	}

	var out completionResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", errors.New("llm response has no choices")
	}
	return out.Choices[0].Message.Content, nil
}

func statusErr(code int, body []byte) error {
	return fmt.Errorf("llm error status %d: %s", code, strings.TrimSpace(string(body)))
}

// retryAfter reads a Retry-After header given in whole seconds.
func retryAfter(h http.Header) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(h.Get("Retry-After")))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func backoff(attempt int) time.Duration {
	return time.Second << max(attempt, 0)
}
