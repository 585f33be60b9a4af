// Package api is the REST client for the localfund backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultMemberTimeout = 10 * time.Second

	maxErrorBody    = 64 << 10
	maxResponseBody = 8 << 20
)

var (
	// ErrUnauthorized is matched by a 401 StatusError. The session has already
	// been cleared when it is returned.
	ErrUnauthorized = errors.New("api: unauthorized")
	// ErrNotFound is matched by a 404 StatusError.
	ErrNotFound = errors.New("api: not found")
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("request failed with status %d", e.Code)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.Code, e.Body)
}

// Is lets errors.Is match ErrUnauthorized and ErrNotFound.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Code == http.StatusUnauthorized
	case ErrNotFound:
		return e.Code == http.StatusNotFound
	}
	return false
}

// Session supplies the bearer token and forgets it on a 401.
// *session.Store satisfies it.
type Session interface {
	Token() string
	Clear() error
}

// Config configures the client.
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	MemberTimeout time.Duration
	RatePerSecond float64
	Burst         int
	Session       Session
	Logger        *zap.Logger

	// OnUnauthorized runs after a 401 cleared the session.
	OnUnauthorized func()
}

// Client talks to the backend. Member endpoints use their own, shorter timeout.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	memberClient   *http.Client
	limiter        *rate.Limiter
	session        Session
	log            *zap.Logger
	onUnauthorized func()
}

// New creates a client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	memberTimeout := cfg.MemberTimeout
	if memberTimeout <= 0 {
		memberTimeout = defaultMemberTimeout
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:     &http.Client{Timeout: timeout},
		memberClient:   &http.Client{Timeout: memberTimeout},
		limiter:        limiter,
		session:        cfg.Session,
		log:            log,
		onUnauthorized: cfg.OnUnauthorized,
	}
}

// Do sends a JSON request and decodes the response into out when out is non-nil.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	return c.doJSON(ctx, c.httpClient, method, path, query, body, out)
}

func (c *Client) doJSON(ctx context.Context, hc *http.Client, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}

	raw, err := c.send(ctx, hc, method, path, query, contentType, reader)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s %s: %w", method, path, err)
	}
	return nil
}

// send performs the request and returns the body of a 2xx response.
func (c *Client) send(ctx context.Context, hc *http.Client, method, path string, query url.Values, contentType string, body io.Reader) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.session != nil {
		if token := c.session.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.log.Warn("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		serr := &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
		c.log.Warn("request rejected",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.Duration("elapsed", time.Since(start)),
		)
		if resp.StatusCode == http.StatusUnauthorized {
			c.handleUnauthorized()
		}
		return nil, serr
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	c.log.Debug("request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)
	return data, nil
}

func (c *Client) handleUnauthorized() {
	if c.session != nil {
		if err := c.session.Clear(); err != nil {
			c.log.Error("failed to clear session after 401", zap.Error(err))
		}
	}
	c.log.Info("session expired, logged out")
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) delete(ctx context.Context, path string, query url.Values) error {
	return c.Do(ctx, http.MethodDelete, path, query, nil, nil)
}

func pageQuery(page, size int) url.Values {
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("size", fmt.Sprint(size))
	return q
}
