// Package httpapi is the single transport every domain service goes
// through: base URL, JSON content negotiation, request timeout, bearer
// injection and the global 401 handler live here and nowhere else.
package httpapi

import (
	"bytes"
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

	"github.com/mbertrand/plume/internal/apierror"
	"github.com/mbertrand/plume/internal/session"
	"github.com/mbertrand/plume/pkg/logging"
)

const DefaultTimeout = 20 * time.Second

type Config struct {
	BaseURL string
	Timeout time.Duration
	Store   session.Store

	// OnSessionExpired runs after a 401 cleared the store. The hosting
	// application decides what "go to login" means; the pipeline does not.
	OnSessionExpired func()
}

type Client struct {
	baseURL          string
	httpClient       *http.Client
	store            session.Store
	onSessionExpired func()
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		store:            cfg.Store,
		onSessionExpired: cfg.OnSessionExpired,
	}
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, nil, body, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// errorBody is the backend's structured failure shape.
type errorBody struct {
	Message          string                `json:"message"`
	ValidationErrors []apierror.FieldError `json:"validationErrors"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	l := logging.FromContext(ctx).With("method", method, "path", path)

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s := c.store.Session(); s != nil && s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			l.Warn("request timed out")
			return apierror.Timeout()
		}
		l.Warn("request failed", "error", err)
		return apierror.Transport(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return c.sessionExpired(l, resp)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiFailure(l, resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// sessionExpired runs the global authorization-failure path: clear the
// store, notify the host, and surface ErrUnauthorized. No service or
// controller observes a 401 as an ordinary error.
func (c *Client) sessionExpired(l *slog.Logger, resp *http.Response) error {
	l.Warn("session expired", "status", resp.StatusCode)

	c.store.Clear()
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}

	msg := "session expired"
	var eb errorBody
	if err := json.NewDecoder(resp.Body).Decode(&eb); err == nil && eb.Message != "" {
		msg = eb.Message
	}
	return &apierror.Error{
		Err:     apierror.ErrUnauthorized,
		Status:  resp.StatusCode,
		Message: msg,
	}
}

func apiFailure(l *slog.Logger, resp *http.Response) error {
	var eb errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err := json.Unmarshal(raw, &eb); err != nil || eb.Message == "" {
		eb.Message = http.StatusText(resp.StatusCode)
	}

	l.Warn("request rejected", "status", resp.StatusCode, "message", eb.Message)
	return &apierror.Error{
		Err:              apierror.FromStatus(resp.StatusCode),
		Status:           resp.StatusCode,
		Message:          eb.Message,
		ValidationErrors: eb.ValidationErrors,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne interface{ Timeout() bool }
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}
