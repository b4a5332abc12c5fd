// Package client talks to a running portfolio service over HTTP and WebSocket.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/steamfolio/portfolio/internal/domain"
	"github.com/steamfolio/portfolio/internal/levelstyle"
	"github.com/steamfolio/portfolio/internal/progression"
)

// LevelReport is the body of GET /level.
type LevelReport struct {
	Sources progression.XPSources   `json:"sources"`
	Level   progression.LevelResult `json:"level"`
	Style   levelstyle.Style        `json:"style"`
}

// HTTPClient makes REST calls to the portfolio service.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a client targeting the given base URL (e.g. "http://127.0.0.1:3100").
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// WebSocketURL returns the ws:// or wss:// address of the notification stream.
func (c *HTTPClient) WebSocketURL() string {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "ws://127.0.0.1:3100/ws"
	}
	u.Scheme = "ws"
	if strings.HasPrefix(c.baseURL, "https") {
		u.Scheme = "wss"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String()
}

// Achievements fetches GET /achievements.
func (c *HTTPClient) Achievements(ctx context.Context) ([]domain.Achievement, error) {
	var out struct {
		Achievements []domain.Achievement `json:"achievements"`
	}
	if err := c.do(ctx, http.MethodGet, "/achievements", nil, &out); err != nil {
		return nil, err
	}
	return out.Achievements, nil
}

// Stats fetches GET /achievements/stats.
func (c *HTTPClient) Stats(ctx context.Context) (*domain.AchievementStats, error) {
	var s domain.AchievementStats
	if err := c.do(ctx, http.MethodGet, "/achievements/stats", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Level fetches GET /level.
func (c *HTTPClient) Level(ctx context.Context) (*LevelReport, error) {
	var r LevelReport
	if err := c.do(ctx, http.MethodGet, "/level", nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Unlock sends POST /achievements/{id}/unlock. It returns nil when the
// achievement was already unlocked.
func (c *HTTPClient) Unlock(ctx context.Context, id string) (*domain.Achievement, error) {
	var a domain.Achievement
	status, err := c.send(ctx, http.MethodPost, "/achievements/"+url.PathEscape(id)+"/unlock", nil, &a)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return nil, nil
	}
	return &a, nil
}

// Reset sends POST /achievements/reset.
func (c *HTTPClient) Reset(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/achievements/reset", nil, nil)
}

// Init sends POST /achievements/init, starting a page session, and returns
// what it unlocked.
func (c *HTTPClient) Init(ctx context.Context) ([]domain.Achievement, error) {
	var out struct {
		Unlocked []domain.Achievement `json:"unlocked"`
	}
	if err := c.do(ctx, http.MethodPost, "/achievements/init", nil, &out); err != nil {
		return nil, err
	}
	return out.Unlocked, nil
}

// Track sends POST /track/{kind} with body and returns what it unlocked.
func (c *HTTPClient) Track(ctx context.Context, kind string, body interface{}) ([]domain.Achievement, error) {
	var out struct {
		Unlocked []domain.Achievement `json:"unlocked"`
	}
	if err := c.do(ctx, http.MethodPost, "/track/"+url.PathEscape(kind), body, &out); err != nil {
		return nil, err
	}
	return out.Unlocked, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	_, err := c.send(ctx, method, path, body, out)
	return err
}

// send performs the request and decodes a JSON body into out. Service errors
// come back as *domain.AppError.
func (c *HTTPClient) send(ctx context.Context, method, path string, body, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return resp.StatusCode, decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return resp.StatusCode, nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)
	appErr := &domain.AppError{Status: resp.StatusCode}
	if err := json.Unmarshal(raw, appErr); err != nil || appErr.Code == "" {
		appErr.Code = http.StatusText(resp.StatusCode)
		appErr.Message = strings.TrimSpace(string(raw))
	}
	return appErr
}
