// Package client talks to a When server: it submits daily results, reads
// leaderboards and follows the live leaderboard feed.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/when/internal/leaderboard"
	"github.com/lox/when/internal/server" // Reuse message types
	"github.com/lox/when/internal/statistics"
)

const requestTimeout = 10 * time.Second

// ErrUnexpectedStatus is wrapped by errors for responses the client does not
// understand.
var ErrUnexpectedStatus = errors.New("unexpected response status")

// Client is an HTTP and WebSocket client for the leaderboard API
type Client struct {
	base   *url.URL
	http   *http.Client
	dialer *websocket.Dialer
	logger *log.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for the server at serverURL
func New(serverURL string, logger *log.Logger, opts ...Option) (*Client, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be http or https", serverURL)
	}

	c := &Client{
		base:   u,
		http:   &http.Client{Timeout: requestTimeout},
		dialer: websocket.DefaultDialer,
		logger: logger.WithPrefix("client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = u.Path + path
	u.RawQuery = query.Encode()
	return u.String()
}

// Submit posts a daily result. A duplicate returns
// leaderboard.ErrAlreadySubmitted; a rejected result returns a
// *leaderboard.ValidationError.
func (c *Client) Submit(ctx context.Context, sub leaderboard.Submission) (*leaderboard.SubmitResult, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/leaderboard/submit", nil), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var res leaderboard.SubmitResult
	if err := c.do(req, &res); err != nil {
		return nil, err
	}
	c.logger.Debug("Submitted result", "date", sub.Date, "rank", res.Rank, "players", res.TotalPlayers)
	return &res, nil
}

// Leaderboard fetches a page of date's leaderboard. deviceID is optional and
// fills in the caller's own rank.
func (c *Client) Leaderboard(ctx context.Context, date, deviceID string, limit int) (*leaderboard.Board, error) {
	q := url.Values{}
	if deviceID != "" {
		q.Set("deviceId", deviceID)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/leaderboard/"+url.PathEscape(date), q), nil)
	if err != nil {
		return nil, err
	}

	var board leaderboard.Board
	if err := c.do(req, &board); err != nil {
		return nil, err
	}
	return &board, nil
}

// Stats fetches the score distribution for date.
func (c *Client) Stats(ctx context.Context, date string) (*statistics.Summary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/leaderboard/"+url.PathEscape(date)+"/stats", nil), nil)
	if err != nil {
		return nil, err
	}

	var sum statistics.Summary
	if err := c.do(req, &sum); err != nil {
		return nil, err
	}
	return &sum, nil
}

// Daily fetches the challenge description for date, or today when date is
// empty.
func (c *Client) Daily(ctx context.Context, date string) (*server.DailyResponse, error) {
	path := "/daily"
	if date != "" {
		path += "/" + url.PathEscape(date)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path, nil), nil)
	if err != nil {
		return nil, err
	}

	var resp server.DailyResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(req *http.Request, v any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == http.StatusOK {
		return json.Unmarshal(data, v)
	}

	var apiErr server.ErrorResponse
	_ = json.Unmarshal(data, &apiErr)

	switch resp.StatusCode {
	case http.StatusConflict:
		return leaderboard.ErrAlreadySubmitted
	case http.StatusBadRequest:
		if req.Method == http.MethodPost && apiErr.Error != "" {
			return &leaderboard.ValidationError{Reason: apiErr.Error}
		}
		if apiErr.Error != "" {
			return errors.New(apiErr.Error)
		}
	}
	return fmt.Errorf("%w: %s %s: %d %s", ErrUnexpectedStatus, req.Method, req.URL.Path, resp.StatusCode, apiErr.Error)
}

// Watch follows date's live leaderboard, calling fn with the snapshot and
// every update until ctx is cancelled or the connection drops.
func (c *Client) Watch(ctx context.Context, date string, fn func(*leaderboard.Board)) error {
	u := *c.base
	// Convert http/https to ws/wss
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = u.Path + "/leaderboard/" + url.PathEscape(date) + "/live"

	c.logger.Info("Connecting to live leaderboard", "url", u.String())
	conn, _, err := c.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer func() {
		stop()
		_ = conn.Close()
	}()

	for {
		var msg server.BoardMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("reading live leaderboard: %w", err)
		}
		if msg.Board == nil {
			c.logger.Debug("Ignoring message", "type", msg.Type)
			continue
		}
		fn(msg.Board)
	}
}
