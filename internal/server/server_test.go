package server

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/when/internal/daily"
	"github.com/lox/when/internal/event"
	"github.com/lox/when/internal/leaderboard"
	"github.com/lox/when/internal/statistics"
)

const today = "2026-10-18" // theme: Infrastructure

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

type testEnv struct {
	srv *Server
	mr  *miniredis.Miniredis
}

func newTestServer(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clock := quartz.NewMock(t)
	clock.Set(time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC))
	svc := leaderboard.NewService(leaderboard.NewRedisStore(client), testLogger(), leaderboard.WithClock(clock))

	srv := NewServer("127.0.0.1:0", svc, testLogger(), opts...)
	t.Cleanup(srv.Hub().Close)
	return &testEnv{srv: srv, mr: mr}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func submission(device string) leaderboard.Submission {
	return leaderboard.Submission{
		Date:          today,
		DisplayName:   "Ada",
		CorrectCount:  5,
		TotalAttempts: 6,
		EmojiGrid:     "🟩🟩🟥🟩🟩🟩",
		DeviceID:      device,
		Theme:         "Infrastructure",
	}
}

func TestServerHealth(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)

	w := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, HealthResponse{Status: "ok", Store: "ok"}, decode[HealthResponse](t, w))

	env.mr.Close()
	w = env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "error", decode[HealthResponse](t, w).Store)
}

func TestLeaderboardSeedsBots(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)

	w := env.do(t, http.MethodGet, "/leaderboard/"+today, nil)
	require.Equal(t, http.StatusOK, w.Code)

	bots, err := leaderboard.GenerateBots(today)
	require.NoError(t, err)

	board := decode[leaderboard.Board](t, w)
	assert.Equal(t, today, board.Date)
	assert.Equal(t, int64(len(bots)), board.TotalPlayers)
	assert.Len(t, board.Leaderboard, len(bots))
	assert.Nil(t, board.PlayerRank)
	assert.NotContains(t, w.Body.String(), "deviceId", "device ids must not leak")
}

func TestLeaderboardLimit(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)

	w := env.do(t, http.MethodGet, "/leaderboard/"+today+"?limit=3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	board := decode[leaderboard.Board](t, w)
	assert.Len(t, board.Leaderboard, 3)
	for i, e := range board.Leaderboard {
		assert.Equal(t, i+1, e.Rank)
	}
}

func TestLeaderboardRejectsBadDate(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)

	for _, path := range []string{"/leaderboard/yesterday", "/leaderboard/2026-13-01", "/daily/20261018", "/leaderboard/2026-02-30/stats"} {
		w := env.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.Equal(t, "Invalid date format", decode[ErrorResponse](t, w).Error, path)
	}
}

func TestStats(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)

	w := env.do(t, http.MethodPost, "/leaderboard/submit", submission("device-stats"))
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/leaderboard/"+today+"/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	sum := decode[statistics.Summary](t, w)

	bots, err := leaderboard.GenerateBots(today)
	require.NoError(t, err)
	assert.Equal(t, len(bots)+1, sum.Players)
	assert.Equal(t, len(bots), sum.Bots)
	assert.Len(t, sum.Mistakes, statistics.MaxMistakes+1)
}

func TestSubmit(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)

	w := env.do(t, http.MethodPost, "/leaderboard/submit", submission("device-1"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[leaderboard.SubmitResult](t, w)
	assert.True(t, res.Success)
	assert.Positive(t, res.Rank)

	w = env.do(t, http.MethodGet, "/leaderboard/"+today+"?deviceId=device-1&limit=100", nil)
	require.Equal(t, http.StatusOK, w.Code)
	board := decode[leaderboard.Board](t, w)
	require.NotNil(t, board.PlayerRank)
	require.NotNil(t, board.PlayerEntry)
	assert.Equal(t, int(res.Rank), *board.PlayerRank)
	assert.Equal(t, "Ada", board.PlayerEntry.DisplayName)
	assert.Equal(t, res.TotalPlayers, board.TotalPlayers)
}

func TestSubmitDuplicate(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)

	w := env.do(t, http.MethodPost, "/leaderboard/submit", submission("device-1"))
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/leaderboard/submit", submission("device-1"))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Already submitted today", decode[ErrorResponse](t, w).Error)
}

func TestSubmitInvalid(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)

	sub := submission("device-1")
	sub.Date = "2026-10-17"
	w := env.do(t, http.MethodPost, "/leaderboard/submit", sub)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid date - must be today", decode[ErrorResponse](t, w).Error)

	req := httptest.NewRequest(http.MethodPost, "/leaderboard/submit", strings.NewReader("{nope"))
	rec := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", decode[ErrorResponse](t, rec).Error)
}

func TestSubmitStoreFailure(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)
	env.mr.Close()

	w := env.do(t, http.MethodPost, "/leaderboard/submit", submission("device-1"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to submit score", decode[ErrorResponse](t, w).Error)
}

func TestDaily(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)

	w := env.do(t, http.MethodGet, "/daily/2024-02-29", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Date     string `json:"date"`
		HandSize int    `json:"handSize"`
		Pool     *int   `json:"pool"`
		Theme    struct {
			Type        string `json:"type"`
			Value       string `json:"value"`
			DisplayName string `json:"displayName"`
		} `json:"theme"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "2024-02-29", resp.Date)
	assert.Equal(t, daily.HandSize, resp.HandSize)
	assert.Equal(t, "era", resp.Theme.Type)
	assert.Equal(t, "earlyModern", resp.Theme.Value)
	assert.Equal(t, "Renaissance", resp.Theme.DisplayName)
	assert.Nil(t, resp.Pool, "no catalogue loaded")

	w = env.do(t, http.MethodGet, "/daily", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, today, decode[DailyResponse](t, w).Date)
}

func testCatalogue() *event.Repository {
	var events []event.Event
	for i, c := range event.AllCategories {
		for j := range 3 {
			year := int64(1800 - i*50 + j)
			events = append(events, event.Event{
				Name:         fmt.Sprintf("%s-%d", c, year),
				FriendlyName: fmt.Sprintf("%s %d", c.DisplayName(), year),
				Year:         year,
				Category:     c,
				Difficulty:   event.AllDifficulties[j],
			})
		}
	}
	return event.NewRepository(events)
}

func TestEvents(t *testing.T) {
	t.Parallel()
	env := newTestServer(t, WithEvents(testCatalogue()))

	w := env.do(t, http.MethodGet, "/events", nil)
	require.Equal(t, http.StatusOK, w.Code)
	all := decode[EventsResponse](t, w)
	assert.Equal(t, 3*len(event.AllCategories), all.Count)
	assert.True(t, slices.IsSortedFunc(all.Events, func(a, b event.Event) int {
		return cmp.Compare(a.Year, b.Year)
	}), "catalogue is listed chronologically")

	w = env.do(t, http.MethodGet, "/events?category=conflict,cultural&difficulty=easy", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[EventsResponse](t, w)
	assert.Equal(t, 2, resp.Count)
	for _, e := range resp.Events {
		assert.Equal(t, event.Easy, e.Difficulty)
	}

	w = env.do(t, http.MethodGet, "/events?era=jurassic", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/daily/"+today, nil)
	require.Equal(t, http.StatusOK, w.Code)
	pool := decode[DailyResponse](t, w).Pool
	require.NotNil(t, pool)
	assert.Equal(t, 3, *pool, "only infrastructure events")
}

func TestEventsWithoutCatalogue(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)

	w := env.do(t, http.MethodGet, "/events", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOpenAPI(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)

	w := env.do(t, http.MethodGet, "/openapi.json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	for _, path := range []string{`"/health"`, `"/leaderboard/{date}"`, `"/leaderboard/submit"`, `"/daily/{date}"`, `"/leaderboard/{date}/stats"`} {
		assert.Contains(t, w.Body.String(), path)
	}

	w = env.do(t, http.MethodGet, "/docs/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/openapi.json")
}

func readBoard(t *testing.T, conn *websocket.Conn) BoardMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg BoardMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestLiveFeed(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)
	ts := httptest.NewServer(env.srv.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/leaderboard/" + today + "/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readBoard(t, conn)
	assert.Equal(t, "leaderboard", first.Type)
	require.NotNil(t, first.Board)
	before := first.Board.TotalPlayers

	require.Eventually(t, func() bool { return env.srv.Hub().Watching(today) }, time.Second, 10*time.Millisecond)

	w := env.do(t, http.MethodPost, "/leaderboard/submit", submission("device-live"))
	require.Equal(t, http.StatusOK, w.Code)

	update := readBoard(t, conn)
	require.NotNil(t, update.Board)
	assert.Equal(t, before+1, update.Board.TotalPlayers)
}

func TestLiveFeedOtherDateNotNotified(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)
	ts := httptest.NewServer(env.srv.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/leaderboard/2026-10-17/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	readBoard(t, conn)

	w := env.do(t, http.MethodPost, "/leaderboard/submit", submission("device-2"))
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "viewer of another date should receive nothing")
}

func TestLiveFeedRefusedAfterHubClose(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)
	ts := httptest.NewServer(env.srv.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/leaderboard/" + today + "/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	readBoard(t, conn)
	require.Eventually(t, func() bool { return env.srv.Hub().Watching(today) }, time.Second, 10*time.Millisecond)

	env.srv.Hub().Close()
	assert.Equal(t, 0, env.srv.Hub().Viewers())

	late, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if late != nil {
		late.Close()
	}
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, 0, env.srv.Hub().Viewers())
}

func TestServeShutsDownOnCancel(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- env.srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
