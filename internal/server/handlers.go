package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lox/when/internal/daily"
	"github.com/lox/when/internal/event"
	"github.com/lox/when/internal/game"
	"github.com/lox/when/internal/leaderboard"
)

// HealthResponse reports server and store status
type HealthResponse struct {
	Status  string `json:"status"`
	Store   string `json:"store"`
	Viewers int    `json:"viewers"`
}

// DailyResponse describes one day's challenge
type DailyResponse struct {
	Date     string      `json:"date"`
	Theme    daily.Theme `json:"theme"`
	HandSize int         `json:"handSize"`
	Pool     *int        `json:"pool,omitempty"`
}

// EventsResponse lists catalogue events
type EventsResponse struct {
	Count  int           `json:"count"`
	Events []event.Event `json:"events"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok", Store: "ok", Viewers: s.hub.Viewers()}
	status := http.StatusOK
	if err := s.board.Ping(ctx); err != nil {
		s.logger.Error("Health check failed", "error", err)
		resp.Status, resp.Store = "error", "error"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if !daily.ValidDate(date) {
		writeError(w, http.StatusBadRequest, "Invalid date format")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	board, err := s.board.Leaderboard(r.Context(), date, r.URL.Query().Get("deviceId"), limit)
	if err != nil {
		if errors.Is(err, leaderboard.ErrInvalidDate) {
			writeError(w, http.StatusBadRequest, "Invalid date format")
			return
		}
		s.logger.Error("Failed to fetch leaderboard", "date", date, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch leaderboard")
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if !daily.ValidDate(date) {
		writeError(w, http.StatusBadRequest, "Invalid date format")
		return
	}

	summary, err := s.board.Stats(r.Context(), date)
	if err != nil {
		s.logger.Error("Failed to compute statistics", "date", date, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to compute statistics")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var sub leaderboard.Submission
	if err := readJSON(r, &sub); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := s.board.Submit(r.Context(), sub)
	switch {
	case errors.Is(err, leaderboard.ErrAlreadySubmitted):
		writeError(w, http.StatusConflict, "Already submitted today")
	case errors.Is(err, leaderboard.ErrInvalidSubmission):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		s.logger.Error("Failed to submit score", "date", sub.Date, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to submit score")
	default:
		s.logger.Info("Score submitted", "date", sub.Date, "rank", res.Rank, "players", res.TotalPlayers)
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if !daily.ValidDate(date) {
		writeError(w, http.StatusBadRequest, "Invalid date format")
		return
	}

	snapshot, err := s.board.Leaderboard(r.Context(), date, "", leaderboard.DefaultLimit)
	if err != nil {
		s.logger.Error("Failed to fetch leaderboard", "date", date, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch leaderboard")
		return
	}
	s.hub.Serve(w, r, date, snapshot)
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if date == "" {
		date = s.board.Today()
	}
	if !daily.ValidDate(date) {
		writeError(w, http.StatusBadRequest, "Invalid date format")
		return
	}

	resp := DailyResponse{Date: date, Theme: daily.ThemeFor(date), HandSize: daily.HandSize}
	if s.events != nil {
		n := len(daily.Config(date).Filter().Apply(s.events.All()))
		resp.Pool = &n
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeError(w, http.StatusNotFound, "No events loaded")
		return
	}

	q := r.URL.Query()
	var (
		f   event.Filter
		err error
	)
	if f.Difficulties, err = parseQuery(q["difficulty"], event.ParseDifficulty); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if f.Categories, err = parseQuery(q["category"], event.ParseCategory); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if f.Eras, err = parseQuery(q["era"], event.ParseEra); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	events := game.SortByYear(f.Apply(s.events.All()))
	writeJSON(w, http.StatusOK, EventsResponse{Count: len(events), Events: events})
}

// parseQuery accepts both repeated and comma separated values.
func parseQuery[T any](values []string, parse func(string) (T, error)) ([]T, error) {
	var names []string
	for _, v := range values {
		for part := range strings.SplitSeq(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				names = append(names, part)
			}
		}
	}
	return parseAll(names, parse)
}
