// Package server exposes the daily leaderboard over HTTP: JSON endpoints for
// reading and submitting scores, a websocket feed of live boards, daily theme
// lookup and the event catalogue.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/lox/when/internal/event"
	"github.com/lox/when/internal/leaderboard"
)

const shutdownTimeout = 10 * time.Second

// Server is the leaderboard HTTP server
type Server struct {
	srv     *http.Server
	logger  *log.Logger
	board   *leaderboard.Service
	events  *event.Repository
	origins []string
	hub     *Hub
}

// Option configures a Server
type Option func(*Server)

// WithEvents serves the catalogue at /events.
func WithEvents(repo *event.Repository) Option {
	return func(s *Server) { s.events = repo }
}

// WithAllowedOrigins restricts which origins may open the live feed.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.origins = origins }
}

// NewServer creates a server listening on addr.
func NewServer(addr string, board *leaderboard.Service, logger *log.Logger, opts ...Option) *Server {
	s := &Server{
		logger: logger.WithPrefix("server"),
		board:  board,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = NewHub(s.logger, s.origins)
	board.OnChange(s.onBoardChange)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	s.addRoutes(r)

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Hub returns the live feed hub
func (s *Server) Hub() *Hub {
	return s.hub
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Starting HTTP server", "addr", ln.Addr().String())
		err := s.srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Shutting down HTTP server")
		s.hub.Close()
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return s.srv.Shutdown(sctx)
	})

	return g.Wait()
}

// onBoardChange pushes date's fresh board to live viewers.
func (s *Server) onBoardChange(date string) {
	if !s.hub.Watching(date) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	board, err := s.board.Leaderboard(ctx, date, "", leaderboard.DefaultLimit)
	if err != nil {
		s.logger.Error("Failed to load board for viewers", "date", date, "error", err)
		return
	}
	s.hub.Publish(board)
}

func requestLogger(logger *log.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Debug("HTTP request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
