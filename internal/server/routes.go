package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func (s *Server) addRoutes(r chi.Router) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("When API", "/openapi.json", "/docs"))
	r.Get("/health", s.handleHealth)

	r.Route("/leaderboard", func(r chi.Router) {
		r.Post("/submit", s.handleSubmit)
		r.Get("/{date}", s.handleLeaderboard)
		r.Get("/{date}/live", s.handleLive)
		r.Get("/{date}/stats", s.handleStats)
	})

	r.Get("/daily", s.handleDaily)
	r.Get("/daily/{date}", s.handleDaily)
	r.Get("/events", s.handleEvents)
}
