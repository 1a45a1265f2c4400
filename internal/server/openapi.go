package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/lox/when/internal/leaderboard"
	"github.com/lox/when/internal/statistics"
)

type datePath struct {
	Date string `path:"date" description:"UTC date, YYYY-MM-DD"`
}

type leaderboardQuery struct {
	Date     string `path:"date" description:"UTC date, YYYY-MM-DD"`
	DeviceID string `query:"deviceId" description:"Include this device's rank and entry"`
	Limit    int    `query:"limit" description:"Entries to return, default 50, max 100"`
}

type eventsQuery struct {
	Difficulty []string `query:"difficulty" description:"easy, medium or hard"`
	Category   []string `query:"category"`
	Era        []string `query:"era"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "When API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Daily leaderboard and challenge lookup for the When timeline game.")

	// GET /health
	getHealth, _ := r.NewOperationContext(http.MethodGet, "/health")
	getHealth.SetSummary("Health check")
	getHealth.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealth.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealth)

	// GET /leaderboard/{date}
	getBoard, _ := r.NewOperationContext(http.MethodGet, "/leaderboard/{date}")
	getBoard.SetSummary("Daily leaderboard")
	getBoard.SetDescription("Top entries for a date. Bots are seeded on first read of today's board.")
	getBoard.AddReqStructure(leaderboardQuery{})
	getBoard.AddRespStructure(leaderboard.Board{}, openapi.WithHTTPStatus(http.StatusOK))
	getBoard.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	getBoard.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusInternalServerError))
	_ = r.AddOperation(getBoard)

	// POST /leaderboard/submit
	postSubmit, _ := r.NewOperationContext(http.MethodPost, "/leaderboard/submit")
	postSubmit.SetSummary("Submit a daily score")
	postSubmit.SetDescription("One submission per device per day.")
	postSubmit.AddReqStructure(leaderboard.Submission{})
	postSubmit.AddRespStructure(leaderboard.SubmitResult{}, openapi.WithHTTPStatus(http.StatusOK))
	postSubmit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postSubmit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postSubmit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusInternalServerError))
	_ = r.AddOperation(postSubmit)

	// GET /leaderboard/{date}/live
	getLive, _ := r.NewOperationContext(http.MethodGet, "/leaderboard/{date}/live")
	getLive.SetSummary("Live leaderboard")
	getLive.SetDescription("Upgrades to a WebSocket that receives the board on connect and after every submission.")
	getLive.AddReqStructure(datePath{})
	getLive.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("application/json"))
	_ = r.AddOperation(getLive)

	// GET /leaderboard/{date}/stats
	getStats, _ := r.NewOperationContext(http.MethodGet, "/leaderboard/{date}/stats")
	getStats.SetSummary("Leaderboard statistics")
	getStats.SetDescription("Score distribution across every entry for a date, bots included.")
	getStats.AddReqStructure(datePath{})
	getStats.AddRespStructure(statistics.Summary{}, openapi.WithHTTPStatus(http.StatusOK))
	getStats.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	getStats.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusInternalServerError))
	_ = r.AddOperation(getStats)

	// GET /daily/{date}
	getDaily, _ := r.NewOperationContext(http.MethodGet, "/daily/{date}")
	getDaily.SetSummary("Daily challenge")
	getDaily.SetDescription("Theme and hand size for a date. /daily returns today's.")
	getDaily.AddReqStructure(datePath{})
	getDaily.AddRespStructure(DailyResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getDaily.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(getDaily)

	// GET /events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/events")
	getEvents.SetSummary("Event catalogue")
	getEvents.AddReqStructure(eventsQuery{})
	getEvents.AddRespStructure(EventsResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getEvents.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	getEvents.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getEvents)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
