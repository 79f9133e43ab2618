// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/slopetrace/slopetrace/internal/domain/model"
)

// Publisher hands a validated event to the queue. Success means handed off to
// the broker, not aggregated.
type Publisher interface {
	Publish(ctx context.Context, e model.LiftRideEvent) error
}

// Reader exposes the aggregate read operations the query endpoints need.
type Reader interface {
	UniqueSkiers(ctx context.Context, resortID, seasonID, dayID int) (int64, error)
	DayVertical(ctx context.Context, resortID, seasonID, dayID, skierID int) (int64, error)
	TotalVertical(ctx context.Context, resortID, skierID int, season string) (int64, error)
}

// Server wires HTTP routes for the skier API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	skiersHandler  *SkiersHandler
	resortsHandler *ResortsHandler
}

// NewServer creates a new API server with all handlers. The publisher may be
// nil on read-only deployments; POST then responds as a publish failure.
func NewServer(pub Publisher, reader Reader, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		skiersHandler:  NewSkiersHandler(pub, reader),
		resortsHandler: NewResortsHandler(reader),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/skiers/", MetricsMiddleware(s.skiersHandler.HandleSkiers, "skiers"))
	mux.HandleFunc("/resorts/", MetricsMiddleware(s.resortsHandler.HandleResortSkiers, "resorts"))

	// Anything else has no addressable resource.
	mux.HandleFunc("/", MetricsMiddleware(handleUnmatched, "unmatched"))
}

func handleUnmatched(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusNotFound, "Missing parameters")
}

type messageResponse struct {
	Message string `json:"message"`
}

type uniqueSkiersResponse struct {
	UniqueSkiers int64 `json:"uniqueSkiers"`
}

type totalVerticalResponse struct {
	Resort    string `json:"resort,omitempty"`
	SeasonID  string `json:"seasonID,omitempty"`
	TotalVert int64  `json:"totalVert"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// writeRaw emits a bare body. The query endpoints answer missing data with a
// literal "Data not found" body and counters as bare numbers.
func writeRaw(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
