// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	service "github.com/okian/admitcalc/internal/app"
	"github.com/okian/admitcalc/pkg/metrics"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	ReadinessProbe
	StatsProvider

	Calculate(ctx context.Context, req service.CalculateRequest) (service.CalculateResult, error)
	Options(ctx context.Context) (service.OptionsResult, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	calculateHandler *CalculateHandler
	optionsHandler   *OptionsHandler

	guard func(http.Handler) http.Handler
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithGuard protects the /api routes, typically with session authentication.
func WithGuard(guard func(http.Handler) http.Handler) Option {
	return func(s *Server) {
		if guard != nil {
			s.guard = guard
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		healthHandler:    NewHealthHandler(deps),
		statsHandler:     NewStatsHandler(deps),
		calculateHandler: NewCalculateHandler(deps),
		optionsHandler:   NewOptionsHandler(deps),
		guard:            func(h http.Handler) http.Handler { return h },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("POST /api/calculate", s.guard(MetricsMiddleware(s.calculateHandler.HandleCalculate, "calculate")))
	mux.Handle("GET /api/options", s.guard(MetricsMiddleware(s.optionsHandler.HandleOptions, "options")))
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
}

type errorResponse struct {
	Error            string   `json:"error"`
	Code             string   `json:"code"`
	Field            string   `json:"field,omitempty"`
	AvailableGroups  []string `json:"availableGroups,omitempty"`
	AvailableSectors []string `json:"availableSectors,omitempty"`
}

// internalErrorBody is sent when a response value cannot be encoded.
const internalErrorBody = `{"error":"Internal Server Error","code":"internal_error"}` + "\n"

// writeJSON encodes v before the status line goes out so an unencodable value
// becomes a 500 instead of a truncated success.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, internalErrorBody)
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// WriteError renders err as the JSON error body with a status chosen from
// its kind. It is exported for the session guard.
func WriteError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	resp := errorResponse{Error: http.StatusText(status), Code: code}
	if err != nil {
		resp.Error = err.Error()
	}

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		resp.Error = verr.Error()
		resp.Field = verr.Field
	}
	var nd *service.NoDataError
	if errors.As(err, &nd) {
		resp.Error = "No data found for the selected combination of group and sector"
		resp.AvailableGroups = nd.Groups
		resp.AvailableSectors = nd.Sectors
	}
	if status >= http.StatusInternalServerError && !errors.Is(err, service.ErrDatasetUnavailable) {
		resp.Error = http.StatusText(status)
	}
	writeJSON(w, status, resp)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrNoData):
		return http.StatusNotFound, "no_data"
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, service.ErrDatasetUnavailable):
		return http.StatusServiceUnavailable, "dataset_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
