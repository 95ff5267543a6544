package api

import (
	"net/http"
	"time"
)

// ReadinessProbe reports whether the service can answer calculations.
type ReadinessProbe interface {
	Ready() bool
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	probe   ReadinessProbe
	started time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(probe ReadinessProbe) *HealthHandler {
	return &HealthHandler{probe: probe, started: time.Now()}
}

type healthResponse struct {
	Status        string `json:"status"`
	DatasetLoaded bool   `json:"datasetLoaded"`
	Uptime        string `json:"uptime"`
}

// HandleHealth handles GET /healthz. It answers 503 until a dataset is loaded.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		Status:        "ok",
		DatasetLoaded: h.probe.Ready(),
		Uptime:        time.Since(h.started).Round(time.Second).String(),
	}
	status := http.StatusOK
	if !resp.DatasetLoaded {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
