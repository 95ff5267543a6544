package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/admitcalc/pkg/metrics"
)

// MetricsMiddleware counts and times every call to next under endpoint.
// Responses of 400 and above are also counted as errors, classified by
// failureClass. The session package wraps its login routes with it too.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		ms := float64(time.Since(start).Microseconds()) / 1000
		code := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, code)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, code, ms)

		if rec.status < http.StatusBadRequest {
			return
		}
		kind, severity := failureClass(rec.status)
		metrics.RecordErrorByEndpoint(endpoint, r.Method, kind)
		metrics.RecordErrorByType(kind, severity)
	}
}

// failureClass maps an error status to the kind and severity labels used by
// the error counters. Only server faults are high severity; a rejected score
// or an expired session is the caller's problem.
func failureClass(status int) (kind, severity string) {
	switch status {
	case http.StatusUnauthorized:
		return "unauthorized", "medium"
	case http.StatusNotFound:
		return "not_found", "medium"
	case http.StatusTooManyRequests:
		return "rate_limit", "medium"
	case http.StatusServiceUnavailable:
		return "dataset_unavailable", "high"
	}
	if status >= http.StatusInternalServerError {
		return "server_error", "high"
	}
	return "client_error", "medium"
}

// statusRecorder remembers the first status a handler sends. An implicit 200
// from a bare Write counts as sent.
type statusRecorder struct {
	http.ResponseWriter
	status int
	sent   bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.sent {
		s.status = code
		s.sent = true
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	s.sent = true
	return s.ResponseWriter.Write(b)
}
