package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	service "github.com/okian/admitcalc/internal/app"
)

const maxBodyBytes = 1 << 16

// CalculateHandler handles calculation requests.
type CalculateHandler struct {
	deps Dependencies
}

// NewCalculateHandler creates a new calculate handler.
func NewCalculateHandler(deps Dependencies) *CalculateHandler {
	return &CalculateHandler{deps: deps}
}

// calculateRequest accepts numbers or numeric strings for score and topN.
// A missing score counts as zero.
type calculateRequest struct {
	Score  json.Number `json:"score"`
	Group  string      `json:"group"`
	Sector string      `json:"sector"`
	TopN   json.Number `json:"topN"`
}

func (c calculateRequest) toService() (service.CalculateRequest, error) {
	req := service.CalculateRequest{Group: c.Group, Sector: c.Sector}
	if s := strings.TrimSpace(c.Score.String()); s != "" {
		score, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return req, &service.ValidationError{Field: "score", Message: "must be a number"}
		}
		req.Score = score
	}
	if s := strings.TrimSpace(c.TopN.String()); s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
			return req, &service.ValidationError{Field: "topN", Message: "must be an integer"}
		}
		n := int(f)
		req.TopN = &n
	}
	return req, nil
}

// HandleCalculate handles POST /api/calculate requests.
func (h *CalculateHandler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	const op = "api.calculate"

	var body calculateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		WriteError(w, WrapKind(op, ErrBadRequest, errors.New("request body must be a JSON object")))
		return
	}
	req, err := body.toService()
	if err != nil {
		WriteError(w, Wrap(op, err))
		return
	}

	res, err := h.deps.Calculate(r.Context(), req)
	if err != nil {
		WriteError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// OptionsHandler lists valid groups, sectors and bounds.
type OptionsHandler struct {
	deps Dependencies
}

// NewOptionsHandler creates a new options handler.
func NewOptionsHandler(deps Dependencies) *OptionsHandler {
	return &OptionsHandler{deps: deps}
}

// HandleOptions handles GET /api/options requests.
func (h *OptionsHandler) HandleOptions(w http.ResponseWriter, r *http.Request) {
	const op = "api.options"

	opts, err := h.deps.Options(r.Context())
	if err != nil {
		WriteError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, opts)
}
