package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jwhan/contango/internal/market"
	"github.com/jwhan/contango/internal/roll"
	"github.com/jwhan/contango/internal/service"
	"github.com/jwhan/contango/internal/splice"
	"github.com/jwhan/contango/pkg/logger"
)

// SeriesHandler handles roll schedule and spliced series endpoints
type SeriesHandler struct {
	service *service.Service
	logger  *logger.Logger
}

// NewSeriesHandler creates a new series handler
func NewSeriesHandler(svc *service.Service, log *logger.Logger) *SeriesHandler {
	return &SeriesHandler{
		service: svc,
		logger:  log,
	}
}

// GetSchedule builds the roll schedule of a constant-maturity target
// GET /api/roll/schedule?symbol=SR3.cm.182&from=2025-01-01&to=2025-04-01
func (h *SeriesHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "Missing 'symbol' query parameter")
		return
	}

	from, to, ok := parseWindow(w, r)
	if !ok {
		return
	}

	schedule, err := h.service.Schedule(ctx, symbol, from, to)
	if err != nil {
		h.respondDomainError(w, err, "Failed to build schedule")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":   symbol,
		"from":     from.Format("2006-01-02"),
		"to":       to.Format("2006-01-02"),
		"segments": schedule,
	})
}

// GetConstantMaturity returns the fixed-maturity blended series of a
// target
// GET /api/series/cm?symbol=SR3.cm.182&from=2025-01-01&to=2025-04-01
func (h *SeriesHandler) GetConstantMaturity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "Missing 'symbol' query parameter")
		return
	}

	from, to, ok := parseWindow(w, r)
	if !ok {
		return
	}

	rows, err := h.service.ConstantMaturitySeries(ctx, symbol, from, to)
	if err != nil {
		h.respondDomainError(w, err, "Failed to build constant-maturity series")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"rows":   rows,
	})
}

// ContinuousRequest is a continuity splice request: a single-contract
// schedule plus adjustment settings
type ContinuousRequest struct {
	Schedule    roll.Schedule `json:"schedule"`
	AdjustBy    string        `json:"adjust_by"`
	Mode        string        `json:"mode"`
	ExtraFields []string      `json:"extra_fields,omitempty"`
}

// PostContinuous stitches a caller-supplied schedule into one
// back-adjusted series
// POST /api/series/continuous
func (h *SeriesHandler) PostContinuous(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ContinuousRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(req.Schedule) == 0 {
		respondError(w, http.StatusBadRequest, "Schedule must have at least one segment")
		return
	}
	if req.AdjustBy == "" {
		req.AdjustBy = "price"
	}
	if req.Mode == "" {
		req.Mode = "additive"
	}

	mode, err := splice.ParseAdjustMode(req.Mode)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.ContinuousSeries(ctx, req.Schedule, req.AdjustBy, mode, req.ExtraFields)
	if err != nil {
		h.respondDomainError(w, err, "Failed to build continuous series")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"adjustment_column": result.AdjustmentColumn,
		"rows":              result.Rows,
	})
}

// respondDomainError maps the engine's error taxonomy to HTTP statuses
func (h *SeriesHandler) respondDomainError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, market.ErrParse), errors.Is(err, market.ErrInvalidSchedule):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, market.ErrNoBracketingContracts):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, market.ErrMissingData):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.WithError(err).Error(logMsg)
		respondError(w, http.StatusInternalServerError, logMsg)
	}
}

// parseWindow reads the from/to query parameters, defaulting to the
// trailing year
func parseWindow(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	var from, to time.Time
	var err error

	if s := r.URL.Query().Get("from"); s != "" {
		from, err = time.ParseInLocation("2006-01-02", s, time.UTC)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'from' date format (expected YYYY-MM-DD)")
			return from, to, false
		}
	} else {
		from = market.DateOf(time.Now()).AddDate(-1, 0, 0)
	}

	if s := r.URL.Query().Get("to"); s != "" {
		to, err = time.ParseInLocation("2006-01-02", s, time.UTC)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'to' date format (expected YYYY-MM-DD)")
			return from, to, false
		}
	} else {
		to = market.DateOf(time.Now()).AddDate(0, 0, 1)
	}

	if !from.Before(to) {
		respondError(w, http.StatusBadRequest, "'from' must be before 'to'")
		return from, to, false
	}

	return from, to, true
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
