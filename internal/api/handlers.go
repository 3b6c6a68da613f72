package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/thermalgrid/heatindex-analytics-worker/internal/metrics"
	"github.com/thermalgrid/heatindex-analytics-worker/internal/model"
	"github.com/thermalgrid/heatindex-analytics-worker/internal/service"
	"github.com/thermalgrid/heatindex-analytics-worker/internal/validator"
	"github.com/thermalgrid/heatindex-analytics-worker/tools/period"
)

var startTime = time.Now()

// Handler holds the HTTP endpoints' dependencies.
type Handler struct {
	aggregator *service.Aggregator
	recomputer *service.Recomputer
	logger     *zap.Logger
}

// NewHandler creates the HTTP handler set.
func NewHandler(aggregator *service.Aggregator, recomputer *service.Recomputer, logger *zap.Logger) *Handler {
	return &Handler{
		aggregator: aggregator,
		recomputer: recomputer,
		logger:     logger,
	}
}

// HandleIngest accepts one raw reading: 400 on malformed input, 403 on an
// unregistered sensor, 500 on downstream persistence failure, 204 otherwise.
func (h *Handler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	var req model.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.ReadingsRejected.Inc()
		respondError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	err := h.aggregator.Ingest(r.Context(), req)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, validator.ErrInvalidReading):
		metrics.ReadingsRejected.Inc()
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnknownSensor):
		metrics.ReadingsRejected.Inc()
		respondError(w, http.StatusForbidden, err.Error())
	default:
		h.logger.Error("ingest failed", zap.Error(err), zap.String("sensor_id", req.SensorID))
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// RecomputeRequest is the rollup-recompute payload.
type RecomputeRequest struct {
	SensorID string `json:"sensorId"`
	MockDate string `json:"mockDate,omitempty"` // ISO date, overrides "today"
}

// HandleRecompute rebuilds the weekly/monthly/yearly rollups for a sensor.
func (h *Handler) HandleRecompute(w http.ResponseWriter, r *http.Request) {
	var req RecomputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.SensorID == "" {
		respondError(w, http.StatusBadRequest, "missing sensorId")
		return
	}

	var refDate time.Time
	if req.MockDate != "" {
		parsed, err := period.ParseDay(req.MockDate)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		refDate = parsed
	}

	if err := h.recomputer.Recompute(r.Context(), req.SensorID, refDate); err != nil {
		h.logger.Error("recompute failed", zap.Error(err), zap.String("sensor_id", req.SensorID))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"uptime": time.Since(startTime).String(),
	})
}
