package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"greenstake/internal/domain"
	"greenstake/pkg/logger"
)

// StatsSource supplies the aggregate figures shown on the dashboard, either
// read from the contract or the demo defaults.
type StatsSource interface {
	Stats(ctx context.Context) (*domain.ChainStats, error)
}

// SystemHandler serves health and stats endpoints.
type SystemHandler struct {
	aiConfigured bool
	stats        StatsSource
	logger       logger.Logger
}

// NewSystemHandler creates a SystemHandler. aiConfigured reports whether an
// inference token is present in configuration.
func NewSystemHandler(aiConfigured bool, stats StatsSource, log logger.Logger) *SystemHandler {
	return &SystemHandler{
		aiConfigured: aiConfigured,
		stats:        stats,
		logger:       log,
	}
}

// Health handles GET /api/health. Storage is always available: the default
// store lives in process memory.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"services": map[string]bool{
			"ai":      h.aiConfigured,
			"storage": true,
		},
	})
}

// GetStats handles GET /api/stats.
func (h *SystemHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Stats(r.Context())
	if err != nil {
		h.logger.Error("Failed to fetch stats", logger.Fields{"error": err.Error()})
		h.respondError(w, http.StatusServiceUnavailable, "Stats unavailable")
		return
	}

	h.respondJSON(w, http.StatusOK, stats)
}

func (h *SystemHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("json encode failed", logger.Fields{"error": err.Error()})
	}
}

func (h *SystemHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
