// Package handler provides HTTP handlers for the GreenStake record API.
package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"greenstake/internal/forecast"
	"greenstake/pkg/logger"
	"greenstake/pkg/validator"
)

// ForecastHandler manages forecast endpoints.
type ForecastHandler struct {
	service   *forecast.Service
	validator *validator.Validator
	logger    logger.Logger
}

// NewForecastHandler creates a ForecastHandler.
func NewForecastHandler(service *forecast.Service, val *validator.Validator, log logger.Logger) *ForecastHandler {
	return &ForecastHandler{
		service:   service,
		validator: val,
		logger:    log,
	}
}

// Create handles POST /api/forecast. An upstream inference failure never
// fails the request; the service substitutes the computed fallback.
func (h *ForecastHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req forecast.GenerateRequest

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		if err == io.EOF {
			h.respondError(w, http.StatusBadRequest, "Request body is required")
			return
		}
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	f, err := h.service.Generate(r.Context(), &req)
	if err != nil {
		h.logger.Error("Failed to generate forecast", logger.Fields{
			"error":  err.Error(),
			"wallet": req.WalletAddress,
		})
		h.respondError(w, http.StatusInternalServerError, "Failed to generate forecast")
		return
	}

	h.respondJSON(w, http.StatusOK, f)
}

// ListByWallet handles GET /api/forecast/{walletAddress}.
func (h *ForecastHandler) ListByWallet(w http.ResponseWriter, r *http.Request) {
	wallet := mux.Vars(r)["walletAddress"]

	forecasts, err := h.service.ListByWallet(r.Context(), wallet)
	if err != nil {
		h.logger.Error("Failed to fetch forecasts", logger.Fields{"error": err.Error()})
		h.respondError(w, http.StatusInternalServerError, "Failed to fetch forecasts")
		return
	}

	h.respondJSON(w, http.StatusOK, forecasts)
}

func (h *ForecastHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("json encode failed", logger.Fields{"error": err.Error()})
	}
}

func (h *ForecastHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
