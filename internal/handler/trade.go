package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"greenstake/internal/trade"
	gserrors "greenstake/pkg/errors"
	"greenstake/pkg/logger"
	"greenstake/pkg/validator"
)

// TradeHandler manages trade endpoints.
type TradeHandler struct {
	service   *trade.Service
	validator *validator.Validator
	logger    logger.Logger
}

// NewTradeHandler creates a TradeHandler.
func NewTradeHandler(service *trade.Service, val *validator.Validator, log logger.Logger) *TradeHandler {
	return &TradeHandler{
		service:   service,
		validator: val,
		logger:    log,
	}
}

// Create handles POST /api/trade.
func (h *TradeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req trade.CreateRequest

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

	t, err := h.service.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("Failed to create trade", logger.Fields{
			"error":  err.Error(),
			"wallet": req.WalletAddress,
		})
		h.respondError(w, http.StatusInternalServerError, "Failed to create trade")
		return
	}

	h.respondJSON(w, http.StatusOK, t)
}

// Update handles PATCH /api/trade/{id}.
func (h *TradeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid trade ID")
		return
	}

	var req trade.UpdateRequest

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

	t, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		switch {
		case gserrors.Is(err, gserrors.ErrTradeNotFound):
			h.respondError(w, http.StatusNotFound, "Trade not found")
		case gserrors.Is(err, gserrors.ErrVersionConflict):
			h.respondError(w, http.StatusConflict, "Trade was modified concurrently")
		default:
			h.logger.Error("Failed to update trade", logger.Fields{
				"error":    err.Error(),
				"trade_id": id,
			})
			h.respondError(w, http.StatusInternalServerError, "Failed to update trade")
		}
		return
	}

	h.respondJSON(w, http.StatusOK, t)
}

// ListByWallet handles GET /api/trade/{walletAddress}.
func (h *TradeHandler) ListByWallet(w http.ResponseWriter, r *http.Request) {
	wallet := mux.Vars(r)["walletAddress"]

	trades, err := h.service.ListByWallet(r.Context(), wallet)
	if err != nil {
		h.logger.Error("Failed to fetch trades", logger.Fields{"error": err.Error()})
		h.respondError(w, http.StatusInternalServerError, "Failed to fetch trades")
		return
	}

	h.respondJSON(w, http.StatusOK, trades)
}

func (h *TradeHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("json encode failed", logger.Fields{"error": err.Error()})
	}
}

func (h *TradeHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
