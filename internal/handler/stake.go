package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"greenstake/internal/stake"
	gserrors "greenstake/pkg/errors"
	"greenstake/pkg/logger"
	"greenstake/pkg/validator"
)

// StakeHandler manages stake endpoints.
type StakeHandler struct {
	service   *stake.Service
	validator *validator.Validator
	logger    logger.Logger
}

// NewStakeHandler creates a StakeHandler.
func NewStakeHandler(service *stake.Service, val *validator.Validator, log logger.Logger) *StakeHandler {
	return &StakeHandler{
		service:   service,
		validator: val,
		logger:    log,
	}
}

// Create handles POST /api/stake.
func (h *StakeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req stake.CreateRequest

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

	st, err := h.service.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("Failed to create stake", logger.Fields{
			"error":  err.Error(),
			"wallet": req.WalletAddress,
		})
		h.respondError(w, http.StatusInternalServerError, "Failed to create stake")
		return
	}

	h.respondJSON(w, http.StatusOK, st)
}

// Update handles PATCH /api/stake/{id}. Unknown ids map to 404 and stale
// versions to 409.
func (h *StakeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid stake ID")
		return
	}

	var req stake.UpdateRequest

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

	st, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		switch {
		case gserrors.Is(err, gserrors.ErrStakeNotFound):
			h.respondError(w, http.StatusNotFound, "Stake not found")
		case gserrors.Is(err, gserrors.ErrVersionConflict):
			h.respondError(w, http.StatusConflict, "Stake was modified concurrently")
		default:
			h.logger.Error("Failed to update stake", logger.Fields{
				"error":    err.Error(),
				"stake_id": id,
			})
			h.respondError(w, http.StatusInternalServerError, "Failed to update stake")
		}
		return
	}

	h.respondJSON(w, http.StatusOK, st)
}

// ListByWallet handles GET /api/stake/{walletAddress}.
func (h *StakeHandler) ListByWallet(w http.ResponseWriter, r *http.Request) {
	wallet := mux.Vars(r)["walletAddress"]

	stakes, err := h.service.ListByWallet(r.Context(), wallet)
	if err != nil {
		h.logger.Error("Failed to fetch stakes", logger.Fields{"error": err.Error()})
		h.respondError(w, http.StatusInternalServerError, "Failed to fetch stakes")
		return
	}

	h.respondJSON(w, http.StatusOK, stakes)
}

func (h *StakeHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("json encode failed", logger.Fields{"error": err.Error()})
	}
}

func (h *StakeHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
