package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"greenstake/internal/domain"
	"greenstake/internal/forecast"
	"greenstake/internal/stake"
	"greenstake/internal/store"
	"greenstake/internal/trade"
	"greenstake/pkg/logger"
	"greenstake/pkg/validator"
)

// newTestRouter wires the full API surface over the in-memory store, the
// same way cmd/api does.
func newTestRouter(t *testing.T, aiConfigured bool) *mux.Router {
	t.Helper()

	log := logger.NewNop()
	records := store.NewMemory()
	val := validator.New()

	forecastHandler := NewForecastHandler(forecast.NewService(records, nil, log), val, log)
	stakeHandler := NewStakeHandler(stake.NewService(records, log), val, log)
	tradeHandler := NewTradeHandler(trade.NewService(records, log), val, log)
	systemHandler := NewSystemHandler(aiConfigured, &stubStats{}, log)

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", systemHandler.Health).Methods("GET")
	api.HandleFunc("/stats", systemHandler.GetStats).Methods("GET")
	api.HandleFunc("/forecast", forecastHandler.Create).Methods("POST")
	api.HandleFunc("/forecast/{walletAddress}", forecastHandler.ListByWallet).Methods("GET")
	api.HandleFunc("/stake", stakeHandler.Create).Methods("POST")
	api.HandleFunc("/stake/{id}", stakeHandler.Update).Methods("PATCH")
	api.HandleFunc("/stake/{walletAddress}", stakeHandler.ListByWallet).Methods("GET")
	api.HandleFunc("/trade", tradeHandler.Create).Methods("POST")
	api.HandleFunc("/trade/{id}", tradeHandler.Update).Methods("PATCH")
	api.HandleFunc("/trade/{walletAddress}", tradeHandler.ListByWallet).Methods("GET")
	return r
}

type stubStats struct {
	err error
}

func (s *stubStats) Stats(_ context.Context) (*domain.ChainStats, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.ChainStats{StakesCount: 48, TradesCount: 31}, nil
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		assert.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestStakeLifecycle(t *testing.T) {
	r := newTestRouter(t, false)

	// Create a pending stake.
	rec := doJSON(t, r, "POST", "/api/stake", map[string]interface{}{
		"walletAddress": "0xabc",
		"amount":        "50",
		"energyNeed":    1200,
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	var created domain.Stake
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, domain.StakeStatusPending, created.Status)
	assert.Nil(t, created.TransactionHash)
	assert.Equal(t, int64(1), created.Version)

	// Confirm it with the transaction hash.
	rec = doJSON(t, r, "PATCH", "/api/stake/"+created.ID.String(), map[string]interface{}{
		"status":          "confirmed",
		"transactionHash": "0xdead",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	var updated domain.Stake
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, domain.StakeStatusConfirmed, updated.Status)
	assert.Equal(t, "0xdead", *updated.TransactionHash)
	assert.Equal(t, int64(2), updated.Version)

	// Exactly one record, with untouched fields preserved.
	rec = doJSON(t, r, "GET", "/api/stake/0xabc", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var stakes []domain.Stake
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stakes))
	assert.Len(t, stakes, 1)
	assert.Equal(t, created.ID, stakes[0].ID)
	assert.Equal(t, 1200, stakes[0].EnergyNeed)
	assert.True(t, stakes[0].Amount.Equal(created.Amount))
}

func TestStakeUpdate_UnknownID(t *testing.T) {
	r := newTestRouter(t, false)

	rec := doJSON(t, r, "PATCH", "/api/stake/"+uuid.NewString(), map[string]interface{}{
		"status": "confirmed",
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestStakeUpdate_StaleVersion(t *testing.T) {
	r := newTestRouter(t, false)

	rec := doJSON(t, r, "POST", "/api/stake", map[string]interface{}{
		"walletAddress": "0xabc",
		"amount":        "50",
		"energyNeed":    1200,
	})
	var created domain.Stake
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, r, "PATCH", "/api/stake/"+created.ID.String(), map[string]interface{}{
		"status":  "confirmed",
		"version": 1,
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	// A writer still holding version 1 gets a conflict.
	rec = doJSON(t, r, "PATCH", "/api/stake/"+created.ID.String(), map[string]interface{}{
		"status":  "failed",
		"version": 1,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStakeCreate_Invalid(t *testing.T) {
	r := newTestRouter(t, false)

	// Missing body.
	req := httptest.NewRequest("POST", "/api/stake", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Request body is required")

	// Missing required fields.
	rec = doJSON(t, r, "POST", "/api/stake", map[string]interface{}{
		"walletAddress": "0xabc",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown fields are rejected.
	rec = doJSON(t, r, "POST", "/api/stake", map[string]interface{}{
		"walletAddress": "0xabc",
		"amount":        "50",
		"energyNeed":    1200,
		"bogus":         true,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Invalid status value.
	rec = doJSON(t, r, "POST", "/api/stake", map[string]interface{}{
		"walletAddress": "0xabc",
		"amount":        "50",
		"energyNeed":    1200,
		"status":        "done",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestForecastCreateAndList(t *testing.T) {
	r := newTestRouter(t, false)

	rec := doJSON(t, r, "POST", "/api/forecast", map[string]interface{}{
		"walletAddress":  "0xabc",
		"historicalData": []int{1000, 1200, 1100, 1350, 1250},
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	var f domain.Forecast
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &f))
	assert.Equal(t, "[1000,1200,1100,1350,1250]", f.HistoricalData)
	assert.GreaterOrEqual(t, f.PredictedConsumption, 1062)
	assert.LessOrEqual(t, f.PredictedConsumption, 1298)

	// Omitted historical data falls back to the demo sequence.
	rec = doJSON(t, r, "POST", "/api/forecast", map[string]interface{}{
		"walletAddress": "0xabc",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, "GET", "/api/forecast/0xabc", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var forecasts []domain.Forecast
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &forecasts))
	assert.Len(t, forecasts, 2)
}

func TestTradeLifecycle(t *testing.T) {
	r := newTestRouter(t, false)

	rec := doJSON(t, r, "POST", "/api/trade", map[string]interface{}{
		"walletAddress": "0xabc",
		"fromChain":     "ethereum-sepolia",
		"toChain":       "avail-testnet",
		"etkAmount":     "25",
		"pyusdAmount":   "61.25",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	var created domain.Trade
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, domain.TradeStatusPending, created.Status)

	for _, status := range []string{"bridging", "executed"} {
		rec = doJSON(t, r, "PATCH", "/api/trade/"+created.ID.String(), map[string]interface{}{
			"status": status,
		})
		assert.Equal(t, http.StatusOK, rec.Code, status)
	}

	rec = doJSON(t, r, "PATCH", "/api/trade/"+uuid.NewString(), map[string]interface{}{
		"status": "executed",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListByWallet_UnknownWalletIsEmptyArray(t *testing.T) {
	r := newTestRouter(t, false)

	for _, path := range []string{"/api/forecast/0xnobody", "/api/stake/0xnobody", "/api/trade/0xnobody"} {
		rec := doJSON(t, r, "GET", path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "[]\n", rec.Body.String(), path)
	}
}

func TestHealth(t *testing.T) {
	for _, aiConfigured := range []bool{true, false} {
		r := newTestRouter(t, aiConfigured)

		rec := doJSON(t, r, "GET", "/api/health", nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		var health struct {
			Status   string          `json:"status"`
			Services map[string]bool `json:"services"`
		}
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
		assert.Equal(t, "ok", health.Status)
		assert.Equal(t, aiConfigured, health.Services["ai"])
		assert.True(t, health.Services["storage"])
	}
}

func TestGetStats(t *testing.T) {
	log := logger.NewNop()

	h := NewSystemHandler(false, &stubStats{}, log)
	rec := httptest.NewRecorder()
	h.GetStats(rec, httptest.NewRequest("GET", "/api/stats", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "48")

	h = NewSystemHandler(false, &stubStats{err: errors.New("rpc down")}, log)
	rec = httptest.NewRecorder()
	h.GetStats(rec, httptest.NewRequest("GET", "/api/stats", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStakeUpdate_InvalidID(t *testing.T) {
	r := newTestRouter(t, false)

	rec := doJSON(t, r, "PATCH", "/api/stake/not-a-uuid", map[string]interface{}{
		"status": "confirmed",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid stake ID")
}
