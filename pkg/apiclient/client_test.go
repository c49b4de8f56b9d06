package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"greenstake/internal/domain"
	"greenstake/internal/stake"
)

func TestCreateStake(t *testing.T) {
	id := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/stake", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "0xabc", body["walletAddress"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(domain.Stake{
			ID:            id,
			WalletAddress: "0xabc",
			Amount:        decimal.NewFromInt(50),
			Status:        domain.StakeStatusPending,
			Version:       1,
		})
	}))
	defer srv.Close()

	c := New(srv.URL)

	st, err := c.CreateStake(context.Background(), &stake.CreateRequest{
		WalletAddress: "0xabc",
		Amount:        decimal.NewFromInt(50),
		EnergyNeed:    1200,
	})

	assert.NoError(t, err)
	assert.Equal(t, id, st.ID)
	assert.Equal(t, domain.StakeStatusPending, st.Status)
}

func TestUpdateStake_ErrorBodyDecoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Stake not found"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)

	confirmed := domain.StakeStatusConfirmed
	_, err := c.UpdateStake(context.Background(), uuid.New(), &stake.UpdateRequest{Status: &confirmed})

	var apiErr *APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Stake not found", apiErr.Message)
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","services":{"ai":false,"storage":true}}`))
	}))
	defer srv.Close()

	c := New(srv.URL)

	health, err := c.Health(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
	assert.False(t, health.Services["ai"])
	assert.True(t, health.Services["storage"])
}

func TestStakes_ListPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/stake/0xabc", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(srv.URL)

	stakes, err := c.Stakes(context.Background(), "0xabc")

	assert.NoError(t, err)
	assert.Empty(t, stakes)
}

func TestNonJSONErrorFallsBackToStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	c := New(srv.URL)

	_, err := c.Stats(context.Background())

	var apiErr *APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.NotEmpty(t, apiErr.Message)
}
