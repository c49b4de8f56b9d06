// Package apiclient provides a typed HTTP client for the GreenStake API,
// used by the simulation driver and by the trade and stake flows to keep
// records in sync with on-chain progress.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"greenstake/internal/domain"
	"greenstake/internal/forecast"
	"greenstake/internal/stake"
	"greenstake/internal/trade"
	gserrors "greenstake/pkg/errors"
)

const defaultTimeout = 30 * time.Second

// Client calls the GreenStake REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New constructs a Client for the given base URL, e.g. "http://localhost:5000".
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// HealthStatus is the GET /api/health response.
type HealthStatus struct {
	Status   string          `json:"status"`
	Services map[string]bool `json:"services"`
}

// APIError carries the status code and message of a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody *bytes.Buffer
	if body != nil {
		reqBody = &bytes.Buffer{}
		if err := json.NewEncoder(reqBody).Encode(body); err != nil {
			return gserrors.Wrap(err, "failed to encode request body")
		}
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return gserrors.Wrap(err, "failed to build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return gserrors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Error == "" {
			apiErr.Error = resp.Status
		}
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return gserrors.Wrap(err, "failed to decode response")
	}
	return nil
}

// Health checks the API and reports which backing services are configured.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var out HealthStatus
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats fetches aggregate totals.
func (c *Client) Stats(ctx context.Context) (*domain.ChainStats, error) {
	var out domain.ChainStats
	if err := c.do(ctx, http.MethodGet, "/api/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateForecast requests a consumption prediction for a wallet.
func (c *Client) CreateForecast(ctx context.Context, req *forecast.GenerateRequest) (*domain.Forecast, error) {
	var out domain.Forecast
	if err := c.do(ctx, http.MethodPost, "/api/forecast", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Forecasts lists a wallet's forecasts, newest first.
func (c *Client) Forecasts(ctx context.Context, wallet string) ([]*domain.Forecast, error) {
	var out []*domain.Forecast
	if err := c.do(ctx, http.MethodGet, "/api/forecast/"+wallet, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateStake records a new stake.
func (c *Client) CreateStake(ctx context.Context, req *stake.CreateRequest) (*domain.Stake, error) {
	var out domain.Stake
	if err := c.do(ctx, http.MethodPost, "/api/stake", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateStake patches an existing stake record.
func (c *Client) UpdateStake(ctx context.Context, id uuid.UUID, req *stake.UpdateRequest) (*domain.Stake, error) {
	var out domain.Stake
	if err := c.do(ctx, http.MethodPatch, "/api/stake/"+id.String(), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stakes lists a wallet's stakes, newest first.
func (c *Client) Stakes(ctx context.Context, wallet string) ([]*domain.Stake, error) {
	var out []*domain.Stake
	if err := c.do(ctx, http.MethodGet, "/api/stake/"+wallet, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateTrade records a new trade.
func (c *Client) CreateTrade(ctx context.Context, req *trade.CreateRequest) (*domain.Trade, error) {
	var out domain.Trade
	if err := c.do(ctx, http.MethodPost, "/api/trade", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateTrade patches an existing trade record.
func (c *Client) UpdateTrade(ctx context.Context, id uuid.UUID, req *trade.UpdateRequest) (*domain.Trade, error) {
	var out domain.Trade
	if err := c.do(ctx, http.MethodPatch, "/api/trade/"+id.String(), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Trades lists a wallet's trades, newest first.
func (c *Client) Trades(ctx context.Context, wallet string) ([]*domain.Trade, error) {
	var out []*domain.Trade
	if err := c.do(ctx, http.MethodGet, "/api/trade/"+wallet, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
