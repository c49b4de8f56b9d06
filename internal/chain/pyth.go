package chain

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"greenstake/internal/domain"
	gserrors "greenstake/pkg/errors"
)

const defaultHermesTimeout = 10 * time.Second

// HermesClient fetches signed price updates from Pyth's Hermes service. The
// payloads it returns are what updatePriceFeeds expects on chain.
type HermesClient struct {
	baseURL string
	feedID  string
	client  *http.Client
}

// NewHermesClient constructs a client for the given Hermes endpoint and
// price feed id.
func NewHermesClient(baseURL, feedID string) *HermesClient {
	return &HermesClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		feedID:  feedID,
		client:  &http.Client{Timeout: defaultHermesTimeout},
	}
}

type hermesResponse struct {
	Binary struct {
		Encoding string   `json:"encoding"`
		Data     []string `json:"data"`
	} `json:"binary"`
	Parsed []struct {
		ID    string `json:"id"`
		Price struct {
			Price       string `json:"price"`
			Expo        int32  `json:"expo"`
			PublishTime int64  `json:"publish_time"`
		} `json:"price"`
	} `json:"parsed"`
}

func (h *HermesClient) fetch(ctx context.Context) (*hermesResponse, error) {
	q := url.Values{}
	q.Add("ids[]", h.feedID)
	q.Set("encoding", "hex")

	endpoint := fmt.Sprintf("%s/v2/updates/price/latest?%s", h.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, gserrors.Wrap(err, "failed to build hermes request")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, gserrors.Wrap(err, "hermes request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, gserrors.Wrap(gserrors.ErrPriceUnavailable,
			fmt.Sprintf("hermes returned status %d", resp.StatusCode))
	}

	var parsed hermesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, gserrors.Wrap(err, "failed to decode hermes response")
	}
	return &parsed, nil
}

// PriceUpdateData returns the binary update payloads for the configured feed.
func (h *HermesClient) PriceUpdateData(ctx context.Context) ([][]byte, error) {
	parsed, err := h.fetch(ctx)
	if err != nil {
		return nil, err
	}
	if len(parsed.Binary.Data) == 0 {
		return nil, gserrors.Wrap(gserrors.ErrPriceUnavailable, "hermes returned no update data")
	}

	updates := make([][]byte, 0, len(parsed.Binary.Data))
	for _, chunk := range parsed.Binary.Data {
		raw, err := hex.DecodeString(strings.TrimPrefix(chunk, "0x"))
		if err != nil {
			return nil, gserrors.Wrap(err, "hermes update data is not valid hex")
		}
		updates = append(updates, raw)
	}
	return updates, nil
}

// LatestPrice returns the feed's most recent parsed price.
func (h *HermesClient) LatestPrice(ctx context.Context) (*domain.OraclePrice, error) {
	parsed, err := h.fetch(ctx)
	if err != nil {
		return nil, err
	}
	if len(parsed.Parsed) == 0 {
		return nil, gserrors.Wrap(gserrors.ErrPriceUnavailable, "hermes returned no parsed price")
	}

	p := parsed.Parsed[0].Price
	price, err := strconv.ParseInt(p.Price, 10, 64)
	if err != nil {
		return nil, gserrors.Wrap(err, "hermes price is not an integer")
	}

	return &domain.OraclePrice{
		Price:       price,
		Expo:        p.Expo,
		PublishTime: time.Unix(p.PublishTime, 0).UTC(),
	}, nil
}
