package chain

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const testFeedID = "ff61491a931112ddf1bd8147cd1b641375f79f5825126d665480874634fd0ace"

func newHermesStub(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/updates/price/latest", r.URL.Path)
		assert.Equal(t, testFeedID, r.URL.Query().Get("ids[]"))
		assert.Equal(t, "hex", r.URL.Query().Get("encoding"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestHermesPriceUpdateData(t *testing.T) {
	srv := newHermesStub(t, `{
		"binary": {"encoding": "hex", "data": ["deadbeef", "0xcafe"]},
		"parsed": []
	}`, http.StatusOK)
	defer srv.Close()

	h := NewHermesClient(srv.URL, testFeedID)

	updates, err := h.PriceUpdateData(context.Background())

	assert.NoError(t, err)
	assert.Len(t, updates, 2)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, updates[0])
	assert.Equal(t, []byte{0xca, 0xfe}, updates[1])
}

func TestHermesPriceUpdateData_Empty(t *testing.T) {
	srv := newHermesStub(t, `{"binary": {"encoding": "hex", "data": []}, "parsed": []}`, http.StatusOK)
	defer srv.Close()

	h := NewHermesClient(srv.URL, testFeedID)

	_, err := h.PriceUpdateData(context.Background())
	assert.Error(t, err)
}

func TestHermesPriceUpdateData_BadStatus(t *testing.T) {
	srv := newHermesStub(t, `{"error": "feed not found"}`, http.StatusNotFound)
	defer srv.Close()

	h := NewHermesClient(srv.URL, testFeedID)

	_, err := h.PriceUpdateData(context.Background())
	assert.Error(t, err)
}

func TestHermesLatestPrice(t *testing.T) {
	srv := newHermesStub(t, `{
		"binary": {"encoding": "hex", "data": ["deadbeef"]},
		"parsed": [{
			"id": "ff61491a931112ddf1bd8147cd1b641375f79f5825126d665480874634fd0ace",
			"price": {"price": "245000000000", "expo": -8, "publish_time": 1718000000}
		}]
	}`, http.StatusOK)
	defer srv.Close()

	h := NewHermesClient(srv.URL, testFeedID)

	price, err := h.LatestPrice(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, int64(245000000000), price.Price)
	assert.Equal(t, int32(-8), price.Expo)
	assert.Equal(t, time.Unix(1718000000, 0).UTC(), price.PublishTime)
	assert.Equal(t, "2450", price.Value().String())
}

func TestMockSource(t *testing.T) {
	m := NewMockSource()
	ctx := context.Background()

	stats, err := m.Stats(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(48), stats.StakesCount)

	price, err := m.CurrentPrice(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int32(-8), price.Expo)
	// Within 2% of the base price.
	assert.InDelta(t, 245000000000, float64(price.Price), 245000000000*0.021)

	hash, err := m.SubmitPriceUpdate(ctx, nil)
	assert.NoError(t, err)
	assert.Len(t, hash, 66)
	assert.NoError(t, m.WaitConfirmed(ctx, hash))
}
