package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"greenstake/internal/domain"
	"greenstake/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is handled by the middleware chain
	},
}

// PriceSource supplies the current oracle energy price.
type PriceSource interface {
	CurrentPrice(ctx context.Context) (*domain.OraclePrice, error)
}

// PriceHandler streams oracle price updates over a websocket, replacing
// client-side polling.
type PriceHandler struct {
	source   PriceSource
	interval time.Duration
	logger   logger.Logger
}

// NewPriceHandler creates a PriceHandler pushing on the given interval.
func NewPriceHandler(source PriceSource, interval time.Duration, log logger.Logger) *PriceHandler {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &PriceHandler{
		source:   source,
		interval: interval,
		logger:   log,
	}
}

// Stream handles GET /api/price/ws.
func (h *PriceHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", logger.Fields{"error": err.Error()})
		return
	}
	defer conn.Close()

	h.logger.Info("Price stream client connected", logger.Fields{"remote": r.RemoteAddr})

	if err := h.sendPrice(r.Context(), conn); err != nil {
		return
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := h.sendPrice(r.Context(), conn); err != nil {
				h.logger.Error("Failed to send price update", logger.Fields{"error": err.Error()})
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

func (h *PriceHandler) sendPrice(ctx context.Context, conn *websocket.Conn) error {
	price, err := h.source.CurrentPrice(ctx)
	if err != nil {
		// Skip the tick; the next one may succeed.
		h.logger.Warn("Oracle price unavailable", logger.Fields{"error": err.Error()})
		return nil
	}

	return conn.WriteJSON(map[string]interface{}{
		"type":      "price_update",
		"timestamp": time.Now(),
		"price":     price,
		"value":     price.Value(),
	})
}
