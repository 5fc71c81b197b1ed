package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// quoteInterval is how often held symbols are re-quoted over the socket.
const quoteInterval = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the API serves a single local browser UI
	},
}

// QuoteUpdate is one fresh price pushed over the quote stream.
type QuoteUpdate struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	At     time.Time       `json:"at"`
}

// Quotes streams periodic price refreshes for the symbols the investor
// currently holds. Symbols whose fetch fails are omitted from that frame.
func (h *Handlers) Quotes(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.log.Debug("Quote stream client connected")

	ticker := time.NewTicker(quoteInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		updates := h.heldQuotes(ctx)
		if err := conn.WriteJSON(updates); err != nil {
			h.log.Debug("Quote stream client gone", zap.Error(err))
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (h *Handlers) heldQuotes(ctx context.Context) []QuoteUpdate {
	holdings, err := h.valuator.Holdings()
	if err != nil {
		h.log.Warn("Quote stream could not load holdings", zap.Error(err))
		return nil
	}

	seen := make(map[string]struct{}, len(holdings))
	updates := make([]QuoteUpdate, 0, len(holdings))
	for _, holding := range holdings {
		if _, ok := seen[holding.Symbol]; ok {
			continue
		}
		seen[holding.Symbol] = struct{}{}

		price, err := h.market.GetStockPrice(ctx, holding.Symbol)
		if err != nil {
			h.log.Warn("Quote stream price fetch failed",
				zap.String("symbol", holding.Symbol), zap.Error(err))
			continue
		}
		updates = append(updates, QuoteUpdate{Symbol: holding.Symbol, Price: price, At: time.Now()})
	}
	return updates
}
