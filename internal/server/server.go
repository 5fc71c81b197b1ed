package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the HTTP API surface.
func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/portfolio", h.Portfolio)
		r.Get("/holdings", h.Holdings)
		r.Post("/trades/buy", h.Buy)
		r.Post("/trades/sell", h.Sell)

		r.Get("/leaderboard", h.Leaderboard)
		r.Get("/leaderboard/podium", h.Podium)

		r.Post("/bonus/claim", h.ClaimBonus)
		r.Get("/bonus/status", h.BonusStatus)

		r.Get("/companies", h.Companies)
		r.Get("/companies/{symbol}", h.Company)

		r.Get("/market/gainers", h.TopGainers)
		r.Get("/market/losers", h.TopLosers)
		r.Get("/market/stocks", h.AllStocks)
		r.Get("/market/ohlc/{symbol}", h.OHLC)

		r.Get("/preferences", h.Preferences)
		r.Put("/preferences", h.SavePreferences)
	})

	r.Get("/ws/quotes", h.Quotes)

	return r
}
