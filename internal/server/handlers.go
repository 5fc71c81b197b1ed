package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"nepse-paper-trader-go/internal/bonus"
	"nepse-paper-trader-go/internal/i18n"
	"nepse-paper-trader-go/internal/leaderboard"
	"nepse-paper-trader-go/internal/ledger"
	"nepse-paper-trader-go/internal/market"
	"nepse-paper-trader-go/internal/models"
	"nepse-paper-trader-go/internal/portfolio"
	"nepse-paper-trader-go/internal/trading"
)

// Handlers holds dependencies for the API endpoints.
type Handlers struct {
	log       *zap.Logger
	db        *gorm.DB
	engine    *trading.Engine
	valuator  *portfolio.Valuator
	ranker    *leaderboard.Ranker
	bonus     *bonus.Service
	directory *market.Directory
	market    market.Client
}

// NewHandlers creates the API handler set.
func NewHandlers(log *zap.Logger, db *gorm.DB, engine *trading.Engine,
	valuator *portfolio.Valuator, ranker *leaderboard.Ranker, bonusSvc *bonus.Service,
	directory *market.Directory, client market.Client) *Handlers {
	return &Handlers{
		log:       log,
		db:        db,
		engine:    engine,
		valuator:  valuator,
		ranker:    ranker,
		bonus:     bonusSvc,
		directory: directory,
		market:    client,
	}
}

type noticeResponse struct {
	Notice string `json:"notice"`
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *Handlers) writeNotice(w http.ResponseWriter, status int, notice string) {
	h.writeJSON(w, status, noticeResponse{Notice: notice})
}

// tradeError maps trade/ledger errors onto user-facing notices. A duplicate
// sale in flight is answered 202: the request is dropped, not failed.
func (h *Handlers) tradeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, trading.ErrInvalidQuantity):
		h.writeNotice(w, http.StatusBadRequest, "Enter a valid quantity.")
	case errors.Is(err, trading.ErrBelowMinimumLot):
		h.writeNotice(w, http.StatusBadRequest, "Quantity is below the minimum lot.")
	case errors.Is(err, ledger.ErrInsufficientFunds):
		h.writeNotice(w, http.StatusBadRequest, "Not enough credits for this trade.")
	case errors.Is(err, trading.ErrInvalidHolding):
		h.writeNotice(w, http.StatusBadRequest, "This holding can no longer be sold.")
	case errors.Is(err, trading.ErrSaleInFlight):
		h.writeNotice(w, http.StatusAccepted, "Sale already in progress.")
	case errors.Is(err, market.ErrPriceUnavailable):
		h.writeNotice(w, http.StatusBadGateway, "Live price unavailable. Please try again.")
	default:
		h.log.Error("Trade failed", zap.Error(err))
		h.writeNotice(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
	}
}

// language reads the stored display language preference.
func (h *Handlers) language() i18n.Lang {
	var pref models.Preference
	if err := h.db.First(&pref, "key = ?", models.PrefLanguage).Error; err != nil {
		return i18n.English
	}
	return i18n.ParseLang(pref.Value)
}

type portfolioResponse struct {
	*portfolio.Summary
	Display map[string]string `json:"display"`
}

// Portfolio returns the freshly valued portfolio plus display strings in the
// investor's language.
func (h *Handlers) Portfolio(w http.ResponseWriter, r *http.Request) {
	summary, err := h.valuator.Valuate(r.Context())
	if err != nil {
		h.log.Error("Portfolio valuation failed", zap.Error(err))
		h.writeNotice(w, http.StatusInternalServerError, "Could not value your portfolio.")
		return
	}

	lang := h.language()
	h.writeJSON(w, http.StatusOK, portfolioResponse{
		Summary: summary,
		Display: map[string]string{
			"credit_balance":      i18n.Currency(summary.CreditBalance, lang),
			"total_invested":      i18n.Currency(summary.TotalInvested, lang),
			"total_current_value": i18n.Currency(summary.TotalCurrentValue, lang),
			"total_profit":        i18n.Currency(summary.TotalProfit, lang),
			"net_worth":           i18n.Currency(summary.NetWorth, lang),
		},
	})
}

// Holdings returns the open positions in purchase order, unvalued.
func (h *Handlers) Holdings(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.valuator.Holdings()
	if err != nil {
		h.log.Error("Failed to load holdings", zap.Error(err))
		h.writeNotice(w, http.StatusInternalServerError, "Could not load holdings.")
		return
	}
	h.writeJSON(w, http.StatusOK, holdings)
}

type buyRequest struct {
	Symbol   string          `json:"symbol"`
	Quantity decimal.Decimal `json:"quantity"`
}

// Buy executes a purchase at the current market price.
func (h *Handlers) Buy(w http.ResponseWriter, r *http.Request) {
	var req buyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeNotice(w, http.StatusBadRequest, "Enter a valid quantity.")
		return
	}

	holding, err := h.engine.Buy(r.Context(), req.Symbol, req.Quantity)
	if err != nil {
		h.tradeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, holding)
}

type sellRequest struct {
	HoldingID string `json:"holding_id"`
}

type sellResponse struct {
	Proceeds decimal.Decimal `json:"proceeds"`
}

// Sell liquidates one holding at the current market price.
func (h *Handlers) Sell(w http.ResponseWriter, r *http.Request) {
	var req sellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeNotice(w, http.StatusBadRequest, "Invalid sell request.")
		return
	}

	proceeds, err := h.engine.Sell(r.Context(), req.HoldingID)
	if err != nil {
		h.tradeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sellResponse{Proceeds: proceeds})
}

// Leaderboard returns the current top-N standings.
func (h *Handlers) Leaderboard(w http.ResponseWriter, r *http.Request) {
	standings, err := h.ranker.Standings(time.Now())
	if err != nil {
		h.log.Error("Failed to load leaderboard", zap.Error(err))
		h.writeNotice(w, http.StatusInternalServerError, "Could not load the leaderboard.")
		return
	}
	h.writeJSON(w, http.StatusOK, standings)
}

// Podium returns the top three entries.
func (h *Handlers) Podium(w http.ResponseWriter, r *http.Request) {
	podium, err := h.ranker.Podium(time.Now())
	if err != nil {
		h.log.Error("Failed to load podium", zap.Error(err))
		h.writeNotice(w, http.StatusInternalServerError, "Could not load the leaderboard.")
		return
	}
	h.writeJSON(w, http.StatusOK, podium)
}

type bonusResponse struct {
	Amount  decimal.Decimal `json:"amount"`
	Claimed bool            `json:"claimed"`
}

// ClaimBonus credits today's login bonus.
func (h *Handlers) ClaimBonus(w http.ResponseWriter, r *http.Request) {
	amount, err := h.bonus.Claim(time.Now())
	if errors.Is(err, bonus.ErrAlreadyClaimed) {
		h.writeNotice(w, http.StatusConflict, "Today's bonus is already claimed.")
		return
	}
	if err != nil {
		h.log.Error("Bonus claim failed", zap.Error(err))
		h.writeNotice(w, http.StatusInternalServerError, "Could not claim the bonus.")
		return
	}
	h.writeJSON(w, http.StatusOK, bonusResponse{Amount: amount, Claimed: true})
}

// BonusStatus reports whether today's bonus is still available.
func (h *Handlers) BonusStatus(w http.ResponseWriter, r *http.Request) {
	claimed, err := h.bonus.ClaimedToday(time.Now())
	if err != nil {
		h.log.Error("Bonus status check failed", zap.Error(err))
		h.writeNotice(w, http.StatusInternalServerError, "Could not check the bonus.")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"claimed": claimed})
}

// Companies searches the company directory.
func (h *Handlers) Companies(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.directory.Search(r.URL.Query().Get("q")))
}

// Company looks up one symbol in the directory.
func (h *Handlers) Company(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	company, ok := h.directory.Lookup(symbol)
	if !ok {
		h.writeNotice(w, http.StatusNotFound, "Unknown symbol.")
		return
	}
	h.writeJSON(w, http.StatusOK, company)
}

// TopGainers proxies the backend's gainers board.
func (h *Handlers) TopGainers(w http.ResponseWriter, r *http.Request) {
	movers, err := h.market.GetTopGainers(r.Context())
	if err != nil {
		h.writeNotice(w, http.StatusBadGateway, "Market data unavailable.")
		return
	}
	h.writeJSON(w, http.StatusOK, movers)
}

// TopLosers proxies the backend's losers board.
func (h *Handlers) TopLosers(w http.ResponseWriter, r *http.Request) {
	movers, err := h.market.GetTopLosers(r.Context())
	if err != nil {
		h.writeNotice(w, http.StatusBadGateway, "Market data unavailable.")
		return
	}
	h.writeJSON(w, http.StatusOK, movers)
}

// AllStocks proxies the backend's full quote list.
func (h *Handlers) AllStocks(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.market.GetAllStocks(r.Context())
	if err != nil {
		h.writeNotice(w, http.StatusBadGateway, "Market data unavailable.")
		return
	}
	h.writeJSON(w, http.StatusOK, quotes)
}

// OHLC proxies candle history for the chart view.
func (h *Handlers) OHLC(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	candles, err := h.market.GetOHLC(r.Context(), symbol, limit)
	if err != nil {
		h.writeNotice(w, http.StatusBadGateway, "Chart data unavailable.")
		return
	}
	h.writeJSON(w, http.StatusOK, candles)
}

// Preferences returns all stored user preferences.
func (h *Handlers) Preferences(w http.ResponseWriter, r *http.Request) {
	var prefs []models.Preference
	if err := h.db.Find(&prefs).Error; err != nil {
		h.log.Error("Failed to load preferences", zap.Error(err))
		h.writeNotice(w, http.StatusInternalServerError, "Could not load preferences.")
		return
	}

	out := make(map[string]string, len(prefs))
	for _, pref := range prefs {
		out[pref.Key] = pref.Value
	}
	h.writeJSON(w, http.StatusOK, out)
}

var knownPrefs = map[string]struct{}{
	models.PrefInvestorName: {},
	models.PrefLanguage:     {},
	models.PrefTheme:        {},
	models.PrefTextSize:     {},
	models.PrefFirstVisit:   {},
}

// SavePreferences upserts the submitted preference keys. Unknown keys are
// rejected so the table stays bounded.
func (h *Handlers) SavePreferences(w http.ResponseWriter, r *http.Request) {
	var in map[string]string
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeNotice(w, http.StatusBadRequest, "Invalid preferences.")
		return
	}

	for key, value := range in {
		if _, ok := knownPrefs[key]; !ok {
			h.writeNotice(w, http.StatusBadRequest, "Unknown preference: "+key)
			return
		}
		pref := models.Preference{Key: key, Value: value}
		if err := h.db.Save(&pref).Error; err != nil {
			h.log.Error("Failed to save preference", zap.String("key", key), zap.Error(err))
			h.writeNotice(w, http.StatusInternalServerError, "Could not save preferences.")
			return
		}
	}
	h.writeJSON(w, http.StatusOK, noticeResponse{Notice: "Preferences saved."})
}
