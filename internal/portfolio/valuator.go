package portfolio

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"nepse-paper-trader-go/internal/ledger"
	"nepse-paper-trader-go/internal/market"
	"nepse-paper-trader-go/internal/models"
)

// Position is one holding valued at the current market price.
type Position struct {
	Holding           models.Holding  `json:"holding"`
	CurrentPrice      decimal.Decimal `json:"current_price"`
	CurrentValue      decimal.Decimal `json:"current_value"`
	ProfitLoss        decimal.Decimal `json:"profit_loss"`
	ProfitLossPercent decimal.Decimal `json:"profit_loss_percent"`
}

// Summary aggregates the portfolio at a point in time. Holdings whose price
// could not be fetched this pass are listed in Skipped and excluded from
// every total; the next refresh picks them up again.
type Summary struct {
	Positions         []Position      `json:"positions"`
	Skipped           []string        `json:"skipped,omitempty"`
	CreditBalance     decimal.Decimal `json:"credit_balance"`
	TotalInvested     decimal.Decimal `json:"total_invested"`
	TotalCurrentValue decimal.Decimal `json:"total_current_value"`
	TotalProfit       decimal.Decimal `json:"total_profit"`
	NetWorth          decimal.Decimal `json:"net_worth"`
}

// Valuator recomputes the current value of all holdings from live prices.
// Nothing is cached between calls.
type Valuator struct {
	db     *gorm.DB
	ledger *ledger.Ledger
	market market.Client
	logger *zap.Logger
}

// NewValuator creates a portfolio valuator.
func NewValuator(db *gorm.DB, led *ledger.Ledger, client market.Client, logger *zap.Logger) *Valuator {
	return &Valuator{db: db, ledger: led, market: client, logger: logger}
}

// Holdings returns all open positions in purchase order.
func (v *Valuator) Holdings() ([]models.Holding, error) {
	var holdings []models.Holding
	if err := v.db.Order("purchase_date asc, created_at asc").Find(&holdings).Error; err != nil {
		return nil, fmt.Errorf("failed to load holdings: %w", err)
	}
	return holdings, nil
}

// Valuate fetches a fresh price for every holding and aggregates the
// portfolio. A failed price fetch skips that one holding and keeps going.
func (v *Valuator) Valuate(ctx context.Context) (*Summary, error) {
	balance, err := v.ledger.Balance()
	if err != nil {
		return nil, err
	}

	holdings, err := v.Holdings()
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Positions:         make([]Position, 0, len(holdings)),
		CreditBalance:     balance,
		TotalInvested:     decimal.Zero,
		TotalCurrentValue: decimal.Zero,
	}

	for _, holding := range holdings {
		price, err := v.market.GetStockPrice(ctx, holding.Symbol)
		if err != nil {
			v.logger.Warn("Skipping holding in valuation, price fetch failed",
				zap.String("symbol", holding.Symbol),
				zap.Error(err))
			summary.Skipped = append(summary.Skipped, holding.Symbol)
			continue
		}

		currentValue := holding.Quantity.Mul(price)
		profitLoss := currentValue.Sub(holding.AmountSpent)
		profitLossPercent := decimal.Zero
		if holding.AmountSpent.Sign() > 0 {
			profitLossPercent = profitLoss.Div(holding.AmountSpent).Mul(decimal.NewFromInt(100))
		}

		summary.Positions = append(summary.Positions, Position{
			Holding:           holding,
			CurrentPrice:      price,
			CurrentValue:      currentValue,
			ProfitLoss:        profitLoss,
			ProfitLossPercent: profitLossPercent,
		})
		summary.TotalInvested = summary.TotalInvested.Add(holding.AmountSpent)
		summary.TotalCurrentValue = summary.TotalCurrentValue.Add(currentValue)
	}

	summary.TotalProfit = summary.TotalCurrentValue.Sub(summary.TotalInvested)
	summary.NetWorth = balance.Add(summary.TotalCurrentValue)

	return summary, nil
}
