package trading

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"nepse-paper-trader-go/internal/leaderboard"
	"nepse-paper-trader-go/internal/ledger"
	"nepse-paper-trader-go/internal/market"
	"nepse-paper-trader-go/internal/models"
	"nepse-paper-trader-go/internal/portfolio"
)

// Engine validates and executes simulated buys and sells. A buy debits the
// ledger and opens a holding; a sell liquidates a whole holding and credits
// the raw proceeds. Either both writes of an operation commit or neither
// does. Execution price is always fetched fresh at confirmation time so a
// stale caller-supplied price can never be traded on.
type Engine struct {
	logger   *zap.Logger
	db       *gorm.DB
	ledger   *ledger.Ledger
	market   market.Client
	valuator *portfolio.Valuator
	ranker   *leaderboard.Ranker
	fees     FeeSchedule
	minLot   decimal.Decimal
	guard    *saleGuard
	mu       sync.Mutex // serializes ledger/holding mutation across requests
}

// NewEngine creates a new trade execution engine. valuator and ranker may be
// nil, in which case the post-trade leaderboard refresh is skipped.
func NewEngine(logger *zap.Logger, db *gorm.DB, led *ledger.Ledger, client market.Client,
	fees FeeSchedule, minLot decimal.Decimal,
	valuator *portfolio.Valuator, ranker *leaderboard.Ranker) *Engine {
	return &Engine{
		logger:   logger,
		db:       db,
		ledger:   led,
		market:   client,
		valuator: valuator,
		ranker:   ranker,
		fees:     fees,
		minLot:   minLot,
		guard:    newSaleGuard(),
	}
}

// Buy purchases quantity shares of symbol at the current market price.
// Validation order: quantity must be positive, then at least one lot, then
// the total cost (notional plus fees) must fit the balance. A failed
// validation leaves ledger and holdings untouched.
func (e *Engine) Buy(ctx context.Context, symbol string, quantity decimal.Decimal) (*models.Holding, error) {
	if quantity.Sign() <= 0 {
		return nil, ErrInvalidQuantity
	}
	if quantity.LessThan(e.minLot) {
		return nil, fmt.Errorf("%w: minimum is %s shares", ErrBelowMinimumLot, e.minLot)
	}

	price, err := e.market.GetStockPrice(ctx, symbol)
	if err != nil {
		return nil, err
	}

	totalCost := e.fees.TotalCost(quantity, price)
	holding := &models.Holding{
		ID:           uuid.NewString(),
		Symbol:       symbol,
		Quantity:     quantity,
		BuyPrice:     price,
		AmountSpent:  totalCost,
		PurchaseDate: time.Now(),
	}

	e.mu.Lock()
	err = e.db.Transaction(func(tx *gorm.DB) error {
		if err := e.ledger.WithTx(tx).Debit(totalCost); err != nil {
			return err
		}
		return tx.Create(holding).Error
	})
	e.mu.Unlock()
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			return nil, err
		}
		return nil, fmt.Errorf("buy failed: %w", err)
	}

	e.logger.Info("Executed buy",
		zap.String("symbol", symbol),
		zap.String("quantity", quantity.String()),
		zap.String("price", price.String()),
		zap.String("total_cost", totalCost.String()))

	e.refreshLeaderboard(ctx)
	return holding, nil
}

// Sell liquidates the whole holding at the current market price and credits
// the raw proceeds, fee-free. While the price fetch is outstanding the
// holding is guarded so a second sell request for it is dropped with
// ErrSaleInFlight. A failed price fetch releases the guard and leaves all
// state untouched; the holding remains sellable on retry.
func (e *Engine) Sell(ctx context.Context, holdingID string) (decimal.Decimal, error) {
	var holding models.Holding
	err := e.db.First(&holding, "id = ?", holdingID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, ErrInvalidHolding
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load holding: %w", err)
	}
	if holding.Symbol == "" || holding.Quantity.Sign() <= 0 {
		return decimal.Zero, ErrInvalidHolding
	}

	// Guard acquisition happens before the price fetch starts; release runs
	// no matter how the sale ends.
	if !e.guard.acquire(holding.ID) {
		return decimal.Zero, ErrSaleInFlight
	}
	defer e.guard.release(holding.ID)

	price, err := e.market.GetStockPrice(ctx, holding.Symbol)
	if err != nil {
		return decimal.Zero, err
	}

	proceeds := holding.Quantity.Mul(price)

	e.mu.Lock()
	err = e.db.Transaction(func(tx *gorm.DB) error {
		if err := e.ledger.WithTx(tx).Credit(proceeds); err != nil {
			return err
		}
		return tx.Delete(&models.Holding{}, "id = ?", holding.ID).Error
	})
	e.mu.Unlock()
	if err != nil {
		return decimal.Zero, fmt.Errorf("sell failed: %w", err)
	}

	e.logger.Info("Executed sell",
		zap.String("symbol", holding.Symbol),
		zap.String("quantity", holding.Quantity.String()),
		zap.String("price", price.String()),
		zap.String("proceeds", proceeds.String()))

	e.refreshLeaderboard(ctx)
	return proceeds, nil
}

// refreshLeaderboard recomputes the investor's net worth and updates their
// leaderboard entry after a successful trade. Failures are logged only; the
// trade itself has already committed.
func (e *Engine) refreshLeaderboard(ctx context.Context) {
	if e.valuator == nil || e.ranker == nil {
		return
	}

	summary, err := e.valuator.Valuate(ctx)
	if err != nil {
		e.logger.Warn("Post-trade valuation failed, leaderboard not refreshed", zap.Error(err))
		return
	}
	if err := e.ranker.RefreshUser(summary.NetWorth, time.Now()); err != nil {
		e.logger.Warn("Post-trade leaderboard refresh failed", zap.Error(err))
	}
}
