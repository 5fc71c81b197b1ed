package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"nepse-paper-trader-go/internal/models"
)

// ErrInsufficientFunds is returned when a debit exceeds the current balance.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Ledger owns the investor's credit balance. Every mutation is written
// through to the database immediately so a crash never loses or duplicates
// a balance change.
type Ledger struct {
	db       *gorm.DB
	logger   *zap.Logger
	starting decimal.Decimal
}

// NewLedger creates the ledger, initializing the balance row to the starting
// default on first run and applying the one-shot legacy migration: a balance
// below the current default that has not been migrated yet is raised to the
// default exactly once.
func NewLedger(db *gorm.DB, logger *zap.Logger, starting decimal.Decimal) (*Ledger, error) {
	l := &Ledger{db: db, logger: logger, starting: starting}

	var balance models.Balance
	err := db.First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		balance = models.Balance{Amount: starting, Migrated: true}
		if err := db.Create(&balance).Error; err != nil {
			return nil, fmt.Errorf("failed to create balance row: %w", err)
		}
		logger.Info("Initialized credit balance", zap.String("amount", starting.String()))
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load balance row: %w", err)
	}

	if !balance.Migrated {
		if balance.Amount.LessThan(starting) {
			logger.Info("Migrating legacy balance to new starting default",
				zap.String("old", balance.Amount.String()),
				zap.String("new", starting.String()))
			balance.Amount = starting
		}
		balance.Migrated = true
		if err := db.Save(&balance).Error; err != nil {
			return nil, fmt.Errorf("failed to migrate balance row: %w", err)
		}
	}

	return l, nil
}

// WithTx returns a ledger bound to the given transaction handle, so balance
// mutations can commit atomically with other writes.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	return &Ledger{db: tx, logger: l.logger, starting: l.starting}
}

// Balance reads the current credit balance.
func (l *Ledger) Balance() (decimal.Decimal, error) {
	var balance models.Balance
	err := l.db.First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return l.starting, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read balance: %w", err)
	}
	return balance.Amount, nil
}

// Credit increases the balance by amount and persists immediately.
func (l *Ledger) Credit(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("credit amount must be positive, got %s", amount)
	}

	var balance models.Balance
	if err := l.db.First(&balance).Error; err != nil {
		return fmt.Errorf("failed to read balance: %w", err)
	}

	balance.Amount = balance.Amount.Add(amount)
	if err := l.db.Save(&balance).Error; err != nil {
		return fmt.Errorf("failed to persist credit: %w", err)
	}

	l.logger.Debug("Credited balance",
		zap.String("amount", amount.String()),
		zap.String("balance", balance.Amount.String()))
	return nil
}

// Debit decreases the balance by amount, failing with ErrInsufficientFunds
// if amount exceeds the current balance. A failed debit leaves the balance
// untouched.
func (l *Ledger) Debit(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("debit amount must be positive, got %s", amount)
	}

	var balance models.Balance
	if err := l.db.First(&balance).Error; err != nil {
		return fmt.Errorf("failed to read balance: %w", err)
	}

	if amount.GreaterThan(balance.Amount) {
		return ErrInsufficientFunds
	}

	balance.Amount = balance.Amount.Sub(amount)
	if err := l.db.Save(&balance).Error; err != nil {
		return fmt.Errorf("failed to persist debit: %w", err)
	}

	l.logger.Debug("Debited balance",
		zap.String("amount", amount.String()),
		zap.String("balance", balance.Amount.String()))
	return nil
}
