package bonus

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"nepse-paper-trader-go/internal/ledger"
	"nepse-paper-trader-go/internal/models"
)

// ErrAlreadyClaimed is returned when the daily bonus was already claimed on
// the given calendar day.
var ErrAlreadyClaimed = errors.New("daily bonus already claimed")

const dayFormat = "2006-01-02"

// Service hands out the daily login bonus. One claim per calendar day; the
// claim record and the ledger credit commit together.
type Service struct {
	db     *gorm.DB
	ledger *ledger.Ledger
	logger *zap.Logger
	amount decimal.Decimal
}

// NewService creates the daily bonus service.
func NewService(db *gorm.DB, led *ledger.Ledger, logger *zap.Logger, amount decimal.Decimal) *Service {
	return &Service{db: db, ledger: led, logger: logger, amount: amount}
}

// Claim credits today's bonus to the ledger. A second claim on the same day
// fails with ErrAlreadyClaimed and changes nothing.
func (s *Service) Claim(now time.Time) (decimal.Decimal, error) {
	day := now.Format(dayFormat)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.BonusClaim
		err := tx.First(&existing, "day = ?", day).Error
		if err == nil {
			return ErrAlreadyClaimed
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check bonus claim: %w", err)
		}

		if err := s.ledger.WithTx(tx).Credit(s.amount); err != nil {
			return err
		}

		claim := models.BonusClaim{Day: day, Amount: s.amount, ClaimedAt: now}
		return tx.Create(&claim).Error
	})
	if err != nil {
		return decimal.Zero, err
	}

	s.logger.Info("Daily bonus claimed",
		zap.String("day", day),
		zap.String("amount", s.amount.String()))
	return s.amount, nil
}

// ClaimedToday reports whether the bonus for now's calendar day is spent.
func (s *Service) ClaimedToday(now time.Time) (bool, error) {
	var count int64
	err := s.db.Model(&models.BonusClaim{}).
		Where("day = ?", now.Format(dayFormat)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check bonus claim: %w", err)
	}
	return count > 0, nil
}
