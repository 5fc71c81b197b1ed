package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BonusClaim records a claimed daily bonus. Day is the local calendar day
// in YYYY-MM-DD form; the unique index enforces one claim per day.
type BonusClaim struct {
	ID        uint            `gorm:"primaryKey"`
	Day       string          `gorm:"uniqueIndex;not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,8);not null"`
	ClaimedAt time.Time       `gorm:"not null"`
}
