package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LeaderboardEntry is one row of the net-worth ranking. IsUser marks the
// local investor's own entry; every other row belongs to the synthetic
// population seeded at first run.
type LeaderboardEntry struct {
	ID          string          `gorm:"primaryKey" json:"id"`
	DisplayName string          `gorm:"not null" json:"display_name"`
	NetWorth    decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"net_worth"`
	LastUpdated time.Time       `gorm:"index;not null" json:"last_updated"`
	IsUser      bool            `gorm:"default:false" json:"is_user"`
}
