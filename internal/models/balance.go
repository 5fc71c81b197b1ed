package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance holds the investor's spendable credit balance.
// There should only ever be one row in this table.
type Balance struct {
	ID        uint            `gorm:"primaryKey"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,8);not null"`
	Migrated  bool            `gorm:"default:false"`
	UpdatedAt time.Time
}
