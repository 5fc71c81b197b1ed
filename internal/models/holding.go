package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding represents a single open simulated stock position.
// AmountSpent is the total credits debited at purchase, fees included.
type Holding struct {
	ID           string          `gorm:"primaryKey" json:"id"`
	Symbol       string          `gorm:"not null;index" json:"symbol"`
	Quantity     decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"quantity"`
	BuyPrice     decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"buy_price"`
	AmountSpent  decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount_spent"`
	PurchaseDate time.Time       `gorm:"not null" json:"purchase_date"`
	CreatedAt    time.Time       `json:"-"`
}
