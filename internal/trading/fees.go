package trading

import "github.com/shopspring/decimal"

// FeeSchedule holds the transaction fee rates applied to the buy notional.
// Sell proceeds are intentionally fee-free, matching the exchange simulator's
// observed behavior.
type FeeSchedule struct {
	Broker     decimal.Decimal
	Regulatory decimal.Decimal
	Depository decimal.Decimal
}

// NewFeeSchedule builds a fee schedule from configured rates.
func NewFeeSchedule(broker, regulatory, depository float64) FeeSchedule {
	return FeeSchedule{
		Broker:     decimal.NewFromFloat(broker),
		Regulatory: decimal.NewFromFloat(regulatory),
		Depository: decimal.NewFromFloat(depository),
	}
}

// DefaultFeeSchedule returns the standard rates: 0.6% broker commission,
// 0.015% regulatory fee, 0.1% depository fee.
func DefaultFeeSchedule() FeeSchedule {
	return NewFeeSchedule(0.006, 0.00015, 0.001)
}

// Fees returns the total fee charged on a trade notional.
func (f FeeSchedule) Fees(base decimal.Decimal) decimal.Decimal {
	return base.Mul(f.Broker).
		Add(base.Mul(f.Regulatory)).
		Add(base.Mul(f.Depository))
}

// TotalCost returns the credits debited for a buy of quantity shares at
// price per share: the notional plus all fees.
func (f FeeSchedule) TotalCost(quantity, price decimal.Decimal) decimal.Decimal {
	base := quantity.Mul(price)
	return base.Add(f.Fees(base))
}
