package trading

import "errors"

// Validation errors surfaced to the caller as transient user notices.
// Insufficient funds is reported by the ledger package.
var (
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrBelowMinimumLot = errors.New("quantity below minimum lot")
	ErrInvalidHolding  = errors.New("invalid holding")

	// ErrSaleInFlight means a sell for this holding is already awaiting
	// price confirmation. Callers drop the request silently rather than
	// surfacing an error, so a rapid double click cannot double-sell.
	ErrSaleInFlight = errors.New("sale already in flight")
)
