// Package pricing computes cart subtotals, delivery fees and order totals.
// Every function is pure and works in fixed-point decimals.
package pricing

import (
	"github.com/shopspring/decimal"
)

// Places is the number of decimal digits carried by every monetary value.
const Places int32 = 2

var (
	// NearDeliveryMaxKM is the inclusive upper bound of the near delivery tier.
	NearDeliveryMaxKM = decimal.RequireFromString("3.0")
	// NearDeliveryFee applies to distances up to and including NearDeliveryMaxKM.
	NearDeliveryFee = decimal.RequireFromString("3.99")
	// FarDeliveryFee applies to every distance beyond NearDeliveryMaxKM.
	FarDeliveryFee = decimal.RequireFromString("7.99")
)

// Line is the pricing view of one cart line.
type Line struct {
	Quantity  int
	UnitPrice decimal.Decimal
}

// Total returns quantity times unit price.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(Places)
}

// Quote is the full price breakdown of a cart.
type Quote struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Total       decimal.Decimal `json:"total"`
}

// Subtotal sums quantity times unit price over lines.
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(line.Total())
	}
	return sum.Round(Places)
}

// DeliveryFee returns the tier fee for the distance in kilometres.
func DeliveryFee(distanceKM decimal.Decimal) decimal.Decimal {
	if distanceKM.LessThanOrEqual(NearDeliveryMaxKM) {
		return NearDeliveryFee
	}
	return FarDeliveryFee
}

// Total adds the delivery fee to the subtotal.
func Total(subtotal, fee decimal.Decimal) decimal.Decimal {
	return subtotal.Add(fee).Round(Places)
}

// NewQuote prices lines for delivery over distanceKM.
func NewQuote(lines []Line, distanceKM decimal.Decimal) Quote {
	subtotal := Subtotal(lines)
	fee := DeliveryFee(distanceKM)
	return Quote{
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Total:       Total(subtotal, fee),
	}
}
