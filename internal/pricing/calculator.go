// Package pricing computes the full ticket price with the booking fee.
// All arithmetic is decimal: money never touches floating point.
package pricing

import (
	"kassa/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Calculate returns the price breakdown for one ticket:
//
//	bookingAmount = price * feePercent / 100
//	totalAmount   = price + bookingAmount
//
// Pure function, no I/O. Callers must not cache the result: the fee percent
// is configuration that can change between reads.
func Calculate(ticket *models.Ticket) models.PriceInfo {
	bookingAmount := ticket.Price.Mul(ticket.FeePercent).Div(hundred)
	return models.PriceInfo{
		TicketPrice:   ticket.Price,
		FeePercent:    ticket.FeePercent,
		BookingAmount: bookingAmount,
		TotalAmount:   ticket.Price.Add(bookingAmount),
		Currency:      ticket.Currency,
	}
}
