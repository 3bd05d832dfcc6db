package pricing

import (
	"testing"

	"kassa/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func ticket(price, feePercent string) *models.Ticket {
	return &models.Ticket{
		ID:         1,
		Price:      decimal.RequireFromString(price),
		FeePercent: decimal.RequireFromString(feePercent),
		Currency:   "USD",
	}
}

func TestCalculate(t *testing.T) {
	info := Calculate(ticket("100", "10"))

	assert.True(t, info.BookingAmount.Equal(decimal.RequireFromString("10")),
		"booking amount = %s", info.BookingAmount)
	assert.True(t, info.TotalAmount.Equal(decimal.RequireFromString("110")),
		"total amount = %s", info.TotalAmount)
	assert.Equal(t, "USD", info.Currency)
}

func TestCalculateWithFractionalFee(t *testing.T) {
	info := Calculate(ticket("99.99", "2.5"))

	assert.True(t, info.BookingAmount.Equal(decimal.RequireFromString("2.499750")),
		"booking amount = %s", info.BookingAmount)
	assert.True(t, info.TotalAmount.Equal(decimal.RequireFromString("102.489750")),
		"total amount = %s", info.TotalAmount)
}

func TestCalculateZeroFee(t *testing.T) {
	info := Calculate(ticket("250.50", "0"))

	assert.True(t, info.BookingAmount.IsZero())
	assert.True(t, info.TotalAmount.Equal(decimal.RequireFromString("250.50")))
}

func TestCalculateScenario(t *testing.T) {
	// price 50 with a 20% fee is the canonical purchase scenario
	info := Calculate(ticket("50", "20"))

	assert.True(t, info.BookingAmount.Equal(decimal.RequireFromString("10")))
	assert.True(t, info.TotalAmount.Equal(decimal.RequireFromString("60")))
}

func TestCalculateRepeatedCallsAreStable(t *testing.T) {
	tk := ticket("33.33", "7.77")

	first := Calculate(tk)
	for i := 0; i < 1000; i++ {
		again := Calculate(tk)
		assert.True(t, first.TotalAmount.Equal(again.TotalAmount),
			"total drifted on call %d: %s != %s", i, first.TotalAmount, again.TotalAmount)
		assert.True(t, first.BookingAmount.Equal(again.BookingAmount))
	}
}
