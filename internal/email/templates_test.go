package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		amount   int
		currency string
		want     string
	}{
		{0, "EUR", "€0"},
		{999, "EUR", "€999"},
		{2265, "EUR", "€2,265"},
		{1234567, "usd", "$1,234,567"},
		{100000, "GBP", "£100,000"},
		{42, "CHF", "42 CHF"},
		{1500, "", "1,500"},
		{-168, "EUR", "-€168"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatMoney(tt.amount, tt.currency))
	}
}

func TestBuildOrderConfirmationBody(t *testing.T) {
	body, err := BuildOrderConfirmationBody(Confirmation{
		OrderID:      "ORD-1A2B3C4D",
		StoreName:    "Eri Mobile",
		Currency:     "EUR",
		CustomerName: "Ada <script>",
		Items: []Line{
			{Name: "Phone One", Color: "Black", Storage: "256GB", Quantity: 2, UnitPrice: 999},
			{Name: "Case", Color: "Clear", Quantity: 1, UnitPrice: 99},
		},
		Subtotal: 2097,
		Shipping: 0,
		Tax:      168,
		Total:    2265,
	})

	require.NoError(t, err)
	assert.Contains(t, body, "ORD-1A2B3C4D")
	assert.Contains(t, body, "Black / 256GB")
	assert.Contains(t, body, "€1,998")
	assert.Contains(t, body, "€2,097")
	assert.Contains(t, body, "€168")
	assert.Contains(t, body, "€2,265")
	assert.Contains(t, body, "Free")
	assert.NotContains(t, body, "<script>")
}

func TestConfirmationSubject(t *testing.T) {
	assert.Equal(t, "Eri Mobile: order ORD-1 confirmed", ConfirmationSubject(Confirmation{OrderID: "ORD-1", StoreName: "Eri Mobile"}))
	assert.Equal(t, "Your order: order ORD-1 confirmed", ConfirmationSubject(Confirmation{OrderID: "ORD-1"}))
}
