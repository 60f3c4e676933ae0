package utils

import (
	"fmt"
	"math"
)

// EURExchangeRate is the fixed conversion rate used by the payment
// trigger: 1 EUR = 1.95583 KM (the convertible mark is pegged to the
// euro at this rate).
const EURExchangeRate = 1.95583

// ConvertKMToEUR converts a KM amount to EUR at the fixed rate,
// rounded to two decimals as required by the payment processor.
func ConvertKMToEUR(amountKM float64) float64 {
	return math.Round(amountKM/EURExchangeRate*100) / 100
}

// FormatKM renders a KM amount for display, e.g. "128.00 KM".
func FormatKM(amount float64) string {
	return fmt.Sprintf("%.2f KM", amount)
}
