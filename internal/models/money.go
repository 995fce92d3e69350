package models

import "github.com/shopspring/decimal"

// FormatCents renders an amount in minor units as a two-decimal string ("89.99").
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
