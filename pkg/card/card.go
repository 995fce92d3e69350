// Package card validates payment card input.
package card

import "time"

// Luhn reports whether number is a non-empty digit string whose mod-10
// checksum is zero: digits are read right to left, every second digit is
// doubled and 9 is subtracted when the result exceeds 9.
func Luhn(number string) bool {
	if number == "" {
		return false
	}
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		ch := number[i]
		if ch < '0' || ch > '9' {
			return false
		}
		d := int(ch - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// Expired reports whether a card expiring at the end of month/year is no
// longer usable at now. Invalid months count as expired.
func Expired(month, year int, now time.Time) bool {
	if month < 1 || month > 12 {
		return true
	}
	if year != now.Year() {
		return year < now.Year()
	}
	return month < int(now.Month())
}

// ValidCVC reports whether cvc is three or four digits.
func ValidCVC(cvc string) bool {
	if len(cvc) != 3 && len(cvc) != 4 {
		return false
	}
	for i := 0; i < len(cvc); i++ {
		if cvc[i] < '0' || cvc[i] > '9' {
			return false
		}
	}
	return true
}
