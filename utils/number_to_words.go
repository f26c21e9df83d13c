package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ones = []string{
	"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
	"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen",
	"Sixteen", "Seventeen", "Eighteen", "Nineteen",
}

var tens = []string{
	"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
}

// NumberToWords spells num in the Indian system (Thousand, Lakh, Crore).
func NumberToWords(num int64) string {
	switch {
	case num <= 0:
		return ""
	case num < 20:
		return ones[num]
	case num < 100:
		return strings.TrimSpace(tens[num/10] + " " + ones[num%10])
	case num < 1000:
		return join(ones[num/100]+" Hundred", NumberToWords(num%100))
	case num < 100000:
		return join(NumberToWords(num/1000)+" Thousand", NumberToWords(num%1000))
	case num < 10000000:
		return join(NumberToWords(num/100000)+" Lakh", NumberToWords(num%100000))
	default:
		return join(NumberToWords(num/10000000)+" Crore", NumberToWords(num%10000000))
	}
}

func join(head, tail string) string {
	if tail == "" {
		return head
	}
	return head + " " + tail
}

// AmountToWords renders a rupee amount rounded to paise, e.g.
// "Twenty One Thousand Two Hundred Forty Rupees and Fifty Paise Only".
func AmountToWords(amount decimal.Decimal) string {
	amount = amount.Abs().Round(2)
	rupees := amount.Truncate(0)
	paise := amount.Sub(rupees).Shift(2).IntPart()

	var parts []string
	if r := rupees.IntPart(); r > 0 {
		parts = append(parts, fmt.Sprintf("%s Rupees", NumberToWords(r)))
	}
	if paise > 0 {
		parts = append(parts, fmt.Sprintf("%s Paise", NumberToWords(paise)))
	}

	if len(parts) == 0 {
		return "Zero Rupees Only"
	}
	return strings.Join(parts, " and ") + " Only"
}

// ClaimLine is the closing sentence printed under every bill section.
func ClaimLine(amount decimal.Decimal) string {
	return fmt.Sprintf("We are claiming for Rs. %s (%s) only.", amount.StringFixed(2), strings.TrimSuffix(AmountToWords(amount), " Only"))
}
