package app

import (
	"math"
	"strconv"
)

// formatPercent renders num/den as a whole percentage; a zero denominator renders empty.
func formatPercent(num, den float64) string {
	if den == 0 {
		return ""
	}
	return strconv.FormatFloat(math.Round(100*num/den), 'f', 0, 64) + "%"
}

// formatDecimal renders num/den with the given precision; a zero denominator renders empty.
func formatDecimal(num, den float64, digits int) string {
	if den == 0 {
		return ""
	}
	return strconv.FormatFloat(num/den, 'f', digits, 64)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
