package report

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	humanize "github.com/dustin/go-humanize"
)

// exactLimit is the magnitude above which float64 has no fractional
// digits. Such values are formatted without an int64 conversion.
const exactLimit = 1 << 53

var numberFormats = map[int]string{
	1: "#,###.#",
	2: "#,###.##",
}

// Number formats v with thousands separators and a fixed number of
// decimals (0 to 2).
func Number(v float64, decimals int) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return "n/a"
	}
	if math.Abs(v) >= exactLimit {
		return bigNumber(v, max(decimals, 0))
	}
	if decimals <= 0 {
		return humanize.Comma(int64(math.Round(v)))
	}
	f, ok := numberFormats[decimals]
	if !ok {
		f = numberFormats[2]
	}
	return humanize.FormatFloat(f, v)
}

// Percent formats a fraction as a percentage with two decimals.
func Percent(fraction float64) string {
	if math.IsInf(fraction, 0) || math.IsNaN(fraction) {
		return "n/a"
	}
	return Number(fraction*100, 2) + "%"
}

func bigNumber(v float64, decimals int) string {
	s := strconv.FormatFloat(math.Abs(v), 'f', min(decimals, 2), 64)
	intPart, frac, _ := strings.Cut(s, ".")
	n, _ := new(big.Int).SetString(intPart, 10)
	out := humanize.BigComma(n)
	if frac != "" {
		out += "." + frac
	}
	if v < 0 {
		out = "-" + out
	}
	return out
}
