// Package export renders subscriptions for download: a CSV of a filtered list,
// and a printable HTML or PDF document for a single record.
package export

import (
	"math"

	"github.com/dustin/go-humanize"
)

// CurrencySymbol prefixes every price in CSV and HTML output.
const CurrencySymbol = "₦"

// FormatAmount groups thousands and keeps at most three fraction digits,
// trimming trailing zeros: 1200 -> "1,200", 9.5 -> "9.5".
func FormatAmount(v float64) string {
	return humanize.Commaf(math.Round(v*1000) / 1000)
}

// FormatCurrency renders v with the currency symbol and exactly two
// fraction digits, e.g. "₦1,200.00".
func FormatCurrency(v float64) string {
	return CurrencySymbol + humanize.FormatFloat("#,###.##", v)
}
