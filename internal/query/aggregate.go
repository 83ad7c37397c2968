package query

import (
	"time"

	"subtrack/internal/core"
)

// UncategorizedLabel groups records without a category.
const UncategorizedLabel = "Uncategorized"

type MonthTotal struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
}

type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

// AggregateMonthlyTotals sums prices by the month name of the renewal date,
// regardless of year. Only months with records appear, January first.
func AggregateMonthlyTotals(records []core.Subscription) []MonthTotal {
	var totals [12]float64
	var present [12]bool
	for _, r := range records {
		i := int(r.RenewDate.Time.Month()) - 1
		totals[i] += r.Price.Float()
		present[i] = true
	}

	out := make([]MonthTotal, 0, 12)
	for i := range totals {
		if present[i] {
			out = append(out, MonthTotal{
				Month: time.Month(i + 1).String()[:3],
				Total: totals[i],
			})
		}
	}
	return out
}

// AggregateByCategory sums prices per category in first-seen order.
func AggregateByCategory(records []core.Subscription) []CategoryTotal {
	index := make(map[string]int)
	var out []CategoryTotal
	for _, r := range records {
		cat := r.Category
		if cat == "" {
			cat = UncategorizedLabel
		}
		i, ok := index[cat]
		if !ok {
			i = len(out)
			index[cat] = i
			out = append(out, CategoryTotal{Category: cat})
		}
		out[i].Total += r.Price.Float()
	}
	return out
}

// SumTotal adds every price. Invalid prices count as zero.
func SumTotal(records []core.Subscription) float64 {
	var sum float64
	for _, r := range records {
		sum += r.Price.Float()
	}
	return sum
}

// CountUpcoming counts records whose renewal instant is strictly after now.
// The renewal instant is midnight of the renewal date in now's location.
func CountUpcoming(records []core.Subscription, now time.Time) int {
	return count(records, now, func(t time.Time) bool { return t.After(now) })
}

// CountMissed counts records whose renewal instant is strictly before now.
func CountMissed(records []core.Subscription, now time.Time) int {
	return count(records, now, func(t time.Time) bool { return t.Before(now) })
}

// CountEqual counts records renewing exactly at now. Such records are in
// neither CountUpcoming nor CountMissed.
func CountEqual(records []core.Subscription, now time.Time) int {
	return count(records, now, func(t time.Time) bool { return t.Equal(now) })
}

func count(records []core.Subscription, now time.Time, pred func(time.Time) bool) int {
	n := 0
	for _, r := range records {
		if pred(r.RenewDate.In(now.Location())) {
			n++
		}
	}
	return n
}
