package query

import (
	"time"

	"subtrack/internal/core"
)

// DashboardRenewals is how many upcoming renewals the dashboard lists.
const DashboardRenewals = 3

// Renewal is an upcoming charge with its countdown precomputed.
type Renewal struct {
	core.Subscription
	DaysLeft  int    `json:"daysLeft"`
	Countdown string `json:"countdown"`
}

// Summary is the dashboard view of a snapshot.
type Summary struct {
	Count          int             `json:"count"`
	Total          float64         `json:"total"`
	MonthlySpend   float64         `json:"monthlySpend"`
	Upcoming       int             `json:"upcoming"`
	Missed         int             `json:"missed"`
	DueNow         int             `json:"dueNow"`
	MonthlyTotals  []MonthTotal    `json:"monthlyTotals"`
	CategoryTotals []CategoryTotal `json:"categoryTotals"`
	NextRenewals   []Renewal       `json:"nextRenewals"`
	GeneratedAt    time.Time       `json:"generatedAt"`
}

func Summarize(records []core.Subscription, now time.Time) Summary {
	next := UpcomingRenewals(records, now, DashboardRenewals)
	renewals := make([]Renewal, 0, len(next))
	for _, r := range next {
		renewals = append(renewals, Renewal{
			Subscription: r,
			DaysLeft:     DaysUntil(r.RenewDate, now),
			Countdown:    RenewalCountdown(r.RenewDate, now),
		})
	}

	categories := AggregateByCategory(records)
	if categories == nil {
		categories = []CategoryTotal{}
	}

	return Summary{
		Count:          len(records),
		Total:          SumTotal(records),
		MonthlySpend:   MonthlySpend(records),
		Upcoming:       CountUpcoming(records, now),
		Missed:         CountMissed(records, now),
		DueNow:         CountEqual(records, now),
		MonthlyTotals:  AggregateMonthlyTotals(records),
		CategoryTotals: categories,
		NextRenewals:   renewals,
		GeneratedAt:    now,
	}
}
