package query

import (
	"fmt"

	"subtrack/internal/core"
)

// CycleStrategy normalizes a price charged once per billing cycle.
type CycleStrategy interface {
	// PerMonth returns the monthly equivalent of price.
	PerMonth(price float64) float64
	// Label is the short suffix shown next to a price, e.g. "/mo".
	Label() string
}

type WeeklyStrategy struct{}

func (WeeklyStrategy) PerMonth(price float64) float64 { return price * 52 / 12 }
func (WeeklyStrategy) Label() string { return "/wk" }

type MonthlyStrategy struct{}

func (MonthlyStrategy) PerMonth(price float64) float64 { return price }
func (MonthlyStrategy) Label() string { return "/mo" }

type YearlyStrategy struct{}

func (YearlyStrategy) PerMonth(price float64) float64 { return price / 12 }
func (YearlyStrategy) Label() string { return "/yr" }

var cycleStrategies = map[core.Cycle]CycleStrategy{
	core.Weekly:  WeeklyStrategy{},
	core.Monthly: MonthlyStrategy{},
	core.Yearly:  YearlyStrategy{},
}

// GetCycleStrategy returns the strategy registered for c.
func GetCycleStrategy(c core.Cycle) (CycleStrategy, error) {
	s, ok := cycleStrategies[c]
	if !ok {
		return nil, fmt.Errorf("unknown cycle: %s", c)
	}
	return s, nil
}

// RegisterCycleStrategy adds or replaces the strategy for c. It is not safe
// to call concurrently with lookups; register during init.
func RegisterCycleStrategy(c core.Cycle, s CycleStrategy) {
	cycleStrategies[c] = s
}

// MonthlyEquivalent returns the record's price normalized to one month.
// Records with an unknown cycle are treated as monthly.
func MonthlyEquivalent(r core.Subscription) float64 {
	s, err := GetCycleStrategy(r.Cycle)
	if err != nil {
		s = MonthlyStrategy{}
	}
	return s.PerMonth(r.Price.Float())
}

// MonthlySpend sums MonthlyEquivalent over records.
func MonthlySpend(records []core.Subscription) float64 {
	var sum float64
	for _, r := range records {
		sum += MonthlyEquivalent(r)
	}
	return sum
}
