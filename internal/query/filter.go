// Package query derives views and aggregates from a snapshot of subscription
// records. Every function is pure: inputs are never modified and nothing is
// cached between calls.
package query

import (
	"strings"
	"time"

	"golang.org/x/text/cases"

	"subtrack/internal/core"
)

// StatusAll disables the status filter.
const StatusAll = "all"

// Bucket selects records by the calendar month of their renewal date.
type Bucket string

const (
	BucketAll       Bucket = "all"
	BucketThisMonth Bucket = "thisMonth"
	BucketNextMonth Bucket = "nextMonth"
)

// ParseBucket returns the bucket for s; empty means BucketAll.
func ParseBucket(s string) (Bucket, bool) {
	switch b := Bucket(strings.TrimSpace(s)); b {
	case "", BucketAll:
		return BucketAll, true
	case BucketThisMonth, BucketNextMonth:
		return b, true
	default:
		return "", false
	}
}

// Criteria combines the three list filters. Zero values match everything.
type Criteria struct {
	Name    string
	Status  string
	Renewal Bucket
}

// Filter applies every criterion, ANDed together.
func Filter(records []core.Subscription, c Criteria, now time.Time) []core.Subscription {
	out := FilterByName(records, c.Name)
	out = FilterByStatus(out, c.Status)
	return FilterByRenewalMonth(out, c.Renewal, now)
}

// FilterByName keeps records whose name contains term, compared under Unicode
// case folding. An empty term matches everything.
func FilterByName(records []core.Subscription, term string) []core.Subscription {
	if term == "" {
		return clone(records)
	}
	fold := cases.Fold()
	needle := fold.String(term)
	return keep(records, func(r core.Subscription) bool {
		return strings.Contains(fold.String(r.Name), needle)
	})
}

// FilterByStatus keeps records whose status equals status exactly.
// StatusAll and the empty string keep everything.
func FilterByStatus(records []core.Subscription, status string) []core.Subscription {
	if status == "" || status == StatusAll {
		return clone(records)
	}
	return keep(records, func(r core.Subscription) bool {
		return string(r.Status) == status
	})
}

// FilterByRenewalMonth keeps records renewing in the calendar month of now
// (BucketThisMonth) or the month after (BucketNextMonth). Any other bucket
// keeps everything.
func FilterByRenewalMonth(records []core.Subscription, bucket Bucket, now time.Time) []core.Subscription {
	var year int
	var month time.Month
	switch bucket {
	case BucketThisMonth:
		year, month = now.Year(), now.Month()
	case BucketNextMonth:
		next := time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, now.Location())
		year, month = next.Year(), next.Month()
	default:
		return clone(records)
	}
	return keep(records, func(r core.Subscription) bool {
		y, m, _ := r.RenewDate.Date()
		return y == year && m == month
	})
}

func keep(records []core.Subscription, pred func(core.Subscription) bool) []core.Subscription {
	out := make([]core.Subscription, 0, len(records))
	for _, r := range records {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}

func clone(records []core.Subscription) []core.Subscription {
	return append(make([]core.Subscription, 0, len(records)), records...)
}
