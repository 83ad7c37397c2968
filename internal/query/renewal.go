package query

import (
	"fmt"
	"math"
	"sort"
	"time"

	"subtrack/internal/core"
)

const day = 24 * time.Hour

// UpcomingRenewals returns the records renewing strictly after now, soonest
// first. Ties keep their input order. limit <= 0 returns all of them.
func UpcomingRenewals(records []core.Subscription, now time.Time, limit int) []core.Subscription {
	out := keep(records, func(r core.Subscription) bool {
		return r.RenewDate.In(now.Location()).After(now)
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RenewDate.Before(out[j].RenewDate.Time)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// DaysUntil returns the number of days from now to the renewal instant,
// rounded up. A renewal later today yields 0, tomorrow yields 1.
func DaysUntil(d core.Date, now time.Time) int {
	diff := d.In(now.Location()).Sub(now)
	return int(math.Ceil(float64(diff) / float64(day)))
}

// RenewalCountdown renders DaysUntil for display.
func RenewalCountdown(d core.Date, now time.Time) string {
	switch days := DaysUntil(d, now); {
	case days == 0:
		return "Today"
	case days == 1:
		return "Tomorrow"
	case days == -1:
		return "1 day ago"
	case days < 0:
		return fmt.Sprintf("%d days ago", -days)
	default:
		return fmt.Sprintf("in %d days", days)
	}
}
