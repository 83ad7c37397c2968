package core

import (
	"fmt"
	"strings"
)

const (
	Weekly  Cycle = "Weekly"
	Monthly Cycle = "Monthly"
	Yearly  Cycle = "Yearly"
)

const (
	StatusActive   Status = "active"
	StatusUpcoming Status = "upcoming"
	StatusMissed   Status = "missed"
)

// Well-known categories. Category is free text, these are the ones offered by default.
const (
	CategoryEntertainment = "Entertainment"
	CategoryProductivity  = "Productivity"
	CategoryEducation     = "Education"
	CategoryFinance       = "Finance"
	CategoryOthers        = "Others"
)

type (
	// Cycle is the billing period of a subscription.
	Cycle string

	// Status is set by the user. It is never derived from RenewDate, so an
	// "active" record may well have a renewal date in the past.
	Status string

	Subscription struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Price       Price  `json:"price"`
		Cycle       Cycle  `json:"cycle"`
		RenewDate   Date   `json:"renewDate"`
		Status      Status `json:"status"`
		Category    string `json:"category"`
		Description string `json:"description"`
		Reminder    bool   `json:"reminder"`
		Recurring   bool   `json:"recurring"`
	}
)

// Categories returns the default category list in display order.
func Categories() []string {
	return []string{
		CategoryEntertainment,
		CategoryProductivity,
		CategoryEducation,
		CategoryFinance,
		CategoryOthers,
	}
}

// Cycles returns every supported billing cycle.
func Cycles() []Cycle {
	return []Cycle{Weekly, Monthly, Yearly}
}

// Statuses returns every supported status.
func Statuses() []Status {
	return []Status{StatusActive, StatusUpcoming, StatusMissed}
}

func (c Cycle) IsValid() bool {
	switch c {
	case Weekly, Monthly, Yearly:
		return true
	default:
		return false
	}
}

func (c Cycle) String() string {
	return string(c)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusUpcoming, StatusMissed:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	return string(s)
}

// ParseCycle matches s against the supported cycles ignoring case.
func ParseCycle(s string) (Cycle, error) {
	s = strings.TrimSpace(s)
	for _, c := range Cycles() {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown cycle %q", s)
}

// ParseStatus matches s against the supported statuses ignoring case.
func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(s)
	for _, st := range Statuses() {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}
