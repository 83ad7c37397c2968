package export

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"subtrack/internal/core"
	"subtrack/internal/query"
	"subtrack/web"
)

const (
	DocumentContentType = "text/html; charset=utf-8"

	documentTemplate = "subscription.html"
	longDateLayout   = "January 2, 2006"
	generatedLayout  = "January 2, 2006 at 3:04 PM"
)

var templates = template.Must(template.ParseFS(web.TemplatesFS, "templates/*.html"))

// detail is the field set shared by the HTML and PDF documents.
type detail struct {
	Name        string
	Price       string
	PriceLabel  string
	Category    string
	Status      string
	Cycle       string
	RenewDate   string
	DaysLeft    int
	Countdown   string
	Reminder    string
	Recurring   string
	Description string
	GeneratedAt string
}

func newDetail(r core.Subscription, now time.Time) detail {
	d := detail{
		Name:        r.Name,
		Price:       FormatCurrency(r.Price.Float()),
		Category:    r.Category,
		Status:      string(r.Status),
		Cycle:       string(r.Cycle),
		RenewDate:   r.RenewDate.Format(longDateLayout),
		DaysLeft:    query.DaysUntil(r.RenewDate, now),
		Countdown:   query.RenewalCountdown(r.RenewDate, now),
		Reminder:    enabled(r.Reminder),
		Recurring:   enabled(r.Recurring),
		Description: r.Description,
		GeneratedAt: now.Format(generatedLayout),
	}
	if d.Category == "" {
		d.Category = MissingCategory
	}
	if s, err := query.GetCycleStrategy(r.Cycle); err == nil {
		d.PriceLabel = s.Label()
	}
	return d
}

func enabled(b bool) string {
	if b {
		return "Enabled"
	}
	return "Disabled"
}

// ToPrintableDocument renders a standalone HTML page describing r, suitable
// for printing from a browser.
func ToPrintableDocument(r core.Subscription, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, documentTemplate, newDetail(r, now)); err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}
	return buf.Bytes(), nil
}
