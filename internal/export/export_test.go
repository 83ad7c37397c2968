package export

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"subtrack/internal/core"
)

func netflix() core.Subscription {
	return core.Subscription{
		ID:        "a1",
		Name:      "Netflix",
		Price:     1200,
		Cycle:     core.Monthly,
		RenewDate: core.NewDate(2025, 8, 1),
		Status:    core.StatusActive,
		Category:  "Entertainment",
		Reminder:  true,
	}
}

func TestToCSV(t *testing.T) {
	got, err := ToCSV([]core.Subscription{netflix()})
	if err != nil {
		t.Fatalf("ToCSV: %v", err)
	}
	want := "Name,Price,Category,Status,Renew Date\nNetflix,₦1,200,Entertainment,active,2025-08-01"
	if string(got) != want {
		t.Fatalf("ToCSV =\n%q\nwant\n%q", got, want)
	}
}

func TestToCSVFields(t *testing.T) {
	tests := []struct {
		name string
		edit func(*core.Subscription)
		want string
	}{
		{
			name: "empty category",
			edit: func(s *core.Subscription) { s.Category = "" },
			want: "Netflix,₦1,200,N/A,active,2025-08-01",
		},
		{
			name: "fraction digits",
			edit: func(s *core.Subscription) { s.Price = 1234567.8912 },
			want: "Netflix,₦1,234,567.891,Entertainment,active,2025-08-01",
		},
		{
			name: "small price",
			edit: func(s *core.Subscription) { s.Price = 9.5 },
			want: "Netflix,₦9.5,Entertainment,active,2025-08-01",
		},
		{
			name: "invalid price",
			edit: func(s *core.Subscription) { s.Price = core.Price(math.NaN()) },
			want: "Netflix,₦0,Entertainment,active,2025-08-01",
		},
		{
			name: "comma in name is not quoted",
			edit: func(s *core.Subscription) { s.Name = "Foo, Inc" },
			want: "Foo, Inc,₦1,200,Entertainment,active,2025-08-01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := netflix()
			tt.edit(&s)
			out, err := ToCSV([]core.Subscription{s})
			if err != nil {
				t.Fatalf("ToCSV: %v", err)
			}
			lines := strings.Split(string(out), "\n")
			if len(lines) != 2 {
				t.Fatalf("got %d lines, want 2", len(lines))
			}
			if lines[1] != tt.want {
				t.Errorf("row = %q, want %q", lines[1], tt.want)
			}
		})
	}
}

func TestToCSVKeepsOrder(t *testing.T) {
	a, b := netflix(), netflix()
	b.Name = "Spotify"
	out, err := ToCSV([]core.Subscription{b, a})
	if err != nil {
		t.Fatalf("ToCSV: %v", err)
	}
	lines := strings.Split(string(out), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[1], "Spotify,") || !strings.HasPrefix(lines[2], "Netflix,") {
		t.Fatalf("unexpected lines %q", lines)
	}
}

func TestToCSVEmpty(t *testing.T) {
	out, err := ToCSV(nil)
	if !errors.Is(err, core.ErrEmptyExport) {
		t.Fatalf("err = %v, want ErrEmptyExport", err)
	}
	if out != nil {
		t.Errorf("out = %q, want nil", out)
	}
}

func TestCSVFileName(t *testing.T) {
	now := time.Date(2025, 7, 4, 18, 30, 0, 0, time.UTC)
	if got := CSVFileName(now); got != "subscriptions-2025-07-04.csv" {
		t.Errorf("CSVFileName = %q", got)
	}
	if CSVContentType != "text/csv" {
		t.Errorf("CSVContentType = %q", CSVContentType)
	}
}

func TestFormatCurrency(t *testing.T) {
	tests := map[float64]string{
		0:       "₦0.00",
		1200:    "₦1,200.00",
		9.99:    "₦9.99",
		1500000: "₦1,500,000.00",
	}
	for in, want := range tests {
		if got := FormatCurrency(in); got != want {
			t.Errorf("FormatCurrency(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestToPrintableDocument(t *testing.T) {
	now := time.Date(2025, 7, 27, 10, 0, 0, 0, time.UTC)
	s := netflix()
	s.Description = "Family plan <4 screens>"

	out, err := ToPrintableDocument(s, now)
	if err != nil {
		t.Fatalf("ToPrintableDocument: %v", err)
	}
	doc := string(out)

	for _, want := range []string{
		"<h1>Netflix</h1>",
		"₦1,200.00/mo",
		"Entertainment",
		"August 1, 2025",
		"5 days (in 5 days)",
		"<dt>Reminders</dt><dd>Enabled</dd>",
		"<dt>Auto-Renewal</dt><dd>Disabled</dd>",
		"Family plan &lt;4 screens&gt;",
		"Generated on July 27, 2025 at 10:00 AM",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q", want)
		}
	}
}

func TestToPrintableDocumentOmitsEmptyDescription(t *testing.T) {
	out, err := ToPrintableDocument(netflix(), time.Now())
	if err != nil {
		t.Fatalf("ToPrintableDocument: %v", err)
	}
	if strings.Contains(string(out), "<h2>Description</h2>") {
		t.Error("empty description should not render a section")
	}
}

func TestToPDF(t *testing.T) {
	now := time.Date(2025, 7, 27, 10, 0, 0, 0, time.UTC)
	s := netflix()
	s.Description = "Café plan"

	out, err := ToPDF(s, now)
	if err != nil {
		t.Fatalf("ToPDF: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("output does not look like a PDF: %q", out[:min(len(out), 16)])
	}
	if !bytes.Contains(out, []byte("%%EOF")) {
		t.Error("PDF trailer missing")
	}
}

func TestPDFFileName(t *testing.T) {
	now := time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		want string
	}{
		{"Netflix", "Netflix-subscription-2025-07-04.pdf"},
		{"Netflix/Hulu", "Netflix-Hulu-subscription-2025-07-04.pdf"},
		{"../escaped", "escaped-subscription-2025-07-04.pdf"},
		{`..\..\win`, "win-subscription-2025-07-04.pdf"},
		{"..", "subscription-subscription-2025-07-04.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := netflix()
			r.Name = tt.name
			got := PDFFileName(r, now)
			if got != tt.want {
				t.Errorf("PDFFileName = %q, want %q", got, tt.want)
			}
			if filepath.Base(got) != got {
				t.Errorf("PDFFileName %q is not a single path element", got)
			}
		})
	}
}
