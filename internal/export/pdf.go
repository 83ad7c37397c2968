package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-pdf/fpdf"

	"subtrack/internal/core"
)

const PDFContentType = "application/pdf"

// pdfCurrency replaces CurrencySymbol in PDFs. The built-in fonts are
// cp1252 and have no naira glyph.
const pdfCurrency = "NGN "

// ToPDF renders the same fields as ToPrintableDocument on a single A4 page.
func ToPDF(r core.Subscription, now time.Time) ([]byte, error) {
	d := newDetail(r, now)
	d.Price = pdfCurrency + strings.TrimPrefix(d.Price, CurrencySymbol)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(d.Name+" subscription", true)
	pdf.SetCreator("subtrack", false)
	pdf.SetCreationDate(now)
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 12, tr(d.Name), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(100, 116, 139)
	pdf.CellFormat(0, 7, "Subscription Details & Information", "", 1, "L", false, 0, "")
	pdf.SetTextColor(30, 41, 59)
	pdf.Ln(4)

	section := func(title string, rows [][2]string) {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 10, title, "B", 1, "L", false, 0, "")
		pdf.Ln(2)
		for _, row := range rows {
			pdf.SetFont("Helvetica", "", 11)
			pdf.CellFormat(60, 8, row[0], "", 0, "L", false, 0, "")
			pdf.SetFont("Helvetica", "B", 11)
			pdf.CellFormat(0, 8, tr(row[1]), "", 1, "L", false, 0, "")
		}
		pdf.Ln(4)
	}

	section("Subscription Details", [][2]string{
		{"Price", d.Price + d.PriceLabel},
		{"Category", d.Category},
		{"Status", d.Status},
		{"Billing Cycle", d.Cycle},
		{"Renewal Date", d.RenewDate},
		{"Days Until Renewal", fmt.Sprintf("%d days (%s)", d.DaysLeft, d.Countdown)},
	})
	section("Settings & Preferences", [][2]string{
		{"Reminders", d.Reminder},
		{"Auto-Renewal", d.Recurring},
	})

	if d.Description != "" {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 10, "Description", "B", 1, "L", false, 0, "")
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, tr(d.Description), "", "L", false)
		pdf.Ln(4)
	}

	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(100, 116, 139)
	pdf.CellFormat(0, 8, "Generated on "+d.GeneratedAt, "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// PDFFileName is the download name for r's document generated at now. The
// name part is reduced to a single path element.
func PDFFileName(r core.Subscription, now time.Time) string {
	return fileStem(r.Name) + "-subscription-" + now.Format(core.DateLayout) + ".pdf"
}

// fileStem replaces path separators and control characters in name and trims
// leading dots, so the result cannot address another directory.
func fileStem(name string) string {
	stem := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':':
			return '-'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, name)
	stem = strings.TrimLeft(stem, ". -")
	stem = strings.TrimRight(stem, ". ")
	if stem == "" {
		return "subscription"
	}
	return stem
}
