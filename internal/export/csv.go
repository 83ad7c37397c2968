package export

import (
	"bytes"
	"strings"
	"time"

	"subtrack/internal/core"
)

const (
	CSVHeader      = "Name,Price,Category,Status,Renew Date"
	CSVContentType = "text/csv"

	// MissingCategory stands in for an empty category.
	MissingCategory = "N/A"
)

// ToCSV renders one line per record under CSVHeader. Fields are joined with
// commas and never quoted, so a comma inside a name or a grouped price
// produces extra columns. Lines are separated by "\n" with no trailing
// newline. An empty slice yields core.ErrEmptyExport.
func ToCSV(records []core.Subscription) ([]byte, error) {
	if len(records) == 0 {
		return nil, core.ErrEmptyExport
	}

	var buf bytes.Buffer
	buf.WriteString(CSVHeader)
	for _, r := range records {
		category := r.Category
		if category == "" {
			category = MissingCategory
		}
		buf.WriteByte('\n')
		buf.WriteString(strings.Join([]string{
			r.Name,
			CurrencySymbol + FormatAmount(r.Price.Float()),
			category,
			string(r.Status),
			r.RenewDate.String(),
		}, ","))
	}
	return buf.Bytes(), nil
}

// CSVFileName is the download name for an export taken at now.
func CSVFileName(now time.Time) string {
	return "subscriptions-" + now.Format(core.DateLayout) + ".csv"
}
