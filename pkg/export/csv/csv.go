// Package csv writes bills as CSV rows.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/monayhq/monay/pkg/api"
)

var headers = []string{"ID", "Time", "Direction", "Category", "Amount", "Note"}

// Config holds configuration for the CSV writer.
type Config struct {
	// Location formats the time column. Nil uses time.Local.
	Location *time.Location
	// Labels writes Chinese direction and category labels instead of names.
	Labels bool
}

// Writer writes bills to CSV with a header row.
type Writer struct {
	loc    *time.Location
	labels bool
}

// New creates a new CSV writer.
func New(cfg Config) *Writer {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Writer{loc: cfg.Location, labels: cfg.Labels}
}

// Export writes the header and one row per bill.
func (w *Writer) Export(dst io.Writer, bills []api.BillRecord) error {
	cw := csv.NewWriter(dst)
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, b := range bills {
		direction, category := string(b.Direction), string(b.Category)
		if w.labels {
			direction, category = b.Direction.Label(), b.Category.Label()
		}
		note := ""
		if b.Note != nil {
			note = *b.Note
		}
		record := []string{
			strconv.FormatInt(b.ID, 10),
			b.OccurredAt.In(w.loc).Format(time.DateTime),
			direction,
			category,
			b.Amount.StringFixed(2),
			note,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing csv record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}
