// Package export selects a bill export format.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/monayhq/monay/pkg/api"
	"github.com/monayhq/monay/pkg/export/csv"
	"github.com/monayhq/monay/pkg/export/json"
)

// Exporter writes a set of bills to dst.
type Exporter interface {
	Export(dst io.Writer, bills []api.BillRecord) error
}

// Formats lists the supported format names.
var Formats = []string{"csv", "json"}

// New returns the exporter for format.
func New(format string, loc *time.Location) (Exporter, error) {
	switch format {
	case "csv":
		return csv.New(csv.Config{Location: loc}), nil
	case "json":
		return json.New("  "), nil
	}
	return nil, fmt.Errorf("unknown export format %q (want one of %v)", format, Formats)
}
