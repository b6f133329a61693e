// Package json writes bills as an indented JSON array.
package json

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/monayhq/monay/pkg/api"
)

// Writer writes bills to JSON.
type Writer struct {
	indent string
}

// New creates a new JSON writer. An empty indent writes compact output.
func New(indent string) *Writer {
	return &Writer{indent: indent}
}

// Export writes bills as a single array. A nil slice is written as [].
func (w *Writer) Export(dst io.Writer, bills []api.BillRecord) error {
	if bills == nil {
		bills = []api.BillRecord{}
	}
	enc := json.NewEncoder(dst)
	if w.indent != "" {
		enc.SetIndent("", w.indent)
	}
	if err := enc.Encode(bills); err != nil {
		return fmt.Errorf("encoding bills: %w", err)
	}
	return nil
}
