package parser

import (
	"strings"

	"golang.org/x/text/width"
)

// normalize folds full-width forms (digits, ￥, ：, ，) to their narrow
// counterparts so one pattern covers both.
func normalize(s string) string {
	return width.Fold.String(s)
}

// cleanAmount strips thousands separators and surrounding space.
func cleanAmount(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
}
