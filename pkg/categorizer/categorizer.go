// Package categorizer assigns a spending category to a merchant and free text
// by ordered keyword matching.
package categorizer

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"

	"github.com/monayhq/monay/pkg/api"
)

//go:embed categories.json
var defaultTable []byte

// Set is the closed set of categories the categorizer can return.
var Set = []api.Category{
	api.Food,
	api.Transport,
	api.Shopping,
	api.Entertainment,
	api.Housing,
	api.Medical,
	api.Education,
	api.Other,
}

// Rule maps keywords to a category.
type Rule struct {
	Category api.Category `json:"category"`
	// Keywords match either the merchant or the free text.
	Keywords []string `json:"keywords"`
	// MerchantKeywords match the merchant only.
	MerchantKeywords []string `json:"merchantKeywords"`
}

// Categorizer is safe for concurrent use; it holds only immutable state.
type Categorizer struct {
	rules []Rule
}

// New builds a categorizer from rules tested in the given order.
func New(rules []Rule) (*Categorizer, error) {
	folded := make([]Rule, 0, len(rules))
	for i, r := range rules {
		if !inSet(r.Category) {
			return nil, fmt.Errorf("rule %d: unknown category %q", i, r.Category)
		}
		folded = append(folded, Rule{
			Category:         r.Category,
			Keywords:         foldAll(r.Keywords),
			MerchantKeywords: foldAll(r.MerchantKeywords),
		})
	}
	return &Categorizer{rules: folded}, nil
}

// Load reads a JSON rule table.
func Load(r io.Reader) (*Categorizer, error) {
	var rules []Rule
	if err := json.NewDecoder(r).Decode(&rules); err != nil {
		return nil, fmt.Errorf("decoding category rules: %w", err)
	}
	return New(rules)
}

// Default returns the categorizer built from the embedded table.
func Default() *Categorizer {
	var rules []Rule
	if err := json.Unmarshal(defaultTable, &rules); err != nil {
		panic(fmt.Sprintf("categorizer: embedded table: %v", err))
	}
	c, err := New(rules)
	if err != nil {
		panic(fmt.Sprintf("categorizer: embedded table: %v", err))
	}
	return c
}

// Categorize returns the first category whose keywords occur in merchant or
// text, or api.Other when none do.
func (c *Categorizer) Categorize(merchant, text string) api.Category {
	m := fold(merchant)
	t := fold(text)

	for _, r := range c.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(m, kw) || strings.Contains(t, kw) {
				return r.Category
			}
		}
		for _, kw := range r.MerchantKeywords {
			if strings.Contains(m, kw) {
				return r.Category
			}
		}
	}
	return api.Other
}

// Rules returns a copy of the folded rule table.
func (c *Categorizer) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// fold creates a fresh Caser on every call; a Caser is stateful and must not be shared.
func fold(s string) string {
	return cases.Fold().String(s)
}

func foldAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, fold(s))
		}
	}
	return out
}

func inSet(c api.Category) bool {
	for _, s := range Set {
		if s == c {
			return true
		}
	}
	return false
}
