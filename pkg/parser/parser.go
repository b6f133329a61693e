// Package parser turns the title and body of a payment notification into a
// structured transaction using an ordered, declarative rule table.
//
// Each rule is bound to one or more source kinds (alipay, wechat, bank) and
// carries a regular expression with named groups:
//   - amount: the transaction amount (required; any group prefixed "amount")
//   - kind: the keyword that decides the direction through directionFrom
//   - counterparty: the merchant or sender
//
// Rules are tried in priority order and the first match wins, even when the
// amount it yields is invalid. Parse never panics and never returns an error:
// anything it cannot understand comes back with Valid set to false.
package parser

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/monayhq/monay/pkg/api"
	"github.com/monayhq/monay/pkg/categorizer"
)

var counterpartyLabels = []string{"商家:", "收款方:", "店名:", "店铺:", "付款方:"}

// Config holds parser inputs. Zero fields fall back to the embedded defaults.
type Config struct {
	// Sources maps allow-listed package ids to source kinds.
	Sources map[string]SourceKind
	// Rules are evaluated in slice order.
	Rules []Rule
	// Categorizer assigns categories when a rule does not fix one.
	Categorizer *categorizer.Categorizer
}

// Parser is immutable after construction and safe for concurrent use.
type Parser struct {
	sources     map[string]SourceKind
	rules       []Rule
	categorizer *categorizer.Categorizer
}

// New creates a parser from cfg.
func New(cfg Config) *Parser {
	p := &Parser{
		sources:     cfg.Sources,
		rules:       cfg.Rules,
		categorizer: cfg.Categorizer,
	}
	if p.sources == nil {
		p.sources = DefaultSources
	}
	if p.rules == nil {
		p.rules = DefaultRules()
	}
	if p.categorizer == nil {
		p.categorizer = categorizer.Default()
	}
	return p
}

// Default returns a parser with the embedded allow-list, rules and categories.
func Default() *Parser {
	return New(Config{})
}

// Allowed reports whether sourceApp is on the allow-list.
func (p *Parser) Allowed(sourceApp string) bool {
	_, ok := p.sources[sourceApp]
	return ok
}

// Rules returns the rule table in evaluation order.
func (p *Parser) Rules() []Rule {
	out := make([]Rule, len(p.rules))
	copy(out, p.rules)
	return out
}

// Parse extracts a transaction from one notification.
func (p *Parser) Parse(sourceApp, title, body string) (tx api.ParsedTransaction) {
	invalid := api.ParsedTransaction{RawText: body}
	defer func() {
		if r := recover(); r != nil {
			tx = invalid
		}
	}()

	kind, ok := p.sources[sourceApp]
	if !ok {
		return invalid
	}
	if strings.TrimSpace(title) == "" || strings.TrimSpace(body) == "" {
		return invalid
	}

	text := normalize(body)
	for i := range p.rules {
		rule := &p.rules[i]
		if !rule.appliesTo(kind) {
			continue
		}
		m := rule.Pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		return p.build(rule, m, text, body)
	}
	return invalid
}

func (p *Parser) build(rule *Rule, m []string, text, body string) api.ParsedTransaction {
	invalid := api.ParsedTransaction{RawText: body}

	amount, err := decimal.NewFromString(cleanAmount(rule.amount(m)))
	if err != nil || !amount.IsPositive() {
		return invalid
	}
	dir, ok := rule.direction(m)
	if !ok {
		return invalid
	}

	counterparty := ""
	if rule.counterpartyIdx >= 0 {
		counterparty = strings.TrimSpace(m[rule.counterpartyIdx])
	}
	if counterparty == "" {
		counterparty = rule.Counterparty
	}
	if counterparty == "" {
		counterparty = extractCounterparty(text)
	}

	category := rule.Category
	if category == "" {
		category = p.categorizer.Categorize(counterparty, text)
	}

	return api.ParsedTransaction{
		Valid:        true,
		Direction:    dir,
		Amount:       amount.Round(2),
		Counterparty: counterparty,
		Category:     category,
		RawText:      body,
		Rule:         rule.Name,
	}
}

// extractCounterparty looks for a labelled merchant, then the first line of a
// multi-line body.
func extractCounterparty(text string) string {
	for _, label := range counterpartyLabels {
		idx := strings.Index(text, label)
		if idx < 0 {
			continue
		}
		rest := text[idx+len(label):]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[:nl]
		}
		if v := strings.TrimSpace(rest); v != "" {
			return v
		}
	}

	if lines := strings.Split(text, "\n"); len(lines) > 1 {
		if first := strings.TrimSpace(lines[0]); first != "" {
			return first
		}
	}
	return api.UnknownMerchant
}
