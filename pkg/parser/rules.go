package parser

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/monayhq/monay/pkg/api"
)

//go:embed rules.json
var defaultRules []byte

// DirectionKeyword selects a direction when Keyword occurs in the rule's kind group.
type DirectionKeyword struct {
	Keyword   string        `json:"keyword"`
	Direction api.Direction `json:"direction"`
}

// RuleConfig is the JSON form of a rule.
type RuleConfig struct {
	Name          string             `json:"name"`
	Sources       []SourceKind       `json:"sources"`
	Pattern       string             `json:"pattern"`
	Direction     api.Direction      `json:"direction,omitempty"`
	DirectionFrom []DirectionKeyword `json:"directionFrom,omitempty"`
	Counterparty  string             `json:"counterparty,omitempty"`
	Category      string             `json:"category,omitempty"`
	Priority      int                `json:"priority"`
	Enabled       bool               `json:"enabled"`
}

// Rule is a compiled parser rule.
type Rule struct {
	Name          string
	Sources       []SourceKind
	Pattern       *regexp.Regexp
	Direction     api.Direction
	DirectionFrom []DirectionKeyword
	Counterparty  string
	Category      api.Category
	Priority      int

	amountIdx       []int
	kindIdx         int
	counterpartyIdx int
}

// DefaultRules returns the compiled embedded rule table.
func DefaultRules() []Rule {
	rules, err := parseRules(defaultRules)
	if err != nil {
		panic(fmt.Sprintf("parser: embedded rules: %v", err))
	}
	return rules
}

// LoadRules reads a JSON rule table. Disabled rules are dropped and the rest
// are sorted by priority, ties keeping file order.
func LoadRules(r io.Reader) ([]Rule, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading rules: %w", err)
	}
	return parseRules(data)
}

func parseRules(data []byte) ([]Rule, error) {
	var configs []RuleConfig
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("decoding rules: %w", err)
	}

	rules := make([]Rule, 0, len(configs))
	for i, rc := range configs {
		if !rc.Enabled {
			continue
		}
		rule, err := compileRule(rc)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, rc.Name, err)
		}
		rules = append(rules, rule)
	}

	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority < rules[j].Priority
	})
	return rules, nil
}

func compileRule(rc RuleConfig) (Rule, error) {
	if strings.TrimSpace(rc.Name) == "" {
		return Rule{}, fmt.Errorf("name is required")
	}
	if len(rc.Sources) == 0 {
		return Rule{}, fmt.Errorf("at least one source is required")
	}
	for _, s := range rc.Sources {
		if !knownKind(s) {
			return Rule{}, fmt.Errorf("unknown source kind %q", s)
		}
	}

	re, err := regexp.Compile(rc.Pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("compiling pattern: %w", err)
	}

	rule := Rule{
		Name:            rc.Name,
		Sources:         rc.Sources,
		Pattern:         re,
		Direction:       rc.Direction,
		DirectionFrom:   rc.DirectionFrom,
		Counterparty:    strings.TrimSpace(rc.Counterparty),
		Priority:        rc.Priority,
		kindIdx:         -1,
		counterpartyIdx: -1,
	}

	for i, name := range re.SubexpNames() {
		switch {
		case name == "kind":
			rule.kindIdx = i
		case name == "counterparty":
			rule.counterpartyIdx = i
		case strings.HasPrefix(name, "amount"):
			rule.amountIdx = append(rule.amountIdx, i)
		}
	}
	if len(rule.amountIdx) == 0 {
		return Rule{}, fmt.Errorf("pattern has no amount group")
	}

	if rc.Direction != "" && !rc.Direction.Valid() {
		return Rule{}, fmt.Errorf("%w: %q", api.ErrInvalidDirection, rc.Direction)
	}
	for _, dk := range rc.DirectionFrom {
		if dk.Keyword == "" || !dk.Direction.Valid() {
			return Rule{}, fmt.Errorf("invalid directionFrom entry %+v", dk)
		}
	}
	if rc.Direction == "" && len(rc.DirectionFrom) == 0 {
		return Rule{}, fmt.Errorf("direction or directionFrom is required")
	}

	if rc.Category != "" {
		c, err := api.ParseCategory(rc.Category)
		if err != nil {
			return Rule{}, err
		}
		rule.Category = c
	}
	return rule, nil
}

func (r *Rule) appliesTo(kind SourceKind) bool {
	for _, s := range r.Sources {
		if s == AnySource || s == kind {
			return true
		}
	}
	return false
}

// direction resolves the direction for a match, falling back to the fixed one.
func (r *Rule) direction(m []string) (api.Direction, bool) {
	if len(r.DirectionFrom) > 0 {
		scope := m[0]
		if r.kindIdx >= 0 {
			scope = m[r.kindIdx]
		}
		for _, dk := range r.DirectionFrom {
			if strings.Contains(scope, dk.Keyword) {
				return dk.Direction, true
			}
		}
	}
	if r.Direction != "" {
		return r.Direction, true
	}
	return "", false
}

func (r *Rule) amount(m []string) string {
	for _, i := range r.amountIdx {
		if m[i] != "" {
			return m[i]
		}
	}
	return ""
}
