// Package rules implements the transparent pattern-matching scorer: a
// weighted rule table with always-HIGH overrides, per-family negation
// guards, and the score-to-band mapping.
package rules

import (
	"regexp"
	"strings"

	"github.com/symptomly/triage/internal/domain/types"
)

// OverrideScore is the sentinel returned when an override fires. It lives
// outside the additive score space and dominates any accumulation.
const OverrideScore = 999

// Default band thresholds.
const (
	defaultMediumThreshold = 3
	defaultHighThreshold   = 5
)

// Rule is a weighted pattern predicate. The predicate matches when every
// expression in All matches and none in None does; this renders the
// lookahead-style "all of these terms present" conjunctions of the source
// rule set. Family tags the rule for negation gating ("" disables gating).
type Rule struct {
	All    []*regexp.Regexp
	None   []*regexp.Regexp
	Weight int
	Label  string
	Family string
}

// Override is a red-flag predicate whose match short-circuits scoring to
// the sentinel. Overrides are evaluated in slice order and are never
// negation-gated.
type Override struct {
	All   []*regexp.Regexp
	Label string
}

// Result is the outcome of scoring one text.
type Result struct {
	// Score is the summed weight of surviving matches, or OverrideScore.
	Score int
	// Labels holds matched rule labels, de-duplicated in first-seen order.
	// An override contributes exactly one label.
	Labels []string
}

// Thresholds map an accumulated score to a risk band.
type Thresholds struct {
	Medium int
	High   int
}

// DefaultThresholds returns the canonical band cut-offs.
func DefaultThresholds() Thresholds {
	return Thresholds{Medium: defaultMediumThreshold, High: defaultHighThreshold}
}

// Band maps a score to its risk band. The sentinel always maps to HIGH.
func Band(score int, t Thresholds) types.RiskLevel {
	switch {
	case score >= OverrideScore:
		return types.RiskHigh
	case score >= t.High:
		return types.RiskHigh
	case score >= t.Medium:
		return types.RiskMedium
	default:
		return types.RiskLow
	}
}

// Engine evaluates overrides and weighted rules against normalized text.
// Engines are immutable after construction and safe for concurrent use.
type Engine struct {
	overrides []Override
	rules     []Rule
	negations map[string]*regexp.Regexp
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithRules replaces the default weighted rule table.
func WithRules(rules []Rule) Option {
	return func(e *Engine) {
		if len(rules) > 0 {
			e.rules = rules
		}
	}
}

// WithOverrides replaces the default override table.
func WithOverrides(overrides []Override) Option {
	return func(e *Engine) {
		if len(overrides) > 0 {
			e.overrides = overrides
		}
	}
}

// WithNegation sets or replaces the negation guard for a rule family.
func WithNegation(family string, guard *regexp.Regexp) Option {
	return func(e *Engine) {
		if family != "" && guard != nil {
			e.negations[family] = guard
		}
	}
}

// NewEngine creates an engine with the default NHS-aligned tables.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		overrides: DefaultOverrides(),
		rules:     DefaultRules(),
		negations: DefaultNegations(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score evaluates the text. Overrides are checked first in priority order;
// the first match returns the sentinel with that override's label as the
// sole evidence. Otherwise every rule is evaluated, negation-gated matches
// are discarded, surviving weights are summed, and labels are collected
// with duplicates removed preserving first occurrence.
func (e *Engine) Score(text string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{}
	}
	t := normalize(text)

	for _, ov := range e.overrides {
		if matchAll(ov.All, t) {
			return Result{Score: OverrideScore, Labels: []string{ov.Label}}
		}
	}

	score := 0
	labels := make([]string, 0, 4)
	seen := make(map[string]struct{}, 4)
	for _, r := range e.rules {
		if !matchAll(r.All, t) || matchAny(r.None, t) {
			continue
		}
		if guard, ok := e.negations[r.Family]; ok && guard.MatchString(t) {
			continue
		}
		score += r.Weight
		if _, dup := seen[r.Label]; !dup {
			seen[r.Label] = struct{}{}
			labels = append(labels, r.Label)
		}
	}
	return Result{Score: score, Labels: labels}
}

func matchAll(res []*regexp.Regexp, t string) bool {
	for _, re := range res {
		if !re.MatchString(t) {
			return false
		}
	}
	return len(res) > 0
}

func matchAny(res []*regexp.Regexp, t string) bool {
	for _, re := range res {
		if re.MatchString(t) {
			return true
		}
	}
	return false
}

// normalize lower-cases and collapses whitespace so the pattern tables can
// be written against a single canonical surface form.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
