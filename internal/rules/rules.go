// Package rules applies deterministic per-product time overrides after
// resolution, before aggregation.
package rules

import (
	"fmt"
	"regexp"

	"quotewright/internal/model"
)

// Transform rewrites a per-unit install time.
type Transform func(baseHours float64) float64

// Multiply scales the base time by a factor.
func Multiply(factor float64) Transform {
	return func(base float64) float64 { return base * factor }
}

// Add adds a fixed number of hours to the base time.
func Add(hours float64) Transform {
	return func(base float64) float64 { return base + hours }
}

// Set replaces the base time outright.
func Set(hours float64) Transform {
	return func(float64) float64 { return hours }
}

// Rule is one edge-case override: a predicate over the product's code and
// description, and a pure time transform.
type Rule struct {
	transform Transform
	pattern   *regexp.Regexp
	Name      string
}

// New compiles a rule whose predicate is a case-insensitive regex matched
// against both the product code and the clean description.
func New(name, pattern string, transform Transform) (Rule, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %q: invalid pattern: %w", name, err)
	}
	return Rule{Name: name, pattern: re, transform: transform}, nil
}

// MustNew is New for the built-in table, where patterns are constants.
func MustNew(name, pattern string, transform Transform) Rule {
	r, err := New(name, pattern, transform)
	if err != nil {
		panic(err)
	}
	return r
}

// FromConfig builds a rule from its configuration form, where the transform
// is named by an action string: "multiply", "add" or "set".
func FromConfig(name, pattern, action string, value float64) (Rule, error) {
	var transform Transform
	switch action {
	case "multiply":
		transform = Multiply(value)
	case "add":
		transform = Add(value)
	case "set":
		transform = Set(value)
	default:
		return Rule{}, fmt.Errorf("rule %q: unknown action %q (want multiply, add or set)", name, action)
	}
	return New(name, pattern, transform)
}

func (r Rule) matches(code, description string) bool {
	return r.pattern.MatchString(code) || r.pattern.MatchString(description)
}

// Engine evaluates an ordered rule table. Rules are applied strictly in
// table order and each matching rule transforms the running value, so a
// later rule overwrites the effect of an earlier one.
type Engine struct {
	rules []Rule
}

// NewEngine creates an engine over an ordered rule table.
func NewEngine(rules ...Rule) *Engine {
	return &Engine{rules: rules}
}

// DefaultEngine returns the built-in edge-case table. Order matters and is
// observable: glass handling first, powered-desk surcharge second, locker
// banks last so their fixed per-door time wins over anything earlier.
func DefaultEngine() *Engine {
	return NewEngine(
		MustNew("glass-fronted", `GLASS|GLS`, Multiply(1.5)),
		MustNew("height-adjustable", `HEIGHT[ -]?ADJ|ELECTRIC|SIT[ -]?STAND`, Add(0.25)),
		MustNew("mirror", `MIRROR`, Add(0.2)),
		MustNew("locker-bank", `LOCKER`, Set(0.75)),
	)
}

// Extend returns a new engine with extra rules appended after the existing
// table.
func (e *Engine) Extend(rules ...Rule) *Engine {
	combined := make([]Rule, 0, len(e.rules)+len(rules))
	combined = append(combined, e.rules...)
	combined = append(combined, rules...)
	return NewEngine(combined...)
}

// Rules returns the table in application order.
func (e *Engine) Rules() []Rule {
	return e.rules
}

// Apply runs the table against one resolved product and returns a copy with
// the overridden per-unit time (and recomputed total). Unresolved products
// pass through untouched.
func (e *Engine) Apply(p model.ResolvedProduct) model.ResolvedProduct {
	if !p.Resolved {
		return p
	}

	hours := p.TimePerUnit
	applied := false
	for _, rule := range e.rules {
		if rule.matches(p.ProductCode, p.CleanDescription) {
			hours = rule.transform(hours)
			applied = true
		}
	}

	if !applied {
		return p
	}
	return p.WithTimePerUnit(hours)
}

// ApplyAll runs the table over a batch in order.
func (e *Engine) ApplyAll(products []model.ResolvedProduct) []model.ResolvedProduct {
	out := make([]model.ResolvedProduct, len(products))
	for i, p := range products {
		out[i] = e.Apply(p)
	}
	return out
}
