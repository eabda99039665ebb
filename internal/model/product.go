// Package model defines the core domain types shared across the application.
package model

import (
	"fmt"
	"strings"
)

// MaxSaneQuantity is the upper bound for a believable line-item quantity.
// Anything at or above this is almost certainly an OCR or extraction error.
const MaxSaneQuantity = 1000

// Source records where a resolved product's timing data came from.
// Precedence is user-inputted > learned > catalogue > default, and the
// stored value must reflect the source that actually won.
type Source string

// Product resolution sources.
const (
	SourceUserInputted Source = "user-inputted"
	SourceLearned      Source = "learned"
	SourceCatalogue    Source = "catalogue"
	SourceDefault      Source = "default"
)

// RawProduct is a single line item as extracted from a source document,
// before any catalogue resolution. Immutable once created.
type RawProduct struct {
	ProductCode      string
	RawDescription   string
	CleanDescription string
	LineNumber       int
	Quantity         int
}

// Validate checks that a raw product is well-formed enough to resolve.
func (p RawProduct) Validate() error {
	if strings.TrimSpace(p.ProductCode) == "" && strings.TrimSpace(p.CleanDescription) == "" {
		return fmt.Errorf("line %d: product has neither code nor description", p.LineNumber)
	}
	if p.Quantity <= 0 {
		return fmt.Errorf("line %d: quantity must be positive, got %d", p.LineNumber, p.Quantity)
	}
	if p.Quantity >= MaxSaneQuantity {
		return fmt.Errorf("line %d: quantity %d exceeds sane maximum %d", p.LineNumber, p.Quantity, MaxSaneQuantity)
	}
	return nil
}

// ResolvedProduct is a raw product enriched with catalogue timing data.
// Created once by the resolver pipeline and immutable thereafter.
type ResolvedProduct struct {
	RawProduct

	// MatchedKey is the canonical catalogue key this product resolved to,
	// empty when the product is unresolved or defaulted.
	MatchedKey   string
	Source       Source
	TimePerUnit  float64
	TotalTime    float64
	WastePerUnit float64
	TotalWaste   float64
	IsHeavy      bool
	Resolved     bool
}

// NewResolvedProduct builds a resolved product from a raw product and the
// entry it matched, computing the quantity-scaled totals.
func NewResolvedProduct(raw RawProduct, key string, entry CatalogueEntry, source Source) ResolvedProduct {
	qty := float64(raw.Quantity)
	return ResolvedProduct{
		RawProduct:   raw,
		MatchedKey:   key,
		Source:       source,
		TimePerUnit:  entry.InstallTimeHours,
		TotalTime:    entry.InstallTimeHours * qty,
		WastePerUnit: entry.WasteVolumeM3,
		TotalWaste:   entry.WasteVolumeM3 * qty,
		IsHeavy:      entry.IsHeavy,
		Resolved:     true,
	}
}

// Unresolved wraps a raw product that matched nothing. The zero timing
// values here are deliberate: defaulting is caller policy, never resolver
// behaviour.
func Unresolved(raw RawProduct) ResolvedProduct {
	return ResolvedProduct{RawProduct: raw}
}

// WithTimePerUnit returns a copy with an overridden per-unit time and
// recomputed total. Used by the edge-case rule engine.
func (p ResolvedProduct) WithTimePerUnit(hours float64) ResolvedProduct {
	p.TimePerUnit = hours
	p.TotalTime = hours * float64(p.Quantity)
	return p
}
