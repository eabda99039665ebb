package calc

import (
	"quotewright/internal/model"
)

// Waste totals the disposal volume across products. A manual override
// replaces the computed total outright; either way the result is flagged
// once it crosses the disposal threshold.
func (c *Calculator) Waste(products []model.ResolvedProduct, params model.QuoteParameters) model.WasteResult {
	var result model.WasteResult

	if params.WasteOverrideM3 != nil {
		result.TotalVolumeM3 = *params.WasteOverrideM3
		result.Overridden = true
	} else {
		for _, p := range products {
			result.TotalVolumeM3 += p.TotalWaste
		}
	}

	result.ExceedsThreshold = result.TotalVolumeM3 > c.rates.WasteFlagThresholdM3
	return result
}
