// Package calc aggregates resolved products into labour hours, crew
// allocation, waste volume and a priced quote. Everything here is a pure
// function of its inputs and the injected rate configuration.
package calc

import (
	"math"

	"quotewright/internal/model"
)

// durationBufferPercent returns the safety-margin percentage for a given
// hour count. The baseline 25% drops to 10% once a job exceeds 16 hours,
// then is floored back up to 15% past 40 hours. The floors apply
// sequentially without resetting; the resulting bands are deliberate,
// observed behaviour.
func durationBufferPercent(hoursAfterUplift float64) float64 {
	percent := 25.0
	if hoursAfterUplift > 16 {
		percent = 10.0
	}
	if hoursAfterUplift > 40 {
		percent = math.Max(percent, 15.0)
	}
	return percent
}

// roundToQuarterHour rounds to the nearest 0.25h.
func roundToQuarterHour(hours float64) float64 {
	return math.Round(hours*4) / 4
}

// Labour sums product install times and applies the uplift and duration
// buffers.
func (c *Calculator) Labour(products []model.ResolvedProduct, params model.QuoteParameters) model.LabourResult {
	var total float64
	for _, p := range products {
		total += p.TotalTime
	}

	// Uplift percentages are summed, not compounded.
	var upliftPercent float64
	if params.StairsUplift {
		upliftPercent += c.rates.StairsUpliftPercent
	}
	if params.ExtendedUplift {
		upliftPercent += c.rates.ExtendedUpliftPercent
	}
	hoursAfterUplift := total * (1 + upliftPercent/100)

	bufferPercent := durationBufferPercent(hoursAfterUplift)
	buffered := roundToQuarterHour(hoursAfterUplift * (1 + bufferPercent/100))

	return model.LabourResult{
		TotalHours:            total,
		UpliftPercent:         upliftPercent,
		HoursAfterUplift:      hoursAfterUplift,
		DurationBufferPercent: bufferPercent,
		BufferedHours:         buffered,
	}
}
