package calc

import (
	"math"

	"quotewright/internal/model"
)

// vanSeats is how many fitters the two-person van carries; the rest work on
// foot at a different day rate.
const vanSeats = 2

// Crew solves the crew/day allocation for the buffered hours. The search is
// exact over the small bounded space: candidate day counts from 1 up to the
// single-fitter duration, keeping the pair that minimizes days first and
// fitters second, discarding anything needing more than the fitter cap.
func (c *Calculator) Crew(bufferedHours float64, products []model.ResolvedProduct, params model.QuoteParameters) model.CrewResult {
	var result model.CrewResult

	if bufferedHours > 0 {
		if params.FitterOverride != nil {
			fitters := *params.FitterOverride
			if fitters < 1 {
				fitters = 1
			}
			result.Fitters = fitters
			result.Days = int(math.Ceil(bufferedHours / (c.rates.HoursPerFitterDay * float64(fitters))))
		} else {
			result.Days, result.Fitters = c.searchAllocation(bufferedHours)
		}
	}

	heavy := false
	for _, p := range products {
		if p.IsHeavy {
			heavy = true
			break
		}
	}
	result.TwoPersonVan = heavy
	if params.VanOverride != nil {
		result.TwoPersonVan = *params.VanOverride
	}

	if result.TwoPersonVan {
		result.VanFitters = result.Fitters
		if result.VanFitters > vanSeats {
			result.VanFitters = vanSeats
		}
	}
	result.OnFootFitters = result.Fitters - result.VanFitters

	if result.Days > c.rates.SupervisorDayThreshold || params.ManualSupervisor {
		result.Supervisors = 1
	}
	if params.SupervisorOverride != nil {
		result.Supervisors = *params.SupervisorOverride
	}

	return result
}

// searchAllocation runs the exact small-integer search. requiredFitters is
// non-increasing in the day count, so the first feasible day count is the
// minimum; the comparison is still written out in full because the
// days-then-fitters tie-break order is user-observable in pricing.
func (c *Calculator) searchAllocation(bufferedHours float64) (days, fitters int) {
	hoursPerDay := c.rates.HoursPerFitterDay
	maxDays := int(math.Ceil(bufferedHours / hoursPerDay))
	if maxDays < 1 {
		maxDays = 1
	}

	bestDays, bestFitters := 0, 0
	for d := 1; d <= maxDays; d++ {
		required := int(math.Ceil(bufferedHours / (hoursPerDay * float64(d))))
		if required < 1 {
			required = 1
		}
		if required > c.rates.MaxFitters {
			continue
		}
		if bestDays == 0 || d < bestDays || (d == bestDays && required < bestFitters) {
			bestDays, bestFitters = d, required
		}
	}

	if bestDays == 0 {
		// Even the longest candidate duration needs more than the cap;
		// degrade to the cap rather than fail.
		bestFitters = c.rates.MaxFitters
		bestDays = int(math.Ceil(bufferedHours / (hoursPerDay * float64(bestFitters))))
	}

	return bestDays, bestFitters
}
