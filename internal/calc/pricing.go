package calc

import (
	"quotewright/internal/model"
)

// Pricing prices the solved crew allocation. The out-of-hours surcharge
// applies to the labour subtotal only (van, fitters, supervisors, including
// the uplift period), proportioned by the premium fraction of billable
// days; parking, transport and specialist rework are never multiplied.
func (c *Calculator) Pricing(crew model.CrewResult, params model.QuoteParameters) model.PricingResult {
	var result model.PricingResult
	days := float64(crew.Days)

	if crew.TwoPersonVan {
		result.VanCost = c.rates.VanDayRate * days
	}
	result.FitterCost = float64(crew.OnFootFitters) * c.rates.FitterDayRate * days
	result.SupervisorCost = float64(crew.Supervisors) * c.rates.SupervisorDayRate * days

	if params.ExtendedUpliftDays > 0 {
		upliftDays := float64(params.ExtendedUpliftDays)
		if params.UpliftVan {
			result.UpliftVanCost = c.rates.VanDayRate * upliftDays
		}
		result.UpliftFitterCost = float64(params.UpliftFitters) * c.rates.FitterDayRate * upliftDays
		result.UpliftSupervisorCost = float64(params.UpliftSupervisors) * c.rates.SupervisorDayRate * upliftDays
	}

	result.LabourSubtotal = result.VanCost + result.FitterCost + result.SupervisorCost +
		result.UpliftVanCost + result.UpliftFitterCost + result.UpliftSupervisorCost

	if params.SpecialistRework {
		result.SpecialistReworkCost = c.rates.SpecialistReworkCost
	}

	billableDays := crew.Days + params.ExtendedUpliftDays
	result.ParkingCost = c.rates.ParkingPerDay * float64(billableDays)

	vehicles := params.ExtraVehicles
	if crew.TwoPersonVan {
		vehicles++
	}
	if params.UpliftVan && params.ExtendedUpliftDays > 0 {
		vehicles++
	}
	result.TransportCost = c.rates.TransportPerVehicle * float64(vehicles)

	if params.OutOfHours.Enabled && billableDays > 0 && params.OutOfHours.PremiumDays > 0 {
		fraction := float64(params.OutOfHours.PremiumDays) / float64(billableDays)
		if fraction > 1 {
			fraction = 1
		}
		multiplier := params.OutOfHours.Type.Multiplier()
		result.OutOfHoursSurcharge = result.LabourSubtotal * fraction * (multiplier - 1)
	}

	result.Total = result.LabourSubtotal + result.OutOfHoursSurcharge +
		result.SpecialistReworkCost + result.ParkingCost + result.TransportCost

	return result
}
