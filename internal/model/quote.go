package model

import (
	"time"

	"github.com/google/uuid"
)

// OutOfHoursType identifies the premium labour band for out-of-hours work.
type OutOfHoursType string

// Out-of-hours work types.
const (
	OutOfHoursWeekdayEvening OutOfHoursType = "weekday-evening"
	OutOfHoursSaturday       OutOfHoursType = "saturday"
	OutOfHoursSunday         OutOfHoursType = "sunday"
)

// Multiplier returns the labour-cost multiplier for this band. Sunday covers
// bank holidays as well.
func (t OutOfHoursType) Multiplier() float64 {
	switch t {
	case OutOfHoursWeekdayEvening:
		return 1.5
	case OutOfHoursSaturday:
		return 2.0
	case OutOfHoursSunday:
		return 2.25
	default:
		return 1.0
	}
}

// OutOfHoursConfig describes premium-rate work on a quote.
type OutOfHoursConfig struct {
	Type        OutOfHoursType
	PremiumDays int
	Enabled     bool
}

// QuoteParameters carries the job-level inputs supplied alongside the line
// items. Read-only to the core; optional overrides are pointers so "not set"
// is distinguishable from zero.
type QuoteParameters struct {
	FitterOverride     *int
	SupervisorOverride *int
	VanOverride        *bool
	WasteOverrideM3    *float64

	OutOfHours OutOfHoursConfig

	ExtendedUpliftDays int
	UpliftFitters      int
	UpliftSupervisors  int
	ExtraVehicles      int

	StairsUplift     bool
	ExtendedUplift   bool
	UpliftVan        bool
	ManualSupervisor bool
	SpecialistRework bool
}

// LabourResult is the buffered-hours breakdown for a quote.
type LabourResult struct {
	TotalHours            float64
	UpliftPercent         float64
	HoursAfterUplift      float64
	DurationBufferPercent float64
	BufferedHours         float64
}

// CrewResult is the solved crew allocation.
type CrewResult struct {
	Days          int
	Fitters       int
	VanFitters    int
	OnFootFitters int
	Supervisors   int
	TwoPersonVan  bool
}

// WasteResult is the aggregated waste volume for disposal.
type WasteResult struct {
	TotalVolumeM3    float64
	Overridden       bool
	ExceedsThreshold bool
}

// PricingResult is the fully itemised price of a quote. Labour costs (van,
// fitters, supervisors) are the only components the out-of-hours surcharge
// ever touches.
type PricingResult struct {
	VanCost              float64
	FitterCost           float64
	SupervisorCost       float64
	UpliftVanCost        float64
	UpliftFitterCost     float64
	UpliftSupervisorCost float64
	SpecialistReworkCost float64
	ParkingCost          float64
	TransportCost        float64
	LabourSubtotal       float64
	OutOfHoursSurcharge  float64
	Total                float64
}

// CalculationResults bundles every derived aggregate for a quote. Pure
// functions of (products, parameters, rates); recomputable at any time.
type CalculationResults struct {
	Labour  LabourResult
	Crew    CrewResult
	Waste   WasteResult
	Pricing PricingResult
}

// Quote is a persisted snapshot of a fully calculated job.
type Quote struct {
	CreatedAt  time.Time
	Reference  string
	Products   []ResolvedProduct
	Parameters QuoteParameters
	Results    CalculationResults
	ID         uuid.UUID
}

// LearnedMatch records a code-to-key mapping confirmed in an earlier
// session, consulted by the resolver ahead of fuzzy catalogue matching.
type LearnedMatch struct {
	LastUsed       time.Time
	NormalizedCode string
	CanonicalKey   string
	UseCount       int
}
