package calc

import (
	"quotewright/internal/config"
	"quotewright/internal/model"
)

// Calculator derives labour, crew, waste and pricing aggregates from
// resolved products. Stateless apart from the injected rates; safe for
// concurrent use.
type Calculator struct {
	rates config.Rates
}

// New creates a calculator with the given rate configuration.
func New(rates config.Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Calculate runs the full pipeline. Identical inputs always produce
// identical results; there is no clock or randomness in any of the math.
func (c *Calculator) Calculate(products []model.ResolvedProduct, params model.QuoteParameters) model.CalculationResults {
	labour := c.Labour(products, params)
	crew := c.Crew(labour.BufferedHours, products, params)
	waste := c.Waste(products, params)
	pricing := c.Pricing(crew, params)

	return model.CalculationResults{
		Labour:  labour,
		Crew:    crew,
		Waste:   waste,
		Pricing: pricing,
	}
}
