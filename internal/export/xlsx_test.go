package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"quotewright/internal/model"
)

func exportQuote() *model.Quote {
	resolved := model.NewResolvedProduct(model.RawProduct{
		ProductCode:      "FLX 4P",
		CleanDescription: "Flexi desk pod",
		Quantity:         2,
		LineNumber:       1,
	}, "FLX 4P", model.CatalogueEntry{
		InstallTimeHours: 1.45,
		WasteVolumeM3:    0.035,
		IsHeavy:          true,
	}, model.SourceCatalogue)

	unresolved := model.Unresolved(model.RawProduct{
		ProductCode: "MYSTERY-1",
		Quantity:    1,
		LineNumber:  2,
	})

	return &model.Quote{
		ID:        uuid.New(),
		CreatedAt: time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC),
		Reference: "JOB-1042",
		Products:  []model.ResolvedProduct{resolved, unresolved},
		Results: model.CalculationResults{
			Labour:  model.LabourResult{TotalHours: 2.9, BufferedHours: 3.75},
			Crew:    model.CrewResult{Days: 1, Fitters: 1, TwoPersonVan: true},
			Waste:   model.WasteResult{TotalVolumeM3: 0.07},
			Pricing: model.PricingResult{Total: 565.0},
		},
	}
}

func TestQuoteXLSX(t *testing.T) {
	data, err := NewService(nil).QuoteXLSX(exportQuote())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.ElementsMatch(t, []string{"Line Items", "Summary"}, f.GetSheetList())

	header, err := f.GetCellValue("Line Items", "B1")
	require.NoError(t, err)
	assert.Equal(t, "Product Code", header)

	code, err := f.GetCellValue("Line Items", "B2")
	require.NoError(t, err)
	assert.Equal(t, "FLX 4P", code)

	source, err := f.GetCellValue("Line Items", "F2")
	require.NoError(t, err)
	assert.Equal(t, "catalogue", source)

	unresolvedSource, err := f.GetCellValue("Line Items", "F3")
	require.NoError(t, err)
	assert.Equal(t, "unresolved", unresolvedSource)

	reference, err := f.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, "JOB-1042", reference)
}
