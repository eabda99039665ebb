// Package export renders calculated quotes as XLSX workbooks. It is a
// read-only consumer of calculation results.
package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"quotewright/internal/model"
)

// Service produces XLSX bytes for quote exports.
type Service struct {
	logger *slog.Logger
}

// NewService creates an export service.
func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// QuoteXLSX returns an XLSX workbook with a line-item sheet and a summary
// sheet for the given quote.
func (s *Service) QuoteXLSX(quote *model.Quote) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()

	if err := s.writeLineItems(f, quote); err != nil {
		return nil, err
	}
	if err := s.writeSummary(f, quote); err != nil {
		return nil, err
	}

	// Drop the default sheet excelize creates.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.Info("quote exported",
		"quote_id", quote.ID,
		"products", len(quote.Products),
		"duration", time.Since(start))

	return buf.Bytes(), nil
}

func (s *Service) writeLineItems(f *excelize.File, quote *model.Quote) error {
	const sheet = "Line Items"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headers := []string{
		"Line", "Product Code", "Description", "Quantity",
		"Matched Key", "Source", "Hours/Unit", "Total Hours",
		"Waste m³", "Heavy",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, p := range quote.Products {
		source := string(p.Source)
		if !p.Resolved {
			source = "unresolved"
		}
		values := []any{
			p.LineNumber, p.ProductCode, p.CleanDescription, p.Quantity,
			p.MatchedKey, source, p.TimePerUnit, p.TotalTime,
			p.TotalWaste, p.IsHeavy,
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		row++
	}

	return nil
}

func (s *Service) writeSummary(f *excelize.File, quote *model.Quote) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	r := quote.Results
	rows := [][2]any{
		{"Reference", quote.Reference},
		{"Created", quote.CreatedAt.Format("2006-01-02 15:04")},
		{"", ""},
		{"Total hours", r.Labour.TotalHours},
		{"Hours after uplift", r.Labour.HoursAfterUplift},
		{"Duration buffer %", r.Labour.DurationBufferPercent},
		{"Buffered hours", r.Labour.BufferedHours},
		{"", ""},
		{"Days", r.Crew.Days},
		{"Fitters", r.Crew.Fitters},
		{"Two-person van", r.Crew.TwoPersonVan},
		{"On foot", r.Crew.OnFootFitters},
		{"Supervisors", r.Crew.Supervisors},
		{"", ""},
		{"Waste m³", r.Waste.TotalVolumeM3},
		{"Waste flagged", r.Waste.ExceedsThreshold},
		{"", ""},
		{"Van cost", r.Pricing.VanCost},
		{"Fitter cost", r.Pricing.FitterCost},
		{"Supervisor cost", r.Pricing.SupervisorCost},
		{"Uplift period cost", r.Pricing.UpliftVanCost + r.Pricing.UpliftFitterCost + r.Pricing.UpliftSupervisorCost},
		{"Out-of-hours surcharge", r.Pricing.OutOfHoursSurcharge},
		{"Specialist rework", r.Pricing.SpecialistReworkCost},
		{"Parking", r.Pricing.ParkingCost},
		{"Transport", r.Pricing.TransportCost},
		{"Total", r.Pricing.Total},
	}

	for i, pair := range rows {
		labelCell, _ := excelize.CoordinatesToCellName(1, i+1)
		valueCell, _ := excelize.CoordinatesToCellName(2, i+1)
		_ = f.SetCellValue(sheet, labelCell, pair[0])
		_ = f.SetCellValue(sheet, valueCell, pair[1])
	}

	return nil
}
