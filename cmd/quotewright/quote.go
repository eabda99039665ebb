package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"quotewright/internal/calc"
	"quotewright/internal/common"
	"quotewright/internal/model"
	"quotewright/internal/resolver"
)

type quoteFlags struct {
	reference         string
	van               string
	oohType           string
	overrides         []string
	fitters           int
	supervisors       int
	upliftDays        int
	upliftFitters     int
	upliftSupervisors int
	oohDays           int
	extraVehicles     int
	waste             float64
	stairs            bool
	extendedUplift    bool
	upliftVan         bool
	manualSupervisor  bool
	specialist        bool
	defaultUnresolved bool
	save              bool
}

func quoteCmd() *cobra.Command {
	flags := &quoteFlags{}

	cmd := &cobra.Command{
		Use:   "quote <document>",
		Short: "Parse a document and produce a full quote",
		Long: `Parse an installation document, resolve its line items against the
catalogue, and compute labour, crew, waste and pricing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuote(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.reference, "reference", "", "quote reference")
	cmd.Flags().StringArrayVar(&flags.overrides, "override", nil,
		"manual product entry CODE=HOURS[,WASTE], repeatable; wins over every other source")
	cmd.Flags().BoolVar(&flags.stairs, "stairs", false, "apply stairs uplift buffer")
	cmd.Flags().BoolVar(&flags.extendedUplift, "extended-uplift", false, "apply extended uplift buffer")
	cmd.Flags().IntVar(&flags.fitters, "fitters", 0, "override fitter count (0 = optimize)")
	cmd.Flags().IntVar(&flags.supervisors, "supervisors", -1, "override supervisor count (-1 = automatic)")
	cmd.Flags().StringVar(&flags.van, "van", "auto", "two-person van: auto, yes or no")
	cmd.Flags().BoolVar(&flags.manualSupervisor, "supervised", false, "force a supervisor regardless of duration")
	cmd.Flags().Float64Var(&flags.waste, "waste", -1, "override waste volume in m³ (-1 = computed)")
	cmd.Flags().IntVar(&flags.upliftDays, "uplift-days", 0, "extended uplift period in days")
	cmd.Flags().IntVar(&flags.upliftFitters, "uplift-fitters", 0, "fitters during the uplift period")
	cmd.Flags().IntVar(&flags.upliftSupervisors, "uplift-supervisors", 0, "supervisors during the uplift period")
	cmd.Flags().BoolVar(&flags.upliftVan, "uplift-van", false, "van during the uplift period")
	cmd.Flags().StringVar(&flags.oohType, "out-of-hours", "", "out-of-hours type: weekday-evening, saturday or sunday")
	cmd.Flags().IntVar(&flags.oohDays, "out-of-hours-days", 0, "days worked out of hours")
	cmd.Flags().IntVar(&flags.extraVehicles, "extra-vehicles", 0, "additional vehicles beyond the van")
	cmd.Flags().BoolVar(&flags.specialist, "specialist-rework", false, "add the flat specialist rework cost")
	cmd.Flags().BoolVar(&flags.defaultUnresolved, "default-unresolved", false, "price unresolved products at default constants")
	cmd.Flags().BoolVar(&flags.save, "save", false, "save the quote snapshot")

	return cmd
}

func runQuote(cmd *cobra.Command, path string, flags *quoteFlags) error {
	ctx := cmd.Context()
	logger := slog.Default()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	index, err := loadIndex(cfg)
	if err != nil {
		return err
	}

	store, err := openStorage(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	orchestrator, err := buildOrchestrator(cfg, logger)
	if err != nil {
		return err
	}
	defer orchestrator.Close()

	req, err := readDocument(path)
	if err != nil {
		return err
	}

	parsed, err := orchestrator.Parse(ctx, req)
	if err != nil {
		return err
	}
	for _, w := range parsed.Warnings {
		logger.Warn("parse warning", "warning", w)
	}
	if len(parsed.Products) == 0 {
		return common.NewUserError(
			fmt.Sprintf("no products could be extracted from %s", path),
			common.ErrNoProducts)
	}

	engine, err := buildRuleEngine(cfg)
	if err != nil {
		return err
	}

	overrides, err := parseOverrides(flags.overrides)
	if err != nil {
		return err
	}

	res := resolver.New(index, store, logger)
	products := res.ResolveAll(ctx, parsed.Products, overrides)
	products = engine.ApplyAll(products)

	unresolved := 0
	for i, p := range products {
		if !p.Resolved {
			unresolved++
			if flags.defaultUnresolved {
				products[i] = resolver.ApplyDefault(p,
					cfg.Rates.DefaultInstallTimeHours, cfg.Rates.DefaultWastePerUnitM3)
			}
		}
	}
	if unresolved > 0 && !flags.defaultUnresolved {
		logger.Warn("quote has unresolved products needing attention",
			"count", unresolved)
	}

	params, err := flags.toParameters()
	if err != nil {
		return err
	}

	results := calc.New(cfg.Rates).Calculate(products, params)
	printQuote(cmd, products, results)

	if flags.save {
		quote := &model.Quote{
			CreatedAt:  time.Now(),
			Reference:  flags.reference,
			Products:   products,
			Parameters: params,
			Results:    results,
		}
		if err := store.SaveQuote(ctx, quote); err != nil {
			return err
		}
		common.LogInfo("quote saved", common.Fields{
			"id":        quote.ID.String(),
			"reference": quote.Reference,
			"products":  len(quote.Products),
		})
		cmd.Printf("\nSaved quote %s\n", quote.ID)
	}

	return nil
}

// parseOverrides turns --override CODE=HOURS[,WASTE] values into the
// resolver's per-quote override set.
func parseOverrides(values []string) (resolver.Overrides, error) {
	if len(values) == 0 {
		return nil, nil
	}

	raw := make(map[string]model.CatalogueEntry, len(values))
	for _, v := range values {
		code, rest, ok := strings.Cut(v, "=")
		code = strings.TrimSpace(code)
		if !ok || code == "" {
			return nil, fmt.Errorf("invalid --override %q (want CODE=HOURS[,WASTE])", v)
		}

		parts := strings.Split(rest, ",")
		if len(parts) > 2 {
			return nil, fmt.Errorf("invalid --override %q (want CODE=HOURS[,WASTE])", v)
		}

		hours, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil || hours < 0 {
			return nil, fmt.Errorf("invalid hours in --override %q", v)
		}

		entry := model.CatalogueEntry{InstallTimeHours: hours}
		if len(parts) == 2 {
			waste, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
			if err != nil || waste < 0 {
				return nil, fmt.Errorf("invalid waste in --override %q", v)
			}
			entry.WasteVolumeM3 = waste
		}

		raw[code] = entry
	}

	return resolver.NewOverrides(raw), nil
}

func (f *quoteFlags) toParameters() (model.QuoteParameters, error) {
	params := model.QuoteParameters{
		StairsUplift:       f.stairs,
		ExtendedUplift:     f.extendedUplift,
		ManualSupervisor:   f.manualSupervisor,
		SpecialistRework:   f.specialist,
		ExtendedUpliftDays: f.upliftDays,
		UpliftFitters:      f.upliftFitters,
		UpliftSupervisors:  f.upliftSupervisors,
		UpliftVan:          f.upliftVan,
		ExtraVehicles:      f.extraVehicles,
	}

	if f.fitters > 0 {
		params.FitterOverride = &f.fitters
	}
	if f.supervisors >= 0 {
		params.SupervisorOverride = &f.supervisors
	}
	if f.waste >= 0 {
		params.WasteOverrideM3 = &f.waste
	}

	switch f.van {
	case "auto":
	case "yes":
		v := true
		params.VanOverride = &v
	case "no":
		v := false
		params.VanOverride = &v
	default:
		return params, fmt.Errorf("invalid --van value %q (want auto, yes or no)", f.van)
	}

	if f.oohType != "" {
		oohType := model.OutOfHoursType(f.oohType)
		if oohType.Multiplier() == 1.0 {
			return params, fmt.Errorf("invalid --out-of-hours value %q", f.oohType)
		}
		params.OutOfHours = model.OutOfHoursConfig{
			Enabled:     true,
			Type:        oohType,
			PremiumDays: f.oohDays,
		}
	}

	return params, nil
}

func printQuote(cmd *cobra.Command, products []model.ResolvedProduct, results model.CalculationResults) {
	cmd.Println("Line items:")
	for _, p := range products {
		status := string(p.Source)
		if !p.Resolved {
			status = "UNRESOLVED"
		}
		cmd.Printf("  %3d  %-20s x%-3d  %6.2fh  [%s]\n",
			p.LineNumber, p.ProductCode, p.Quantity, p.TotalTime, status)
	}

	l, c, w, pr := results.Labour, results.Crew, results.Waste, results.Pricing
	cmd.Printf("\nLabour:  %.2fh raw, %.2fh after uplift, buffer %.0f%%, %.2fh buffered\n",
		l.TotalHours, l.HoursAfterUplift, l.DurationBufferPercent, l.BufferedHours)
	cmd.Printf("Crew:    %d day(s), %d fitter(s)", c.Days, c.Fitters)
	if c.TwoPersonVan {
		cmd.Printf(" (%d in van, %d on foot)", c.VanFitters, c.OnFootFitters)
	}
	if c.Supervisors > 0 {
		cmd.Printf(", %d supervisor(s)", c.Supervisors)
	}
	cmd.Println()
	cmd.Printf("Waste:   %.3f m³", w.TotalVolumeM3)
	if w.ExceedsThreshold {
		cmd.Print("  (exceeds disposal threshold)")
	}
	cmd.Println()
	cmd.Printf("Price:   labour %.2f", pr.LabourSubtotal)
	if pr.OutOfHoursSurcharge > 0 {
		cmd.Printf(" + out-of-hours %.2f", pr.OutOfHoursSurcharge)
	}
	cmd.Printf(" + parking %.2f + transport %.2f", pr.ParkingCost, pr.TransportCost)
	if pr.SpecialistReworkCost > 0 {
		cmd.Printf(" + rework %.2f", pr.SpecialistReworkCost)
	}
	cmd.Printf(" = %.2f\n", pr.Total)
}
