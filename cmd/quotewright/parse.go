package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"quotewright/internal/common"
	"quotewright/internal/model"
	"quotewright/internal/parse"
)

func parseCmd() *cobra.Command {
	var showExcluded bool

	cmd := &cobra.Command{
		Use:   "parse <document>...",
		Short: "Extract raw line items from documents",
		Long: `Run the hybrid parsing orchestrator over one or more documents and
show the extracted line items without resolving or pricing them.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args, showExcluded)
		},
	}

	cmd.Flags().BoolVar(&showExcluded, "show-excluded", false, "also print lines the extractor rejected")

	return cmd
}

func runParse(cmd *cobra.Command, paths []string, showExcluded bool) error {
	logger := slog.Default()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	orchestrator, err := buildOrchestrator(cfg, logger)
	if err != nil {
		return err
	}
	defer orchestrator.Close()

	var bar *progressbar.ProgressBar
	if len(paths) > 1 {
		bar = progressbar.NewOptions(len(paths),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("Parsing documents..."),
		)
	}

	// One bad document should not abort a batch: log it and keep going.
	failures := 0
	for _, path := range paths {
		result, err := parseOne(cmd, path, orchestrator)
		if err != nil {
			failures++
			common.LogError(err, "failed to parse document", common.Fields{"path": path})
		} else {
			printParseResult(cmd, path, result, showExcluded)
		}

		if bar != nil {
			_ = bar.Add(1)
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d documents failed", failures, len(paths))
	}
	return nil
}

func parseOne(cmd *cobra.Command, path string, orchestrator *parse.Orchestrator) (model.ParseResult, error) {
	req, err := readDocument(path)
	if err != nil {
		return model.ParseResult{}, err
	}
	return orchestrator.Parse(cmd.Context(), req)
}

func printParseResult(cmd *cobra.Command, path string, result model.ParseResult, showExcluded bool) {
	cmd.Printf("%s: %d products, confidence %.0f, method %s",
		path, len(result.Products), result.ConfidenceScore, result.Method)
	if result.CacheAge > 0 {
		cmd.Printf(" (cached %s ago)", result.CacheAge.Round(time.Second))
	}
	cmd.Println()

	for _, p := range result.Products {
		cmd.Printf("  %3d  %-20s x%-3d  %s\n", p.LineNumber, p.ProductCode, p.Quantity, p.CleanDescription)
	}
	for _, w := range result.Warnings {
		cmd.Printf("  warning: %s\n", w)
	}
	if showExcluded {
		for _, line := range result.ExcludedLines {
			cmd.Printf("  excluded: %s\n", line)
		}
	}
}
