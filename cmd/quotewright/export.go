package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"quotewright/internal/export"
)

func exportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <quote-id>",
		Short: "Export a saved quote as an XLSX workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "quote.xlsx", "output file")

	return cmd
}

func runExport(cmd *cobra.Command, quoteID, output string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openStorage(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	quote, err := store.GetQuote(cmd.Context(), quoteID)
	if err != nil {
		return fmt.Errorf("failed to load quote %s: %w", quoteID, err)
	}

	data, err := export.NewService(slog.Default()).QuoteXLSX(quote)
	if err != nil {
		return err
	}

	if err := os.WriteFile(output, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}

	cmd.Printf("Exported quote %s to %s\n", quoteID, output)
	return nil
}
