package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"quotewright/internal/catalogue"
	"quotewright/internal/common"
	"quotewright/internal/config"
	"quotewright/internal/model"
	"quotewright/internal/service"
)

func catalogueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalogue",
		Short: "Inspect the product reference catalogue",
	}

	cmd.AddCommand(catalogueListCmd())
	cmd.AddCommand(catalogueLookupCmd())

	return cmd
}

func catalogueListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all catalogue entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cat, err := config.LoadCatalogue(cfg.CataloguePath)
			if err != nil {
				return err
			}

			cmd.Printf("%-30s %10s %10s %6s\n", "KEY", "HOURS", "WASTE m³", "HEAVY")
			for _, key := range cat.SortedKeys() {
				entry := cat[key]
				cmd.Printf("%-30s %10.2f %10.3f %6v\n",
					key, entry.InstallTimeHours, entry.WasteVolumeM3, entry.IsHeavy)
			}
			return nil
		},
	}
}

func catalogueLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <code>",
		Short: "Show what a product code normalizes and resolves to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			index, err := loadIndex(cfg)
			if err != nil {
				return err
			}

			norm := catalogue.Normalize(args[0])
			cmd.Printf("normalized: %s\n", norm)

			if key, entry, ok := index.Lookup(norm); ok {
				cmd.Printf("exact match: %s (%.2fh, %.3f m³, heavy=%v)\n",
					key, entry.InstallTimeHours, entry.WasteVolumeM3, entry.IsHeavy)
			} else {
				cmd.Println("no exact match (the resolver may still match fuzzily)")
			}
			return nil
		},
	}
}

func learnedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "learned",
		Short: "Manage learned code-to-key matches",
	}

	cmd.AddCommand(learnedAddCmd())
	cmd.AddCommand(learnedListCmd())
	cmd.AddCommand(learnedDeleteCmd())

	return cmd
}

func learnedAddCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "add <code> <catalogue-key>",
		Short: "Teach the resolver a code-to-key match",
		Long: `Record that a product code seen in documents should resolve to the
given catalogue key. Learned matches win over fuzzy catalogue matching on
future quotes.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			norm, err := addLearnedMatch(cmd.Context(), store, index, args[0], args[1], force)
			if err != nil {
				return err
			}
			cmd.Printf("Learned %s -> %s\n", norm, args[1])
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "replace an existing learned match")

	return cmd
}

// addLearnedMatch validates and persists a code-to-key match. The key must
// exist in the catalogue; an existing match for the code is only replaced
// when force is set.
func addLearnedMatch(ctx context.Context, store service.Storage, index *catalogue.Index, rawCode, canonicalKey string, force bool) (string, error) {
	norm := catalogue.Normalize(rawCode)
	if norm == "" {
		return "", common.NewUserError(
			fmt.Sprintf("code %q has no matchable characters", rawCode), nil)
	}

	if _, ok := index.Entry(canonicalKey); !ok {
		return "", common.NewUserError(
			fmt.Sprintf("catalogue has no key %q", canonicalKey), common.ErrNotFound)
	}

	existing, err := store.GetLearnedMatch(ctx, norm)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return "", err
	}
	if existing != nil && !force {
		return "", common.NewUserError(
			fmt.Sprintf("%s is already learned as %q (use --force to replace)", norm, existing.CanonicalKey),
			common.ErrDuplicateEntry)
	}

	return norm, store.SaveLearnedMatch(ctx, &model.LearnedMatch{
		NormalizedCode: norm,
		CanonicalKey:   canonicalKey,
	})
}

func learnedListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List learned matches with usage statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStorage(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			matches, err := store.GetAllLearnedMatches(cmd.Context())
			if err != nil {
				return err
			}

			cmd.Printf("%-25s %-30s %6s %s\n", "CODE", "KEY", "USED", "LAST USED")
			for _, m := range matches {
				cmd.Printf("%-25s %-30s %6d %s\n",
					m.NormalizedCode, m.CanonicalKey, m.UseCount, m.LastUsed.Format("2006-01-02"))
			}
			return nil
		},
	}
}

func learnedDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <code>",
		Short: "Delete a learned match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStorage(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			norm := catalogue.Normalize(args[0])
			if err := store.DeleteLearnedMatch(cmd.Context(), norm); err != nil {
				return err
			}
			cmd.Printf("Deleted learned match %s\n", norm)
			return nil
		},
	}
}
