package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"quotewright/internal/catalogue"
	"quotewright/internal/config"
	"quotewright/internal/extract"
	"quotewright/internal/parse"
	"quotewright/internal/rules"
	"quotewright/internal/service"
	"quotewright/internal/storage"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.DatabasePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		cfg.DatabasePath = filepath.Join(home, ".local", "share", "quotewright", "quotewright.db")
	}
	return cfg, nil
}

func openStorage(cmd *cobra.Command, cfg *config.Config) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := store.Migrate(cmd.Context()); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func loadIndex(cfg *config.Config) (*catalogue.Index, error) {
	if cfg.CataloguePath == "" {
		return nil, fmt.Errorf("no catalogue configured; set catalogue_path or --catalogue")
	}
	cat, err := config.LoadCatalogue(cfg.CataloguePath)
	if err != nil {
		return nil, err
	}
	return catalogue.NewIndex(cat), nil
}

// buildOrchestrator wires the parsing orchestrator. Without an API key the
// accurate strategy is unavailable and the orchestrator degrades to
// fast-only with a warning.
func buildOrchestrator(cfg *config.Config, logger *slog.Logger) (*parse.Orchestrator, error) {
	fast := extract.NewHeuristicExtractor(logger)

	mode := parse.Mode(cfg.Parsing.Mode)
	var accurate service.Extractor
	if cfg.Parsing.AnthropicAPIKey != "" {
		var err error
		accurate, err = extract.NewAnthropicExtractor(extract.AnthropicConfig{
			APIKey: cfg.Parsing.AnthropicAPIKey,
			Model:  cfg.Parsing.Model,
		}, logger)
		if err != nil {
			return nil, err
		}
	} else {
		if mode != parse.ModeFast {
			logger.Warn("no anthropic API key configured, falling back to fast-only parsing")
		}
		mode = parse.ModeFast
		accurate = fast
	}

	return parse.NewOrchestrator(fast, accurate, parse.Config{
		Mode:            mode,
		AccurateTimeout: cfg.Parsing.AccurateTimeout,
		MinConfidence:   cfg.Parsing.MinConfidence,
		CacheTTL:        cfg.Parsing.CacheTTL,
		CacheCapacity:   cfg.Parsing.CacheCapacity,
	}, logger), nil
}

// buildRuleEngine appends any user-configured rules after the built-in
// edge-case table.
func buildRuleEngine(cfg *config.Config) (*rules.Engine, error) {
	engine := rules.DefaultEngine()

	extra := make([]rules.Rule, 0, len(cfg.Rules))
	for _, rc := range cfg.Rules {
		rule, err := rules.FromConfig(rc.Name, rc.Pattern, rc.Action, rc.Value)
		if err != nil {
			return nil, err
		}
		extra = append(extra, rule)
	}

	return engine.Extend(extra...), nil
}

func readDocument(path string) (service.ExtractionRequest, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is a user-supplied CLI argument
	if err != nil {
		return service.ExtractionRequest{}, fmt.Errorf("failed to read document: %w", err)
	}

	switch filepath.Ext(path) {
	case ".png", ".jpg", ".jpeg", ".webp", ".gif":
		mime := "image/" + filepath.Ext(path)[1:]
		if mime == "image/jpg" {
			mime = "image/jpeg"
		}
		return service.ExtractionRequest{
			Segments: []service.Segment{{Data: data, MIMEType: mime}},
		}, nil
	default:
		return service.ExtractionRequest{
			Segments: []service.Segment{{Text: string(data)}},
		}, nil
	}
}
