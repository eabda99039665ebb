// Package parse coordinates the fast and accurate extraction strategies
// behind a timeout race, a confidence-threshold fallback and a result cache.
package parse

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"quotewright/internal/common"
	"quotewright/internal/model"
	"quotewright/internal/service"
)

// Mode selects the orchestration strategy.
type Mode string

// Orchestration modes.
const (
	ModeFast     Mode = "fast"
	ModeAccurate Mode = "accurate"
	ModeHybrid   Mode = "hybrid"
)

// Config holds the orchestrator's tuning knobs.
type Config struct {
	Mode            Mode
	AccurateTimeout time.Duration
	MinConfidence   float64
	CacheTTL        time.Duration
	CacheCapacity   int
}

// Orchestrator races the accurate extractor against a timeout and falls
// back to the fast extractor when it loses, errors, or comes back below the
// confidence threshold. Results are cached by content hash.
type Orchestrator struct {
	fast     service.Extractor
	accurate service.Extractor
	cache    *resultCache
	logger   *slog.Logger
	cfg      Config
}

// NewOrchestrator creates an orchestrator over the two extraction strategies.
func NewOrchestrator(fast, accurate service.Extractor, cfg Config, logger *slog.Logger) *Orchestrator {
	if cfg.Mode == "" {
		cfg.Mode = ModeHybrid
	}
	if cfg.AccurateTimeout <= 0 {
		cfg.AccurateTimeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		fast:     fast,
		accurate: accurate,
		cache:    newResultCache(cfg.CacheTTL, cfg.CacheCapacity),
		logger:   logger,
		cfg:      cfg,
	}
}

// Parse runs one document through the configured strategy. Cache hits
// bypass both extractors and come back with their age attached.
func (o *Orchestrator) Parse(ctx context.Context, req service.ExtractionRequest) (model.ParseResult, error) {
	key := requestHash(req)

	if result, age, ok := o.cache.get(key); ok {
		o.logger.Debug("parse cache hit", "age", age)
		result.CacheAge = age
		return result, nil
	}

	var result model.ParseResult
	var err error

	switch o.cfg.Mode {
	case ModeFast:
		result, err = o.runExtractor(ctx, o.fast, req)
	case ModeAccurate:
		result, err = o.runExtractor(ctx, o.accurate, req)
	default:
		result, err = o.parseHybrid(ctx, req)
	}

	if err != nil {
		return model.ParseResult{}, err
	}

	o.cache.set(key, result)
	return result, nil
}

// Close releases the cache's background resources.
func (o *Orchestrator) Close() {
	o.cache.Close()
}

type accurateOutcome struct {
	err    error
	result model.ParseResult
}

// parseHybrid is the two-stage race: the accurate strategy runs against a
// timer, and the fast strategy only starts once the accurate outcome
// (success, low confidence, error or timeout) is known.
func (o *Orchestrator) parseHybrid(ctx context.Context, req service.ExtractionRequest) (model.ParseResult, error) {
	accurateCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so a late result never blocks the abandoned goroutine; it
	// is simply never read, which is what discards it.
	outcomeCh := make(chan accurateOutcome, 1)
	go func() {
		result, err := o.runExtractor(accurateCtx, o.accurate, req)
		outcomeCh <- accurateOutcome{result: result, err: err}
	}()

	timer := time.NewTimer(o.cfg.AccurateTimeout)
	defer timer.Stop()

	select {
	case outcome := <-outcomeCh:
		if outcome.err != nil {
			o.logger.Warn("accurate extraction failed, falling back", "error", outcome.err)
			return o.fallbackToFast(ctx, req,
				fmt.Sprintf("accurate extraction failed: %v", outcome.err))
		}
		return o.acceptAccurate(ctx, req, outcome.result)

	case <-timer.C:
		cancel()
		o.logger.Warn("accurate extraction timed out, falling back",
			"timeout", o.cfg.AccurateTimeout)
		return o.fallbackToFast(ctx, req,
			fmt.Sprintf("accurate extraction timed out after %s", o.cfg.AccurateTimeout))

	case <-ctx.Done():
		return model.ParseResult{}, ctx.Err()
	}
}

// acceptAccurate returns an in-time accurate result, additionally running
// the fast strategy as a corroboration signal when confidence is below the
// threshold. The accurate data is always what is returned.
func (o *Orchestrator) acceptAccurate(ctx context.Context, req service.ExtractionRequest, result model.ParseResult) (model.ParseResult, error) {
	if result.ConfidenceScore >= o.cfg.MinConfidence {
		return result, nil
	}

	result.Warnings = append(result.Warnings,
		fmt.Sprintf("confidence %.0f below threshold %.0f; fast extraction run for corroboration",
			result.ConfidenceScore, o.cfg.MinConfidence))

	fastResult, err := o.runExtractor(ctx, o.fast, req)
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("corroboration pass failed: %v", err))
		return result, nil
	}

	if len(fastResult.Products) != len(result.Products) {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("corroboration mismatch: fast extraction found %d products, accurate found %d",
				len(fastResult.Products), len(result.Products)))
	}

	return result, nil
}

func (o *Orchestrator) fallbackToFast(ctx context.Context, req service.ExtractionRequest, reason string) (model.ParseResult, error) {
	result, err := o.runExtractor(ctx, o.fast, req)
	if err != nil {
		return model.ParseResult{}, fmt.Errorf("%w: accurate and fast extraction both failed: %s; %v",
			common.ErrExtractionFailed, reason, err)
	}

	result.Warnings = append(result.Warnings, reason)
	return result, nil
}

func (o *Orchestrator) runExtractor(ctx context.Context, extractor service.Extractor, req service.ExtractionRequest) (model.ParseResult, error) {
	start := time.Now()
	res, err := extractor.Extract(ctx, req)
	if err != nil {
		return model.ParseResult{}, err
	}

	return model.ParseResult{
		Method:          res.Method,
		Products:        res.Products,
		ExcludedLines:   res.ExcludedLines,
		ConfidenceScore: res.ConfidenceScore,
		Duration:        time.Since(start),
	}, nil
}

// requestHash derives the cache key for a request from its normalized text
// segments and raw attachment bytes.
func requestHash(req service.ExtractionRequest) string {
	var b strings.Builder
	for _, seg := range req.Segments {
		if seg.Text != "" {
			b.WriteString(model.ContentHash(seg.Text))
		}
		if len(seg.Data) > 0 {
			sum := sha256.Sum256(seg.Data)
			fmt.Fprintf(&b, "%x", sum)
		}
		b.WriteByte('|')
	}
	return model.ContentHash(b.String())
}
