// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"quotewright/internal/model"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Learned match operations
	GetLearnedMatch(ctx context.Context, normalizedCode string) (*model.LearnedMatch, error)
	SaveLearnedMatch(ctx context.Context, match *model.LearnedMatch) error
	GetAllLearnedMatches(ctx context.Context) ([]model.LearnedMatch, error)
	TouchLearnedMatch(ctx context.Context, normalizedCode string) error
	DeleteLearnedMatch(ctx context.Context, normalizedCode string) error

	// Quote operations
	SaveQuote(ctx context.Context, quote *model.Quote) error
	GetQuote(ctx context.Context, id string) (*model.Quote, error)
	ListQuotes(ctx context.Context, limit int) ([]model.Quote, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// Segment is one piece of document input handed to an extractor: either
// plain text or a binary attachment with its MIME type.
type Segment struct {
	Text     string
	MIMEType string
	Data     []byte
}

// ExtractionRequest is the input to an extractor service.
type ExtractionRequest struct {
	Segments []Segment
	// Permissive relaxes extraction strictness, used on retry when a strict
	// pass returned zero products.
	Permissive bool
}

// ExtractionResult is the raw output of an extractor service before any
// catalogue resolution.
type ExtractionResult struct {
	Details         string
	Method          model.ParseMethod
	Products        []model.RawProduct
	ExcludedLines   []string
	ConfidenceScore float64
}

// Extractor converts document segments into raw product line items. Both
// implementations are opaque calls that may fail, time out, or return zero
// products.
type Extractor interface {
	Extract(ctx context.Context, req ExtractionRequest) (ExtractionResult, error)
	Method() model.ParseMethod
}

// RetryOptions configures retry behavior for operations that may fail transiently.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
