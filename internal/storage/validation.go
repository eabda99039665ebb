package storage

import (
	"context"
	"fmt"
	"strings"

	"quotewright/internal/model"
)

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("context must not be nil")
	}
	return ctx.Err()
}

func validateString(value, name string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s must not be empty", name)
	}
	return nil
}

func validateLearnedMatch(match *model.LearnedMatch) error {
	if match == nil {
		return fmt.Errorf("learned match must not be nil")
	}
	if err := validateString(match.NormalizedCode, "normalizedCode"); err != nil {
		return err
	}
	return validateString(match.CanonicalKey, "canonicalKey")
}

func validateQuote(quote *model.Quote) error {
	if quote == nil {
		return fmt.Errorf("quote must not be nil")
	}
	if quote.CreatedAt.IsZero() {
		return fmt.Errorf("quote createdAt must be set")
	}
	return nil
}
