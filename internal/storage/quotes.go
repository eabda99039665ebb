package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"quotewright/internal/common"
	"quotewright/internal/model"
)

// SaveQuote persists a fully calculated quote snapshot. The products,
// parameters and results are stored as JSON documents; quotes are
// snapshots, not relational data.
func (s *SQLiteStorage) SaveQuote(ctx context.Context, quote *model.Quote) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateQuote(quote); err != nil {
		return err
	}

	if quote.ID == uuid.Nil {
		quote.ID = uuid.New()
	}

	parameters, err := json.Marshal(quote.Parameters)
	if err != nil {
		return fmt.Errorf("failed to encode parameters: %w", err)
	}
	products, err := json.Marshal(quote.Products)
	if err != nil {
		return fmt.Errorf("failed to encode products: %w", err)
	}
	results, err := json.Marshal(quote.Results)
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO quotes (id, reference, created_at, parameters, products, results)
		VALUES (?, ?, ?, ?, ?, ?)
	`, quote.ID.String(), quote.Reference, quote.CreatedAt, parameters, products, results)

	if err != nil {
		return fmt.Errorf("failed to save quote: %w", err)
	}
	return nil
}

// GetQuote loads a quote snapshot by ID.
func (s *SQLiteStorage) GetQuote(ctx context.Context, id string) (*model.Quote, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, reference, created_at, parameters, products, results
		FROM quotes
		WHERE id = ?
	`, id)

	quote, err := scanQuote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return quote, nil
}

// ListQuotes returns the most recent quote snapshots.
func (s *SQLiteStorage) ListQuotes(ctx context.Context, limit int) ([]model.Quote, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, reference, created_at, parameters, products, results
		FROM quotes
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var quotes []model.Quote
	for rows.Next() {
		quote, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, *quote)
	}

	return quotes, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuote(row rowScanner) (*model.Quote, error) {
	var (
		idStr      string
		reference  string
		createdAt  time.Time
		parameters []byte
		products   []byte
		results    []byte
	)

	if err := row.Scan(&idStr, &reference, &createdAt, &parameters, &products, &results); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to scan quote: %w", err)
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse quote id: %w", err)
	}

	quote := &model.Quote{ID: id, Reference: reference, CreatedAt: createdAt}
	if err := json.Unmarshal(parameters, &quote.Parameters); err != nil {
		return nil, fmt.Errorf("failed to decode parameters: %w", err)
	}
	if err := json.Unmarshal(products, &quote.Products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	if err := json.Unmarshal(results, &quote.Results); err != nil {
		return nil, fmt.Errorf("failed to decode results: %w", err)
	}

	return quote, nil
}
