package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quotewright/internal/common"
	"quotewright/internal/model"
)

// GetLearnedMatch retrieves a learned match by normalized code.
func (s *SQLiteStorage) GetLearnedMatch(ctx context.Context, normalizedCode string) (*model.LearnedMatch, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(normalizedCode, "normalizedCode"); err != nil {
		return nil, err
	}

	var match model.LearnedMatch
	err := s.db.QueryRowContext(ctx, `
		SELECT normalized_code, canonical_key, use_count, last_used
		FROM learned_matches
		WHERE normalized_code = ?
	`, normalizedCode).Scan(
		&match.NormalizedCode,
		&match.CanonicalKey,
		&match.UseCount,
		&match.LastUsed,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get learned match: %w", err)
	}

	return &match, nil
}

// SaveLearnedMatch inserts or replaces a learned match.
func (s *SQLiteStorage) SaveLearnedMatch(ctx context.Context, match *model.LearnedMatch) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateLearnedMatch(match); err != nil {
		return err
	}

	if match.LastUsed.IsZero() {
		match.LastUsed = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO learned_matches (normalized_code, canonical_key, use_count, last_used)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(normalized_code) DO UPDATE SET
			canonical_key = excluded.canonical_key,
			use_count = excluded.use_count,
			last_used = excluded.last_used
	`, match.NormalizedCode, match.CanonicalKey, match.UseCount, match.LastUsed)

	if err != nil {
		return fmt.Errorf("failed to save learned match: %w", err)
	}
	return nil
}

// GetAllLearnedMatches lists every learned match, most recently used first.
func (s *SQLiteStorage) GetAllLearnedMatches(ctx context.Context) ([]model.LearnedMatch, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT normalized_code, canonical_key, use_count, last_used
		FROM learned_matches
		ORDER BY last_used DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list learned matches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var matches []model.LearnedMatch
	for rows.Next() {
		var match model.LearnedMatch
		if err := rows.Scan(&match.NormalizedCode, &match.CanonicalKey, &match.UseCount, &match.LastUsed); err != nil {
			return nil, fmt.Errorf("failed to scan learned match: %w", err)
		}
		matches = append(matches, match)
	}

	return matches, rows.Err()
}

// TouchLearnedMatch bumps a match's use count and recency.
func (s *SQLiteStorage) TouchLearnedMatch(ctx context.Context, normalizedCode string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(normalizedCode, "normalizedCode"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE learned_matches
		SET use_count = use_count + 1, last_used = CURRENT_TIMESTAMP
		WHERE normalized_code = ?
	`, normalizedCode)
	if err != nil {
		return fmt.Errorf("failed to touch learned match: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check touch result: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

// DeleteLearnedMatch removes a learned match.
func (s *SQLiteStorage) DeleteLearnedMatch(ctx context.Context, normalizedCode string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(normalizedCode, "normalizedCode"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM learned_matches WHERE normalized_code = ?`, normalizedCode)
	if err != nil {
		return fmt.Errorf("failed to delete learned match: %w", err)
	}
	return nil
}
