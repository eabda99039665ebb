package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quotewright/internal/common"
	"quotewright/internal/model"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "quotewright.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestLearnedMatches_CRUD(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	_, err := store.GetLearnedMatch(ctx, "FLX4P")
	assert.ErrorIs(t, err, common.ErrNotFound)

	match := &model.LearnedMatch{
		NormalizedCode: "FLX4P",
		CanonicalKey:   "FLX 4P",
		UseCount:       1,
	}
	require.NoError(t, store.SaveLearnedMatch(ctx, match))

	got, err := store.GetLearnedMatch(ctx, "FLX4P")
	require.NoError(t, err)
	assert.Equal(t, "FLX 4P", got.CanonicalKey)
	assert.Equal(t, 1, got.UseCount)
	assert.False(t, got.LastUsed.IsZero())

	// Re-saving the same code updates the key in place.
	match.CanonicalKey = "FLX 6P"
	require.NoError(t, store.SaveLearnedMatch(ctx, match))

	got, err = store.GetLearnedMatch(ctx, "FLX4P")
	require.NoError(t, err)
	assert.Equal(t, "FLX 6P", got.CanonicalKey)

	require.NoError(t, store.DeleteLearnedMatch(ctx, "FLX4P"))
	_, err = store.GetLearnedMatch(ctx, "FLX4P")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSaveLearnedMatch_ReplacesCounter(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveLearnedMatch(ctx, &model.LearnedMatch{
		NormalizedCode: "FLX4P",
		CanonicalKey:   "FLX 4P",
		UseCount:       1,
	}))
	require.NoError(t, store.TouchLearnedMatch(ctx, "FLX4P"))

	// A re-save is a full replacement: the caller's counter wins over the
	// touched value.
	require.NoError(t, store.SaveLearnedMatch(ctx, &model.LearnedMatch{
		NormalizedCode: "FLX4P",
		CanonicalKey:   "FLX 6P",
		UseCount:       5,
	}))

	got, err := store.GetLearnedMatch(ctx, "FLX4P")
	require.NoError(t, err)
	assert.Equal(t, "FLX 6P", got.CanonicalKey)
	assert.Equal(t, 5, got.UseCount)
}

func TestTouchLearnedMatch(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveLearnedMatch(ctx, &model.LearnedMatch{
		NormalizedCode: "TBLRND",
		CanonicalKey:   "TBL RND",
	}))

	require.NoError(t, store.TouchLearnedMatch(ctx, "TBLRND"))
	require.NoError(t, store.TouchLearnedMatch(ctx, "TBLRND"))

	got, err := store.GetLearnedMatch(ctx, "TBLRND")
	require.NoError(t, err)
	assert.Equal(t, 2, got.UseCount)

	err = store.TouchLearnedMatch(ctx, "NEVER-SEEN")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetAllLearnedMatches_RecencyOrder(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, code := range []string{"AAA", "BBB", "CCC"} {
		require.NoError(t, store.SaveLearnedMatch(ctx, &model.LearnedMatch{
			NormalizedCode: code,
			CanonicalKey:   code + " KEY",
			LastUsed:       base.Add(time.Duration(i) * time.Hour),
		}))
	}

	matches, err := store.GetAllLearnedMatches(ctx)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "CCC", matches[0].NormalizedCode)
	assert.Equal(t, "AAA", matches[2].NormalizedCode)
}

func TestLearnedMatch_Validation(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	assert.Error(t, store.SaveLearnedMatch(ctx, nil))
	assert.Error(t, store.SaveLearnedMatch(ctx, &model.LearnedMatch{CanonicalKey: "X"}))
	assert.Error(t, store.SaveLearnedMatch(ctx, &model.LearnedMatch{NormalizedCode: "X"}))

	_, err := store.GetLearnedMatch(ctx, "")
	assert.Error(t, err)
}

func testQuote() *model.Quote {
	raw := model.RawProduct{
		ProductCode: "FLX 4P",
		Quantity:    2,
		LineNumber:  1,
	}
	product := model.NewResolvedProduct(raw, "FLX 4P", model.CatalogueEntry{
		InstallTimeHours: 1.45,
		WasteVolumeM3:    0.035,
		IsHeavy:          true,
	}, model.SourceCatalogue)

	fitters := 2
	return &model.Quote{
		CreatedAt: time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC),
		Reference: "JOB-1042",
		Products:  []model.ResolvedProduct{product},
		Parameters: model.QuoteParameters{
			StairsUplift:   true,
			FitterOverride: &fitters,
		},
		Results: model.CalculationResults{
			Labour:  model.LabourResult{TotalHours: 2.9, BufferedHours: 4.0, DurationBufferPercent: 25},
			Crew:    model.CrewResult{Days: 1, Fitters: 2, VanFitters: 2, TwoPersonVan: true},
			Waste:   model.WasteResult{TotalVolumeM3: 0.07},
			Pricing: model.PricingResult{Total: 1234.5},
		},
	}
}

func TestQuotes_RoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	quote := testQuote()
	require.NoError(t, store.SaveQuote(ctx, quote))
	require.NotEqual(t, uuid.Nil, quote.ID, "saving assigns an ID")

	got, err := store.GetQuote(ctx, quote.ID.String())
	require.NoError(t, err)

	assert.Equal(t, quote.ID, got.ID)
	assert.Equal(t, "JOB-1042", got.Reference)
	assert.True(t, quote.CreatedAt.Equal(got.CreatedAt))

	require.Len(t, got.Products, 1)
	assert.Equal(t, "FLX 4P", got.Products[0].MatchedKey)
	assert.Equal(t, model.SourceCatalogue, got.Products[0].Source)
	assert.InDelta(t, 2.9, got.Products[0].TotalTime, 1e-9)

	require.NotNil(t, got.Parameters.FitterOverride)
	assert.Equal(t, 2, *got.Parameters.FitterOverride)
	assert.True(t, got.Parameters.StairsUplift)

	assert.Equal(t, 1, got.Results.Crew.Days)
	assert.InDelta(t, 1234.5, got.Results.Pricing.Total, 1e-9)
}

func TestGetQuote_NotFound(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.GetQuote(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListQuotes(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		quote := testQuote()
		quote.Reference = string(rune('A' + i))
		quote.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, store.SaveQuote(ctx, quote))
	}

	quotes, err := store.ListQuotes(ctx, 2)
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	// Newest first.
	assert.Equal(t, "C", quotes[0].Reference)
	assert.Equal(t, "B", quotes[1].Reference)
}

func TestMigrate_Idempotent(t *testing.T) {
	store := newTestStorage(t)

	// A second migration pass over an up-to-date schema is a no-op.
	require.NoError(t, store.Migrate(context.Background()))
}

func TestCancelledContext(t *testing.T) {
	store := newTestStorage(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.GetLearnedMatch(ctx, "FLX4P")
	assert.Error(t, err)
}
