package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quotewright/internal/catalogue"
	"quotewright/internal/common"
	"quotewright/internal/model"
	"quotewright/internal/resolver"
	"quotewright/internal/storage"
)

func newLearnedTestStore(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "quotewright.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func learnedTestIndex() *catalogue.Index {
	return catalogue.NewIndex(model.Catalogue{
		"FLX 4P":  {InstallTimeHours: 1.5, WasteVolumeM3: 0.05},
		"TBL RND": {InstallTimeHours: 0.75, WasteVolumeM3: 0.02},
	})
}

func TestAddLearnedMatch(t *testing.T) {
	ctx := context.Background()
	store := newLearnedTestStore(t)
	index := learnedTestIndex()

	norm, err := addLearnedMatch(ctx, store, index, "flx-cowork-4p", "FLX 4P", false)
	require.NoError(t, err)
	assert.Equal(t, "FLXCOWORK4P", norm)

	saved, err := store.GetLearnedMatch(ctx, norm)
	require.NoError(t, err)
	assert.Equal(t, "FLX 4P", saved.CanonicalKey)

	// The resolver now honours the taught match over fuzzy catalogue matching.
	res := resolver.New(index, store, nil)
	got := res.Resolve(ctx, model.RawProduct{ProductCode: "FLX-COWORK-4P", Quantity: 1}, nil)
	assert.True(t, got.Resolved)
	assert.Equal(t, model.SourceLearned, got.Source)
	assert.Equal(t, "FLX 4P", got.MatchedKey)
}

func TestAddLearnedMatch_DuplicateNeedsForce(t *testing.T) {
	ctx := context.Background()
	store := newLearnedTestStore(t)
	index := learnedTestIndex()

	_, err := addLearnedMatch(ctx, store, index, "FLX4P-X", "FLX 4P", false)
	require.NoError(t, err)

	_, err = addLearnedMatch(ctx, store, index, "FLX4P-X", "TBL RND", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)

	// The original match is untouched.
	saved, err := store.GetLearnedMatch(ctx, "FLX4PX")
	require.NoError(t, err)
	assert.Equal(t, "FLX 4P", saved.CanonicalKey)

	_, err = addLearnedMatch(ctx, store, index, "FLX4P-X", "TBL RND", true)
	require.NoError(t, err)

	saved, err = store.GetLearnedMatch(ctx, "FLX4PX")
	require.NoError(t, err)
	assert.Equal(t, "TBL RND", saved.CanonicalKey)
}

func TestAddLearnedMatch_RejectsUnknownKey(t *testing.T) {
	ctx := context.Background()
	store := newLearnedTestStore(t)

	_, err := addLearnedMatch(ctx, store, learnedTestIndex(), "FLX4P", "NO SUCH KEY", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)

	var userErr *common.UserError
	assert.ErrorAs(t, err, &userErr)
}

func TestAddLearnedMatch_RejectsEmptyCode(t *testing.T) {
	ctx := context.Background()
	store := newLearnedTestStore(t)

	_, err := addLearnedMatch(ctx, store, learnedTestIndex(), "---", "FLX 4P", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no matchable characters")
}
