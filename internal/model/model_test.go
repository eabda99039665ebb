package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawProduct_Validate(t *testing.T) {
	tests := []struct {
		name    string
		product RawProduct
		wantErr bool
	}{
		{
			name:    "valid with code",
			product: RawProduct{ProductCode: "FLX 4P", Quantity: 1},
		},
		{
			name:    "valid with description only",
			product: RawProduct{CleanDescription: "Flexi desk", Quantity: 1},
		},
		{
			name:    "no code or description",
			product: RawProduct{Quantity: 1},
			wantErr: true,
		},
		{
			name:    "whitespace only code",
			product: RawProduct{ProductCode: "   ", Quantity: 1},
			wantErr: true,
		},
		{
			name:    "zero quantity",
			product: RawProduct{ProductCode: "FLX 4P"},
			wantErr: true,
		},
		{
			name:    "negative quantity",
			product: RawProduct{ProductCode: "FLX 4P", Quantity: -1},
			wantErr: true,
		},
		{
			name:    "quantity at the sane maximum",
			product: RawProduct{ProductCode: "FLX 4P", Quantity: MaxSaneQuantity},
			wantErr: true,
		},
		{
			name:    "quantity just under the maximum",
			product: RawProduct{ProductCode: "FLX 4P", Quantity: MaxSaneQuantity - 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.product.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewResolvedProduct(t *testing.T) {
	raw := RawProduct{ProductCode: "FLX 4P", Quantity: 2, LineNumber: 5}
	entry := CatalogueEntry{InstallTimeHours: 1.45, WasteVolumeM3: 0.035, IsHeavy: true}

	got := NewResolvedProduct(raw, "FLX 4P", entry, SourceCatalogue)

	assert.True(t, got.Resolved)
	assert.Equal(t, SourceCatalogue, got.Source)
	assert.InDelta(t, 1.45, got.TimePerUnit, 1e-9)
	assert.InDelta(t, 2.90, got.TotalTime, 1e-9)
	assert.InDelta(t, 0.07, got.TotalWaste, 1e-9)
	assert.True(t, got.IsHeavy)
	assert.Equal(t, 5, got.LineNumber)
}

func TestResolvedProduct_WithTimePerUnit(t *testing.T) {
	p := NewResolvedProduct(RawProduct{ProductCode: "X", Quantity: 3},
		"X", CatalogueEntry{InstallTimeHours: 1.0, WasteVolumeM3: 0.01}, SourceCatalogue)

	got := p.WithTimePerUnit(0.5)
	assert.InDelta(t, 0.5, got.TimePerUnit, 1e-9)
	assert.InDelta(t, 1.5, got.TotalTime, 1e-9)
	// Waste is untouched by time overrides.
	assert.InDelta(t, 0.03, got.TotalWaste, 1e-9)
	// The original is unchanged.
	assert.InDelta(t, 1.0, p.TimePerUnit, 1e-9)
}

func TestUnresolved(t *testing.T) {
	got := Unresolved(RawProduct{ProductCode: "MYSTERY", Quantity: 4})
	assert.False(t, got.Resolved)
	assert.Zero(t, got.TotalTime)
	assert.Zero(t, got.TotalWaste)
	assert.Empty(t, got.MatchedKey)
}

func TestContentHash(t *testing.T) {
	base := ContentHash("2x FLX 4P\nLOCKER BANK x1")

	t.Run("whitespace and case insensitive", func(t *testing.T) {
		assert.Equal(t, base, ContentHash("2X  FLX 4P \n LOCKER\tBANK X1"))
	})

	t.Run("different content differs", func(t *testing.T) {
		assert.NotEqual(t, base, ContentHash("3x FLX 4P\nLOCKER BANK x1"))
	})

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, base, ContentHash("2x FLX 4P\nLOCKER BANK x1"))
	})
}

func TestCatalogue_KeyHash(t *testing.T) {
	a := Catalogue{"FLX 4P": {}, "TBL RND": {}}
	b := Catalogue{"TBL RND": {InstallTimeHours: 5}, "FLX 4P": {IsHeavy: true}}
	c := Catalogue{"FLX 4P": {}, "TBL SQR": {}}

	// The hash covers the key set only, not the values.
	assert.Equal(t, a.KeyHash(), b.KeyHash())
	assert.NotEqual(t, a.KeyHash(), c.KeyHash())
}

func TestCatalogue_SortedKeys(t *testing.T) {
	cat := Catalogue{"ZZZ": {}, "AAA": {}, "MMM": {}}
	require.Equal(t, []string{"AAA", "MMM", "ZZZ"}, cat.SortedKeys())
}

func TestOutOfHoursMultiplier(t *testing.T) {
	assert.InDelta(t, 1.5, OutOfHoursWeekdayEvening.Multiplier(), 1e-9)
	assert.InDelta(t, 2.0, OutOfHoursSaturday.Multiplier(), 1e-9)
	assert.InDelta(t, 2.25, OutOfHoursSunday.Multiplier(), 1e-9)
	assert.InDelta(t, 1.0, OutOfHoursType("midnight").Multiplier(), 1e-9)
}
