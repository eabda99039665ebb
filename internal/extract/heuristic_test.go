package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quotewright/internal/model"
	"quotewright/internal/service"
)

func TestHeuristicExtract_LineShapes(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantCode string
		wantDesc string
		wantQty  int
		excluded bool
	}{
		{name: "quantity first", line: "2 x FLX-4P Flexi desk", wantCode: "FLX-4P", wantDesc: "Flexi desk", wantQty: 2},
		{name: "quantity first no space before x", line: "3x TBL-RND Round table", wantCode: "TBL-RND", wantDesc: "Round table", wantQty: 3},
		{name: "multiplication sign", line: "2 × FLX-4P Flexi desk", wantCode: "FLX-4P", wantDesc: "Flexi desk", wantQty: 2},
		{name: "quantity last with x", line: "FLX-4P Flexi desk x2", wantCode: "FLX-4P", wantDesc: "Flexi desk", wantQty: 2},
		{name: "quantity last bare", line: "FLX-4P Flexi desk 2", wantCode: "FLX-4P", wantDesc: "Flexi desk", wantQty: 2},
		{name: "code and count only", line: "FLX-4P 2", wantCode: "FLX-4P", wantDesc: "", wantQty: 2},
		{name: "prose line excluded", line: "Delivery to site", excluded: true},
		{name: "separator excluded", line: "----------------", excluded: true},
	}

	extractor := NewHeuristicExtractor(nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractor.Extract(context.Background(), service.ExtractionRequest{
				Segments: []service.Segment{{Text: tt.line}},
			})
			require.NoError(t, err)

			if tt.excluded {
				assert.Empty(t, got.Products)
				assert.Equal(t, []string{tt.line}, got.ExcludedLines)
				return
			}

			require.Len(t, got.Products, 1)
			p := got.Products[0]
			assert.Equal(t, tt.wantCode, p.ProductCode)
			assert.Equal(t, tt.wantDesc, p.CleanDescription)
			assert.Equal(t, tt.wantQty, p.Quantity)
			assert.Equal(t, tt.line, p.RawDescription)
		})
	}
}

func TestHeuristicExtract_Document(t *testing.T) {
	doc := `Installation schedule

2 x FLX-4P Flexi desk pod
LOCKER-BANK-12 Locker bank x1

Delivery to site included`

	extractor := NewHeuristicExtractor(nil)
	got, err := extractor.Extract(context.Background(), service.ExtractionRequest{
		Segments: []service.Segment{{Text: doc}},
	})
	require.NoError(t, err)

	require.Len(t, got.Products, 2)
	assert.Equal(t, "FLX-4P", got.Products[0].ProductCode)
	assert.Equal(t, "LOCKER-BANK-12", got.Products[1].ProductCode)

	// Line numbers count non-blank lines across the document.
	assert.Equal(t, 2, got.Products[0].LineNumber)
	assert.Equal(t, 3, got.Products[1].LineNumber)

	assert.Len(t, got.ExcludedLines, 2)
	assert.Equal(t, model.MethodFast, got.Method)
}

func TestHeuristicExtract_BinarySegmentsReported(t *testing.T) {
	extractor := NewHeuristicExtractor(nil)

	got, err := extractor.Extract(context.Background(), service.ExtractionRequest{
		Segments: []service.Segment{
			{Data: []byte{0xFF, 0xD8}, MIMEType: "image/jpeg"},
			{Text: "2 x FLX-4P Flexi desk"},
		},
	})
	require.NoError(t, err)

	require.Len(t, got.Products, 1)
	assert.Contains(t, got.Details, "1 binary segments skipped")
}

func TestHeuristicExtract_CancelledContext(t *testing.T) {
	extractor := NewHeuristicExtractor(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := extractor.Extract(ctx, service.ExtractionRequest{
		Segments: []service.Segment{{Text: "2 x FLX-4P desk"}},
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		name     string
		parsed   int
		excluded int
		want     float64
	}{
		{name: "nothing parsed", parsed: 0, excluded: 0, want: 0},
		{name: "all lines understood", parsed: 4, excluded: 0, want: 60},
		{name: "half understood", parsed: 2, excluded: 2, want: 45},
		{name: "mostly noise", parsed: 1, excluded: 9, want: 33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, confidence(tt.parsed, tt.excluded), 1e-9)
		})
	}
}
