package extract

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"quotewright/internal/model"
	"quotewright/internal/service"
)

// Line shapes the fast extractor recognizes, tried in order.
var (
	// "2 x FLX-4P Flexi desk"
	qtyFirstRe = regexp.MustCompile(`^(\d{1,3})\s*[xX×]\s+(\S+)\s*(.*)$`)
	// "FLX-4P Flexi desk x2" / "FLX-4P Flexi desk 2"
	qtyLastRe = regexp.MustCompile(`^(\S+)\s+(.+?)\s+[xX]?\s*(\d{1,3})$`)
	// "FLX-4P 2" bare code and count
	bareRe = regexp.MustCompile(`^(\S*[A-Za-z]\S*)\s+(\d{1,3})$`)
)

// HeuristicExtractor is the fast/low-confidence strategy: a local
// line-oriented parser with no network dependency. It exists to keep quotes
// moving when the accurate extractor times out or fails.
type HeuristicExtractor struct {
	logger *slog.Logger
}

// NewHeuristicExtractor creates the fast extractor.
func NewHeuristicExtractor(logger *slog.Logger) *HeuristicExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &HeuristicExtractor{logger: logger}
}

// Method identifies this strategy.
func (e *HeuristicExtractor) Method() model.ParseMethod {
	return model.MethodFast
}

// Extract parses the request's text segments line by line. Binary segments
// cannot be read locally and are reported in the details.
func (e *HeuristicExtractor) Extract(ctx context.Context, req service.ExtractionRequest) (service.ExtractionResult, error) {
	if err := ctx.Err(); err != nil {
		return service.ExtractionResult{}, err
	}

	var products []model.RawProduct
	var excluded []string
	binarySegments := 0
	lineNo := 0

	for _, seg := range req.Segments {
		if seg.Text == "" {
			if len(seg.Data) > 0 {
				binarySegments++
			}
			continue
		}

		for _, line := range strings.Split(seg.Text, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			lineNo++

			if p, ok := parseLine(line, lineNo); ok {
				products = append(products, p)
			} else {
				excluded = append(excluded, line)
			}
		}
	}

	details := ""
	if binarySegments > 0 {
		details = fmt.Sprintf("%d binary segments skipped (text-only parser)", binarySegments)
	}

	return service.ExtractionResult{
		Method:          model.MethodFast,
		Products:        products,
		ExcludedLines:   excluded,
		ConfidenceScore: confidence(len(products), len(excluded)),
		Details:         details,
	}, nil
}

func parseLine(line string, lineNo int) (model.RawProduct, bool) {
	if m := qtyFirstRe.FindStringSubmatch(line); m != nil {
		qty, _ := strconv.Atoi(m[1])
		return newLineProduct(lineNo, m[2], m[3], line, qty), true
	}

	if m := qtyLastRe.FindStringSubmatch(line); m != nil {
		qty, _ := strconv.Atoi(m[3])
		return newLineProduct(lineNo, m[1], m[2], line, qty), true
	}

	if m := bareRe.FindStringSubmatch(line); m != nil {
		qty, _ := strconv.Atoi(m[2])
		return newLineProduct(lineNo, m[1], "", line, qty), true
	}

	return model.RawProduct{}, false
}

func newLineProduct(lineNo int, code, description, raw string, qty int) model.RawProduct {
	return model.RawProduct{
		LineNumber:       lineNo,
		ProductCode:      strings.TrimSpace(code),
		RawDescription:   raw,
		CleanDescription: strings.TrimSpace(description),
		Quantity:         qty,
	}
}

// confidence scores the pass by how much of the document it understood.
// The ceiling is deliberately low: a regex parser should never look as
// trustworthy as the accurate strategy.
func confidence(parsed, excluded int) float64 {
	total := parsed + excluded
	if total == 0 {
		return 0
	}
	ratio := float64(parsed) / float64(total)
	return 30 + 30*ratio
}
