package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"quotewright/internal/model"
	"quotewright/internal/service"
)

// extractionPayload is the wire shape of the accurate extractor's output.
type extractionPayload struct {
	Details    string            `json:"details"`
	Products   []productPayload  `json:"products"`
	Excluded   []string          `json:"excluded"`
	Confidence float64           `json:"confidence"`
}

type productPayload struct {
	ProductCode      string `json:"product_code"`
	RawDescription   string `json:"raw_description"`
	CleanDescription string `json:"clean_description"`
	LineNumber       int    `json:"line_number"`
	Quantity         int    `json:"quantity"`
}

// extractJSON pulls the first top-level JSON object out of a model
// response, tolerating fenced code blocks and surrounding prose.
func extractJSON(content string) (string, error) {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx >= 0 {
			content = content[:idx]
		}
		content = strings.TrimSpace(content)
	}

	start := strings.Index(content, "{")
	if start < 0 {
		return "", fmt.Errorf("no JSON object in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		c := content[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case !inString && c == '{':
			depth++
		case !inString && c == '}':
			depth--
			if depth == 0 {
				return content[start : i+1], nil
			}
		}
	}

	return "", fmt.Errorf("unbalanced JSON object in response")
}

// parseExtraction validates and decodes a model response into an
// extraction result.
func parseExtraction(content string) (service.ExtractionResult, error) {
	raw, err := extractJSON(content)
	if err != nil {
		return service.ExtractionResult{}, err
	}

	if err := validateAgainstSchema(extractionSchema(), []byte(raw)); err != nil {
		return service.ExtractionResult{}, err
	}

	var payload extractionPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return service.ExtractionResult{}, fmt.Errorf("decode extraction: %w", err)
	}

	products := make([]model.RawProduct, 0, len(payload.Products))
	for i, p := range payload.Products {
		line := p.LineNumber
		if line == 0 {
			line = i + 1
		}
		clean := p.CleanDescription
		if clean == "" {
			clean = strings.TrimSpace(p.RawDescription)
		}
		products = append(products, model.RawProduct{
			LineNumber:       line,
			ProductCode:      strings.TrimSpace(p.ProductCode),
			RawDescription:   p.RawDescription,
			CleanDescription: clean,
			Quantity:         p.Quantity,
		})
	}

	return service.ExtractionResult{
		Method:          model.MethodAccurate,
		Products:        products,
		ExcludedLines:   payload.Excluded,
		ConfidenceScore: payload.Confidence,
		Details:         payload.Details,
	}, nil
}
