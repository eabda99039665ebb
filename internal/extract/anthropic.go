// Package extract implements the extraction strategies that turn document
// segments into raw product line items.
package extract

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"quotewright/internal/common"
	"quotewright/internal/model"
	"quotewright/internal/service"
)

// AnthropicConfig configures the accurate extractor.
type AnthropicConfig struct {
	APIKey     string
	Model      string
	MaxRetries int
	RetryDelay time.Duration
}

// AnthropicExtractor is the slow/high-confidence strategy: an Anthropic
// messages call whose JSON output is schema-validated before acceptance.
type AnthropicExtractor struct {
	client    anthropic.Client
	logger    *slog.Logger
	model     string
	retryOpts service.RetryOptions
}

// NewAnthropicExtractor creates the accurate extractor.
func NewAnthropicExtractor(cfg AnthropicConfig, logger *slog.Logger) (*AnthropicExtractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: anthropic API key is required", common.ErrMissingConfig)
	}
	if cfg.Model == "" {
		cfg.Model = "claude-sonnet-4-5-20250929"
	}
	if logger == nil {
		logger = slog.Default()
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	return &AnthropicExtractor{
		client:    anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     cfg.Model,
		logger:    logger,
		retryOpts: retryOpts,
	}, nil
}

// Method identifies this strategy.
func (e *AnthropicExtractor) Method() model.ParseMethod {
	return model.MethodAccurate
}

// Extract runs the extraction. A strict pass that comes back with zero
// products is retried once with a more permissive prompt.
func (e *AnthropicExtractor) Extract(ctx context.Context, req service.ExtractionRequest) (service.ExtractionResult, error) {
	result, err := e.extractOnce(ctx, req)
	if err != nil {
		return service.ExtractionResult{}, err
	}

	if len(result.Products) == 0 && !req.Permissive {
		e.logger.Info("strict extraction found no products, retrying permissively")
		permissive := req
		permissive.Permissive = true
		return e.extractOnce(ctx, permissive)
	}

	return result, nil
}

func (e *AnthropicExtractor) extractOnce(ctx context.Context, req service.ExtractionRequest) (service.ExtractionResult, error) {
	blocks, skipped := buildContentBlocks(req)
	if len(blocks) == 0 {
		return service.ExtractionResult{}, fmt.Errorf("%w: request has no usable segments", common.ErrExtractionFailed)
	}

	var result service.ExtractionResult

	err := common.WithRetry(ctx, func() error {
		message, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(e.model),
			MaxTokens: 4096,
			System: []anthropic.TextBlockParam{
				{Text: systemPrompt(req.Permissive)},
			},
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(blocks...),
			},
		})
		if err != nil {
			e.logger.Warn("extraction attempt failed", "error", err)
			return &common.RetryableError{Err: err, Retryable: true}
		}

		var content string
		for _, block := range message.Content {
			if block.Type == "text" {
				content = block.Text
				break
			}
		}
		if content == "" {
			return &common.RetryableError{
				Err:       fmt.Errorf("no text content in response"),
				Retryable: true,
			}
		}

		parsed, err := parseExtraction(content)
		if err != nil {
			e.logger.Warn("extraction response rejected", "error", err)
			return &common.RetryableError{Err: err, Retryable: true}
		}

		result = parsed
		return nil
	}, e.retryOpts)

	if err != nil {
		return service.ExtractionResult{}, fmt.Errorf("%w: %v", common.ErrExtractionFailed, err)
	}

	if skipped > 0 {
		result.Details = strings.TrimSpace(fmt.Sprintf("%s (%d unsupported attachments skipped)", result.Details, skipped))
	}

	return result, nil
}

// buildContentBlocks maps request segments to message blocks. Text becomes
// text blocks; image attachments become base64 image blocks; anything else
// is counted as skipped.
func buildContentBlocks(req service.ExtractionRequest) ([]anthropic.ContentBlockParamUnion, int) {
	var blocks []anthropic.ContentBlockParamUnion
	skipped := 0

	for _, seg := range req.Segments {
		switch {
		case seg.Text != "":
			blocks = append(blocks, anthropic.NewTextBlock(seg.Text))
		case len(seg.Data) > 0 && strings.HasPrefix(seg.MIMEType, "image/"):
			encoded := base64.StdEncoding.EncodeToString(seg.Data)
			blocks = append(blocks, anthropic.NewImageBlockBase64(seg.MIMEType, encoded))
		case len(seg.Data) > 0:
			skipped++
		}
	}

	return blocks, skipped
}

func systemPrompt(permissive bool) string {
	strictness := `Only include lines you are certain describe an installable furniture product. Put everything else (delivery charges, notes, subtotals, headers) in "excluded".`
	if permissive {
		strictness = `Include any line that plausibly describes an installable furniture product, even when the code format is unfamiliar. Still exclude obvious non-products (delivery charges, subtotals, headers).`
	}

	return fmt.Sprintf(`You extract furniture line items from installation job documents.

%s

Respond with ONLY a JSON object in this exact shape:
{
  "products": [
    {"line_number": 1, "product_code": "FLX-4P", "raw_description": "as written", "clean_description": "cleaned up", "quantity": 2}
  ],
  "excluded": ["lines you rejected, verbatim"],
  "confidence": 87,
  "details": "one sentence on anything ambiguous"
}

"confidence" is 0-100 for the extraction as a whole. Quantities must be the
count of physical units, never pack sizes or prices.`, strictness)
}
