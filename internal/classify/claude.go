package classify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/jdholdren/newscat/internal/newscat"
)

// Claude classifies with an Anthropic model using structured outputs.
type Claude struct {
	client    *anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

var _ newscat.Classifier = (*Claude)(nil)

func NewClaude(client *anthropic.Client, model string) *Claude {
	m := anthropic.ModelClaudeHaiku4_5
	if model != "" {
		m = anthropic.Model(model)
	}

	return &Claude{
		client:    client,
		model:     m,
		maxTokens: 4096,
	}
}

func (c *Claude) Classify(ctx context.Context, texts, labels []string) ([]string, error) {
	if len(texts) == 0 {
		return []string{}, nil
	}

	claudeResp, err := c.client.Beta.Messages.New(ctx, anthropic.BetaMessageNewParams{
		Model: c.model,
		Betas: []anthropic.AnthropicBeta{
			"structured-outputs-2025-11-13",
		},
		MaxTokens:    c.maxTokens,
		OutputFormat: anthropic.BetaJSONSchemaOutputFormat(outputSchema(labels)),
		System: []anthropic.BetaTextBlockParam{{
			Text: systemPrompt,
		}},
		Messages: []anthropic.BetaMessageParam{
			anthropic.NewBetaUserMessage(anthropic.NewBetaTextBlock(userMessage(texts, labels))),
		},
	})
	// Handle Anthropic rate limit errors
	var claudeErr *anthropic.Error
	if errors.As(err, &claudeErr) && claudeErr.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, err)
	}
	if err != nil {
		return nil, fmt.Errorf("error calling claude: %w", err)
	}

	var claudeJSON strings.Builder
	for _, content := range claudeResp.Content {
		claudeJSON.WriteString(content.Text)
	}

	return decodeAssignments(claudeJSON.String(), len(texts), labels)
}
