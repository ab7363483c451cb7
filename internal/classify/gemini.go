package classify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"

	"github.com/jdholdren/newscat/internal/newscat"
)

// Gemini classifies with a Google Gemini model in JSON mode.
type Gemini struct {
	client *genai.Client
	model  string
}

var _ newscat.Classifier = (*Gemini)(nil)

func NewGemini(client *genai.Client, model string) *Gemini {
	if model == "" {
		model = "gemini-1.5-flash"
	}

	return &Gemini{client: client, model: model}
}

func (g *Gemini) Classify(ctx context.Context, texts, labels []string) ([]string, error) {
	if len(texts) == 0 {
		return []string{}, nil
	}

	// A model handle per call since the schema depends on the labels.
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = geminiSchema(labels)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}

	resp, err := model.GenerateContent(ctx, genai.Text(userMessage(texts, labels)))
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, err)
	}
	if err != nil {
		return nil, fmt.Errorf("error calling gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("no response from gemini")
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			out.WriteString(string(txt))
		}
	}

	return decodeAssignments(out.String(), len(texts), labels)
}

func geminiSchema(labels []string) *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"index": {Type: genai.TypeInteger},
				"label": {Type: genai.TypeString, Format: "enum", Enum: labels},
			},
			Required: []string{"index", "label"},
		},
	}
}
