package categorizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"fjacquet/stmt-categorizer/internal/logging"
	"fjacquet/stmt-categorizer/internal/models"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiClient implements AIClient with the Google Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
	logger logging.Logger
}

// NewGeminiClient creates a client for model using apiKey.
func NewGeminiClient(ctx context.Context, apiKey, model string, logger logging.Logger) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	if logger == nil {
		logger = logging.GetLogger()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	m := client.GenerativeModel(model)
	m.SetTemperature(0)
	m.SetMaxOutputTokens(8)

	return &GeminiClient{client: client, model: m, logger: logger}, nil
}

// BuildPrompt returns the classification prompt for description. It lists
// the vocabulary verbatim and asks for a single token.
func BuildPrompt(description string) string {
	tokens := make([]string, 0, len(models.AllCategories()))
	for _, c := range models.AllCategories() {
		tokens = append(tokens, string(c))
	}
	return fmt.Sprintf(`Classify this bank transaction description into exactly one category.
Allowed categories: %s
Answer with the category name only, nothing else.

Description: %s`, strings.Join(tokens, ", "), description)
}

// Classify sends description to Gemini and returns the raw answer text.
func (c *GeminiClient) Classify(ctx context.Context, description string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(BuildPrompt(description)))
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from Gemini API")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}

	c.logger.WithFields(
		logging.Field{Key: logging.FieldDescription, Value: description},
		logging.Field{Key: "ai_output", Value: b.String()},
	).Debug("Gemini answered")
	return b.String(), nil
}

// Close releases the underlying connection.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}
