package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/dietsupport/internal/domain"
	"github.com/timmy/dietsupport/internal/prompts"
)

// VLMService asks an OpenAI-compatible vision model to read fridge photos.
// It implements VisionOracle.
type VLMService struct {
	client   *resty.Client
	model    string
	endpoint string
	seed     int
	language string
}

// VLMConfig holds configuration for VLM service.
type VLMConfig struct {
	Model   string
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Seed    int
	// FoodNameLanguage is the language foods are named in; defaults to Japanese.
	FoodNameLanguage string
}

// NewVLMService creates a new VLM service.
// Parameters:
//   - cfg: VLM configuration including model, endpoint and API key.
//
// Returns:
//   - *VLMService: initialized VLM client wrapper.
func NewVLMService(cfg *VLMConfig) *VLMService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(timeout)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	language := cfg.FoodNameLanguage
	if language == "" {
		language = "Japanese"
	}

	return &VLMService{
		client:   client,
		model:    cfg.Model,
		endpoint: baseURL + "/chat/completions",
		seed:     cfg.Seed,
		language: language,
	}
}

// GetModel returns the model name being used.
func (s *VLMService) GetModel() string {
	return s.model
}

// OpenAI-compatible Chat Completion API request/response structures
type openAIRequest struct {
	Model          string               `json:"model"`
	Messages       []openAIMessage      `json:"messages"`
	ResponseFormat openAIResponseFormat `json:"response_format"`
	Seed           int                  `json:"seed"`
}

type openAIMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"` // string for system, []interface{} for user with images
}

type openAITextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type openAIImageContent struct {
	Type     string         `json:"type"`
	ImageURL openAIImageURL `json:"image_url"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIResponseFormat struct {
	Type       string           `json:"type"`
	JSONSchema openAIJSONSchema `json:"json_schema"`
}

type openAIJSONSchema struct {
	Name   string                 `json:"name"`
	Strict bool                   `json:"strict"`
	Schema map[string]interface{} `json:"schema"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal,omitempty"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func foodListSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "array",
		"items": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"name":     map[string]interface{}{"type": "string"},
				"calories": map[string]interface{}{"type": "number"},
			},
			"required":             []string{"name", "calories"},
			"additionalProperties": false,
		},
	}
}

func objectSchema(fields ...string) map[string]interface{} {
	props := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		props[f] = foodListSchema()
	}
	return map[string]interface{}{
		"type":                 "object",
		"properties":           props,
		"required":             fields,
		"additionalProperties": false,
	}
}

func imagePart(url string) openAIImageContent {
	return openAIImageContent{Type: "image_url", ImageURL: openAIImageURL{URL: url}}
}

// DescribeFridge lists the foods visible in one fridge photo.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - imageURL: readable URL of the photo (signed or data URL).
//
// Returns:
//   - domain.FridgeSnapshot: validated food list.
//   - error: non-nil if the call fails, the content is empty, or it does not match the schema.
func (s *VLMService) DescribeFridge(ctx context.Context, imageURL string) (domain.FridgeSnapshot, error) {
	req := openAIRequest{
		Model: s.model,
		Messages: []openAIMessage{
			{Role: "system", Content: prompts.FridgeSystemPrompt(s.language)},
			{Role: "user", Content: []interface{}{imagePart(imageURL)}},
		},
		ResponseFormat: openAIResponseFormat{
			Type:       "json_schema",
			JSONSchema: openAIJSONSchema{Name: "foods", Strict: true, Schema: objectSchema("foods")},
		},
		Seed: s.seed,
	}

	content, err := s.complete(ctx, &req)
	if err != nil {
		return domain.FridgeSnapshot{}, err
	}
	return domain.DecodeSnapshot([]byte(content))
}

// DescribeFridgeDelta compares two photos of the same fridge.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - prevURL: readable URL of the earlier photo.
//   - newURL: readable URL of the new photo.
//   - priorSnapshot: serialized food list known for the earlier photo.
//
// Returns:
//   - domain.FridgeDelta: validated add/remove lists.
//   - error: non-nil if the call fails, the content is empty, or it does not match the schema.
func (s *VLMService) DescribeFridgeDelta(ctx context.Context, prevURL, newURL, priorSnapshot string) (domain.FridgeDelta, error) {
	req := openAIRequest{
		Model: s.model,
		Messages: []openAIMessage{
			{Role: "system", Content: prompts.FridgeDeltaSystemPrompt(s.language)},
			{Role: "user", Content: []interface{}{
				imagePart(prevURL),
				imagePart(newURL),
				openAITextContent{Type: "text", Text: prompts.FridgeDeltaUserText(priorSnapshot)},
			}},
		},
		ResponseFormat: openAIResponseFormat{
			Type:       "json_schema",
			JSONSchema: openAIJSONSchema{Name: "foods", Strict: true, Schema: objectSchema("add", "remove")},
		},
		Seed: s.seed,
	}

	content, err := s.complete(ctx, &req)
	if err != nil {
		return domain.FridgeDelta{}, err
	}
	return domain.DecodeDelta([]byte(content))
}

// complete sends one chat completion and returns the first choice's content.
func (s *VLMService) complete(ctx context.Context, req *openAIRequest) (string, error) {
	var resp openAIResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		SetError(&resp).
		Post(s.endpoint)

	if err != nil {
		return "", fmt.Errorf("failed to call VLM API: %w", err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		errorMsg := fmt.Sprintf("HTTP %d: %s", httpResp.StatusCode(), string(httpResp.Body()))
		if resp.Error != nil {
			errorMsg = fmt.Sprintf("HTTP %d: %s", httpResp.StatusCode(), resp.Error.Message)
		}
		return "", fmt.Errorf("VLM API returned error: %s", errorMsg)
	}

	if resp.Error != nil {
		return "", fmt.Errorf("VLM API error: %s", resp.Error.Message)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in VLM response (status: %d)", httpResp.StatusCode())
	}

	msg := resp.Choices[0].Message
	if msg.Refusal != "" {
		return "", fmt.Errorf("VLM refused: %s", msg.Refusal)
	}
	if msg.Content == "" {
		return "", fmt.Errorf("content is empty")
	}

	return msg.Content, nil
}
