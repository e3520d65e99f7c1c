package imagegen

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"roomspark-backend/internal/retry"
)

type GeminiOptions struct {
	APIKey     string
	BaseURL    string
	ImageModel string
	TextModel  string
	Timeout    time.Duration
	Retry      retry.Policy
	HTTPClient *http.Client
}

// GeminiProvider sends the photo and prompt to a Gemini image model through
// generateContent and reads the restyled image back from inline data.
type GeminiProvider struct {
	baseURL    string
	apiKey     string
	imageModel string
	httpClient *http.Client
	runner     runner
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
	ResponseMimeType   string   `json:"responseMimeType,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

func NewGeminiProvider(opts GeminiOptions, fetcher Fetcher, store Store, log zerolog.Logger) *GeminiProvider {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	p := &GeminiProvider{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		imageModel: opts.ImageModel,
		httpClient: httpClient,
	}
	p.runner = runner{
		name:    p.Name(),
		fetcher: fetcher,
		store:   store,
		describer: &geminiDescriber{
			baseURL:    p.baseURL,
			apiKey:     opts.APIKey,
			model:      opts.TextModel,
			httpClient: httpClient,
		},
		policy: opts.Retry,
		log:    log,
	}
	return p
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) GenerateImage(ctx context.Context, req Request, userID string, projectID uuid.UUID) Result {
	return p.runner.run(ctx, req, userID, projectID, p.edit)
}

func (p *GeminiProvider) edit(ctx context.Context, source []byte, contentType, prompt string) ([]byte, error) {
	if contentType == "" || !strings.HasPrefix(contentType, "image/") {
		contentType = "image/png"
	}
	reqBody := geminiRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{Text: prompt},
				{InlineData: &geminiInlineData{MimeType: contentType, Data: base64.StdEncoding.EncodeToString(source)}},
			},
		}},
		GenerationConfig: &geminiGenerationConfig{ResponseModalities: []string{"TEXT", "IMAGE"}},
	}

	var resp geminiResponse
	if err := postJSON(ctx, p.httpClient, modelURL(p.baseURL, p.imageModel), apiKeyHeader(p.apiKey), reqBody, &resp); err != nil {
		return nil, err
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, retry.Permanent(fmt.Errorf("gemini blocked the request: %s", resp.PromptFeedback.BlockReason))
	}

	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			decoded, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, retry.Permanent(fmt.Errorf("failed to decode generated image: %w", err))
			}
			return decoded, nil
		}
	}
	return nil, retry.Permanent(fmt.Errorf("failed to generate image from Gemini: %w", errEmptyResult))
}

type geminiDescriber struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func (d *geminiDescriber) Describe(ctx context.Context, image []byte, contentType string) ([]string, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{Text: describeInstruction},
				{InlineData: &geminiInlineData{MimeType: contentType, Data: base64.StdEncoding.EncodeToString(image)}},
			},
		}},
		GenerationConfig: &geminiGenerationConfig{ResponseMimeType: "application/json"},
	}

	var resp geminiResponse
	if err := postJSON(ctx, d.httpClient, modelURL(d.baseURL, d.model), apiKeyHeader(d.apiKey), reqBody, &resp); err != nil {
		return nil, err
	}
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if strings.TrimSpace(part.Text) != "" {
				return parseDescriptions(part.Text)
			}
		}
	}
	return nil, retry.Permanent(fmt.Errorf("%w: no text part", errMalformedDescriptions))
}

func modelURL(baseURL, model string) string {
	return baseURL + "/models/" + model + ":generateContent"
}

func apiKeyHeader(key string) map[string]string {
	return map[string]string{"x-goog-api-key": key}
}
