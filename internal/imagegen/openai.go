package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"roomspark-backend/internal/retry"
)

type OpenAIOptions struct {
	APIKey      string
	BaseURL     string
	ImageModel  string
	VisionModel string
	Timeout     time.Duration
	Retry       retry.Policy
	HTTPClient  *http.Client
}

// OpenAIProvider edits the source photo with the images/edits endpoint and
// describes the result with a vision chat model.
type OpenAIProvider struct {
	baseURL    string
	apiKey     string
	imageModel string
	httpClient *http.Client
	runner     runner
}

func NewOpenAIProvider(opts OpenAIOptions, fetcher Fetcher, store Store, log zerolog.Logger) *OpenAIProvider {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	p := &OpenAIProvider{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		imageModel: opts.ImageModel,
		httpClient: httpClient,
	}
	p.runner = runner{
		name:    p.Name(),
		fetcher: fetcher,
		store:   store,
		describer: &openAIDescriber{
			baseURL:    p.baseURL,
			apiKey:     opts.APIKey,
			model:      opts.VisionModel,
			httpClient: httpClient,
		},
		policy: opts.Retry,
		log:    log,
	}
	return p
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) GenerateImage(ctx context.Context, req Request, userID string, projectID uuid.UUID) Result {
	return p.runner.run(ctx, req, userID, projectID, p.edit)
}

type openAIImageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

func (p *OpenAIProvider) edit(ctx context.Context, source []byte, contentType, prompt string) ([]byte, error) {
	if contentType == "" || !strings.HasPrefix(contentType, "image/") {
		contentType = "image/png"
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	fields := map[string]string{
		"model":           p.imageModel,
		"prompt":          prompt,
		"n":               "1",
		"size":            "1024x1024",
		"response_format": "b64_json",
	}
	for k, v := range fields {
		if err := form.WriteField(k, v); err != nil {
			return nil, retry.Permanent(fmt.Errorf("failed to write form field %s: %w", k, err))
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="image.%s"`, extensionFor(contentType)))
	header.Set("Content-Type", contentType)
	part, err := form.CreatePart(header)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to create image part: %w", err))
	}
	if _, err := part.Write(source); err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to write image part: %w", err))
	}
	if err := form.Close(); err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to close form: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/images/edits", &body)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", form.FormDataContentType())

	var result openAIImageResponse
	if err := do(p.httpClient, req, &result); err != nil {
		return nil, err
	}
	if len(result.Data) == 0 || result.Data[0].B64JSON == "" {
		return nil, retry.Permanent(fmt.Errorf("failed to generate image from OpenAI: %w", errEmptyResult))
	}

	decoded, err := base64.StdEncoding.DecodeString(result.Data[0].B64JSON)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to decode generated image: %w", err))
	}
	return decoded, nil
}

type openAIDescriber struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIMessage struct {
	Role    string              `json:"role"`
	Content []openAIContentPart `json:"content"`
}

type openAIResponseFormat struct {
	Type string `json:"type"`
}

type openAIChatRequest struct {
	Model          string               `json:"model"`
	Messages       []openAIMessage      `json:"messages"`
	ResponseFormat openAIResponseFormat `json:"response_format"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (d *openAIDescriber) Describe(ctx context.Context, image []byte, contentType string) ([]string, error) {
	reqBody := openAIChatRequest{
		Model: d.model,
		Messages: []openAIMessage{{
			Role: "user",
			Content: []openAIContentPart{
				{Type: "text", Text: describeInstruction},
				{Type: "image_url", ImageURL: &openAIImageURL{URL: dataURI(contentType, image)}},
			},
		}},
		ResponseFormat: openAIResponseFormat{Type: "json_object"},
	}

	var resp openAIChatResponse
	err := postJSON(ctx, d.httpClient, d.baseURL+"/chat/completions",
		map[string]string{"Authorization": "Bearer " + d.apiKey}, reqBody, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, retry.Permanent(fmt.Errorf("%w: no choices", errMalformedDescriptions))
	}
	return parseDescriptions(resp.Choices[0].Message.Content)
}

func dataURI(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "png"
	}
}
