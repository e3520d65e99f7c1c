package products

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"roomspark-backend/internal/models"
	"roomspark-backend/internal/retry"
)

type SerpAPIOptions struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	Retry      retry.Policy
	HTTPClient *http.Client
}

// SerpAPIProvider searches Google Lens for visual matches and the Amazon
// engine for keyword queries.
type SerpAPIProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	policy     retry.Policy
	log        zerolog.Logger
}

type serpPrice struct {
	Value          string  `json:"value"`
	ExtractedValue float64 `json:"extracted_value"`
	Currency       string  `json:"currency"`
}

type serpVisualMatch struct {
	Position  int        `json:"position"`
	Title     string     `json:"title"`
	Link      string     `json:"link"`
	Source    string     `json:"source"`
	Price     *serpPrice `json:"price,omitempty"`
	Image     string     `json:"image"`
	Thumbnail string     `json:"thumbnail"`
	InStock   bool       `json:"in_stock"`
}

type serpLensResponse struct {
	Error             string            `json:"error,omitempty"`
	VisualMatches     []serpVisualMatch `json:"visual_matches"`
	ProductsPageToken string            `json:"products_page_token,omitempty"`
	PageToken         string            `json:"productsPageToken,omitempty"`
}

func (r *serpLensResponse) token() string {
	if r.ProductsPageToken != "" {
		return r.ProductsPageToken
	}
	return r.PageToken
}

type serpAmazonResult struct {
	Title          string  `json:"title"`
	Link           string  `json:"link"`
	Thumbnail      string  `json:"thumbnail"`
	ExtractedPrice float64 `json:"extracted_price"`
	Price          string  `json:"price"`
}

type serpAmazonResponse struct {
	Error          string             `json:"error,omitempty"`
	OrganicResults []serpAmazonResult `json:"organic_results"`
}

func NewSerpAPIProvider(opts SerpAPIOptions, log zerolog.Logger) *SerpAPIProvider {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	return &SerpAPIProvider{
		apiKey:     opts.APIKey,
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		httpClient: httpClient,
		policy:     opts.Retry,
		log:        log.With().Str("provider", "serpapi").Logger(),
	}
}

func (p *SerpAPIProvider) Name() string { return "serpapi" }

// GetProductsFromImage runs the lens query twice: the first answer only
// carries the token that unlocks the products page.
func (p *SerpAPIProvider) GetProductsFromImage(ctx context.Context, imageURL string) ([]models.Product, error) {
	params := url.Values{}
	params.Set("engine", "google_lens")
	params.Set("url", imageURL)
	params.Set("hl", "en")
	params.Set("country", "us")

	var first serpLensResponse
	if err := p.search(ctx, params, &first); err != nil {
		return nil, err
	}
	if first.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrUpstream, first.Error)
	}
	if len(first.VisualMatches) == 0 {
		return nil, ErrNoMatches
	}

	// The second query always runs; without a token it repeats the first.
	if token := first.token(); token != "" {
		params.Set("page_token", token)
	} else {
		p.log.Warn().Msg("lens response carried no products page token")
	}
	var page serpLensResponse
	if err := p.search(ctx, params, &page); err != nil {
		return nil, err
	}
	if page.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrUpstream, page.Error)
	}
	if len(page.VisualMatches) == 0 {
		return nil, ErrNoMatches
	}
	matches := page.VisualMatches

	out := make([]models.Product, 0, len(matches))
	for _, m := range matches {
		product := models.Product{
			ID:          uuid.New(),
			Title:       m.Title,
			Link:        m.Link,
			Source:      m.Source,
			Image:       m.Image,
			Description: synthesizeDescription(m.Source, m.Title),
			InStock:     m.InStock,
		}
		if product.Image == "" {
			product.Image = m.Thumbnail
		}
		if m.Price != nil {
			product.Price = &models.Price{Value: m.Price.ExtractedValue, Currency: m.Price.Currency}
		}
		out = append(out, product)
	}
	return out, nil
}

func (p *SerpAPIProvider) GetProductsByAmazonSearch(ctx context.Context, descriptions []string, projectID uuid.UUID, userID string) ([]models.Product, error) {
	log := p.log.With().Str("project_id", projectID.String()).Str("user_id", userID).Logger()

	var out []models.Product
	for _, description := range descriptions {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		params := url.Values{}
		params.Set("engine", "amazon")
		params.Set("k", description)
		params.Set("amazon_domain", "amazon.com")

		var resp serpAmazonResponse
		if err := p.search(ctx, params, &resp); err != nil {
			log.Warn().Err(err).Str("description", description).Msg("keyword search failed, skipping")
			continue
		}
		if resp.Error != "" {
			log.Warn().Str("error", resp.Error).Str("description", description).Msg("keyword search returned an error, skipping")
			continue
		}

		for _, r := range resp.OrganicResults {
			product := models.Product{
				ID:          uuid.New(),
				ProjectID:   projectID,
				UserID:      userID,
				Title:       r.Title,
				Link:        r.Link,
				Image:       r.Thumbnail,
				Source:      "Amazon",
				Description: synthesizeDescription("Amazon", r.Title),
				InStock:     true,
			}
			if r.ExtractedPrice > 0 {
				product.Price = &models.Price{Value: r.ExtractedPrice, Currency: currencyOf(r.Price)}
			}
			out = append(out, product)
		}
	}
	return out, nil
}

func (p *SerpAPIProvider) search(ctx context.Context, params url.Values, out interface{}) error {
	params.Set("api_key", p.apiKey)
	endpoint := p.baseURL + "/search.json?" + params.Encode()

	err := retry.Do(ctx, p.policy, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return retry.Permanent(fmt.Errorf("failed to create request: %w", redactURL(err)))
		}
		resp, err := p.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to execute request: %w", redactURL(err))
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}
		// SerpAPI reports search errors as a JSON body with a 4xx status.
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return &retry.StatusError{Code: resp.StatusCode, Body: string(body)}
		}
		if err := json.Unmarshal(body, out); err != nil {
			if resp.StatusCode != http.StatusOK {
				return retry.Permanent(&retry.StatusError{Code: resp.StatusCode, Body: string(body)})
			}
			return retry.Permanent(fmt.Errorf("failed to decode response: %w", err))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return nil
}

// redactURL drops the request URL, which carries api_key, from transport
// errors. The cause is kept so retry can still classify it.
func redactURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s search.json: %w", uerr.Op, uerr.Err)
	}
	return err
}

// currencyOf pulls the leading symbol off a display price like "$24.99".
func currencyOf(display string) string {
	display = strings.TrimSpace(display)
	for i, r := range display {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			if i == 0 {
				return "USD"
			}
			return strings.TrimSpace(display[:i])
		}
	}
	return "USD"
}
