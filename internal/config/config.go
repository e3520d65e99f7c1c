package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderOpenAI  = "openai"
	ProviderGemini  = "gemini"
	ProviderSerpAPI = "serpapi"
	ProviderMock    = "mock"

	EventsNone     = "none"
	EventsKafka    = "kafka"
	EventsSupabase = "supabase"
)

type Config struct {
	// Supabase
	SupabaseURL           string
	SupabaseServiceKey    string
	SupabaseJWTSecret     string
	SupabaseStorageBucket string

	// Database
	DatabaseURL string
	DBTimeout   time.Duration

	// Image generation
	ImageGenerationProvider string
	OpenAIAPIKey            string
	OpenAIBaseURL           string
	OpenAIImageModel        string
	OpenAIVisionModel       string
	GeminiAPIKey            string
	GeminiBaseURL           string
	GeminiImageModel        string
	GeminiTextModel         string
	GenerationTimeout       time.Duration
	MockGeneratedImageURL   string
	MockDelay               time.Duration

	// Product discovery
	ProductDiscoveryProvider string
	SerpAPIKey               string
	SerpAPIBaseURL           string

	// Product post-processing
	AmazonAffiliateTag string
	AmazonPriority     bool
	TitleCleaning      bool

	// Outbound calls
	RetryAttempts int
	RetryBackoff  time.Duration
	FetchTimeout  time.Duration

	// Events
	EventsBackend string
	KafkaBrokers  []string
	KafkaTopic    string

	// Server
	Port        string
	Environment string
	BaseURL     string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		SupabaseURL:           getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey:    getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseJWTSecret:     getEnv("SUPABASE_JWT_SECRET", ""),
		SupabaseStorageBucket: getEnv("SUPABASE_STORAGE_BUCKET", "user_uploads"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBTimeout:   getEnvDuration("DB_TIMEOUT", 5*time.Second),

		ImageGenerationProvider: strings.ToLower(getEnv("IMAGE_GENERATION_PROVIDER", ProviderMock)),
		OpenAIAPIKey:            getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:           getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIImageModel:        getEnv("OPENAI_IMAGE_MODEL", "dall-e-2"),
		OpenAIVisionModel:       getEnv("OPENAI_VISION_MODEL", "gpt-4o-mini"),
		GeminiAPIKey:            getEnv("GEMINI_API_KEY", ""),
		GeminiBaseURL:           getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiImageModel:        getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image-preview"),
		GeminiTextModel:         getEnv("GEMINI_TEXT_MODEL", "gemini-2.5-flash"),
		GenerationTimeout:       getEnvDuration("GENERATION_TIMEOUT", 100*time.Second),
		MockGeneratedImageURL:   getEnv("MOCK_GENERATED_IMAGE_URL", "https://i.imgur.com/RS8Epfg.png"),
		MockDelay:               getEnvDuration("MOCK_DELAY", 5*time.Second),

		ProductDiscoveryProvider: strings.ToLower(getEnv("PRODUCT_DISCOVERY_PROVIDER", ProviderMock)),
		SerpAPIKey:               getEnv("SERPAPI_API_KEY", ""),
		SerpAPIBaseURL:           getEnv("SERPAPI_BASE_URL", "https://serpapi.com"),

		AmazonAffiliateTag: getEnv("AMAZON_AFFILIATE_TAG", ""),
		AmazonPriority:     getEnvBool("AMAZON_PRIORITY", true),
		TitleCleaning:      getEnvBool("TITLE_CLEANING", true),

		RetryAttempts: getEnvInt("RETRY_ATTEMPTS", 3),
		RetryBackoff:  getEnvDuration("RETRY_BACKOFF", 2*time.Second),
		FetchTimeout:  getEnvDuration("FETCH_TIMEOUT", 10*time.Second),

		EventsBackend: strings.ToLower(getEnv("EVENTS_BACKEND", EventsNone)),
		KafkaBrokers:  splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:    getEnv("KAFKA_TOPIC", "pipeline-events"),

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabaseServiceKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_KEY is required")
	}
	if c.SupabaseJWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	switch c.ImageGenerationProvider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai generation provider")
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini generation provider")
		}
	case ProviderMock:
	default:
		return fmt.Errorf("unknown IMAGE_GENERATION_PROVIDER %q", c.ImageGenerationProvider)
	}

	switch c.ProductDiscoveryProvider {
	case ProviderSerpAPI:
		if c.SerpAPIKey == "" {
			return fmt.Errorf("SERPAPI_API_KEY is required for the serpapi discovery provider")
		}
	case ProviderMock:
	default:
		return fmt.Errorf("unknown PRODUCT_DISCOVERY_PROVIDER %q", c.ProductDiscoveryProvider)
	}

	switch c.EventsBackend {
	case EventsNone, EventsSupabase:
	case EventsKafka:
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required for the kafka events backend")
		}
	default:
		return fmt.Errorf("unknown EVENTS_BACKEND %q", c.EventsBackend)
	}

	if c.RetryAttempts < 1 {
		return fmt.Errorf("RETRY_ATTEMPTS must be at least 1")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
