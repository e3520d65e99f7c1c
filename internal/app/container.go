package app

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"roomspark-backend/internal/config"
	"roomspark-backend/internal/events"
	"roomspark-backend/internal/fetch"
	"roomspark-backend/internal/imagegen"
	"roomspark-backend/internal/imageproc"
	"roomspark-backend/internal/products"
	"roomspark-backend/internal/retry"
	"roomspark-backend/internal/services"
	"roomspark-backend/internal/supabase"
)

// Blobs is what the container needs from blob storage.
type Blobs interface {
	services.BlobStore
	services.BlobRemover
}

// Container holds the service graph. It is built once at startup and
// shared by every request.
type Container struct {
	Config    *config.Config
	Log       zerolog.Logger
	Repo      services.Repository
	Blobs     Blobs
	Images    *services.StorageService
	Generator imagegen.Provider
	Discovery products.Provider
	Events    events.Publisher
	Pipeline  *services.Orchestrator
}

// New opens the database, storage and event backends named by cfg and wires
// the pipeline over them.
func New(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	db, err := supabase.NewDatabaseClient(cfg.DatabaseURL, cfg.DBTimeout)
	if err != nil {
		return nil, err
	}
	storage := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseStorageBucket)

	publisher, err := NewPublisher(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	c, err := Wire(cfg, log, db, storage, publisher)
	if err != nil {
		publisher.Close()
		db.Close()
		return nil, err
	}
	return c, nil
}

// Wire assembles the pipeline over already-open backends.
func Wire(cfg *config.Config, log zerolog.Logger, repo services.Repository, blobs Blobs, publisher events.Publisher) (*Container, error) {
	fetcher := fetch.NewClient(cfg.FetchTimeout)
	images := services.NewStorageService(blobs, repo, fetcher, log.With().Str("component", "image_store").Logger())

	generator, err := NewGenerator(cfg, fetcher, images, log)
	if err != nil {
		return nil, err
	}
	discovery, err := NewDiscovery(cfg, log)
	if err != nil {
		return nil, err
	}

	pipeline := services.NewOrchestrator(services.OrchestratorDeps{
		Repo:      repo,
		Store:     images,
		Blobs:     blobs,
		Generator: generator,
		Discovery: discovery,
		Affiliate: services.NewAffiliateRewriter(cfg.AmazonAffiliateTag, log),
		Processor: services.NewProductProcessor(services.ProcessorConfig{
			AmazonPriority: cfg.AmazonPriority,
			TitleCleaning:  cfg.TitleCleaning,
		}),
		Events:     publisher,
		Normalizer: imageproc.DefaultOptions(),
		Log:        log.With().Str("component", "pipeline").Logger(),
	})

	log.Info().
		Str("generator", generator.Name()).
		Str("discovery", discovery.Name()).
		Str("events", cfg.EventsBackend).
		Msg("pipeline wired")

	return &Container{
		Config:    cfg,
		Log:       log,
		Repo:      repo,
		Blobs:     blobs,
		Images:    images,
		Generator: generator,
		Discovery: discovery,
		Events:    publisher,
		Pipeline:  pipeline,
	}, nil
}

func retryPolicy(cfg *config.Config) retry.Policy {
	return retry.Policy{Attempts: cfg.RetryAttempts, Backoff: cfg.RetryBackoff}
}

func NewGenerator(cfg *config.Config, fetcher imagegen.Fetcher, store imagegen.Store, log zerolog.Logger) (imagegen.Provider, error) {
	log = log.With().Str("component", "imagegen").Logger()
	switch cfg.ImageGenerationProvider {
	case config.ProviderOpenAI:
		return imagegen.NewOpenAIProvider(imagegen.OpenAIOptions{
			APIKey:      cfg.OpenAIAPIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			ImageModel:  cfg.OpenAIImageModel,
			VisionModel: cfg.OpenAIVisionModel,
			Timeout:     cfg.GenerationTimeout,
			Retry:       retryPolicy(cfg),
		}, fetcher, store, log), nil
	case config.ProviderGemini:
		return imagegen.NewGeminiProvider(imagegen.GeminiOptions{
			APIKey:     cfg.GeminiAPIKey,
			BaseURL:    cfg.GeminiBaseURL,
			ImageModel: cfg.GeminiImageModel,
			TextModel:  cfg.GeminiTextModel,
			Timeout:    cfg.GenerationTimeout,
			Retry:      retryPolicy(cfg),
		}, fetcher, store, log), nil
	case config.ProviderMock:
		return imagegen.NewMockProvider(store, cfg.MockGeneratedImageURL, cfg.MockDelay, log), nil
	default:
		return nil, fmt.Errorf("unknown image generation provider %q", cfg.ImageGenerationProvider)
	}
}

func NewDiscovery(cfg *config.Config, log zerolog.Logger) (products.Provider, error) {
	switch cfg.ProductDiscoveryProvider {
	case config.ProviderSerpAPI:
		return products.NewSerpAPIProvider(products.SerpAPIOptions{
			APIKey:  cfg.SerpAPIKey,
			BaseURL: cfg.SerpAPIBaseURL,
			Timeout: cfg.FetchTimeout,
			Retry:   retryPolicy(cfg),
		}, log.With().Str("component", "discovery").Logger()), nil
	case config.ProviderMock:
		return products.NewMockProvider(cfg.MockDelay), nil
	default:
		return nil, fmt.Errorf("unknown product discovery provider %q", cfg.ProductDiscoveryProvider)
	}
}

func NewPublisher(cfg *config.Config) (events.Publisher, error) {
	switch cfg.EventsBackend {
	case config.EventsNone, "":
		return events.Noop{}, nil
	case config.EventsKafka:
		return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case config.EventsSupabase:
		client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey)
		if err != nil {
			return nil, err
		}
		return supabase.NewRealtimeClient(client), nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.EventsBackend)
	}
}

// Close releases the event sink and the database.
func (c *Container) Close() error {
	var errs []error
	if c.Events != nil {
		if err := c.Events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close events: %w", err))
		}
	}
	if closer, ok := c.Repo.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}
	return errors.Join(errs...)
}
