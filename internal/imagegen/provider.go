// Package imagegen restyles a room photo through a remote generation backend
// and persists the result. Every variant shares one contract so the pipeline
// can swap them without knowing which is configured.
package imagegen

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"roomspark-backend/internal/models"
	"roomspark-backend/internal/retry"
)

type Request struct {
	SourceImageURL string
	Prompt         string
}

// FailureReason tells the caller which stage of a generation call failed.
type FailureReason string

const (
	FailureInput    FailureReason = "input"
	FailureUpstream FailureReason = "upstream"
	FailureStorage  FailureReason = "storage"
)

// Result is the outcome of one generation call. Providers never return a Go
// error; a failed call has Success false and a populated Error.
type Result struct {
	Success      bool
	ImageURL     string
	ImageID      uuid.UUID
	Fingerprint  string
	Descriptions []string
	Error        string
	Failure      FailureReason
}

type Provider interface {
	Name() string
	GenerateImage(ctx context.Context, req Request, userID string, projectID uuid.UUID) Result
}

// Store persists generated bytes and returns their durable identity.
type Store interface {
	StoreImage(ctx context.Context, req models.StoreRequest) (*models.StoredImage, error)
	StoreImageFromURL(ctx context.Context, url string, req models.StoreRequest) (*models.StoredImage, error)
}

type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, string, error)
}

var errEmptyResult = errors.New("generation backend returned no image")

func failure(reason FailureReason, format string, args ...interface{}) Result {
	return Result{Success: false, Failure: reason, Error: fmt.Sprintf(format, args...)}
}

func validate(req Request, userID string, projectID uuid.UUID) (Result, bool) {
	if req.SourceImageURL == "" || req.Prompt == "" {
		return failure(FailureInput, "both image URL and prompt are required"), false
	}
	if userID == "" || projectID == uuid.Nil {
		return failure(FailureInput, "user id and project id are required"), false
	}
	return Result{}, true
}

type editFunc func(ctx context.Context, source []byte, contentType, prompt string) ([]byte, error)

// runner holds the steps shared by the remote providers: fetch the source,
// call the backend with retries, extract descriptions, persist.
type runner struct {
	name      string
	fetcher   Fetcher
	store     Store
	describer Describer
	policy    retry.Policy
	log       zerolog.Logger
}

func (r *runner) run(ctx context.Context, req Request, userID string, projectID uuid.UUID, edit editFunc) Result {
	if res, ok := validate(req, userID, projectID); !ok {
		return res
	}
	log := r.log.With().
		Str("provider", r.name).
		Str("user_id", userID).
		Str("project_id", projectID.String()).
		Logger()

	var source []byte
	var contentType string
	err := retry.Do(ctx, r.policy, func(ctx context.Context) error {
		var err error
		source, contentType, err = r.fetcher.Get(ctx, req.SourceImageURL)
		return err
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch source image")
		return failure(FailureUpstream, "failed to fetch source image: %v", err)
	}

	var generated []byte
	err = retry.Do(ctx, r.policy, func(ctx context.Context) error {
		out, err := edit(ctx, source, contentType, req.Prompt)
		if err != nil {
			return err
		}
		if len(out) == 0 {
			return retry.Permanent(errEmptyResult)
		}
		generated = out
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("image generation failed")
		return failure(FailureUpstream, "%v", err)
	}

	descriptions := describeBestEffort(ctx, r.describer, r.policy, generated, http.DetectContentType(generated)).orEmpty(log)

	stored, err := r.store.StoreImage(ctx, models.StoreRequest{
		Data:         generated,
		UserID:       userID,
		ProjectID:    projectID,
		Source:       r.name,
		Kind:         models.ImageKindGenerated,
		Descriptions: descriptions,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to store generated image")
		return failure(FailureStorage, "failed to store generated image: %v", err)
	}

	log.Info().Str("image_id", stored.ID.String()).Int("descriptions", len(descriptions)).Msg("image generated")
	return Result{
		Success:      true,
		ImageURL:     stored.URL,
		ImageID:      stored.ID,
		Fingerprint:  stored.Fingerprint,
		Descriptions: descriptions,
	}
}
