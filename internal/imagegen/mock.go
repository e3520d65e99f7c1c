package imagegen

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"roomspark-backend/internal/models"
)

// MockDescriptions are attached to every mock generation so keyword search
// has something to work with locally.
var MockDescriptions = []string{
	"Three-seat sofa, seating, linen upholstery, modern, light gray",
	"Round coffee table, table, solid oak, Scandinavian, natural wood",
	"Arc floor lamp, lighting, brushed brass, mid-century, gold",
}

// MockProvider ignores the source photo and stores a fixed stock image after
// an artificial delay. It needs no credentials.
type MockProvider struct {
	store    Store
	imageURL string
	delay    time.Duration
	log      zerolog.Logger
}

func NewMockProvider(store Store, imageURL string, delay time.Duration, log zerolog.Logger) *MockProvider {
	return &MockProvider{store: store, imageURL: imageURL, delay: delay, log: log}
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) GenerateImage(ctx context.Context, req Request, userID string, projectID uuid.UUID) Result {
	if res, ok := validate(req, userID, projectID); !ok {
		return res
	}

	if m.delay > 0 {
		timer := time.NewTimer(m.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return failure(FailureUpstream, "mock generation cancelled: %v", ctx.Err())
		case <-timer.C:
		}
	}

	descriptions := append([]string(nil), MockDescriptions...)
	stored, err := m.store.StoreImageFromURL(ctx, m.imageURL, models.StoreRequest{
		UserID:       userID,
		ProjectID:    projectID,
		Source:       m.Name(),
		Kind:         models.ImageKindGenerated,
		Descriptions: descriptions,
	})
	if err != nil {
		m.log.Error().Err(err).Str("provider", m.Name()).Msg("failed to store mock image")
		return failure(FailureStorage, "failed to store mock image: %v", err)
	}

	return Result{
		Success:      true,
		ImageURL:     stored.URL,
		ImageID:      stored.ID,
		Fingerprint:  stored.Fingerprint,
		Descriptions: descriptions,
	}
}
