package imagegen_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"roomspark-backend/internal/models"
	"roomspark-backend/internal/retry"
)

var fastRetry = retry.Policy{Attempts: 3, Backoff: time.Millisecond}

type fakeFetcher struct {
	data        []byte
	contentType string
	err         error
	calls       int
}

func (f *fakeFetcher) Get(ctx context.Context, url string) ([]byte, string, error) {
	f.calls++
	if f.err != nil {
		return nil, "", f.err
	}
	return f.data, f.contentType, nil
}

type fakeStore struct {
	mu       sync.Mutex
	requests []models.StoreRequest
	urls     []string
	err      error
}

func (s *fakeStore) StoreImage(ctx context.Context, req models.StoreRequest) (*models.StoredImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.requests = append(s.requests, req)
	id := uuid.New()
	return &models.StoredImage{
		ID:          id,
		URL:         "https://storage.test/" + id.String() + ".png",
		Path:        "generated-images/" + req.UserID + "/" + req.ProjectID.String() + "/" + id.String() + ".png",
		Fingerprint: "LKO2?U%2Tw=w]~RBVZRi};RPxuwH",
	}, nil
}

func (s *fakeStore) StoreImageFromURL(ctx context.Context, url string, req models.StoreRequest) (*models.StoredImage, error) {
	s.mu.Lock()
	s.urls = append(s.urls, url)
	s.mu.Unlock()
	return s.StoreImage(ctx, req)
}

var errStoreDown = errors.New("bucket unavailable")
