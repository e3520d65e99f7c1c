package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"roomspark-backend/internal/imageproc"
	"roomspark-backend/internal/models"
)

// SignedURLTTL is long enough to treat the signed URL as permanent.
const SignedURLTTL = 100 * 365 * 24 * time.Hour

const (
	folderGenerated = "generated-images"
	folderUploaded  = "user_uploads"
)

// BlobStore is the durable byte storage behind the image store.
type BlobStore interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}

// ImageRecorder writes image metadata rows.
type ImageRecorder interface {
	CreateUploadedImage(ctx context.Context, img *models.UploadedImage) error
	CreateGeneratedImage(ctx context.Context, img *models.GeneratedImage) error
}

type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, string, error)
}

// StorageService persists image variants: bytes go to the blob store under a
// fresh path, then one metadata row records the signed URL.
type StorageService struct {
	blobs   BlobStore
	records ImageRecorder
	fetcher Fetcher
	log     zerolog.Logger
}

func NewStorageService(blobs BlobStore, records ImageRecorder, fetcher Fetcher, log zerolog.Logger) *StorageService {
	return &StorageService{
		blobs:   blobs,
		records: records,
		fetcher: fetcher,
		log:     log.With().Str("component", "image_store").Logger(),
	}
}

// StoreImage fails with KindStorage when the blob write fails and with
// KindPersistence when the row insert fails. A blob written before a failed
// insert is left in place.
func (s *StorageService) StoreImage(ctx context.Context, req models.StoreRequest) (*models.StoredImage, error) {
	if len(req.Data) == 0 {
		return nil, newError(KindValidation, "image data is required", nil)
	}
	if req.UserID == "" || req.ProjectID == uuid.Nil {
		return nil, newError(KindValidation, "user id and project id are required", nil)
	}

	folder := folderUploaded
	if req.Kind == models.ImageKindGenerated {
		folder = folderGenerated
	}

	contentType := models.CanonicalContentType
	if req.Kind == models.ImageKindGenerated {
		contentType = sniffImageType(req.Data)
	}

	id := uuid.New()
	path := fmt.Sprintf("%s/%s/%s/%s.%s", folder, req.UserID, req.ProjectID, id, extension(contentType))

	fingerprint := req.Fingerprint
	if fingerprint == "" {
		fp, err := imageproc.Fingerprint(req.Data)
		if err != nil {
			s.log.Warn().Err(err).Str("path", path).Msg("failed to fingerprint image, storing without one")
		} else {
			fingerprint = fp
		}
	}

	if err := s.blobs.Put(ctx, path, req.Data, contentType); err != nil {
		return nil, newError(KindStorage, "failed to upload image", err)
	}

	signedURL, err := s.blobs.SignedURL(ctx, path, SignedURLTTL)
	if err != nil {
		return nil, newError(KindStorage, "failed to create signed url", err)
	}

	now := time.Now().UTC()
	switch req.Kind {
	case models.ImageKindGenerated:
		descriptions := req.Descriptions
		if descriptions == nil {
			descriptions = []string{}
		}
		err = s.records.CreateGeneratedImage(ctx, &models.GeneratedImage{
			ID:           id,
			ProjectID:    req.ProjectID,
			UserID:       req.UserID,
			StoragePath:  path,
			URL:          signedURL,
			FileSize:     int64(len(req.Data)),
			ContentType:  contentType,
			Source:       req.Source,
			Descriptions: descriptions,
			Fingerprint:  fingerprint,
			CreatedAt:    now,
		})
	default:
		err = s.records.CreateUploadedImage(ctx, &models.UploadedImage{
			ID:          id,
			ProjectID:   req.ProjectID,
			UserID:      req.UserID,
			StoragePath: path,
			URL:         signedURL,
			FileSize:    int64(len(req.Data)),
			ContentType: contentType,
			Fingerprint: fingerprint,
			CreatedAt:   now,
		})
	}
	if err != nil {
		s.log.Error().Err(err).Str("path", path).Msg("image row insert failed, blob left orphaned")
		return nil, newError(KindPersistence, "failed to save image metadata", err)
	}

	s.log.Debug().
		Str("image_id", id.String()).
		Str("project_id", req.ProjectID.String()).
		Str("kind", string(req.Kind)).
		Int("bytes", len(req.Data)).
		Msg("image stored")

	return &models.StoredImage{ID: id, URL: signedURL, Path: path, Fingerprint: fingerprint}, nil
}

// StoreImageFromURL downloads remoteURL and stores the bytes.
func (s *StorageService) StoreImageFromURL(ctx context.Context, remoteURL string, req models.StoreRequest) (*models.StoredImage, error) {
	if remoteURL == "" {
		return nil, newError(KindValidation, "image url is required", nil)
	}
	data, _, err := s.fetcher.Get(ctx, remoteURL)
	if err != nil {
		return nil, newError(KindProvider, "failed to download remote image", err)
	}
	req.Data = data
	return s.StoreImage(ctx, req)
}

func sniffImageType(data []byte) string {
	ct := http.DetectContentType(data)
	if strings.HasPrefix(ct, "image/") {
		return ct
	}
	return models.CanonicalContentType
}

func extension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "png"
	}
}
