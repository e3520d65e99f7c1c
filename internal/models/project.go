package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by persistence lookups when no row matches the
// id and owner filter. Callers cannot tell a missing row from a foreign one.
var ErrNotFound = errors.New("record not found")

const CanonicalContentType = "image/png"

type ImageKind string

const (
	ImageKindUploaded  ImageKind = "user_uploaded"
	ImageKindGenerated ImageKind = "generated"
)

type Project struct {
	ID        uuid.UUID
	UserID    string
	Name      string
	CreatedAt time.Time

	// CoverURL is the most recent generated image, filled by list queries.
	CoverURL string
}

type UploadedImage struct {
	ID          uuid.UUID
	ProjectID   uuid.UUID
	UserID      string
	StoragePath string
	URL         string
	FileSize    int64
	ContentType string
	Fingerprint string
	CreatedAt   time.Time
}

type GeneratedImage struct {
	ID           uuid.UUID
	ProjectID    uuid.UUID
	UserID       string
	StoragePath  string
	URL          string
	FileSize     int64
	ContentType  string
	Source       string
	Descriptions []string
	Fingerprint  string
	CreatedAt    time.Time
}

type Price struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
}

type Product struct {
	ID          uuid.UUID `json:"id"`
	ProjectID   uuid.UUID `json:"project_id"`
	UserID      string    `json:"-"`
	Title       string    `json:"title"`
	Price       *Price    `json:"price,omitempty"`
	Link        string    `json:"link"`
	Image       string    `json:"image"`
	Description string    `json:"description,omitempty"`
	Source      string    `json:"source"`
	InStock     bool      `json:"in_stock"`
	IsAffiliate bool      `json:"is_affiliate"`
	Liked       bool      `json:"liked"`
	CreatedAt   time.Time `json:"created_at"`
}
