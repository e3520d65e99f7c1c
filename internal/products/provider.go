// Package products finds shoppable items for a generated room image, either
// by reverse image search or by keyword queries built from item descriptions.
package products

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"roomspark-backend/internal/models"
)

var (
	// ErrNoMatches means the search backend answered but found nothing.
	ErrNoMatches = errors.New("no product matches found")
	// ErrUpstream means the search backend reported an error or was unreachable.
	ErrUpstream = errors.New("product search upstream failure")
)

type Provider interface {
	Name() string
	// GetProductsFromImage returns candidate products for imageURL. It fails
	// with ErrNoMatches or ErrUpstream, never with an empty slice.
	GetProductsFromImage(ctx context.Context, imageURL string) ([]models.Product, error)
	// GetProductsByAmazonSearch runs one marketplace query per description
	// and concatenates the results. Individual query failures are skipped.
	GetProductsByAmazonSearch(ctx context.Context, descriptions []string, projectID uuid.UUID, userID string) ([]models.Product, error)
}

func synthesizeDescription(source, title string) string {
	if source == "" {
		return title
	}
	return source + " - " + title
}
