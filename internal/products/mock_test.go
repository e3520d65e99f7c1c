package products_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"roomspark-backend/internal/products"
)

func TestMockProvider_GetProductsFromImage(t *testing.T) {
	provider := products.NewMockProvider(time.Millisecond)

	first, err := provider.GetProductsFromImage(context.Background(), "https://any")
	require.NoError(t, err)
	require.Len(t, first, 5)

	second, err := provider.GetProductsFromImage(context.Background(), "https://any")
	require.NoError(t, err)
	assert.NotEqual(t, first[0].ID, second[0].ID)
	assert.Equal(t, first[0].Title, second[0].Title)

	for _, p := range first {
		assert.False(t, p.IsAffiliate)
		assert.NotEmpty(t, p.Link)
	}
}

func TestMockProvider_Cancelled(t *testing.T) {
	provider := products.NewMockProvider(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := provider.GetProductsFromImage(ctx, "https://any")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockProvider_GetProductsByAmazonSearch(t *testing.T) {
	provider := products.NewMockProvider(0)
	projectID := uuid.New()

	got, err := provider.GetProductsByAmazonSearch(context.Background(), []string{"oak table", "brass lamp"}, projectID, "user-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "https://www.amazon.com/s?k=oak+table", got[0].Link)
	assert.Equal(t, projectID, got[1].ProjectID)
}
