package supabase_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"roomspark-backend/internal/database"
	"roomspark-backend/internal/models"
	"roomspark-backend/internal/supabase"
)

// newTestDatabase connects to TEST_DATABASE_URL and applies migrations.
func newTestDatabase(t *testing.T) *supabase.DatabaseClient {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	migrator, err := database.NewMigrator(dsn, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, migrator.Run(context.Background()))
	require.NoError(t, migrator.Close())

	db, err := supabase.NewDatabaseClient(dsn, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDatabaseClient_OwnershipFilters(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	owner := "owner-" + uuid.NewString()

	project := &models.Project{ID: uuid.New(), UserID: owner, Name: "Den", CreatedAt: time.Now().UTC()}
	require.NoError(t, db.CreateProject(ctx, project))

	_, err := db.GetProject(ctx, project.ID, "someone-else")
	assert.ErrorIs(t, err, models.ErrNotFound)

	gen := &models.GeneratedImage{
		ID: uuid.New(), ProjectID: project.ID, UserID: owner,
		StoragePath: "generated-images/x.png", URL: "https://signed/x.png", FileSize: 10,
		ContentType: "image/png", Source: "mock", Descriptions: []string{"Sofa"}, CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.CreateGeneratedImage(ctx, gen))

	loaded, err := db.GetGeneratedImage(ctx, gen.ID, project.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sofa"}, loaded.Descriptions)

	_, err = db.GetGeneratedImage(ctx, gen.ID, project.ID, "someone-else")
	assert.ErrorIs(t, err, models.ErrNotFound)

	product := models.Product{
		ID: uuid.New(), ProjectID: project.ID, UserID: owner, Title: "Sofa",
		Price: &models.Price{Value: 10, Currency: "$"}, Link: "https://x", CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.CreateProducts(ctx, []models.Product{product}))

	assert.ErrorIs(t, db.SetProductLiked(ctx, product.ID, "someone-else", true), models.ErrNotFound)
	require.NoError(t, db.SetProductLiked(ctx, product.ID, owner, true))

	liked, err := db.ListLikedProducts(ctx, owner)
	require.NoError(t, err)
	require.Len(t, liked, 1)
	assert.Equal(t, 10.0, liked[0].Price.Value)

	projects, err := db.ListProjects(ctx, owner)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "https://signed/x.png", projects[0].CoverURL)

	assert.ErrorIs(t, db.DeleteProject(ctx, project.ID, "someone-else"), models.ErrNotFound)
	require.NoError(t, db.DeleteProject(ctx, project.ID, owner))

	_, err = db.GetProduct(ctx, product.ID, owner)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
