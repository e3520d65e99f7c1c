package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"roomspark-backend/internal/handlers"
	"roomspark-backend/internal/middleware"
	"roomspark-backend/internal/models"
	"roomspark-backend/internal/services"
)

type fakePipeline struct {
	mu sync.Mutex

	err     error
	run     *services.Run
	project *models.Project
	details *services.ProjectDetails
	items   []models.Product

	lastUser    string
	lastProject uuid.UUID
	lastID      uuid.UUID
	lastRaw     []byte
	lastStyle   string
	lastLiked   *bool
	calls       []string
}

func (f *fakePipeline) record(name, userID string, projectID, id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	f.lastUser = userID
	f.lastProject = projectID
	f.lastID = id
}

func (f *fakePipeline) CreateProject(ctx context.Context, userID, name string) (*models.Project, error) {
	f.record("CreateProject", userID, uuid.Nil, uuid.Nil)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Project{ID: uuid.New(), UserID: userID, Name: name, CreatedAt: time.Now()}, nil
}

func (f *fakePipeline) ListProjects(ctx context.Context, userID string) ([]models.Project, error) {
	f.record("ListProjects", userID, uuid.Nil, uuid.Nil)
	if f.err != nil {
		return nil, f.err
	}
	if f.project == nil {
		return nil, nil
	}
	return []models.Project{*f.project}, nil
}

func (f *fakePipeline) GetProject(ctx context.Context, userID string, projectID uuid.UUID) (*services.ProjectDetails, error) {
	f.record("GetProject", userID, projectID, uuid.Nil)
	return f.details, f.err
}

func (f *fakePipeline) DeleteProject(ctx context.Context, userID string, projectID uuid.UUID) error {
	f.record("DeleteProject", userID, projectID, uuid.Nil)
	return f.err
}

func (f *fakePipeline) UploadImage(ctx context.Context, userID string, projectID uuid.UUID, raw []byte) (*services.UploadResult, error) {
	f.record("UploadImage", userID, projectID, uuid.Nil)
	f.lastRaw = raw
	if f.err != nil {
		return nil, f.err
	}
	return &services.UploadResult{ImageID: uuid.New(), ImageURL: "https://cdn/upload.png", Fingerprint: "LKO2?U%2Tw=w"}, nil
}

func (f *fakePipeline) GenerateStyledImage(ctx context.Context, userID string, projectID, uploadID uuid.UUID, style string) (*services.GenerationResult, error) {
	f.record("GenerateStyledImage", userID, projectID, uploadID)
	f.lastStyle = style
	if f.err != nil {
		return nil, f.err
	}
	return &services.GenerationResult{ImageID: uuid.New(), ImageURL: "https://cdn/generated.png"}, nil
}

func (f *fakePipeline) DiscoverProducts(ctx context.Context, userID string, projectID, generatedImageID uuid.UUID) ([]models.Product, error) {
	f.record("DiscoverProducts", userID, projectID, generatedImageID)
	return f.items, f.err
}

func (f *fakePipeline) SearchProductsByDescriptions(ctx context.Context, userID string, projectID, generatedImageID uuid.UUID) ([]models.Product, error) {
	f.record("SearchProductsByDescriptions", userID, projectID, generatedImageID)
	return f.items, f.err
}

func (f *fakePipeline) RunTransformation(ctx context.Context, userID string, projectID uuid.UUID, raw []byte, style string) (*services.Run, error) {
	f.record("RunTransformation", userID, projectID, uuid.Nil)
	f.lastRaw = raw
	f.lastStyle = style
	return f.run, f.err
}

func (f *fakePipeline) ToggleProductLike(ctx context.Context, userID string, productID uuid.UUID, liked bool) error {
	f.record("ToggleProductLike", userID, uuid.Nil, productID)
	f.lastLiked = &liked
	return f.err
}

func (f *fakePipeline) ListLikedProducts(ctx context.Context, userID string) ([]models.Product, error) {
	f.record("ListLikedProducts", userID, uuid.Nil, uuid.Nil)
	return f.items, f.err
}

const testUser = "user-123"

// newRouter mounts every handler behind a stub that plays the auth
// middleware's part.
func newRouter(svc handlers.Pipeline, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", handlers.HealthHandler)

	api := router.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set(middleware.UserIDKey, userID)
		}
		c.Next()
	})
	handlers.RegisterRoutes(api, svc)
	return router
}

func do(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
