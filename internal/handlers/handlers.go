package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"roomspark-backend/internal/middleware"
	"roomspark-backend/internal/models"
	"roomspark-backend/internal/services"
)

// Pipeline is the slice of the orchestrator the HTTP layer drives.
type Pipeline interface {
	CreateProject(ctx context.Context, userID, name string) (*models.Project, error)
	ListProjects(ctx context.Context, userID string) ([]models.Project, error)
	GetProject(ctx context.Context, userID string, projectID uuid.UUID) (*services.ProjectDetails, error)
	DeleteProject(ctx context.Context, userID string, projectID uuid.UUID) error

	UploadImage(ctx context.Context, userID string, projectID uuid.UUID, raw []byte) (*services.UploadResult, error)
	GenerateStyledImage(ctx context.Context, userID string, projectID, uploadID uuid.UUID, style string) (*services.GenerationResult, error)
	DiscoverProducts(ctx context.Context, userID string, projectID, generatedImageID uuid.UUID) ([]models.Product, error)
	SearchProductsByDescriptions(ctx context.Context, userID string, projectID, generatedImageID uuid.UUID) ([]models.Product, error)
	RunTransformation(ctx context.Context, userID string, projectID uuid.UUID, raw []byte, style string) (*services.Run, error)

	ToggleProductLike(ctx context.Context, userID string, productID uuid.UUID, liked bool) error
	ListLikedProducts(ctx context.Context, userID string) ([]models.Product, error)
}

func respondError(c *gin.Context, err error) {
	e := services.AsError(err)
	c.JSON(e.HTTPStatus(), models.ErrorResponse{Status: models.StatusError, Error: e.Message})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{Status: models.StatusError, Error: msg})
}

// requireUser reads the verified caller set by the auth middleware.
func requireUser(c *gin.Context) (string, bool) {
	userID := middleware.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Status: models.StatusError, Error: "user id not found"})
		return "", false
	}
	return userID, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func uuidField(c *gin.Context, value, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(value)
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func emptyIfNil(items []models.Product) []models.Product {
	if items == nil {
		return []models.Product{}
	}
	return items
}
