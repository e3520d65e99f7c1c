package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"roomspark-backend/internal/models"
)

type ProductsHandler struct {
	svc Pipeline
}

func NewProductsHandler(svc Pipeline) *ProductsHandler {
	return &ProductsHandler{svc: svc}
}

type discoverFunc func(ctx context.Context, userID string, projectID, generatedImageID uuid.UUID) ([]models.Product, error)

// Discover runs visual search over a generated image.
func (h *ProductsHandler) Discover(c *gin.Context) {
	h.discover(c, h.svc.DiscoverProducts)
}

// Search runs keyword search over a generated image's stored descriptions.
func (h *ProductsHandler) Search(c *gin.Context) {
	h.discover(c, h.svc.SearchProductsByDescriptions)
}

func (h *ProductsHandler) discover(c *gin.Context, run discoverFunc) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "project_id")
	if !ok {
		return
	}

	var req models.DiscoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	generatedID, ok := uuidField(c, req.GeneratedImageID, "generated_image_id")
	if !ok {
		return
	}

	items, err := run(c.Request.Context(), userID, projectID, generatedID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ProductsResponse{Status: models.StatusSuccess, Products: emptyIfNil(items)})
}

func (h *ProductsHandler) LikeProduct(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	productID, ok := uuidParam(c, "product_id")
	if !ok {
		return
	}

	var req models.LikeProductRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Liked == nil {
		badRequest(c, "liked is required")
		return
	}

	if err := h.svc.ToggleProductLike(c.Request.Context(), userID, productID, *req.Liked); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.LikeProductResponse{Status: models.StatusSuccess, ProductID: productID.String()})
}

func (h *ProductsHandler) ListLiked(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	items, err := h.svc.ListLikedProducts(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ProductsResponse{Status: models.StatusSuccess, Products: emptyIfNil(items)})
}
