package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"roomspark-backend/internal/models"
)

type GenerateHandler struct {
	svc Pipeline
}

func NewGenerateHandler(svc Pipeline) *GenerateHandler {
	return &GenerateHandler{svc: svc}
}

func (h *GenerateHandler) Generate(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "project_id")
	if !ok {
		return
	}

	var req models.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	uploadID, ok := uuidField(c, req.UploadID, "upload_id")
	if !ok {
		return
	}

	result, err := h.svc.GenerateStyledImage(c.Request.Context(), userID, projectID, uploadID, req.Style)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, generateResponse(result.ImageID.String(), result.ImageURL, result.Descriptions))
}

func generateResponse(id, url string, descriptions []string) models.GenerateResponse {
	if descriptions == nil {
		descriptions = []string{}
	}
	return models.GenerateResponse{
		Status:       models.StatusSuccess,
		ImageID:      id,
		ImageURL:     url,
		Descriptions: descriptions,
	}
}
