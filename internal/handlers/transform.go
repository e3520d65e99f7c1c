package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"roomspark-backend/internal/models"
	"roomspark-backend/internal/services"
)

type TransformHandler struct {
	svc Pipeline
}

func NewTransformHandler(svc Pipeline) *TransformHandler {
	return &TransformHandler{svc: svc}
}

// Transform runs upload, generation and discovery in one request. A failed
// run still reports the state it reached and whatever it produced.
func (h *TransformHandler) Transform(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var fields models.TransformRequest
	raw, ok := readImage(c, &fields)
	if !ok {
		return
	}

	projectID := uuid.Nil
	if id := strings.TrimSpace(fields.ProjectID); id != "" {
		if projectID, ok = uuidField(c, id, "project_id"); !ok {
			return
		}
	}

	run, err := h.svc.RunTransformation(c.Request.Context(), userID, projectID, raw, fields.Style)
	resp := transformResponse(run)
	if err != nil {
		e := services.AsError(err)
		resp.Status = models.StatusError
		resp.Error = e.Message
		c.JSON(e.HTTPStatus(), resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func transformResponse(run *services.Run) models.TransformResponse {
	resp := models.TransformResponse{Status: models.StatusSuccess, Products: []models.Product{}}
	if run == nil {
		return resp
	}
	if run.ProjectID != uuid.Nil {
		resp.ProjectID = run.ProjectID.String()
	}
	resp.State = string(run.State)
	if run.Upload != nil {
		u := uploadResponse(run.Upload.ImageID.String(), run.Upload.ImageURL, run.Upload.Fingerprint)
		resp.Upload = &u
	}
	if run.Generated != nil {
		g := generateResponse(run.Generated.ImageID.String(), run.Generated.ImageURL, run.Generated.Descriptions)
		resp.Generated = &g
	}
	resp.Products = emptyIfNil(run.Products)
	return resp
}
