package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"roomspark-backend/internal/models"
	"roomspark-backend/internal/services"
)

type ProjectsHandler struct {
	svc Pipeline
}

func NewProjectsHandler(svc Pipeline) *ProjectsHandler {
	return &ProjectsHandler{svc: svc}
}

func (h *ProjectsHandler) CreateProject(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req models.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	project, err := h.svc.CreateProject(c.Request.Context(), userID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.CreateProjectResponse{
		Status:  models.StatusSuccess,
		Project: projectResponse(*project),
	})
}

func (h *ProjectsHandler) ListProjects(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	projects, err := h.svc.ListProjects(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	summaries := make([]models.ProjectResponse, len(projects))
	for i, p := range projects {
		summaries[i] = projectResponse(p)
	}
	c.JSON(http.StatusOK, models.ProjectListResponse{Status: models.StatusSuccess, Projects: summaries})
}

func (h *ProjectsHandler) GetProject(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "project_id")
	if !ok {
		return
	}

	details, err := h.svc.GetProject(c.Request.Context(), userID, projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, detailsResponse(details))
}

func (h *ProjectsHandler) DeleteProject(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "project_id")
	if !ok {
		return
	}

	if err := h.svc.DeleteProject(c.Request.Context(), userID, projectID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.StatusSuccess, "project_id": projectID.String()})
}

func projectResponse(p models.Project) models.ProjectResponse {
	return models.ProjectResponse{
		ID:        p.ID.String(),
		Name:      p.Name,
		Image:     p.CoverURL,
		CreatedAt: p.CreatedAt,
	}
}

func detailsResponse(d *services.ProjectDetails) models.ProjectDetailsResponse {
	resp := models.ProjectDetailsResponse{
		Status:    models.StatusSuccess,
		Project:   projectResponse(d.Project),
		Uploads:   make([]models.ProjectImageResponse, 0, len(d.Uploads)),
		Generated: make([]models.ProjectImageResponse, 0, len(d.Generated)),
		Products:  emptyIfNil(d.Products),
	}
	for _, img := range d.Uploads {
		resp.Uploads = append(resp.Uploads, models.ProjectImageResponse{
			ID:          img.ID.String(),
			URL:         img.URL,
			Type:        string(models.ImageKindUploaded),
			Fingerprint: img.Fingerprint,
			CreatedAt:   img.CreatedAt,
		})
	}
	for _, img := range d.Generated {
		resp.Generated = append(resp.Generated, models.ProjectImageResponse{
			ID:          img.ID.String(),
			URL:         img.URL,
			Type:        string(models.ImageKindGenerated),
			Source:      img.Source,
			Fingerprint: img.Fingerprint,
			CreatedAt:   img.CreatedAt,
		})
	}
	if len(resp.Project.Image) == 0 && len(d.Generated) > 0 {
		resp.Project.Image = d.Generated[0].URL
	}
	return resp
}
