package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"roomspark-backend/internal/models"
)

// HealthHandler reports liveness. It is mounted outside the auth group.
func HealthHandler(c *gin.Context) {
	response := models.HealthResponse{
		Status: "ok",
	}
	c.JSON(http.StatusOK, response)
}
