package handlers

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the API on group. group is expected to carry the
// auth middleware already.
func RegisterRoutes(group *gin.RouterGroup, svc Pipeline) {
	projects := NewProjectsHandler(svc)
	upload := NewUploadHandler(svc)
	generate := NewGenerateHandler(svc)
	items := NewProductsHandler(svc)
	transform := NewTransformHandler(svc)

	group.POST("/projects", projects.CreateProject)
	group.GET("/projects", projects.ListProjects)
	group.GET("/projects/:project_id", projects.GetProject)
	group.DELETE("/projects/:project_id", projects.DeleteProject)

	group.POST("/projects/:project_id/upload", upload.Upload)
	group.POST("/projects/:project_id/generate", generate.Generate)
	group.POST("/projects/:project_id/products", items.Discover)
	group.POST("/projects/:project_id/products/search", items.Search)

	group.POST("/transform", transform.Transform)

	group.GET("/products/liked", items.ListLiked)
	group.POST("/products/:product_id/like", items.LikeProduct)
}
