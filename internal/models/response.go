package models

import "time"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type ProjectResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateProjectResponse struct {
	Status  string          `json:"status"`
	Project ProjectResponse `json:"project"`
}

type ProjectListResponse struct {
	Status   string            `json:"status"`
	Projects []ProjectResponse `json:"projects"`
}

type ProjectImageResponse struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Type        string    `json:"type"`
	Source      string    `json:"source,omitempty"`
	Fingerprint string    `json:"blurhash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type ProjectDetailsResponse struct {
	Status    string                 `json:"status"`
	Project   ProjectResponse        `json:"project"`
	Uploads   []ProjectImageResponse `json:"uploads"`
	Generated []ProjectImageResponse `json:"generated"`
	Products  []Product              `json:"products"`
}

type UploadResponse struct {
	Status      string `json:"status"`
	ImageID     string `json:"image_id"`
	ImageURL    string `json:"image_url"`
	Fingerprint string `json:"blurhash"`
}

type GenerateResponse struct {
	Status       string   `json:"status"`
	ImageID      string   `json:"image_id"`
	ImageURL     string   `json:"image_url"`
	Descriptions []string `json:"descriptions"`
}

type ProductsResponse struct {
	Status   string    `json:"status"`
	Products []Product `json:"products"`
}

type LikeProductResponse struct {
	Status    string `json:"status"`
	ProductID string `json:"product_id"`
}

type TransformResponse struct {
	Status    string            `json:"status"`
	ProjectID string            `json:"project_id"`
	State     string            `json:"state"`
	Upload    *UploadResponse   `json:"upload,omitempty"`
	Generated *GenerateResponse `json:"generated,omitempty"`
	Products  []Product         `json:"products"`
	Error     string            `json:"error,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
