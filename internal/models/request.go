package models

type CreateProjectRequest struct {
	Name string `json:"name"`
}

// UploadRequest carries a base64 photo. Data URI prefixes are accepted.
type UploadRequest struct {
	Photo string `json:"photo"`
}

type GenerateRequest struct {
	UploadID string `json:"upload_id"`
	Style    string `json:"style"`
}

type DiscoverRequest struct {
	GeneratedImageID string `json:"generated_image_id"`
}

type TransformRequest struct {
	Photo     string `json:"photo"`
	ProjectID string `json:"project_id,omitempty"`
	Style     string `json:"style"`
}

type LikeProductRequest struct {
	Liked *bool `json:"liked"`
}

type ErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}
