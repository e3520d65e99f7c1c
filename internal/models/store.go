package models

import "github.com/google/uuid"

// StoreRequest describes one image variant to persist. Fingerprint may be
// left empty; the store computes it when it can.
type StoreRequest struct {
	Data         []byte
	UserID       string
	ProjectID    uuid.UUID
	Source       string
	Kind         ImageKind
	Descriptions []string
	Fingerprint  string
}

type StoredImage struct {
	ID          uuid.UUID
	URL         string
	Path        string
	Fingerprint string
}
