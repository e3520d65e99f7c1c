package supabase

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	storage "github.com/supabase-community/storage-go"
)

// StorageClient is the blob store behind the image store. Objects are
// private; reads go through signed URLs.
type StorageClient struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

func NewStorageClient(supabaseURL, serviceRoleKey, bucket string) *StorageClient {
	baseURL := strings.TrimSuffix(supabaseURL, "/")
	client := storage.NewClient(baseURL+"/storage/v1", serviceRoleKey, nil)

	return &StorageClient{
		client:  client,
		bucket:  bucket,
		baseURL: baseURL,
	}
}

func (s *StorageClient) Put(ctx context.Context, path string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	upsert := false
	_, err := s.client.UploadFile(s.bucket, path, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}
	return nil
}

// SignedURL returns an absolute signed URL for path valid for ttl.
func (s *StorageClient) SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	resp, err := s.client.CreateSignedUrl(s.bucket, path, int(ttl/time.Second))
	if err != nil {
		return "", fmt.Errorf("failed to create signed url: %w", err)
	}
	if resp.SignedURL == "" {
		return "", fmt.Errorf("failed to create signed url: empty response for %s", path)
	}
	return s.absolute(resp.SignedURL), nil
}

// absolute resolves the relative form some storage versions return.
func (s *StorageClient) absolute(signed string) string {
	if strings.HasPrefix(signed, "http://") || strings.HasPrefix(signed, "https://") {
		return signed
	}
	if !strings.HasPrefix(signed, "/") {
		signed = "/" + signed
	}
	if strings.HasPrefix(signed, "/storage/v1/") {
		return s.baseURL + signed
	}
	return s.baseURL + "/storage/v1" + signed
}

// DeleteProjectFiles removes every object stored for one project under folder.
func (s *StorageClient) DeleteProjectFiles(ctx context.Context, folder, userID, projectID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	prefix := fmt.Sprintf("%s/%s/%s/", folder, userID, projectID)

	files, err := s.client.ListFiles(s.bucket, prefix, storage.FileSearchOptions{
		Limit: 1000,
	})
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}

	if len(files) > 0 {
		paths := make([]string, len(files))
		for i, file := range files {
			paths[i] = prefix + file.Name
		}
		if _, err := s.client.RemoveFile(s.bucket, paths); err != nil {
			return fmt.Errorf("failed to delete files: %w", err)
		}
	}
	return nil
}
