package imagegen_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"roomspark-backend/internal/imagegen"
)

func newGemini(baseURL string, fetcher imagegen.Fetcher, store imagegen.Store) *imagegen.GeminiProvider {
	return imagegen.NewGeminiProvider(imagegen.GeminiOptions{
		APIKey:     "gem-key",
		BaseURL:    baseURL,
		ImageModel: "image-model",
		TextModel:  "text-model",
		Retry:      fastRetry,
	}, fetcher, store, zerolog.Nop())
}

func TestGeminiProvider_GenerateImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "gem-key", r.Header.Get("x-goog-api-key"))
		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		switch {
		case strings.HasSuffix(r.URL.Path, "/models/image-model:generateContent"):
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"candidates": []map[string]interface{}{{
					"content": map[string]interface{}{
						"parts": []map[string]interface{}{
							{"text": "Here is your room"},
							{"inlineData": map[string]string{"mimeType": "image/png", "data": base64.StdEncoding.EncodeToString(generatedPNG)}},
						},
					},
				}},
			})
		case strings.HasSuffix(r.URL.Path, "/models/text-model:generateContent"):
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"candidates": []map[string]interface{}{{
					"content": map[string]interface{}{
						"parts": []map[string]interface{}{
							{"text": "```json\n[\"Rattan chair, seating, rattan, bohemian, tan\"]\n```"},
						},
					},
				}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	store := &fakeStore{}
	provider := newGemini(server.URL, &fakeFetcher{data: []byte("source"), contentType: "image/jpeg"}, store)

	res := provider.GenerateImage(context.Background(), imagegen.Request{
		SourceImageURL: "https://storage.test/source.png",
		Prompt:         "make it bohemian",
	}, "user-2", uuid.New())

	require.True(t, res.Success, res.Error)
	assert.Equal(t, []string{"Rattan chair, seating, rattan, bohemian, tan"}, res.Descriptions)
	require.Len(t, store.requests, 1)
	assert.Equal(t, generatedPNG, store.requests[0].Data)
	assert.Equal(t, "gemini", store.requests[0].Source)
}

func TestGeminiProvider_DescriptionFailureIsNotFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "text-model") {
			_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"not json at all"}]}}]}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{{
				"content": map[string]interface{}{
					"parts": []map[string]interface{}{
						{"inlineData": map[string]string{"mimeType": "image/png", "data": base64.StdEncoding.EncodeToString(generatedPNG)}},
					},
				},
			}},
		})
	}))
	defer server.Close()

	provider := newGemini(server.URL, &fakeFetcher{data: []byte("source")}, &fakeStore{})

	res := provider.GenerateImage(context.Background(), imagegen.Request{
		SourceImageURL: "https://storage.test/source.png",
		Prompt:         "make it bohemian",
	}, "user-2", uuid.New())

	require.True(t, res.Success, res.Error)
	assert.NotNil(t, res.Descriptions)
	assert.Empty(t, res.Descriptions)
}

func TestGeminiProvider_NoImagePart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"I cannot do that"}]}}]}`))
	}))
	defer server.Close()

	store := &fakeStore{}
	provider := newGemini(server.URL, &fakeFetcher{data: []byte("source")}, store)

	res := provider.GenerateImage(context.Background(), imagegen.Request{
		SourceImageURL: "https://storage.test/source.png",
		Prompt:         "make it bohemian",
	}, "user-2", uuid.New())

	assert.False(t, res.Success)
	assert.Equal(t, imagegen.FailureUpstream, res.Failure)
	assert.Contains(t, res.Error, "no image")
	assert.Empty(t, store.requests)
}

func TestGeminiProvider_SourceFetchFailure(t *testing.T) {
	provider := newGemini("http://unused.invalid", &fakeFetcher{err: errStoreDown}, &fakeStore{})

	res := provider.GenerateImage(context.Background(), imagegen.Request{
		SourceImageURL: "https://storage.test/source.png",
		Prompt:         "make it bohemian",
	}, "user-2", uuid.New())

	assert.False(t, res.Success)
	assert.Equal(t, imagegen.FailureUpstream, res.Failure)
	assert.Contains(t, res.Error, "failed to fetch source image")
}
