package services_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"roomspark-backend/internal/events"
	"roomspark-backend/internal/imagegen"
	"roomspark-backend/internal/models"
	"roomspark-backend/internal/services"
)

type memRepo struct {
	mu         sync.Mutex
	projects   map[uuid.UUID]models.Project
	uploads    map[uuid.UUID]models.UploadedImage
	generated  map[uuid.UUID]models.GeneratedImage
	products   map[uuid.UUID]models.Product
	productErr error
	uploadErr  error
}

func newMemRepo() *memRepo {
	return &memRepo{
		projects:  map[uuid.UUID]models.Project{},
		uploads:   map[uuid.UUID]models.UploadedImage{},
		generated: map[uuid.UUID]models.GeneratedImage{},
		products:  map[uuid.UUID]models.Product{},
	}
}

func (r *memRepo) addProject(userID string) models.Project {
	p := models.Project{ID: uuid.New(), UserID: userID, Name: "Living room", CreatedAt: time.Now()}
	r.mu.Lock()
	r.projects[p.ID] = p
	r.mu.Unlock()
	return p
}

func (r *memRepo) CreateProject(ctx context.Context, p *models.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[p.ID] = *p
	return nil
}

func (r *memRepo) GetProject(ctx context.Context, id uuid.UUID, userID string) (*models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok || p.UserID != userID {
		return nil, models.ErrNotFound
	}
	return &p, nil
}

func (r *memRepo) ListProjects(ctx context.Context, userID string) ([]models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Project
	for _, p := range r.projects {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memRepo) DeleteProject(ctx context.Context, id uuid.UUID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok || p.UserID != userID {
		return models.ErrNotFound
	}
	delete(r.projects, id)
	for k, img := range r.uploads {
		if img.ProjectID == id {
			delete(r.uploads, k)
		}
	}
	for k, img := range r.generated {
		if img.ProjectID == id {
			delete(r.generated, k)
		}
	}
	for k, item := range r.products {
		if item.ProjectID == id {
			delete(r.products, k)
		}
	}
	return nil
}

func (r *memRepo) CreateUploadedImage(ctx context.Context, img *models.UploadedImage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.uploadErr != nil {
		return r.uploadErr
	}
	r.uploads[img.ID] = *img
	return nil
}

func (r *memRepo) CreateGeneratedImage(ctx context.Context, img *models.GeneratedImage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generated[img.ID] = *img
	return nil
}

func (r *memRepo) GetUploadedImage(ctx context.Context, id, projectID uuid.UUID, userID string) (*models.UploadedImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	img, ok := r.uploads[id]
	if !ok || img.ProjectID != projectID || img.UserID != userID {
		return nil, models.ErrNotFound
	}
	return &img, nil
}

func (r *memRepo) GetGeneratedImage(ctx context.Context, id, projectID uuid.UUID, userID string) (*models.GeneratedImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	img, ok := r.generated[id]
	if !ok || img.ProjectID != projectID || img.UserID != userID {
		return nil, models.ErrNotFound
	}
	return &img, nil
}

func (r *memRepo) ListUploadedImages(ctx context.Context, projectID uuid.UUID, userID string) ([]models.UploadedImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.UploadedImage
	for _, img := range r.uploads {
		if img.ProjectID == projectID && img.UserID == userID {
			out = append(out, img)
		}
	}
	return out, nil
}

func (r *memRepo) ListGeneratedImages(ctx context.Context, projectID uuid.UUID, userID string) ([]models.GeneratedImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.GeneratedImage
	for _, img := range r.generated {
		if img.ProjectID == projectID && img.UserID == userID {
			out = append(out, img)
		}
	}
	return out, nil
}

func (r *memRepo) CreateProducts(ctx context.Context, items []models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.productErr != nil {
		return r.productErr
	}
	for _, p := range items {
		r.products[p.ID] = p
	}
	return nil
}

func (r *memRepo) GetProduct(ctx context.Context, id uuid.UUID, userID string) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok || p.UserID != userID {
		return nil, models.ErrNotFound
	}
	return &p, nil
}

func (r *memRepo) ListProducts(ctx context.Context, projectID uuid.UUID, userID string) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Product
	for _, p := range r.products {
		if p.ProjectID == projectID && p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memRepo) ListLikedProducts(ctx context.Context, userID string) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Product
	for _, p := range r.products {
		if p.UserID == userID && p.Liked {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memRepo) SetProductLiked(ctx context.Context, id uuid.UUID, userID string, liked bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok || p.UserID != userID {
		return models.ErrNotFound
	}
	p.Liked = liked
	r.products[id] = p
	return nil
}

func (r *memRepo) productCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.products)
}

const memScheme = "mem://"

type memBlobs struct {
	mu        sync.Mutex
	files     map[string][]byte
	putErr    error
	deleteErr error
}

func newMemBlobs() *memBlobs {
	return &memBlobs{files: map[string][]byte{}}
}

func (b *memBlobs) Put(ctx context.Context, path string, data []byte, contentType string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.putErr != nil {
		return b.putErr
	}
	b.files[path] = append([]byte(nil), data...)
	return nil
}

func (b *memBlobs) SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	return memScheme + path + "?ttl=" + ttl.String(), nil
}

func (b *memBlobs) DeleteProjectFiles(ctx context.Context, folder, userID, projectID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.deleteErr != nil {
		return b.deleteErr
	}
	prefix := folder + "/" + userID + "/" + projectID + "/"
	for path := range b.files {
		if strings.HasPrefix(path, prefix) {
			delete(b.files, path)
		}
	}
	return nil
}

func (b *memBlobs) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.files)
}

// resolve returns the bytes behind a URL issued by SignedURL.
func (b *memBlobs) resolve(url string) ([]byte, bool) {
	path := strings.TrimPrefix(url, memScheme)
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.files[path]
	return data, ok
}

// Get makes memBlobs usable as the fetch collaborator for its own URLs.
func (b *memBlobs) Get(ctx context.Context, url string) ([]byte, string, error) {
	data, ok := b.resolve(url)
	if !ok {
		return nil, "", errors.New("not found: " + url)
	}
	return data, "image/png", nil
}

type fakeGenerator struct {
	mu     sync.Mutex
	store  imagegen.Store
	result *imagegen.Result
	calls  int
}

func (g *fakeGenerator) Name() string { return "fake" }

func (g *fakeGenerator) GenerateImage(ctx context.Context, req imagegen.Request, userID string, projectID uuid.UUID) imagegen.Result {
	g.mu.Lock()
	g.calls++
	result := g.result
	g.mu.Unlock()
	if result != nil {
		return *result
	}
	stored, err := g.store.StoreImage(ctx, models.StoreRequest{
		Data:         testPNG(color.RGBA{R: 40, G: 120, B: 200, A: 255}),
		UserID:       userID,
		ProjectID:    projectID,
		Source:       g.Name(),
		Kind:         models.ImageKindGenerated,
		Descriptions: []string{"Oak table, table, oak, rustic, natural"},
	})
	if err != nil {
		return imagegen.Result{Error: err.Error(), Failure: imagegen.FailureStorage}
	}
	return imagegen.Result{
		Success:      true,
		ImageURL:     stored.URL,
		ImageID:      stored.ID,
		Fingerprint:  stored.Fingerprint,
		Descriptions: []string{"Oak table, table, oak, rustic, natural"},
	}
}

type fakeDiscovery struct {
	mu           sync.Mutex
	found        []models.Product
	err          error
	calls        int
	keywordCalls int
	lastKeywords []string
}

func (d *fakeDiscovery) Name() string { return "fake" }

func (d *fakeDiscovery) GetProductsFromImage(ctx context.Context, imageURL string) ([]models.Product, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return append([]models.Product(nil), d.found...), nil
}

func (d *fakeDiscovery) GetProductsByAmazonSearch(ctx context.Context, descriptions []string, projectID uuid.UUID, userID string) ([]models.Product, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.keywordCalls++
	d.lastKeywords = descriptions
	if d.err != nil {
		return nil, d.err
	}
	return append([]models.Product(nil), d.found...), nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) states() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.State
	}
	return out
}

func testPNG(c color.Color) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			if x > 32 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, c)
			}
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

func requireKind(t *testing.T, err error, kind services.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, services.KindOf(err), err.Error())
}
