package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"roomspark-backend/internal/events"
	"roomspark-backend/internal/imagegen"
	"roomspark-backend/internal/imageproc"
	"roomspark-backend/internal/models"
	"roomspark-backend/internal/products"
	"roomspark-backend/internal/prompts"
)

// Repository is the persistence collaborator. Every lookup filters by owner
// and returns models.ErrNotFound when no row matches.
type Repository interface {
	ImageRecorder

	CreateProject(ctx context.Context, project *models.Project) error
	GetProject(ctx context.Context, projectID uuid.UUID, userID string) (*models.Project, error)
	ListProjects(ctx context.Context, userID string) ([]models.Project, error)
	DeleteProject(ctx context.Context, projectID uuid.UUID, userID string) error

	GetUploadedImage(ctx context.Context, id, projectID uuid.UUID, userID string) (*models.UploadedImage, error)
	GetGeneratedImage(ctx context.Context, id, projectID uuid.UUID, userID string) (*models.GeneratedImage, error)
	ListUploadedImages(ctx context.Context, projectID uuid.UUID, userID string) ([]models.UploadedImage, error)
	ListGeneratedImages(ctx context.Context, projectID uuid.UUID, userID string) ([]models.GeneratedImage, error)

	CreateProducts(ctx context.Context, items []models.Product) error
	GetProduct(ctx context.Context, productID uuid.UUID, userID string) (*models.Product, error)
	ListProducts(ctx context.Context, projectID uuid.UUID, userID string) ([]models.Product, error)
	ListLikedProducts(ctx context.Context, userID string) ([]models.Product, error)
	SetProductLiked(ctx context.Context, productID uuid.UUID, userID string, liked bool) error
}

// BlobRemover clears the stored objects of a deleted project.
type BlobRemover interface {
	DeleteProjectFiles(ctx context.Context, folder, userID, projectID string) error
}

type UploadResult struct {
	ImageID     uuid.UUID
	ImageURL    string
	Fingerprint string
}

type GenerationResult struct {
	ImageID      uuid.UUID
	ImageURL     string
	Fingerprint  string
	Descriptions []string
}

type ProjectDetails struct {
	Project   models.Project
	Uploads   []models.UploadedImage
	Generated []models.GeneratedImage
	Products  []models.Product
}

type OrchestratorDeps struct {
	Repo       Repository
	Store      imagegen.Store
	Blobs      BlobRemover
	Generator  imagegen.Provider
	Discovery  products.Provider
	Affiliate  *AffiliateRewriter
	Processor  *ProductProcessor
	Events     events.Publisher
	Normalizer imageproc.Options
	Log        zerolog.Logger
}

// Orchestrator sequences upload, generation and discovery for one project
// and checks ownership at every stage boundary. It holds no per-run state
// and is safe for concurrent use.
type Orchestrator struct {
	repo       Repository
	store      imagegen.Store
	blobs      BlobRemover
	generator  imagegen.Provider
	discovery  products.Provider
	affiliate  *AffiliateRewriter
	processor  *ProductProcessor
	events     events.Publisher
	normalizer imageproc.Options
	log        zerolog.Logger
}

func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	publisher := deps.Events
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Orchestrator{
		repo:       deps.Repo,
		store:      deps.Store,
		blobs:      deps.Blobs,
		generator:  deps.Generator,
		discovery:  deps.Discovery,
		affiliate:  deps.Affiliate,
		processor:  deps.Processor,
		events:     publisher,
		normalizer: deps.Normalizer,
		log:        deps.Log,
	}
}

func (o *Orchestrator) CreateProject(ctx context.Context, userID, name string) (*models.Project, error) {
	if userID == "" {
		return nil, unauthorized(nil)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newError(KindValidation, "project name is required", nil)
	}

	project := &models.Project{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := o.repo.CreateProject(ctx, project); err != nil {
		return nil, newError(KindPersistence, "failed to create project", err)
	}
	return project, nil
}

func (o *Orchestrator) ListProjects(ctx context.Context, userID string) ([]models.Project, error) {
	if userID == "" {
		return nil, unauthorized(nil)
	}
	projects, err := o.repo.ListProjects(ctx, userID)
	if err != nil {
		return nil, newError(KindPersistence, "failed to list projects", err)
	}
	return projects, nil
}

func (o *Orchestrator) GetProject(ctx context.Context, userID string, projectID uuid.UUID) (*ProjectDetails, error) {
	project, err := o.authorizeProject(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	uploads, err := o.repo.ListUploadedImages(ctx, projectID, userID)
	if err != nil {
		return nil, newError(KindPersistence, "failed to load uploads", err)
	}
	generated, err := o.repo.ListGeneratedImages(ctx, projectID, userID)
	if err != nil {
		return nil, newError(KindPersistence, "failed to load generated images", err)
	}
	items, err := o.repo.ListProducts(ctx, projectID, userID)
	if err != nil {
		return nil, newError(KindPersistence, "failed to load products", err)
	}

	return &ProjectDetails{Project: *project, Uploads: uploads, Generated: generated, Products: items}, nil
}

// UploadImage normalizes raw and stores it as the project's upload.
func (o *Orchestrator) UploadImage(ctx context.Context, userID string, projectID uuid.UUID, raw []byte) (*UploadResult, error) {
	if _, err := o.authorizeProject(ctx, userID, projectID); err != nil {
		return nil, err
	}
	return o.upload(ctx, userID, projectID, raw)
}

func (o *Orchestrator) upload(ctx context.Context, userID string, projectID uuid.UUID, raw []byte) (*UploadResult, error) {
	normalized, err := imageproc.Normalize(raw, o.normalizer)
	if err != nil {
		if errors.Is(err, imageproc.ErrEmpty) {
			return nil, newError(KindValidation, "image is required", err)
		}
		return nil, newError(KindProcessing, "failed to process image", err)
	}

	stored, err := o.store.StoreImage(ctx, models.StoreRequest{
		Data:        normalized.Data,
		UserID:      userID,
		ProjectID:   projectID,
		Source:      "user",
		Kind:        models.ImageKindUploaded,
		Fingerprint: normalized.Fingerprint,
	})
	if err != nil {
		return nil, AsError(err)
	}

	o.log.Info().
		Str("stage", "upload").
		Str("user_id", userID).
		Str("project_id", projectID.String()).
		Str("image_id", stored.ID.String()).
		Msg("upload stored")

	return &UploadResult{ImageID: stored.ID, ImageURL: stored.URL, Fingerprint: stored.Fingerprint}, nil
}

// GenerateStyledImage restyles a stored upload. A failed generation is
// reported as an error; nothing else is attempted.
func (o *Orchestrator) GenerateStyledImage(ctx context.Context, userID string, projectID, uploadID uuid.UUID, style string) (*GenerationResult, error) {
	if _, err := o.authorizeProject(ctx, userID, projectID); err != nil {
		return nil, err
	}
	if uploadID == uuid.Nil {
		return nil, newError(KindValidation, "upload id is required", nil)
	}
	upload, err := o.repo.GetUploadedImage(ctx, uploadID, projectID, userID)
	if err != nil {
		return nil, o.lookupError(err, "failed to load upload")
	}
	return o.generate(ctx, userID, projectID, upload.URL, style)
}

func (o *Orchestrator) generate(ctx context.Context, userID string, projectID uuid.UUID, sourceURL, style string) (*GenerationResult, error) {
	prompt := prompts.Build(prompts.ParseStyle(style))

	res := o.generator.GenerateImage(ctx, imagegen.Request{SourceImageURL: sourceURL, Prompt: prompt}, userID, projectID)
	if !res.Success {
		o.log.Error().
			Str("stage", "generate").
			Str("provider", o.generator.Name()).
			Str("project_id", projectID.String()).
			Str("error", res.Error).
			Msg("generation failed")
		return nil, generationError(res)
	}

	descriptions := res.Descriptions
	if descriptions == nil {
		descriptions = []string{}
	}
	return &GenerationResult{
		ImageID:      res.ImageID,
		ImageURL:     res.ImageURL,
		Fingerprint:  res.Fingerprint,
		Descriptions: descriptions,
	}, nil
}

func generationError(res imagegen.Result) *Error {
	msg := res.Error
	if msg == "" {
		msg = "image generation failed"
	}
	switch res.Failure {
	case imagegen.FailureInput:
		return newError(KindValidation, msg, nil)
	case imagegen.FailureStorage:
		return newError(KindStorage, msg, nil)
	default:
		return newError(KindProvider, msg, nil)
	}
}

// DiscoverProducts runs visual search on a generated image. Search failures
// are fatal; a failure to save the found products is only logged.
func (o *Orchestrator) DiscoverProducts(ctx context.Context, userID string, projectID, generatedImageID uuid.UUID) ([]models.Product, error) {
	if _, err := o.authorizeProject(ctx, userID, projectID); err != nil {
		return nil, err
	}
	generated, err := o.loadGenerated(ctx, userID, projectID, generatedImageID)
	if err != nil {
		return nil, err
	}
	return o.discover(ctx, userID, projectID, generated.URL)
}

func (o *Orchestrator) discover(ctx context.Context, userID string, projectID uuid.UUID, imageURL string) ([]models.Product, error) {
	found, err := o.discovery.GetProductsFromImage(ctx, imageURL)
	if err != nil {
		return nil, discoveryError(err)
	}
	if len(found) == 0 {
		return nil, discoveryError(products.ErrNoMatches)
	}
	return o.finalizeProducts(ctx, userID, projectID, found), nil
}

// SearchProductsByDescriptions runs keyword search using the item
// descriptions stored with a generated image.
func (o *Orchestrator) SearchProductsByDescriptions(ctx context.Context, userID string, projectID, generatedImageID uuid.UUID) ([]models.Product, error) {
	if _, err := o.authorizeProject(ctx, userID, projectID); err != nil {
		return nil, err
	}
	generated, err := o.loadGenerated(ctx, userID, projectID, generatedImageID)
	if err != nil {
		return nil, err
	}
	if len(generated.Descriptions) == 0 {
		return nil, newError(KindValidation, "generated image has no item descriptions", nil)
	}

	found, err := o.discovery.GetProductsByAmazonSearch(ctx, generated.Descriptions, projectID, userID)
	if err != nil {
		return nil, discoveryError(err)
	}
	if len(found) == 0 {
		return nil, discoveryError(products.ErrNoMatches)
	}
	return o.finalizeProducts(ctx, userID, projectID, found), nil
}

func discoveryError(err error) *Error {
	if errors.Is(err, products.ErrNoMatches) {
		return newError(KindDiscovery, "no matching products found", err)
	}
	return newError(KindDiscovery, "product search failed", err)
}

// finalizeProducts stamps ownership, rewrites links, ranks, and saves the
// batch. The returned slice is valid even when saving fails.
func (o *Orchestrator) finalizeProducts(ctx context.Context, userID string, projectID uuid.UUID, found []models.Product) []models.Product {
	now := time.Now().UTC()
	stamped := make([]models.Product, len(found))
	for i, p := range found {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		p.ProjectID = projectID
		p.UserID = userID
		p.Liked = false
		p.CreatedAt = now
		stamped[i] = p
	}

	if o.affiliate != nil {
		stamped = o.affiliate.ConvertProductLinks(stamped)
	}
	if o.processor != nil {
		stamped = o.processor.ProcessProducts(stamped)
	}

	if err := o.repo.CreateProducts(ctx, stamped); err != nil {
		o.log.Warn().
			Err(err).
			Str("stage", "discover").
			Str("project_id", projectID.String()).
			Int("products", len(stamped)).
			Msg("failed to save products, returning unsaved list")
	}
	return stamped
}

// DeleteProject removes the project row, which cascades to its images and
// products, then clears its blobs. A blob failure is logged only; the rows
// are already gone.
func (o *Orchestrator) DeleteProject(ctx context.Context, userID string, projectID uuid.UUID) error {
	if _, err := o.authorizeProject(ctx, userID, projectID); err != nil {
		return err
	}
	if err := o.repo.DeleteProject(ctx, projectID, userID); err != nil {
		return o.lookupError(err, "failed to delete project")
	}
	if o.blobs == nil {
		return nil
	}
	for _, folder := range []string{folderUploaded, folderGenerated} {
		if err := o.blobs.DeleteProjectFiles(ctx, folder, userID, projectID.String()); err != nil {
			o.log.Warn().Err(err).
				Str("project_id", projectID.String()).
				Str("folder", folder).
				Msg("failed to delete project files")
		}
	}
	return nil
}

func (o *Orchestrator) ToggleProductLike(ctx context.Context, userID string, productID uuid.UUID, liked bool) error {
	if userID == "" {
		return unauthorized(nil)
	}
	if productID == uuid.Nil {
		return newError(KindValidation, "product id is required", nil)
	}
	if _, err := o.repo.GetProduct(ctx, productID, userID); err != nil {
		return o.lookupError(err, "failed to load product")
	}
	if err := o.repo.SetProductLiked(ctx, productID, userID, liked); err != nil {
		return o.lookupError(err, "failed to update product")
	}
	return nil
}

func (o *Orchestrator) ListLikedProducts(ctx context.Context, userID string) ([]models.Product, error) {
	if userID == "" {
		return nil, unauthorized(nil)
	}
	items, err := o.repo.ListLikedProducts(ctx, userID)
	if err != nil {
		return nil, newError(KindPersistence, "failed to list liked products", err)
	}
	return items, nil
}

func (o *Orchestrator) authorizeProject(ctx context.Context, userID string, projectID uuid.UUID) (*models.Project, error) {
	if userID == "" {
		return nil, unauthorized(nil)
	}
	if projectID == uuid.Nil {
		return nil, newError(KindValidation, "project id is required", nil)
	}
	project, err := o.repo.GetProject(ctx, projectID, userID)
	if err != nil {
		return nil, o.lookupError(err, "failed to load project")
	}
	return project, nil
}

func (o *Orchestrator) loadGenerated(ctx context.Context, userID string, projectID, id uuid.UUID) (*models.GeneratedImage, error) {
	if id == uuid.Nil {
		return nil, newError(KindValidation, "generated image id is required", nil)
	}
	generated, err := o.repo.GetGeneratedImage(ctx, id, projectID, userID)
	if err != nil {
		return nil, o.lookupError(err, "failed to load generated image")
	}
	return generated, nil
}

// lookupError turns an owner-filtered miss into the generic denial.
func (o *Orchestrator) lookupError(err error, message string) *Error {
	if errors.Is(err, models.ErrNotFound) {
		return unauthorized(err)
	}
	return newError(KindPersistence, message, err)
}
