package supabase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"roomspark-backend/internal/models"
)

// DatabaseClient is the persistence collaborator over the Supabase Postgres
// instance. Every query is scoped by owner, and lookups that match nothing
// return models.ErrNotFound.
type DatabaseClient struct {
	db      *sql.DB
	timeout time.Duration
}

func NewDatabaseClient(connectionString string, timeout time.Duration) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewDatabaseClientFromDB(db, timeout), nil
}

func NewDatabaseClientFromDB(db *sql.DB, timeout time.Duration) *DatabaseClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &DatabaseClient{db: db, timeout: timeout}
}

func (d *DatabaseClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d.timeout)
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

func (d *DatabaseClient) CreateProject(ctx context.Context, p *models.Project) error {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO user_projects (id, user_id, name, created_at)
		VALUES ($1, $2, $3, $4)
	`, p.ID, p.UserID, p.Name, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

func (d *DatabaseClient) GetProject(ctx context.Context, projectID uuid.UUID, userID string) (*models.Project, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	var p models.Project
	err := d.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, created_at
		FROM user_projects
		WHERE id = $1 AND user_id = $2
	`, projectID, userID).Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt)
	if err != nil {
		return nil, notFound(err, "project")
	}
	return &p, nil
}

// ListProjects returns the owner's projects newest first, each with the URL
// of its latest generated image.
func (d *DatabaseClient) ListProjects(ctx context.Context, userID string) ([]models.Project, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT p.id, p.user_id, p.name, p.created_at,
		       COALESCE((
		           SELECT g.file_url FROM user_generated g
		           WHERE g.project_id = p.id AND g.user_id = p.user_id
		           ORDER BY g.created_at DESC
		           LIMIT 1
		       ), '')
		FROM user_projects p
		WHERE p.user_id = $1
		ORDER BY p.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt, &p.CoverURL); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// DeleteProject removes a project owned by userID. Images and products go
// with it through ON DELETE CASCADE.
func (d *DatabaseClient) DeleteProject(ctx context.Context, projectID uuid.UUID, userID string) error {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	res, err := d.db.ExecContext(ctx, `DELETE FROM user_projects WHERE id = $1 AND user_id = $2`, projectID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (d *DatabaseClient) CreateUploadedImage(ctx context.Context, img *models.UploadedImage) error {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO user_uploads (id, project_id, user_id, file_path, file_url, file_size, file_type, blur_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, img.ID, img.ProjectID, img.UserID, img.StoragePath, img.URL, img.FileSize,
		img.ContentType, nullString(img.Fingerprint), img.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert upload: %w", err)
	}
	return nil
}

func (d *DatabaseClient) CreateGeneratedImage(ctx context.Context, img *models.GeneratedImage) error {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	descriptions := img.Descriptions
	if descriptions == nil {
		descriptions = []string{}
	}
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO user_generated (id, project_id, user_id, file_path, file_url, file_size, file_type, source, interior_description, blur_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, img.ID, img.ProjectID, img.UserID, img.StoragePath, img.URL, img.FileSize,
		img.ContentType, nullString(img.Source), pq.Array(descriptions), nullString(img.Fingerprint), img.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert generated image: %w", err)
	}
	return nil
}

const uploadColumns = `id, project_id, user_id, file_path, file_url, file_size, file_type, COALESCE(blur_hash, ''), created_at`

func scanUpload(row interface{ Scan(...interface{}) error }) (models.UploadedImage, error) {
	var img models.UploadedImage
	err := row.Scan(&img.ID, &img.ProjectID, &img.UserID, &img.StoragePath, &img.URL,
		&img.FileSize, &img.ContentType, &img.Fingerprint, &img.CreatedAt)
	return img, err
}

func (d *DatabaseClient) GetUploadedImage(ctx context.Context, id, projectID uuid.UUID, userID string) (*models.UploadedImage, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	img, err := scanUpload(d.db.QueryRowContext(ctx, `
		SELECT `+uploadColumns+`
		FROM user_uploads
		WHERE id = $1 AND project_id = $2 AND user_id = $3
	`, id, projectID, userID))
	if err != nil {
		return nil, notFound(err, "upload")
	}
	return &img, nil
}

func (d *DatabaseClient) ListUploadedImages(ctx context.Context, projectID uuid.UUID, userID string) ([]models.UploadedImage, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT `+uploadColumns+`
		FROM user_uploads
		WHERE project_id = $1 AND user_id = $2
		ORDER BY created_at DESC
	`, projectID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer rows.Close()

	uploads := []models.UploadedImage{}
	for rows.Next() {
		img, err := scanUpload(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan upload: %w", err)
		}
		uploads = append(uploads, img)
	}
	return uploads, rows.Err()
}

const generatedColumns = `id, project_id, user_id, file_path, file_url, file_size, file_type,
	COALESCE(source, ''), interior_description, COALESCE(blur_hash, ''), created_at`

func scanGenerated(row interface{ Scan(...interface{}) error }) (models.GeneratedImage, error) {
	var img models.GeneratedImage
	var descriptions pq.StringArray
	err := row.Scan(&img.ID, &img.ProjectID, &img.UserID, &img.StoragePath, &img.URL,
		&img.FileSize, &img.ContentType, &img.Source, &descriptions, &img.Fingerprint, &img.CreatedAt)
	img.Descriptions = []string(descriptions)
	if img.Descriptions == nil {
		img.Descriptions = []string{}
	}
	return img, err
}

func (d *DatabaseClient) GetGeneratedImage(ctx context.Context, id, projectID uuid.UUID, userID string) (*models.GeneratedImage, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	img, err := scanGenerated(d.db.QueryRowContext(ctx, `
		SELECT `+generatedColumns+`
		FROM user_generated
		WHERE id = $1 AND project_id = $2 AND user_id = $3
	`, id, projectID, userID))
	if err != nil {
		return nil, notFound(err, "generated image")
	}
	return &img, nil
}

// ListGeneratedImages returns newest first; the first entry is the
// project's current look.
func (d *DatabaseClient) ListGeneratedImages(ctx context.Context, projectID uuid.UUID, userID string) ([]models.GeneratedImage, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT `+generatedColumns+`
		FROM user_generated
		WHERE project_id = $1 AND user_id = $2
		ORDER BY created_at DESC
	`, projectID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list generated images: %w", err)
	}
	defer rows.Close()

	images := []models.GeneratedImage{}
	for rows.Next() {
		img, err := scanGenerated(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan generated image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// CreateProducts inserts the batch in one transaction.
func (d *DatabaseClient) CreateProducts(ctx context.Context, items []models.Product) error {
	if len(items) == 0 {
		return nil
	}
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO user_products (id, project_id, user_id, title, price_value, price_currency, link, image, description, source, in_stock, is_affiliate, liked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare product insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range items {
		var value sql.NullFloat64
		var currency sql.NullString
		if p.Price != nil {
			value = sql.NullFloat64{Float64: p.Price.Value, Valid: true}
			currency = nullString(p.Price.Currency)
		}
		_, err := stmt.ExecContext(ctx, p.ID, p.ProjectID, p.UserID, p.Title, value, currency,
			p.Link, p.Image, p.Description, p.Source, p.InStock, p.IsAffiliate, p.Liked, p.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert product: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit products: %w", err)
	}
	return nil
}

const productColumns = `id, project_id, user_id, COALESCE(title, ''), price_value, price_currency,
	COALESCE(link, ''), COALESCE(image, ''), COALESCE(description, ''), COALESCE(source, ''),
	in_stock, is_affiliate, liked, created_at`

func scanProduct(row interface{ Scan(...interface{}) error }) (models.Product, error) {
	var p models.Product
	var value sql.NullFloat64
	var currency sql.NullString
	err := row.Scan(&p.ID, &p.ProjectID, &p.UserID, &p.Title, &value, &currency,
		&p.Link, &p.Image, &p.Description, &p.Source, &p.InStock, &p.IsAffiliate, &p.Liked, &p.CreatedAt)
	if value.Valid {
		p.Price = &models.Price{Value: value.Float64, Currency: currency.String}
	}
	return p, err
}

func (d *DatabaseClient) GetProduct(ctx context.Context, productID uuid.UUID, userID string) (*models.Product, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	p, err := scanProduct(d.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM user_products
		WHERE id = $1 AND user_id = $2
	`, productID, userID))
	if err != nil {
		return nil, notFound(err, "product")
	}
	return &p, nil
}

func (d *DatabaseClient) ListProducts(ctx context.Context, projectID uuid.UUID, userID string) ([]models.Product, error) {
	return d.queryProducts(ctx, `
		SELECT `+productColumns+`
		FROM user_products
		WHERE project_id = $1 AND user_id = $2
		ORDER BY created_at DESC
	`, projectID, userID)
}

func (d *DatabaseClient) ListLikedProducts(ctx context.Context, userID string) ([]models.Product, error) {
	return d.queryProducts(ctx, `
		SELECT `+productColumns+`
		FROM user_products
		WHERE user_id = $1 AND liked
		ORDER BY created_at DESC
	`, userID)
}

func (d *DatabaseClient) queryProducts(ctx context.Context, query string, args ...interface{}) ([]models.Product, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	items := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (d *DatabaseClient) SetProductLiked(ctx context.Context, productID uuid.UUID, userID string, liked bool) error {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	res, err := d.db.ExecContext(ctx, `
		UPDATE user_products
		SET liked = $1
		WHERE id = $2 AND user_id = $3
	`, liked, productID, userID)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
