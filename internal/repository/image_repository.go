package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/listing-service/internal/domain"
)

// ImageRepository persists home images.
type ImageRepository interface {
	CreateMany(ctx context.Context, homeID int64, urls []string) ([]domain.Image, error)
	ListByHome(ctx context.Context, homeID int64) ([]domain.Image, error)
	DeleteByHome(ctx context.Context, homeID int64) error
}

type imageRepository struct {
	pool *pgxpool.Pool
}

// NewImageRepository constructs repository.
func NewImageRepository(pool *pgxpool.Pool) ImageRepository {
	return &imageRepository{pool: pool}
}

func (r *imageRepository) CreateMany(ctx context.Context, homeID int64, urls []string) ([]domain.Image, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	const query = `
        INSERT INTO images (url, home_id)
        VALUES ($1,$2)
        RETURNING id, created_at`

	batch := &pgx.Batch{}
	for _, url := range urls {
		batch.Queue(query, url, homeID)
	}
	results := conn(ctx, r.pool).SendBatch(ctx, batch)
	defer results.Close()

	images := make([]domain.Image, 0, len(urls))
	for _, url := range urls {
		image := domain.Image{URL: url, HomeID: homeID}
		if err := results.QueryRow().Scan(&image.ID, &image.CreatedAt); err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	return images, nil
}

func (r *imageRepository) ListByHome(ctx context.Context, homeID int64) ([]domain.Image, error) {
	const query = `
        SELECT id, url, home_id, created_at
        FROM images WHERE home_id=$1 ORDER BY id ASC`
	rows, err := conn(ctx, r.pool).Query(ctx, query, homeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Image
	for rows.Next() {
		var image domain.Image
		if err := rows.Scan(
			&image.ID,
			&image.URL,
			&image.HomeID,
			&image.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, image)
	}
	return result, rows.Err()
}

func (r *imageRepository) DeleteByHome(ctx context.Context, homeID int64) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM images WHERE home_id=$1`, homeID)
	return err
}
