package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/listing-service/internal/domain"
)

// HomeFilter captures listing search parameters. Price bounds are inclusive.
type HomeFilter struct {
	City         *string
	MinPrice     *float64
	MaxPrice     *float64
	PropertyType *domain.PropertyType
}

// HomeRepository encapsulates home persistence.
type HomeRepository interface {
	Create(ctx context.Context, home *domain.Home) error
	Update(ctx context.Context, home *domain.Home) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Home, error)
	ListWithFilter(ctx context.Context, filter HomeFilter) ([]domain.Home, error)
	GetRealtorByHomeID(ctx context.Context, id int64) (*domain.User, error)
}

type homeRepository struct {
	pool *pgxpool.Pool
}

// NewHomeRepository instantiates repository.
func NewHomeRepository(pool *pgxpool.Pool) HomeRepository {
	return &homeRepository{pool: pool}
}

const homeColumns = `h.id, h.address, h.city, h.price, h.land_size, h.property_type,
               h.number_of_bedrooms, h.number_of_bathrooms, h.listed_date, h.realtor_id,
               h.created_at, h.updated_at`

func (r *homeRepository) Create(ctx context.Context, home *domain.Home) error {
	const query = `
        INSERT INTO homes (address, city, price, land_size, property_type,
            number_of_bedrooms, number_of_bathrooms, realtor_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, listed_date, created_at, updated_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		home.Address,
		home.City,
		home.Price,
		home.LandSize,
		home.PropertyType,
		home.NumberOfBedrooms,
		home.NumberOfBathrooms,
		home.RealtorID,
	).Scan(&home.ID, &home.ListedDate, &home.CreatedAt, &home.UpdatedAt)
}

func (r *homeRepository) Update(ctx context.Context, home *domain.Home) error {
	const query = `
        UPDATE homes SET address=$1, city=$2, price=$3, land_size=$4, property_type=$5,
            number_of_bedrooms=$6, number_of_bathrooms=$7, updated_at=NOW()
        WHERE id=$8
        RETURNING updated_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		home.Address,
		home.City,
		home.Price,
		home.LandSize,
		home.PropertyType,
		home.NumberOfBedrooms,
		home.NumberOfBathrooms,
		home.ID,
	).Scan(&home.UpdatedAt)
}

func (r *homeRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM homes WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *homeRepository) GetByID(ctx context.Context, id int64) (*domain.Home, error) {
	query := `SELECT ` + homeColumns + ` FROM homes h WHERE h.id=$1`

	var home domain.Home
	if err := conn(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&home.ID,
		&home.Address,
		&home.City,
		&home.Price,
		&home.LandSize,
		&home.PropertyType,
		&home.NumberOfBedrooms,
		&home.NumberOfBathrooms,
		&home.ListedDate,
		&home.RealtorID,
		&home.CreatedAt,
		&home.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &home, nil
}

// ListWithFilter returns matching homes, each carrying at most its first image.
func (r *homeRepository) ListWithFilter(ctx context.Context, filter HomeFilter) ([]domain.Home, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.City != nil {
		args = append(args, *filter.City)
		clauses = append(clauses, fmt.Sprintf("h.city=$%d", len(args)))
	}
	if filter.MinPrice != nil {
		args = append(args, *filter.MinPrice)
		clauses = append(clauses, fmt.Sprintf("h.price >= $%d", len(args)))
	}
	if filter.MaxPrice != nil {
		args = append(args, *filter.MaxPrice)
		clauses = append(clauses, fmt.Sprintf("h.price <= $%d", len(args)))
	}
	if filter.PropertyType != nil {
		args = append(args, *filter.PropertyType)
		clauses = append(clauses, fmt.Sprintf("h.property_type=$%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s, img.id, img.url
             FROM homes h
             LEFT JOIN LATERAL (
                 SELECT i.id, i.url FROM images i WHERE i.home_id = h.id ORDER BY i.id ASC LIMIT 1
             ) img ON TRUE
             WHERE %s ORDER BY h.id ASC`, homeColumns, strings.Join(clauses, " AND "))

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Home
	for rows.Next() {
		var (
			home     domain.Home
			imageID  *int64
			imageURL *string
		)
		if err := rows.Scan(
			&home.ID,
			&home.Address,
			&home.City,
			&home.Price,
			&home.LandSize,
			&home.PropertyType,
			&home.NumberOfBedrooms,
			&home.NumberOfBathrooms,
			&home.ListedDate,
			&home.RealtorID,
			&home.CreatedAt,
			&home.UpdatedAt,
			&imageID,
			&imageURL,
		); err != nil {
			return nil, err
		}
		if imageID != nil && imageURL != nil {
			home.Images = []domain.Image{{ID: *imageID, URL: *imageURL, HomeID: home.ID}}
		}
		result = append(result, home)
	}
	return result, rows.Err()
}

func (r *homeRepository) GetRealtorByHomeID(ctx context.Context, id int64) (*domain.User, error) {
	const query = `
        SELECT u.id, u.name, u.email, u.phone, u.password_hash, u.user_type, u.created_at, u.updated_at
        FROM homes h JOIN users u ON u.id = h.realtor_id
        WHERE h.id=$1`
	return scanUser(conn(ctx, r.pool).QueryRow(ctx, query, id))
}
