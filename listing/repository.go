package listing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals the requested listing does not exist.
var ErrNotFound = errors.New("listing: not found")

const listingColumns = "id, title, waste_type, quantity, price, location, farmer, image, description, verified, created_at, updated_at"

// Repository handles data access for waste listings.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (Listing, error)
	List(ctx context.Context) ([]Listing, error)
	Delete(ctx context.Context, id string) error
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed repository implementation.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Create inserts a new listing. Verified always starts false; the store
// assigns id and timestamps.
func (r *PGRepository) Create(ctx context.Context, params CreateParams) (Listing, error) {
	insertSQL := `
		INSERT INTO waste_listings (title, waste_type, quantity, price, location, farmer, image, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + listingColumns

	l, err := scanListing(r.pool.QueryRow(ctx, insertSQL,
		params.Title, params.WasteType, params.Quantity, params.Price,
		params.Location, params.Farmer, params.Image, params.Description))
	if err != nil {
		return Listing{}, fmt.Errorf("listing: create: %w", err)
	}

	return l, nil
}

// List fetches every listing in creation order.
func (r *PGRepository) List(ctx context.Context) ([]Listing, error) {
	selectSQL := `
		SELECT ` + listingColumns + `
		FROM waste_listings
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, selectSQL)
	if err != nil {
		return nil, fmt.Errorf("listing: list: %w", err)
	}
	defer rows.Close()

	listings := make([]Listing, 0, 16)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("listing: scan: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing: iterate: %w", err)
	}

	return listings, nil
}

// Delete removes a listing by ID.
func (r *PGRepository) Delete(ctx context.Context, id string) error {
	const deleteSQL = `DELETE FROM waste_listings WHERE id = $1`

	tag, err := r.pool.Exec(ctx, deleteSQL, id)
	if err != nil {
		return fmt.Errorf("listing: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func scanListing(row pgx.Row) (Listing, error) {
	var l Listing
	err := row.Scan(
		&l.ID,
		&l.Title,
		&l.WasteType,
		&l.Quantity,
		&l.Price,
		&l.Location,
		&l.Farmer,
		&l.Image,
		&l.Description,
		&l.Verified,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return Listing{}, err
	}
	return l, nil
}
