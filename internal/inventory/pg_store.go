package inventory

import (
	"context"
	"errors"
	"fmt"

	storeerrors "github.com/abgdnv/storefront/internal/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore implements Store over the products table. The conditional UPDATE
// makes check-and-adjust a single serializable step per product row, so
// concurrent consumers cannot drive stock negative.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of Store using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

func (p *PgStore) GetStock(ctx context.Context, productID uuid.UUID) (int32, error) {
	var stock int32
	err := p.db.QueryRow(ctx, `SELECT stock_quantity FROM products WHERE id = $1`, productID).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, storeerrors.ErrProductNotFound
		}
		return 0, fmt.Errorf("failed to read stock: %w", err)
	}
	return stock, nil
}

func (p *PgStore) AdjustStock(ctx context.Context, productID uuid.UUID, delta int32) (int32, error) {
	var stock int32
	err := p.db.QueryRow(ctx,
		`UPDATE products SET stock_quantity = stock_quantity + $2, version = version + 1
		 WHERE id = $1 AND stock_quantity + $2 >= 0
		 RETURNING stock_quantity`,
		productID, delta).Scan(&stock)
	if err == nil {
		return stock, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("failed to adjust stock: %w", err)
	}

	// No row matched: either the product does not exist or the guard
	// rejected the delta. Tell the two apart.
	if _, err := p.GetStock(ctx, productID); err != nil {
		return 0, err
	}
	return 0, storeerrors.ErrInsufficientStock
}
