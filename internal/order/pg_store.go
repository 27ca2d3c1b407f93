package order

import (
	"context"
	"errors"
	"fmt"

	storeerrors "github.com/abgdnv/storefront/internal/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore implements Store using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of Store using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

const orderColumns = `id, user_id, status, payment_status, payment_method, total_amount,
	address_street, address_city, address_state, address_postal_code, address_country,
	version, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var street, city, state, postalCode, country *string
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.PaymentStatus, &o.PaymentMethod, &o.TotalAmount,
		&street, &city, &state, &postalCode, &country,
		&o.Version, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if street != nil {
		o.Address = &Address{Street: *street, City: *city, State: *state, PostalCode: *postalCode, Country: *country}
	}
	return &o, nil
}

func (p *PgStore) FindByID(ctx context.Context, id uuid.UUID) (*Order, []Item, error) {
	var order *Order
	var items []Item

	// Use transaction to ensure the order and its items are read consistently
	txErr := p.withTransaction(ctx, func(tx pgx.Tx) error {
		o, err := scanOrder(tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return storeerrors.ErrOrderNotFound
			}
			return fmt.Errorf("%w: %w", storeerrors.ErrFailedToFindOrder, err)
		}
		i, err := p.findItems(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("%w: %w", storeerrors.ErrFailedToFindOrderItems, err)
		}
		order = o
		items = i
		return nil
	})

	if txErr != nil {
		return nil, nil, txErr
	}

	return order, items, nil
}

func (p *PgStore) FindByUserID(ctx context.Context, userID uuid.UUID, offset, limit int32) ([]Order, error) {
	rows, err := p.db.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storeerrors.ErrFailedToFindUserOrders, err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", storeerrors.ErrFailedToFindUserOrders, err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (p *PgStore) Create(ctx context.Context, order *Order, items []Item) (*Order, []Item, error) {
	var createdOrder *Order
	var createdItems []Item

	txErr := p.withTransaction(ctx, func(tx pgx.Tx) error {
		var street, city, state, postalCode, country *string
		if order.Address != nil {
			a := order.Address
			street, city, state, postalCode, country = &a.Street, &a.City, &a.State, &a.PostalCode, &a.Country
		}
		o, err := scanOrder(tx.QueryRow(ctx,
			`INSERT INTO orders (user_id, status, payment_status, payment_method, total_amount,
				address_street, address_city, address_state, address_postal_code, address_country)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 RETURNING `+orderColumns,
			order.UserID, order.Status, order.PaymentStatus, order.PaymentMethod, order.TotalAmount,
			street, city, state, postalCode, country))
		if err != nil {
			return fmt.Errorf("%w: %w", storeerrors.ErrCreateOrder, err)
		}

		orderItems := make([]Item, 0, len(items))
		for _, item := range items {
			var created Item
			err := tx.QueryRow(ctx,
				`INSERT INTO order_items (order_id, product_id, quantity, unit_price, product_name)
				 VALUES ($1, $2, $3, $4, $5)
				 RETURNING id, order_id, product_id, quantity, unit_price, product_name`,
				o.ID, item.ProductID, item.Quantity, item.UnitPrice, item.ProductName).
				Scan(&created.ID, &created.OrderID, &created.ProductID, &created.Quantity, &created.UnitPrice, &created.ProductName)
			if err != nil {
				return fmt.Errorf("%w: %w", storeerrors.ErrCreateOrderItem, err)
			}
			orderItems = append(orderItems, created)
		}
		createdOrder = o
		createdItems = orderItems
		return nil
	})

	if txErr != nil {
		return nil, nil, txErr
	}

	return createdOrder, createdItems, nil
}

func (p *PgStore) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, version int32) (*Order, error) {
	return p.versionedUpdate(ctx, id, version,
		`UPDATE orders SET status = $2, version = version + 1, updated_at = now()
		 WHERE id = $1 AND version = $3 RETURNING `+orderColumns,
		id, status, version)
}

func (p *PgStore) UpdatePayment(ctx context.Context, id uuid.UUID, payment PaymentStatus, method PaymentMethod, version int32) (*Order, error) {
	if method == "" {
		return p.versionedUpdate(ctx, id, version,
			`UPDATE orders SET payment_status = $2, version = version + 1, updated_at = now()
			 WHERE id = $1 AND version = $3 RETURNING `+orderColumns,
			id, payment, version)
	}
	return p.versionedUpdate(ctx, id, version,
		`UPDATE orders SET payment_status = $2, payment_method = $3, version = version + 1, updated_at = now()
		 WHERE id = $1 AND version = $4 RETURNING `+orderColumns,
		id, payment, method, version)
}

// versionedUpdate runs an optimistic-lock guarded UPDATE. When no row
// matches it distinguishes a missing order from a lost version race.
func (p *PgStore) versionedUpdate(ctx context.Context, id uuid.UUID, version int32, sql string, args ...any) (*Order, error) {
	var order *Order

	txErr := p.withTransaction(ctx, func(tx pgx.Tx) error {
		o, err := scanOrder(tx.QueryRow(ctx, sql, args...))
		if err == nil {
			order = o
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %w", storeerrors.ErrUpdateOrder, err)
		}
		// Check if the order exists, or it's an optimistic lock error.
		_, findErr := scanOrder(tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
		if findErr != nil {
			if errors.Is(findErr, pgx.ErrNoRows) {
				return storeerrors.ErrOrderNotFound
			}
			return fmt.Errorf("%w: %w", storeerrors.ErrUpdateOrder, findErr)
		}
		return storeerrors.ErrOptimisticLock
	})

	if txErr != nil {
		return nil, txErr
	}

	return order, nil
}

func (p *PgStore) findItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) ([]Item, error) {
	rows, err := tx.Query(ctx,
		`SELECT id, order_id, product_id, quantity, unit_price, product_name
		 FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var i Item
		if err := rows.Scan(&i.ID, &i.OrderID, &i.ProductID, &i.Quantity, &i.UnitPrice, &i.ProductName); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func (p *PgStore) withTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return storeerrors.ErrTransactionBegin
	}

	err = fn(tx)
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return storeerrors.ErrTransactionRollback
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return storeerrors.ErrTransactionCommit
	}

	return nil
}
