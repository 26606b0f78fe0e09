package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	opTimeout = 5 * time.Second
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
// Позиции заказа хранятся как JSONB-снапшот: они пишутся один раз при
// создании и никогда не обновляются.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

func (r *orderRepository) Create(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("marshal order items: %w", err)
	}
	shipping, err := json.Marshal(order.Shipping)
	if err != nil {
		return fmt.Errorf("marshal shipping address: %w", err)
	}
	billing, err := json.Marshal(order.Billing)
	if err != nil {
		return fmt.Errorf("marshal billing address: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO orders (
			id, user_id, items, total_minor, discount_minor, coupon_code,
			payment_method, shipping_address, billing_address,
			status, version, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		order.ID, order.UserID, items, order.TotalMinor, order.DiscountMinor,
		order.CouponCode, string(order.PaymentMethod), shipping, billing,
		string(order.Status), order.Version, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrOrderVersionConflict
		}
		return fmt.Errorf("insert order: %w", err)
	}

	return nil
}

func (r *orderRepository) Get(id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, items, total_minor, discount_minor, coupon_code,
		       payment_method, shipping_address, billing_address,
		       status, version, created_at, updated_at
		FROM orders
		WHERE id = $1
	`, id)

	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}

	return order, nil
}

func (r *orderRepository) ListByUser(userID string, limit int) ([]domain.Order, error) {
	query := `
		SELECT id, user_id, items, total_minor, discount_minor, coupon_code,
		       payment_method, shipping_address, billing_address,
		       status, version, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	if limit > 0 {
		return r.list(query+" LIMIT $2", userID, limit)
	}
	return r.list(query, userID)
}

func (r *orderRepository) ListAll(limit int) ([]domain.Order, error) {
	query := `
		SELECT id, user_id, items, total_minor, discount_minor, coupon_code,
		       payment_method, shipping_address, billing_address,
		       status, version, created_at, updated_at
		FROM orders
		ORDER BY created_at DESC, id DESC
	`
	if limit > 0 {
		return r.list(query+" LIMIT $1", limit)
	}
	return r.list(query)
}

// Save обновляет только изменяемые поля заказа с optimistic locking.
// Снапшот items, адреса и суммы после создания не переписываются.
func (r *orderRepository) Save(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1,
		    version = version + 1,
		    updated_at = $2
		WHERE id = $3
		  AND version = $4
	`,
		string(order.Status), order.UpdatedAt, order.ID, order.Version,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := r.orderExists(ctx, order.ID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrOrderNotFound
		}
		return domain.ErrOrderVersionConflict
	}

	return nil
}

func (r *orderRepository) list(query string, args ...any) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		order         domain.Order
		items         []byte
		shipping      []byte
		billing       []byte
		status        string
		paymentMethod string
	)

	if err := row.Scan(
		&order.ID, &order.UserID, &items, &order.TotalMinor, &order.DiscountMinor,
		&order.CouponCode, &paymentMethod, &shipping, &billing,
		&status, &order.Version, &order.CreatedAt, &order.UpdatedAt,
	); err != nil {
		return domain.Order{}, err
	}

	order.Status = domain.OrderStatus(status)
	order.PaymentMethod = domain.PaymentMethod(paymentMethod)

	if err := json.Unmarshal(items, &order.Items); err != nil {
		return domain.Order{}, fmt.Errorf("unmarshal order items: %w", err)
	}
	if err := json.Unmarshal(shipping, &order.Shipping); err != nil {
		return domain.Order{}, fmt.Errorf("unmarshal shipping address: %w", err)
	}
	if err := json.Unmarshal(billing, &order.Billing); err != nil {
		return domain.Order{}, fmt.Errorf("unmarshal billing address: %w", err)
	}

	return order, nil
}

func (r *orderRepository) orderExists(ctx context.Context, orderID string) (bool, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM orders WHERE id = $1`, orderID).Scan(&id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check order exists: %w", err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.OrderRepository = (*orderRepository)(nil)
