package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/room-reservation/internal/model"
)

// OrderRepo provides data access to the orders table.  The schema carries a
// unique index on payment_ref, which backs the "one order per gateway
// reference" invariant even against writers this process never sees.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderCols = `id, reservation_id, user_id, amount_cents, status, payment_ref, version, created_at, updated_at`

// liveOrderStatuses selects orders that may still change.  COMPLETED stays
// live because of the refund edge.
const liveOrderStatuses = `status NOT IN ('FAILED','CANCELLED','REFUNDED')`

func scanOrder(row rowScanner) (*model.Order, error) {
	var o model.Order
	var ref sql.NullString
	err := row.Scan(
		&o.ID, &o.ReservationID, &o.UserID, &o.AmountCents,
		&o.Status, &ref, &o.Version, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if ref.Valid {
		v := ref.String
		o.PaymentRef = &v
	}
	return &o, nil
}

// GetOrder returns the order with the given id, or ErrNotFound.
func (r *OrderRepo) GetOrder(ctx context.Context, id uint64) (*model.Order, error) {
	const q = `SELECT ` + orderCols + ` FROM orders WHERE id = ?`
	o, err := scanOrder(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return o, err
}

// GetOrderByPaymentRef returns the order carrying the gateway reference, or
// ErrNotFound for an unmatched callback.
func (r *OrderRepo) GetOrderByPaymentRef(ctx context.Context, ref string) (*model.Order, error) {
	const q = `SELECT ` + orderCols + ` FROM orders WHERE payment_ref = ?`
	o, err := scanOrder(r.db.QueryRowContext(ctx, q, ref))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return o, err
}

// GetLiveOrderByReservation returns the single non-terminal order for the
// reservation, or ErrNotFound.
func (r *OrderRepo) GetLiveOrderByReservation(ctx context.Context, reservationID uint64) (*model.Order, error) {
	const q = `SELECT ` + orderCols + ` FROM orders
	           WHERE reservation_id = ? AND ` + liveOrderStatuses + ` LIMIT 1`
	o, err := scanOrder(r.db.QueryRowContext(ctx, q, reservationID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return o, err
}

// CreateOrder inserts the order only when the reservation has no live order
// yet.  Check and insert run in one transaction with the existing live row
// (if any) locked, so two racing creates serialise and the second observes
// the first.  Returns ErrDuplicateOrder when a live order exists.
//
// With no live row the probe takes only a gap lock and two racing creates
// can deadlock on insert; the loser is retried once so the caller sees
// ErrDuplicateOrder instead of the driver error.
func (r *OrderRepo) CreateOrder(ctx context.Context, o *model.Order) error {
	err := r.createOrder(ctx, o)
	if isLockContention(err) {
		err = r.createOrder(ctx, o)
	}
	return err
}

func (r *OrderRepo) createOrder(ctx context.Context, o *model.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const probe = `SELECT id FROM orders WHERE reservation_id = ? AND ` + liveOrderStatuses + ` LIMIT 1 FOR UPDATE`
	var existing uint64
	err = tx.QueryRowContext(ctx, probe, o.ReservationID).Scan(&existing)
	if err == nil {
		return ErrDuplicateOrder
	}
	if err != sql.ErrNoRows {
		return err
	}

	const ins = `INSERT INTO orders (reservation_id, user_id, amount_cents, status, version) VALUES (?, ?, ?, ?, 0)`
	result, err := tx.ExecContext(ctx, ins, o.ReservationID, o.UserID, o.AmountCents, string(o.Status))
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults.
	const sel = `SELECT ` + orderCols + ` FROM orders WHERE id = ?`
	full, err := scanOrder(tx.QueryRowContext(ctx, sel, o.ID))
	if err != nil {
		return err
	}
	*o = *full
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// AttachPaymentRef records the gateway reference on an order that has none.
// ErrStaleVersion when the order already carries a reference (or does not
// exist), ErrDuplicateRef when the unique index rejects the value.
func (r *OrderRepo) AttachPaymentRef(ctx context.Context, id uint64, ref string) error {
	const q = `UPDATE orders SET payment_ref = ? WHERE id = ? AND payment_ref IS NULL`
	result, err := r.db.ExecContext(ctx, q, ref, id)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 { // duplicate key
			return ErrDuplicateRef
		}
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStaleVersion
	}
	return nil
}

// UpdateOrderStatus moves status from -> to and version expect -> next only
// when the row still holds both expected values.  The bool result is false
// when another writer won the race.
func (r *OrderRepo) UpdateOrderStatus(ctx context.Context, id uint64, from, to model.OrderStatus, expect, next uint64) (bool, error) {
	const q = `UPDATE orders SET status = ?, version = ? WHERE id = ? AND status = ? AND version = ?`
	result, err := r.db.ExecContext(ctx, q, string(to), next, id, string(from), expect)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
