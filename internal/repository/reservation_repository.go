package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/room-reservation/internal/model"
)

// ReservationRepo provides data access to the reservations table.  All
// timestamps are stored in UTC (the connection is opened with loc=UTC and
// parseTime=true).  The overlap-sensitive write paths run the availability
// check and the write inside one transaction with row locking so that of
// two racing conflicting writers exactly one commits; the status writers
// are conditional updates whose zero-rows outcome is surfaced to the
// caller, never swallowed.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationCols = `id, user_id, room_id, starts_at, ends_at, status, payment_status, version, created_at, updated_at`

// blockingStatuses is the SQL fragment selecting reservations that still
// occupy their window.  Must stay in sync with ReservationStatus.BlocksWindow.
const blockingStatuses = `status NOT IN ('CANCELLED','EXPIRED')`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*model.Reservation, error) {
	var r model.Reservation
	err := row.Scan(
		&r.ID, &r.UserID, &r.RoomID, &r.StartsAt, &r.EndsAt,
		&r.Status, &r.PaymentStatus, &r.Version, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetReservation returns the reservation with the given id, or ErrNotFound.
func (r *ReservationRepo) GetReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationCols + ` FROM reservations WHERE id = ?`
	res, err := scanReservation(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return res, err
}

// ListOverlapping returns blocking reservations on roomID whose interval
// overlaps [start, end), excluding excludeID.  The half-open comparison is
// starts_at < end AND start < ends_at.
func (r *ReservationRepo) ListOverlapping(ctx context.Context, roomID uint64, start, end time.Time, excludeID uint64) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationCols + `
	           FROM reservations
	           WHERE room_id = ? AND ` + blockingStatuses + `
	             AND starts_at < ? AND ? < ends_at
	             AND id <> ?
	           ORDER BY starts_at`
	rows, err := r.db.QueryContext(ctx, q, roomID, end.UTC(), start.UTC(), excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

// ListByUser returns all reservations for the user, newest first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationCols + ` FROM reservations WHERE user_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

// CreateIfFree inserts the reservation only when no blocking reservation
// overlaps its window.  Check and insert run in one transaction; the SELECT
// ... FOR UPDATE locks the scanned index range so a concurrent writer for
// the same room serialises behind it and then observes the new row.
// Returns ErrOverlap when the window is taken.
//
// On an empty range both racing writers can hold compatible gap locks and
// deadlock on insert; the losing transaction is retried once so the caller
// sees ErrOverlap instead of the driver error.
func (r *ReservationRepo) CreateIfFree(ctx context.Context, res *model.Reservation) error {
	err := r.createIfFree(ctx, res)
	if isLockContention(err) {
		err = r.createIfFree(ctx, res)
	}
	return err
}

func (r *ReservationRepo) createIfFree(ctx context.Context, res *model.Reservation) error {
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

	taken, err := overlapExistsTx(ctx, tx, res.RoomID, res.StartsAt, res.EndsAt, 0)
	if err != nil {
		return err
	}
	if taken {
		return ErrOverlap
	}

	const ins = `INSERT INTO reservations (user_id, room_id, starts_at, ends_at, status, payment_status, version)
	             VALUES (?, ?, ?, ?, ?, ?, 0)`
	result, err := tx.ExecContext(ctx, ins,
		res.UserID, res.RoomID, res.StartsAt.UTC(), res.EndsAt.UTC(),
		string(res.Status), string(res.PaymentStatus),
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults.
	const sel = `SELECT ` + reservationCols + ` FROM reservations WHERE id = ?`
	full, err := scanReservation(tx.QueryRowContext(ctx, sel, res.ID))
	if err != nil {
		return err
	}
	*res = *full
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// RescheduleIfFree moves the reservation to a new window.  The overlap
// check excludes the reservation itself and the write is conditioned on the
// version still matching; ErrOverlap and ErrStaleVersion distinguish the
// two failure modes.  Retried once on lock contention, like CreateIfFree.
func (r *ReservationRepo) RescheduleIfFree(ctx context.Context, id uint64, start, end time.Time, version uint64) error {
	err := r.rescheduleIfFree(ctx, id, start, end, version)
	if isLockContention(err) {
		err = r.rescheduleIfFree(ctx, id, start, end, version)
	}
	return err
}

func (r *ReservationRepo) rescheduleIfFree(ctx context.Context, id uint64, start, end time.Time, version uint64) error {
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

	// The room id comes from the row inside the transaction so the check
	// and the write see the same reservation.
	var roomID uint64
	err = tx.QueryRowContext(ctx, `SELECT room_id FROM reservations WHERE id = ? FOR UPDATE`, id).Scan(&roomID)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	taken, err := overlapExistsTx(ctx, tx, roomID, start, end, id)
	if err != nil {
		return err
	}
	if taken {
		return ErrOverlap
	}

	const upd = `UPDATE reservations SET starts_at = ?, ends_at = ?, version = version + 1
	             WHERE id = ? AND version = ?`
	result, err := tx.ExecContext(ctx, upd, start.UTC(), end.UTC(), id, version)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStaleVersion
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// UpdateStatus moves status from -> to only when the row still holds from.
// The bool result is false when another writer won the race.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id uint64, from, to model.ReservationStatus) (bool, error) {
	const q = `UPDATE reservations SET status = ?, version = version + 1 WHERE id = ? AND status = ?`
	result, err := r.db.ExecContext(ctx, q, string(to), id, string(from))
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdatePaymentStatus is the conditional update for the payment_status column.
func (r *ReservationRepo) UpdatePaymentStatus(ctx context.Context, id uint64, from, to model.PaymentStatus) (bool, error) {
	const q = `UPDATE reservations SET payment_status = ?, version = version + 1 WHERE id = ? AND payment_status = ?`
	result, err := r.db.ExecContext(ctx, q, string(to), id, string(from))
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListStale returns reservations in one of the given statuses whose window
// ended before the cutoff and that were never paid.  Used by the sweeper.
func (r *ReservationRepo) ListStale(ctx context.Context, statuses []model.ReservationStatus, before time.Time) ([]model.Reservation, error) {
	if len(statuses) == 0 {
		return []model.Reservation{}, nil
	}
	placeholders := make([]string, 0, len(statuses))
	args := make([]any, 0, len(statuses)+1)
	for _, s := range statuses {
		placeholders = append(placeholders, "?")
		args = append(args, string(s))
	}
	args = append(args, before.UTC())
	q := `SELECT ` + reservationCols + `
	      FROM reservations
	      WHERE status IN (` + strings.Join(placeholders, ",") + `)
	        AND ends_at < ?
	        AND payment_status <> 'PAID'
	      ORDER BY ends_at`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

// HasActiveAt reports whether a PENDING or CONFIRMED reservation on roomID
// covers the given instant.
func (r *ReservationRepo) HasActiveAt(ctx context.Context, roomID uint64, at time.Time) (bool, error) {
	const q = `SELECT EXISTS(
	             SELECT 1 FROM reservations
	             WHERE room_id = ? AND status IN ('PENDING','CONFIRMED')
	               AND starts_at <= ? AND ? < ends_at)`
	var occupied bool
	if err := r.db.QueryRowContext(ctx, q, roomID, at.UTC(), at.UTC()).Scan(&occupied); err != nil {
		return false, err
	}
	return occupied, nil
}

// overlapExistsTx runs the locking overlap probe inside tx.
func overlapExistsTx(ctx context.Context, tx *sql.Tx, roomID uint64, start, end time.Time, excludeID uint64) (bool, error) {
	const q = `SELECT id FROM reservations
	           WHERE room_id = ? AND ` + blockingStatuses + `
	             AND starts_at < ? AND ? < ends_at
	             AND id <> ?
	           LIMIT 1 FOR UPDATE`
	var id uint64
	err := tx.QueryRowContext(ctx, q, roomID, end.UTC(), start.UTC(), excludeID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func collectReservations(rows *sql.Rows) ([]model.Reservation, error) {
	out := make([]model.Reservation, 0)
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
