package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/room-reservation/internal/model"
)

// RoomRepo provides data access to the rooms table.  Catalog attributes
// (name, capacity, rate, opening hours) are read-only here; the only column
// this service mutates is status, and that mutation is always conditional.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo returns a new RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

const roomCols = `id, name, status, opens_at, closes_at, capacity, hourly_rate_cents, created_at, updated_at`

func scanRoom(row rowScanner) (*model.Room, error) {
	var r model.Room
	err := row.Scan(
		&r.ID, &r.Name, &r.Status, &r.OpensAt, &r.ClosesAt,
		&r.Capacity, &r.HourlyRateCents, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRoom returns the room with the given id, or ErrNotFound.
func (r *RoomRepo) GetRoom(ctx context.Context, id uint64) (*model.Room, error) {
	const q = `SELECT ` + roomCols + ` FROM rooms WHERE id = ?`
	room, err := scanRoom(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return room, err
}

// ListRooms returns all rooms ordered by name.
func (r *RoomRepo) ListRooms(ctx context.Context) ([]model.Room, error) {
	const q = `SELECT ` + roomCols + ` FROM rooms ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Room, 0)
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *room)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateRoomStatus moves status from -> to only when the row still holds
// from.  The bool result is false when another writer won the race.
func (r *RoomRepo) UpdateRoomStatus(ctx context.Context, id uint64, from, to model.RoomStatus) (bool, error) {
	const q = `UPDATE rooms SET status = ? WHERE id = ? AND status = ?`
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
