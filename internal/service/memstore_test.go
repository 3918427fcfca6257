package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/queue"
	"github.com/iliyamo/room-reservation/internal/repository"
)

// memStore is an in-memory implementation of ReservationStore, RoomStore
// and OrderStore with the same atomicity contract as the SQL layer: every
// check-then-act runs under one mutex hold, and conditional updates report
// a miss instead of overwriting.  That makes the goroutine races in these
// tests exercise real interleavings against real conflict semantics.
type memStore struct {
	mu sync.Mutex

	nextResID  uint64
	nextOrdID  uint64
	rsv        map[uint64]*model.Reservation
	rooms      map[uint64]*model.Room
	orders     map[uint64]*model.Order
	refToOrder map[string]uint64
}

func newMemStore() *memStore {
	return &memStore{
		rsv:        make(map[uint64]*model.Reservation),
		rooms:      make(map[uint64]*model.Room),
		orders:     make(map[uint64]*model.Order),
		refToOrder: make(map[string]uint64),
	}
}

func (m *memStore) addRoom(r *model.Room) *model.Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.rooms[cp.ID] = &cp
	return &cp
}

// seed inserts a reservation without the overlap check, for arranging test
// state.
func (m *memStore) seed(r *model.Reservation) *model.Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextResID++
	cp := *r
	cp.ID = m.nextResID
	m.rsv[cp.ID] = &cp
	return &cp
}

func (m *memStore) ListOverlapping(_ context.Context, roomID uint64, start, end time.Time, excludeID uint64) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.overlappingLocked(roomID, start, end, excludeID), nil
}

func (m *memStore) overlappingLocked(roomID uint64, start, end time.Time, excludeID uint64) []model.Reservation {
	var out []model.Reservation
	for _, r := range m.rsv {
		if r.RoomID != roomID || r.ID == excludeID || !r.Status.BlocksWindow() {
			continue
		}
		if Overlaps(r.StartsAt, r.EndsAt, start, end) {
			out = append(out, *r)
		}
	}
	return out
}

func (m *memStore) GetReservation(_ context.Context, id uint64) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rsv[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) ListByUser(_ context.Context, userID uint64) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Reservation
	for _, r := range m.rsv {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.After(out[j].StartsAt) })
	return out, nil
}

func (m *memStore) CreateIfFree(_ context.Context, r *model.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.overlappingLocked(r.RoomID, r.StartsAt, r.EndsAt, 0)) > 0 {
		return repository.ErrOverlap
	}
	m.nextResID++
	r.ID = m.nextResID
	r.Version = 0
	r.CreatedAt = time.Now().UTC()
	r.UpdatedAt = r.CreatedAt
	cp := *r
	m.rsv[cp.ID] = &cp
	return nil
}

func (m *memStore) RescheduleIfFree(_ context.Context, id uint64, start, end time.Time, version uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rsv[id]
	if !ok {
		return repository.ErrNotFound
	}
	if len(m.overlappingLocked(r.RoomID, start, end, id)) > 0 {
		return repository.ErrOverlap
	}
	if r.Version != version {
		return repository.ErrStaleVersion
	}
	r.StartsAt, r.EndsAt = start, end
	r.Version++
	r.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memStore) UpdateStatus(_ context.Context, id uint64, from, to model.ReservationStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rsv[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	r.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (m *memStore) UpdatePaymentStatus(_ context.Context, id uint64, from, to model.PaymentStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rsv[id]
	if !ok || r.PaymentStatus != from {
		return false, nil
	}
	r.PaymentStatus = to
	r.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (m *memStore) ListStale(_ context.Context, statuses []model.ReservationStatus, before time.Time) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	allowed := make(map[model.ReservationStatus]struct{}, len(statuses))
	for _, s := range statuses {
		allowed[s] = struct{}{}
	}
	var out []model.Reservation
	for _, r := range m.rsv {
		if _, ok := allowed[r.Status]; !ok {
			continue
		}
		if !r.EndsAt.Before(before) || r.PaymentStatus == model.PaymentPaid {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (m *memStore) HasActiveAt(_ context.Context, roomID uint64, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rsv {
		if r.RoomID != roomID {
			continue
		}
		if r.Status != model.ReservationPending && r.Status != model.ReservationConfirmed {
			continue
		}
		if !r.StartsAt.After(at) && at.Before(r.EndsAt) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) GetRoom(_ context.Context, id uint64) (*model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) ListRooms(_ context.Context) ([]model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Room
	for _, r := range m.rooms {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) UpdateRoomStatus(_ context.Context, id uint64, from, to model.RoomStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	return true, nil
}

func (m *memStore) GetOrder(_ context.Context, id uint64) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memStore) GetOrderByPaymentRef(_ context.Context, ref string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.refToOrder[ref]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *m.orders[id]
	return &cp, nil
}

func (m *memStore) GetLiveOrderByReservation(_ context.Context, reservationID uint64) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ReservationID == reservationID && !o.Status.Terminal() {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) CreateOrder(_ context.Context, o *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.orders {
		if existing.ReservationID == o.ReservationID && !existing.Status.Terminal() {
			return repository.ErrDuplicateOrder
		}
	}
	m.nextOrdID++
	o.ID = m.nextOrdID
	o.Version = 0
	o.CreatedAt = time.Now().UTC()
	o.UpdatedAt = o.CreatedAt
	cp := *o
	m.orders[cp.ID] = &cp
	return nil
}

func (m *memStore) AttachPaymentRef(_ context.Context, id uint64, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	if _, taken := m.refToOrder[ref]; taken {
		return repository.ErrDuplicateRef
	}
	if o.PaymentRef != nil {
		return repository.ErrStaleVersion
	}
	r := ref
	o.PaymentRef = &r
	m.refToOrder[ref] = id
	return nil
}

func (m *memStore) UpdateOrderStatus(_ context.Context, id uint64, from, to model.OrderStatus, expect, next uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.Status != from || o.Version != expect {
		return false, nil
	}
	o.Status = to
	o.Version = next
	o.UpdatedAt = time.Now().UTC()
	return true, nil
}

// capturePublisher records published events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []queue.Event
}

func (p *capturePublisher) PublishReservationEvent(_ context.Context, ev queue.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *capturePublisher) byType(t string) []queue.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []queue.Event
	for _, ev := range p.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}
