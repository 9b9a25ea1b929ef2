package orders

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for lookups of unknown order IDs.
var ErrNotFound = errors.New("order not found")

// Store is a thread-safe in-memory order store keyed by order ID.
type Store struct {
	mu     sync.RWMutex
	orders map[string]*Order
	seq    int
	now    func() time.Time // injectable for deterministic tests
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		orders: make(map[string]*Order),
		now:    time.Now,
	}
}

// Create assigns an ID, an order number and timestamps, stores the order and
// returns a copy.
func (s *Store) Create(o Order) Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	now := s.now().UTC()
	o.ID = uuid.New().String()
	o.Number = fmt.Sprintf("ORD-%05d", s.seq)
	o.CreatedAt = now
	o.UpdatedAt = now

	stored := o
	s.orders[o.ID] = &stored
	return o
}

// Get returns the order with the given ID.
func (s *Store) Get(id string) (Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return *o, nil
}

// SetStatus updates the order's status and returns the updated copy.
// Transition legality is the service's responsibility; the store only
// guards against unknown IDs.
func (s *Store) SetStatus(id string, status Status) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = s.now().UTC()
	return *o, nil
}

// List returns all orders, optionally filtered by restaurant ID, newest
// first by creation time. This is the read path clients poll when they
// suspect a missed notification.
func (s *Store) List(restaurantID string) []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Order, 0, len(s.orders))
	for _, o := range s.orders {
		if restaurantID != "" && o.RestaurantID != restaurantID {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
