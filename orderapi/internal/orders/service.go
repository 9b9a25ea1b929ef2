package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dishpatch/dishpatch/pkg/event"
)

// ErrIllegalTransition is returned when a status update violates the
// lifecycle state machine.
var ErrIllegalTransition = errors.New("illegal status transition")

// Notifier delivers events to the notification gateway. Implemented by
// notify.Client in production and by fakes in tests.
type Notifier interface {
	Send(ctx context.Context, ev event.Event) error
}

// Service mutates order state and emits the matching real-time events.
type Service struct {
	store    *Store
	notifier Notifier
}

// NewService creates a Service backed by store, emitting through notifier.
func NewService(store *Store, notifier Notifier) *Service {
	return &Service{store: store, notifier: notifier}
}

// CreateRequest carries everything needed to place an order.
type CreateRequest struct {
	RestaurantID    string `json:"restaurant_id"`
	CustomerID      string `json:"customer_id"`
	CustomerName    string `json:"customer_name"`
	CustomerPhone   string `json:"customer_phone"`
	DeliveryAddress string `json:"delivery_address"`
	Items           []Item `json:"items"`
}

// Validate checks the request for structural problems.
func (r CreateRequest) Validate() error {
	if r.RestaurantID == "" {
		return errors.New("restaurant_id is required")
	}
	if r.CustomerID == "" {
		return errors.New("customer_id is required")
	}
	if r.CustomerName == "" {
		return errors.New("customer_name is required")
	}
	if len(r.Items) == 0 {
		return errors.New("at least one item is required")
	}
	for i, it := range r.Items {
		if it.Name == "" {
			return fmt.Errorf("items[%d].name is required", i)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("items[%d].quantity must be positive", i)
		}
		if it.Price < 0 {
			return fmt.Errorf("items[%d].price must not be negative", i)
		}
	}
	return nil
}

// Create places a new order and notifies the restaurant's room plus the
// customer's personal room.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Order, error) {
	if err := req.Validate(); err != nil {
		return Order{}, fmt.Errorf("create order: %w", err)
	}

	o := Order{
		RestaurantID:    req.RestaurantID,
		CustomerID:      req.CustomerID,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		DeliveryAddress: req.DeliveryAddress,
		Items:           req.Items,
		Status:          StatusNew,
	}
	o.SetTotal()
	o = s.store.Create(o)

	slog.Info("orders: created",
		"order_id", o.ID, "number", o.Number, "restaurant_id", o.RestaurantID)

	s.emit(ctx, event.Event{
		Room: event.RestaurantRoom(o.RestaurantID),
		Name: event.NewOrder,
		Data: toEventData(o),
	})
	s.emit(ctx, event.Event{
		Room: event.UserRoom(o.CustomerID),
		Name: event.OrderNotification,
		Data: event.NotificationData{
			OrderID:     o.ID,
			OrderNumber: o.Number,
			Status:      string(o.Status),
			Message:     "Your order has been placed",
		},
	})
	return o, nil
}

// UpdateStatus applies a lifecycle transition and emits the matching events.
func (s *Service) UpdateStatus(ctx context.Context, id string, to Status) (Order, error) {
	if !to.Valid() {
		return Order{}, fmt.Errorf("update status: unknown status %q", to)
	}

	cur, err := s.store.Get(id)
	if err != nil {
		return Order{}, fmt.Errorf("update status: %w", err)
	}
	if !CanTransition(cur.Status, to) {
		return Order{}, fmt.Errorf("update status: %s → %s: %w", cur.Status, to, ErrIllegalTransition)
	}

	o, err := s.store.SetStatus(id, to)
	if err != nil {
		return Order{}, fmt.Errorf("update status: %w", err)
	}

	slog.Info("orders: status changed",
		"order_id", o.ID, "number", o.Number, "from", cur.Status, "to", o.Status)

	switch to {
	case StatusAccepted:
		s.emit(ctx, event.Event{
			Room: event.UserRoom(o.CustomerID),
			Name: event.OrderAccepted,
			Data: toEventData(o),
		})
		s.emit(ctx, event.Event{
			Room: event.RestaurantRoom(o.RestaurantID),
			Name: event.OrderUpdate,
			Data: toEventData(o),
		})

	case StatusReadyForPickup:
		s.emit(ctx, event.Event{
			Room: event.DriverPoolRoom,
			Name: event.OrderNotification,
			Data: event.NotificationData{
				OrderID:     o.ID,
				OrderNumber: o.Number,
				Status:      string(o.Status),
				Message:     "Order available for pickup",
			},
		})
		s.emitUpdates(ctx, o)

	default:
		s.emitUpdates(ctx, o)
	}

	return o, nil
}

// Get returns one order.
func (s *Service) Get(id string) (Order, error) {
	return s.store.Get(id)
}

// List returns orders, optionally filtered by restaurant. This is the
// polling fallback read path; it never emits.
func (s *Service) List(restaurantID string) []Order {
	return s.store.List(restaurantID)
}

// emitUpdates sends the regular order-update to the customer's and the
// restaurant's rooms.
func (s *Service) emitUpdates(ctx context.Context, o Order) {
	data := toEventData(o)
	s.emit(ctx, event.Event{
		Room: event.UserRoom(o.CustomerID),
		Name: event.OrderUpdate,
		Data: data,
	})
	s.emit(ctx, event.Event{
		Room: event.RestaurantRoom(o.RestaurantID),
		Name: event.OrderUpdate,
		Data: data,
	})
}

// emit is best-effort: a failed notification is logged and dropped, never
// propagated to the mutation's caller.
func (s *Service) emit(ctx context.Context, ev event.Event) {
	if err := s.notifier.Send(ctx, ev); err != nil {
		slog.Warn("orders: notification dropped",
			"room", ev.Room, "event", ev.Name, "err", err)
	}
}

// toEventData converts an Order to its notification payload.
func toEventData(o Order) event.OrderData {
	items := make([]event.LineItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, event.LineItem{
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    it.Price,
		})
	}
	return event.OrderData{
		ID:              o.ID,
		Number:          o.Number,
		RestaurantID:    o.RestaurantID,
		CustomerID:      o.CustomerID,
		CustomerName:    o.CustomerName,
		CustomerPhone:   o.CustomerPhone,
		DeliveryAddress: o.DeliveryAddress,
		Items:           items,
		Total:           o.Total,
		Status:          string(o.Status),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}
