package event

import (
	"encoding/json"
	"time"
)

// Name identifies one kind of real-time notification.
type Name string

// The closed set of event names delivered to subscribers.
const (
	// NewOrder is sent to a restaurant's room when a customer places an order.
	NewOrder Name = "new_order"

	// OrderAccepted is sent to the customer's room when the restaurant
	// accepts their order.
	OrderAccepted Name = "order_accepted"

	// OrderNotification is a short personal or pool-wide notice, e.g. an
	// "order available" ping to the driver pool.
	OrderNotification Name = "order_notification"

	// OrderUpdate is sent on every other status transition.
	OrderUpdate Name = "order-update"

	// RoomJoined and RoomLeft confirm join-room / leave-room requests.
	RoomJoined Name = "room_joined"
	RoomLeft   Name = "room_left"
)

// Payload is implemented by every event payload type. The implementation set
// is closed; producers cannot emit an event with an arbitrary body.
type Payload interface {
	isPayload()
}

// Event is one named notification bound for a single room.
// Events are transient: delivered best-effort to the room's current members
// and never persisted or replayed.
type Event struct {
	Room string
	Name Name
	Data Payload
}

// LineItem is one order line as shown in notifications.
type LineItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// OrderData is the payload for new_order, order_accepted and order-update.
// It carries the fully denormalized order so receivers need no further lookups.
type OrderData struct {
	ID              string     `json:"id"`
	Number          string     `json:"number"`
	RestaurantID    string     `json:"restaurant_id"`
	CustomerID      string     `json:"customer_id"`
	CustomerName    string     `json:"customer_name"`
	CustomerPhone   string     `json:"customer_phone"`
	DeliveryAddress string     `json:"delivery_address"`
	Items           []LineItem `json:"items"`
	Total           float64    `json:"total"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (OrderData) isPayload() {}

// NotificationData is the payload for order_notification.
type NotificationData struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
	Message     string `json:"message"`
}

func (NotificationData) isPayload() {}

// AckData is the payload for room_joined and room_left.
type AckData struct {
	Room string `json:"room"`
}

func (AckData) isPayload() {}

// Envelope is the server→client wire format. Data is kept raw because the
// connection server relays payloads without interpreting them.
type Envelope struct {
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
	EmittedAt time.Time       `json:"emitted_at"`
}
