package orders

import "time"

// Status represents the current stage of an order's lifecycle.
type Status string

const (
	StatusPending        Status = "PENDING"
	StatusNew            Status = "NEW"
	StatusAccepted       Status = "ACCEPTED"
	StatusPreparing      Status = "PREPARING"
	StatusReadyForPickup Status = "READY_FOR_PICKUP"
	StatusOutForDelivery Status = "OUT_FOR_DELIVERY"
	StatusDelivered      Status = "DELIVERED"
	StatusCancelled      Status = "CANCELLED"
)

// allowed holds the legal forward transitions. CANCELLED is reachable only
// from the early states, before the kitchen has committed to the order.
var allowed = map[Status]map[Status]bool{
	StatusPending:        {StatusNew: true, StatusCancelled: true},
	StatusNew:            {StatusAccepted: true, StatusCancelled: true},
	StatusAccepted:       {StatusPreparing: true, StatusCancelled: true},
	StatusPreparing:      {StatusReadyForPickup: true},
	StatusReadyForPickup: {StatusOutForDelivery: true},
	StatusOutForDelivery: {StatusDelivered: true},
	StatusDelivered:      {},
	StatusCancelled:      {},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := allowed[s]
	return ok
}

// CanTransition reports whether from→to is a legal transition.
func CanTransition(from, to Status) bool {
	nexts := allowed[from]
	return nexts != nil && nexts[to]
}

// Item is one order line. Price is the per-unit price snapshotted at order
// time.
type Item struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Order is a customer's order with the denormalized customer and line-item
// data needed to build notification payloads without further lookups.
type Order struct {
	ID              string    `json:"id"`
	Number          string    `json:"number"` // ORD-00001, ORD-00002, ...
	RestaurantID    string    `json:"restaurant_id"`
	CustomerID      string    `json:"customer_id"`
	CustomerName    string    `json:"customer_name"`
	CustomerPhone   string    `json:"customer_phone"`
	DeliveryAddress string    `json:"delivery_address"`
	Items           []Item    `json:"items"`
	Total           float64   `json:"total"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SetTotal recomputes Total from the line items.
func (o *Order) SetTotal() {
	var sum float64
	for _, it := range o.Items {
		sum += float64(it.Quantity) * it.Price
	}
	o.Total = sum
}
