// Package api is the HTTP surface of the stateless order tier.
//
// Routes:
//
//	GET  /api/v1/health              — liveness probe
//	POST /api/v1/orders              — place an order (emits new_order)
//	GET  /api/v1/orders              — list orders, ?restaurant_id= filter
//	GET  /api/v1/orders/{id}         — fetch one order
//	POST /api/v1/orders/{id}/status  — apply a lifecycle transition (emits)
//
// The GET endpoints are the polling fallback for clients that suspect a
// missed real-time event; they read straight from the store and never emit.
package api
