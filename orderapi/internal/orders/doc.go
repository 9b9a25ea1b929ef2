// Package orders owns the order lifecycle on the stateless tier: the status
// state machine, an in-memory store, and the service layer that mutates order
// state and then emits the matching real-time events through the notification
// gateway.
//
// The mutation is the source of truth. Event emission is an at-most-once side
// effect: a gateway failure is logged at warn level and dropped, and never
// rolls back or blocks the state change that triggered it. Clients that miss
// an event resynchronize through the plain read endpoints.
package orders
