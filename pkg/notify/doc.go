// Package notify is the producer-side client for the internal notification
// gateway. Stateless request handlers construct an event and Send it; the
// gateway relays it to the connection server for room fan-out.
//
// The client is built for fire-and-forget emission: a short request timeout,
// no retries, and errors that callers are expected to log and drop — a failed
// notification must never roll back or block the state change that produced
// it. The round trip only confirms that the broadcast was accepted, not that
// any client received it.
package notify
