// Package event defines the event vocabulary shared by the producer tier and
// the connection server: event names, their payload types, room key
// conventions, and the wire envelope delivered to subscribers.
//
// The set of payload types is closed — every event name maps to exactly one
// payload shape, so the emitter/subscriber contract is checkable at compile
// time on the producer side. The connection server itself never inspects
// payloads; it forwards raw JSON.
package event
