// Package registry tracks which connections belong to which room.
//
// A room is an emergent grouping: it exists while at least one connection has
// joined it and vanishes when the last member leaves. Membership never
// outlives a connection — DropConnection removes a connection from every room
// it joined and is called unconditionally on disconnect.
//
// Registry is safe for concurrent use. Callers that need membership reads to
// be atomic with respect to a connection teardown (the hub's broadcast path)
// serialize the two through their own lock; the registry's internal lock only
// protects individual operations.
package registry
