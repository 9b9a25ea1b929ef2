package ws

import (
	"sync"
	"testing"
	"time"
)

// Joins and leaves arriving while the hub shuts down must not touch a closed
// send channel or leave phantom memberships behind. The room operations run
// under the hub's read lock, so each one either completes before the teardown
// (which then drops the membership) or is a no-op for the gone client.
func TestJoinRacingCloseAll_NoPanicNoLeak(t *testing.T) {
	opts := Options{
		PingInterval: time.Second,
		PongTimeout:  2 * time.Second,
		SendBuffer:   1,
	}

	for i := 0; i < 200; i++ {
		h := New(opts)

		clients := make([]*Client, 4)
		for j := range clients {
			clients[j] = newClient(h, nil, opts)
			h.register(clients[j])
		}

		var wg sync.WaitGroup
		for _, c := range clients {
			wg.Add(1)
			go func(c *Client) {
				defer wg.Done()
				for k := 0; k < 25; k++ {
					h.join(c, "user_7")
					h.leave(c, "user_7")
				}
			}(c)
		}

		h.CloseAll()
		wg.Wait()

		if got := h.Count(); got != 0 {
			t.Fatalf("Count after CloseAll: got %d, want 0", got)
		}
		if got := h.RoomCount(); got != 0 {
			t.Fatalf("RoomCount after CloseAll: got %d, want 0", got)
		}
	}
}

// Room operations on a client past unregister are no-ops: no ack, no
// registry entry, no touching the closed channel.
func TestJoinAfterUnregister_IsNoOp(t *testing.T) {
	h := New(Options{PingInterval: time.Second, PongTimeout: 2 * time.Second, SendBuffer: 1})

	c := newClient(h, nil, h.options())
	h.register(c)
	h.unregister(c)

	h.join(c, "user_7")
	h.leave(c, "user_7")

	if got := h.RoomCount(); got != 0 {
		t.Errorf("RoomCount after post-unregister join: got %d, want 0", got)
	}
	if msg, ok := <-c.send; ok {
		t.Errorf("ack delivered after unregister: %s", msg)
	}
}
