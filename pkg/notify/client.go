package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dishpatch/dishpatch/pkg/event"
)

// notifyPath is the gateway endpoint on the connection server.
const notifyPath = "/internal/notify"

// DefaultTimeout bounds the gateway round trip. Emission is a side effect of
// a request the caller is still serving, so it must stay short.
const DefaultTimeout = 3 * time.Second

// DefaultHeader is the header the shared secret travels in. Must match the
// connection server's auth configuration.
const DefaultHeader = "x-internal-key"

// Options configures a Client.
type Options struct {
	// Header carrying the shared secret (default "x-internal-key").
	Header string

	// Key is the shared secret. Empty disables the header, which only works
	// against a server running with auth mode "none".
	Key string

	// Timeout for the whole gateway round trip (default 3s).
	Timeout time.Duration
}

// Client posts events to the gateway. Safe for concurrent use.
type Client struct {
	url    string
	header string
	key    string
	http   *http.Client
}

// New creates a Client for the connection server at baseURL
// (e.g. "http://localhost:8080").
func New(baseURL string, opts Options) *Client {
	header := opts.Header
	if header == "" {
		header = DefaultHeader
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		url:    baseURL + notifyPath,
		header: header,
		key:    opts.Key,
		http:   &http.Client{Timeout: timeout},
	}
}

// notifyRequest mirrors the gateway's wire contract.
type notifyRequest struct {
	Room  string          `json:"room"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Send posts ev to the gateway and returns once the broadcast is accepted.
// Errors are for the caller to log; retrying is deliberately not built in.
func (c *Client) Send(ctx context.Context, ev event.Event) error {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return fmt.Errorf("notify: marshal %s payload: %w", ev.Name, err)
	}
	body, err := json.Marshal(notifyRequest{
		Room:  ev.Room,
		Event: string(ev.Name),
		Data:  data,
	})
	if err != nil {
		return fmt.Errorf("notify: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.key != "" {
		req.Header.Set(c.header, c.key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("notify: post %s to %s: %w", ev.Name, ev.Room, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notify: gateway returned HTTP %d for %s to %s",
			resp.StatusCode, ev.Name, ev.Room)
	}
	return nil
}
