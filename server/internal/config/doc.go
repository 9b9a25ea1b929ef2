// Package config loads the connection-server configuration from the `server:`
// section of config.yaml (the `orderapi:` key is ignored by the server binary).
//
// Config fields:
//   - HTTPPort               — port for /ws, /internal/notify and /metrics (default 8080)
//   - Auth.Mode              — "apikey" or "none"
//   - Auth.KeyEnv            — environment variable holding the shared gateway secret
//   - Auth.Header            — HTTP header name (default "x-internal-key")
//   - Heartbeat.PingInterval — WebSocket ping cadence (default 25s)
//   - Heartbeat.PongTimeout  — dead-connection cutoff (default 60s)
//   - SendBuffer             — per-connection outgoing buffer depth (default 32)
//
// Load(path) applies defaults before unmarshalling, then validates.
// Watch(ctx, path, onChange) hot-reloads the file; a failed reload keeps the
// previous configuration. Reloaded auth settings take effect on the next
// gateway request; reloaded heartbeat settings apply to new connections.
package config
