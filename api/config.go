// Package api provides the HTTP server for the recall system: the REST-style
// tool aliases the original clients depend on, the SSE push channel, and the
// mount point for the MCP server.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":3000")
	ListenAddr string
}
