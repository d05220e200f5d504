package api

import (
	"fmt"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apimcp "github.com/papercomputeco/recall/api/mcp"
	"github.com/papercomputeco/recall/pkg/eventstream"
	"github.com/papercomputeco/recall/pkg/memory"
)

// Server is the HTTP server for the recall system. It exposes the same tool
// set three ways: REST-style aliases (several per operation, kept for
// existing clients), an SSE push channel, and an MCP streamable-HTTP mount.
type Server struct {
	config    Config
	service   *memory.Service
	registry  *Registry
	broadcast *eventstream.Broadcaster
	logger    *zap.Logger
	app       *fiber.App
}

// NewServer creates a new API server. The service and broadcaster are
// injected so they can be shared with other components; publisher is where
// tool handlers emit events (typically a Multi containing the broadcaster).
func NewServer(config Config, service *memory.Service, broadcast *eventstream.Broadcaster, publisher eventstream.Publisher, logger *zap.Logger) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("memory service is required")
	}
	if broadcast == nil {
		return nil, fmt.Errorf("event broadcaster is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:    config,
		service:   service,
		registry:  NewRegistry(service, publisher),
		broadcast: broadcast,
		logger:    logger,
		app:       app,
	}

	mcpServer, err := apimcp.NewServer(apimcp.Config{
		Service: service,
		Events:  publisher,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating MCP server: %w", err)
	}

	app.Get("/ping", s.handlePing)

	// Discovery aliases. All serve the same descriptor list; the shapes
	// differ because different client generations expect different wrappers.
	app.Get("/tools/list", s.handleToolsList)
	app.Post("/tools/list", s.handleToolsList)
	app.Get("/mcp/tools", s.handleToolsWrapped)
	app.Post("/mcp/list-tools", s.handleToolsWrapped)
	app.Get("/sse/list-tools", s.handleToolsWrapped)

	// Invocation routes.
	app.Post("/tools/call", s.handleToolsCall)
	app.Post("/mcp/:tool", s.handleMCPToolCall)

	// Push channel.
	app.Get("/sse", s.handleSSE)

	// MCP streamable HTTP endpoint. Registered after the /mcp/* aliases so
	// the exact /mcp path is all it sees.
	app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the underlying fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
