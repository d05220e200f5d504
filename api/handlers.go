package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/recall/pkg/memory"
)

// ErrorResponse is the JSON error body for every REST route.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ToolsResponse wraps the descriptor list for the /mcp and /sse discovery
// aliases. The bare /tools/list route returns the array directly.
type ToolsResponse struct {
	Tools []Tool `json:"tools"`
}

// CallRequest is the POST /tools/call body.
type CallRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleToolsList serves the canonical discovery route: a bare JSON array of
// tool descriptors.
func (s *Server) handleToolsList(c *fiber.Ctx) error {
	return c.JSON(s.registry.List())
}

// handleToolsWrapped serves the {"tools": [...]} wrapper the /mcp and /sse
// alias clients expect.
func (s *Server) handleToolsWrapped(c *fiber.Ctx) error {
	return c.JSON(ToolsResponse{Tools: s.registry.List()})
}

// handleToolsCall invokes a tool named in the request body.
func (s *Server) handleToolsCall(c *fiber.Ctx) error {
	var req CallRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if req.Tool == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "tool name is required"})
	}

	return s.invoke(c, req.Tool, req.Args)
}

// handleMCPToolCall invokes a tool named in the path, with the request body
// as the argument bundle.
func (s *Server) handleMCPToolCall(c *fiber.Ctx) error {
	name := c.Params("tool")

	args := map[string]any{}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&args); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
		}
	}

	return s.invoke(c, name, args)
}

// invoke dispatches to the registry and maps errors onto HTTP statuses:
// validation failures are the caller's fault (400), unknown tools are 404,
// anything else — including store failures — surfaces as 500 with the error
// text intact.
func (s *Server) invoke(c *fiber.Ctx, name string, args map[string]any) error {
	result, err := s.registry.Call(c.Context(), name, args)
	if err != nil {
		var validationErr memory.ValidationError
		if errors.As(err, &validationErr) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		}

		var unknownErr UnknownToolError
		if errors.As(err, &unknownErr) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: err.Error()})
		}

		s.logger.Error("tool invocation failed",
			zap.String("tool", name),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	return c.JSON(result)
}
