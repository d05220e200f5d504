// Package mcp provides an MCP (Model Context Protocol) server for the recall
// memory system.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/papercomputeco/recall/pkg/eventstream"
	"github.com/papercomputeco/recall/pkg/memory"
	"github.com/papercomputeco/recall/pkg/utils"
)

type Config struct {
	// Service is the memory engine every tool runs against
	Service *memory.Service

	// Events receives a memory event after each successful write (optional)
	Events eventstream.Publisher

	// Logger is the configured zap logger
	Logger *zap.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the full memory tool set.
func NewServer(c Config) (*Server, error) {
	if c.Service == nil {
		return nil, errors.New("memory service is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "recall",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	// Memory ledger tools
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        saveMemoriesToolName,
		Description: saveMemoriesDescription,
	}, s.handleSaveMemories)
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        addMemoriesToolName,
		Description: addMemoriesDescription,
	}, s.handleAddMemories)
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        getMemoriesToolName,
		Description: getMemoriesDescription,
	}, s.handleGetMemories)
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        clearMemoriesToolName,
		Description: clearMemoriesDescription,
	}, s.handleClearMemories)

	// Context archive tools
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        archiveContextToolName,
		Description: archiveContextDescription,
	}, s.handleArchiveContext)
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        retrieveContextToolName,
		Description: retrieveContextDescription,
	}, s.handleRetrieveContext)
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        searchByTagsToolName,
		Description: searchByTagsDescription,
	}, s.handleSearchByTags)

	// Relevance scoring
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        scoreRelevanceToolName,
		Description: scoreRelevanceDescription,
	}, s.handleScoreRelevance)

	// Summaries
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        createSummaryToolName,
		Description: createSummaryDescription,
	}, s.handleCreateSummary)
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        getSummariesToolName,
		Description: getSummariesDescription,
	}, s.handleGetSummaries)

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// publish emits a memory event. Best-effort: publish failures never fail the
// tool call that triggered them.
func (s *Server) publish(ctx context.Context, eventType, conversationID, llm string, data map[string]any) {
	if s.config.Events == nil {
		return
	}
	_ = s.config.Events.PublishMemory(ctx, &eventstream.MemoryEvent{
		SchemaVersion:  eventstream.SchemaVersionV1,
		EventType:      eventType,
		EventID:        uuid.NewString(),
		EmittedAt:      time.Now().UTC(),
		ConversationID: conversationID,
		LLM:            llm,
		Data:           data,
	})
}

// errorResult renders a tool failure as an MCP error result.
func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
	}
}

// textResult mirrors the structured output into a TextContent JSON blob.
// Per MCP spec: tools returning structured content should also return
// serialized JSON in a TextContent block for backwards compatibility.
func textResult(output any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return nil, fmt.Errorf("marshaling tool output: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, nil
}
