package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/papercomputeco/recall/pkg/eventstream"
	"github.com/papercomputeco/recall/pkg/memory"
)

var (
	archiveContextToolName    = "archive-context"
	archiveContextDescription = "Archive a batch of conversation messages as tagged context fragments. Fragments keep their batch order and share the given tags."

	retrieveContextToolName    = "retrieve-context"
	retrieveContextDescription = "Retrieve archived context fragments of a conversation filtered by minimum relevance score and optional tags, best matches first. Fragments that were never scored are excluded."

	searchByTagsToolName    = "search-context-by-tags"
	searchByTagsDescription = "Search context items across all conversations by tag. Returns archived fragments and summaries sharing at least one of the given tags."
)

// ArchiveContextInput represents the input arguments for the archive-context tool.
type ArchiveContextInput struct {
	ConversationID  string   `json:"conversationId" jsonschema:"conversation the messages belong to"`
	ContextMessages []string `json:"contextMessages" jsonschema:"messages to archive, in order"`
	Tags            []string `json:"tags" jsonschema:"tags shared by every fragment in the batch"`
	LLM             string   `json:"llm" jsonschema:"identifier of the originating client"`
	UserID          string   `json:"userId,omitempty" jsonschema:"optional user identifier"`
}

// ArchiveContextOutput represents the output of the archive-context tool.
type ArchiveContextOutput struct {
	Archived int `json:"archived"`
}

// RetrieveContextInput represents the input arguments for the retrieve-context tool.
type RetrieveContextInput struct {
	ConversationID    string   `json:"conversationId" jsonschema:"conversation to retrieve from"`
	Tags              []string `json:"tags,omitempty" jsonschema:"optional tags; fragments must share at least one"`
	MinRelevanceScore *float64 `json:"minRelevanceScore,omitempty" jsonschema:"minimum relevance score between 0 and 1 (default 0.1)"`
	Limit             int      `json:"limit,omitempty" jsonschema:"maximum results between 1 and 50 (default 10)"`
}

// RetrieveContextOutput represents the output of retrieve-context and
// search-context-by-tags.
type RetrieveContextOutput struct {
	Items []*memory.ContextItem `json:"items"`
	Count int                   `json:"count"`
}

// SearchByTagsInput represents the input arguments for the search-context-by-tags tool.
type SearchByTagsInput struct {
	Tags []string `json:"tags" jsonschema:"tags to search for"`
}

// handleArchiveContext archives one batch of messages.
func (s *Server) handleArchiveContext(ctx context.Context, _ *mcp.CallToolRequest, input ArchiveContextInput) (*mcp.CallToolResult, ArchiveContextOutput, error) {
	n, err := s.config.Service.ArchiveContext(ctx, input.ConversationID, input.ContextMessages, input.Tags, input.LLM, input.UserID)
	if err != nil {
		return errorResult("Failed to archive context: %v", err), ArchiveContextOutput{}, nil
	}

	s.config.Logger.Debug("MCP archive-context",
		zap.String("conversationId", input.ConversationID),
		zap.Int("archived", n),
	)
	s.publish(ctx, eventstream.EventTypeContextArchived, input.ConversationID, input.LLM, map[string]any{
		"archived": n,
		"tags":     input.Tags,
	})

	output := ArchiveContextOutput{Archived: n}
	result, err := textResult(output)
	if err != nil {
		return errorResult("Failed to serialize results: %v", err), ArchiveContextOutput{}, nil
	}
	return result, output, nil
}

// handleRetrieveContext retrieves relevance-filtered fragments.
func (s *Server) handleRetrieveContext(ctx context.Context, _ *mcp.CallToolRequest, input RetrieveContextInput) (*mcp.CallToolResult, RetrieveContextOutput, error) {
	minScore := memory.DefaultMinScore
	if input.MinRelevanceScore != nil {
		minScore = *input.MinRelevanceScore
	}

	limit := input.Limit
	if limit == 0 {
		limit = memory.DefaultRetrieveLimit
	}

	items, err := s.config.Service.RetrieveContext(ctx, input.ConversationID, input.Tags, minScore, limit)
	if err != nil {
		return errorResult("Failed to retrieve context: %v", err), RetrieveContextOutput{}, nil
	}

	output := RetrieveContextOutput{Items: items, Count: len(items)}
	result, err := textResult(output)
	if err != nil {
		return errorResult("Failed to serialize results: %v", err), RetrieveContextOutput{}, nil
	}
	return result, output, nil
}

// handleSearchByTags searches across conversations.
func (s *Server) handleSearchByTags(ctx context.Context, _ *mcp.CallToolRequest, input SearchByTagsInput) (*mcp.CallToolResult, RetrieveContextOutput, error) {
	items, err := s.config.Service.SearchContextByTags(ctx, input.Tags)
	if err != nil {
		return errorResult("Failed to search context: %v", err), RetrieveContextOutput{}, nil
	}

	output := RetrieveContextOutput{Items: items, Count: len(items)}
	result, err := textResult(output)
	if err != nil {
		return errorResult("Failed to serialize results: %v", err), RetrieveContextOutput{}, nil
	}
	return result, output, nil
}
