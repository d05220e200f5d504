package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/recall/pkg/eventstream"
	"github.com/papercomputeco/recall/pkg/memory"
)

var (
	createSummaryToolName    = "create-summary"
	createSummaryDescription = "Create a summary item from the given context fragments and relink those fragments to point at it. Fragments without an id are skipped."

	getSummariesToolName    = "get-summaries"
	getSummariesDescription = "Return every summary of a conversation, newest first."
)

// SummarySource identifies one source fragment for create-summary. Only the
// id matters for relinking.
type SummarySource struct {
	ID string `json:"id,omitempty" jsonschema:"id of an archived fragment to fold into the summary"`
}

// CreateSummaryInput represents the input arguments for the create-summary tool.
type CreateSummaryInput struct {
	ConversationID string          `json:"conversationId" jsonschema:"conversation the summary belongs to"`
	ContextItems   []SummarySource `json:"contextItems" jsonschema:"source fragments; each should carry its id"`
	SummaryText    string          `json:"summaryText" jsonschema:"the summary text"`
	LLM            string          `json:"llm" jsonschema:"identifier of the originating client"`
	UserID         string          `json:"userId,omitempty" jsonschema:"optional user identifier"`
}

// CreateSummaryOutput represents the output of the create-summary tool.
type CreateSummaryOutput struct {
	SummaryID string `json:"summaryId"`
}

// GetSummariesInput represents the input arguments for the get-summaries tool.
type GetSummariesInput struct {
	ConversationID string `json:"conversationId" jsonschema:"conversation to list summaries for"`
}

// GetSummariesOutput represents the output of the get-summaries tool.
type GetSummariesOutput struct {
	Summaries []*memory.ContextItem `json:"summaries"`
	Count     int                   `json:"count"`
}

// handleCreateSummary creates a summary and relinks its sources.
func (s *Server) handleCreateSummary(ctx context.Context, _ *mcp.CallToolRequest, input CreateSummaryInput) (*mcp.CallToolResult, CreateSummaryOutput, error) {
	var items []*memory.ContextItem
	if input.ContextItems != nil {
		items = make([]*memory.ContextItem, len(input.ContextItems))
		for i, src := range input.ContextItems {
			items[i] = &memory.ContextItem{ID: src.ID}
		}
	}

	summaryID, err := s.config.Service.CreateSummary(ctx, input.ConversationID, items, input.SummaryText, input.LLM, input.UserID)
	if err != nil {
		return errorResult("Failed to create summary: %v", err), CreateSummaryOutput{}, nil
	}

	s.publish(ctx, eventstream.EventTypeSummaryCreated, input.ConversationID, input.LLM, map[string]any{
		"summaryId": summaryID,
		"sources":   len(items),
	})

	output := CreateSummaryOutput{SummaryID: summaryID}
	result, err := textResult(output)
	if err != nil {
		return errorResult("Failed to serialize results: %v", err), CreateSummaryOutput{}, nil
	}
	return result, output, nil
}

// handleGetSummaries lists a conversation's summaries.
func (s *Server) handleGetSummaries(ctx context.Context, _ *mcp.CallToolRequest, input GetSummariesInput) (*mcp.CallToolResult, GetSummariesOutput, error) {
	items, err := s.config.Service.GetConversationSummaries(ctx, input.ConversationID)
	if err != nil {
		return errorResult("Failed to get summaries: %v", err), GetSummariesOutput{}, nil
	}

	output := GetSummariesOutput{Summaries: items, Count: len(items)}
	result, err := textResult(output)
	if err != nil {
		return errorResult("Failed to serialize results: %v", err), GetSummariesOutput{}, nil
	}
	return result, output, nil
}
