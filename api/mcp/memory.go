package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/papercomputeco/recall/pkg/eventstream"
	"github.com/papercomputeco/recall/pkg/memory"
)

var (
	saveMemoriesToolName    = "save-memories"
	saveMemoriesDescription = "Replace all stored memories with a new batch. The ledger is cleared first, so the given memories become the one current snapshot."

	addMemoriesToolName    = "add-memories"
	addMemoriesDescription = "Append a batch of memories to the ledger without clearing existing ones."

	getMemoriesToolName    = "get-memories"
	getMemoriesDescription = "Return every stored memory batch, newest first."

	clearMemoriesToolName    = "clear-memories"
	clearMemoriesDescription = "Delete every stored memory batch. Returns the number deleted; clearing an empty ledger is not an error."
)

// SaveMemoriesInput represents the input arguments for the save-memories tool.
type SaveMemoriesInput struct {
	Memories []string `json:"memories" jsonschema:"the memories to store as the new snapshot"`
	LLM      string   `json:"llm" jsonschema:"identifier of the originating client"`
	UserID   string   `json:"userId,omitempty" jsonschema:"optional user identifier"`
}

// SaveMemoriesOutput represents the output of save-memories and add-memories.
type SaveMemoriesOutput struct {
	Count int `json:"count"`
}

// GetMemoriesInput represents the (empty) input of the get-memories tool.
type GetMemoriesInput struct{}

// GetMemoriesOutput represents the output of the get-memories tool.
type GetMemoriesOutput struct {
	Memories []*memory.MemoryRecord `json:"memories"`
	Count    int                    `json:"count"`
}

// ClearMemoriesInput represents the (empty) input of the clear-memories tool.
type ClearMemoriesInput struct{}

// ClearMemoriesOutput represents the output of the clear-memories tool.
type ClearMemoriesOutput struct {
	Cleared int64 `json:"cleared"`
}

// handleSaveMemories clears the ledger and writes the new snapshot.
func (s *Server) handleSaveMemories(ctx context.Context, _ *mcp.CallToolRequest, input SaveMemoriesInput) (*mcp.CallToolResult, SaveMemoriesOutput, error) {
	if _, err := s.config.Service.ClearAllMemories(ctx); err != nil {
		s.config.Logger.Error("failed to clear ledger before save", zap.Error(err))
		return errorResult("Failed to save memories: %v", err), SaveMemoriesOutput{}, nil
	}

	if err := s.config.Service.SaveMemories(ctx, input.Memories, input.LLM, input.UserID); err != nil {
		return errorResult("Failed to save memories: %v", err), SaveMemoriesOutput{}, nil
	}

	s.publish(ctx, eventstream.EventTypeMemorySaved, "", input.LLM, map[string]any{
		"count": len(input.Memories),
		"mode":  "save",
	})

	output := SaveMemoriesOutput{Count: len(input.Memories)}
	result, err := textResult(output)
	if err != nil {
		return errorResult("Failed to serialize results: %v", err), SaveMemoriesOutput{}, nil
	}
	return result, output, nil
}

// handleAddMemories appends a batch without clearing.
func (s *Server) handleAddMemories(ctx context.Context, _ *mcp.CallToolRequest, input SaveMemoriesInput) (*mcp.CallToolResult, SaveMemoriesOutput, error) {
	if err := s.config.Service.AddMemories(ctx, input.Memories, input.LLM, input.UserID); err != nil {
		return errorResult("Failed to add memories: %v", err), SaveMemoriesOutput{}, nil
	}

	s.publish(ctx, eventstream.EventTypeMemorySaved, "", input.LLM, map[string]any{
		"count": len(input.Memories),
		"mode":  "add",
	})

	output := SaveMemoriesOutput{Count: len(input.Memories)}
	result, err := textResult(output)
	if err != nil {
		return errorResult("Failed to serialize results: %v", err), SaveMemoriesOutput{}, nil
	}
	return result, output, nil
}

// handleGetMemories lists the ledger, newest first.
func (s *Server) handleGetMemories(ctx context.Context, _ *mcp.CallToolRequest, _ GetMemoriesInput) (*mcp.CallToolResult, GetMemoriesOutput, error) {
	recs, err := s.config.Service.GetAllMemories(ctx)
	if err != nil {
		return errorResult("Failed to get memories: %v", err), GetMemoriesOutput{}, nil
	}

	output := GetMemoriesOutput{Memories: recs, Count: len(recs)}
	result, err := textResult(output)
	if err != nil {
		return errorResult("Failed to serialize results: %v", err), GetMemoriesOutput{}, nil
	}
	return result, output, nil
}

// handleClearMemories wipes the ledger.
func (s *Server) handleClearMemories(ctx context.Context, _ *mcp.CallToolRequest, _ ClearMemoriesInput) (*mcp.CallToolResult, ClearMemoriesOutput, error) {
	n, err := s.config.Service.ClearAllMemories(ctx)
	if err != nil {
		return errorResult("Failed to clear memories: %v", err), ClearMemoriesOutput{}, nil
	}

	s.publish(ctx, eventstream.EventTypeMemoryCleared, "", "", map[string]any{
		"cleared": n,
	})

	output := ClearMemoriesOutput{Cleared: n}
	result, err := textResult(output)
	if err != nil {
		return errorResult("Failed to serialize results: %v", err), ClearMemoriesOutput{}, nil
	}
	return result, output, nil
}
