package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/papercomputeco/recall/pkg/eventstream"
)

var (
	scoreRelevanceToolName    = "score-relevance"
	scoreRelevanceDescription = "Recompute the relevance score of every archived fragment in a conversation against the given current context. Scores are lexical (Jaccard) similarity in [0,1] and are persisted per fragment."
)

// ScoreRelevanceInput represents the input arguments for the score-relevance tool.
type ScoreRelevanceInput struct {
	ConversationID string `json:"conversationId" jsonschema:"conversation whose fragments get rescored"`
	CurrentContext string `json:"currentContext" jsonschema:"text to score fragments against"`
	LLM            string `json:"llm" jsonschema:"identifier of the originating client"`
}

// ScoreRelevanceOutput represents the output of the score-relevance tool.
type ScoreRelevanceOutput struct {
	Scored int `json:"scored"`
}

// handleScoreRelevance rescores one conversation.
func (s *Server) handleScoreRelevance(ctx context.Context, _ *mcp.CallToolRequest, input ScoreRelevanceInput) (*mcp.CallToolResult, ScoreRelevanceOutput, error) {
	n, err := s.config.Service.ScoreRelevance(ctx, input.ConversationID, input.CurrentContext, input.LLM)
	if err != nil {
		return errorResult("Failed to score relevance: %v", err), ScoreRelevanceOutput{}, nil
	}

	s.config.Logger.Debug("MCP score-relevance",
		zap.String("conversationId", input.ConversationID),
		zap.Int("scored", n),
	)
	s.publish(ctx, eventstream.EventTypeRelevanceScored, input.ConversationID, input.LLM, map[string]any{
		"scored": n,
	})

	output := ScoreRelevanceOutput{Scored: n}
	result, err := textResult(output)
	if err != nil {
		return errorResult("Failed to serialize results: %v", err), ScoreRelevanceOutput{}, nil
	}
	return result, output, nil
}
