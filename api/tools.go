package api

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/recall/pkg/eventstream"
	"github.com/papercomputeco/recall/pkg/memory"
)

// Tool names. The kebab-case spelling is load-bearing: existing clients
// discover and invoke tools by these exact strings.
const (
	ToolSaveMemories        = "save-memories"
	ToolAddMemories         = "add-memories"
	ToolGetMemories         = "get-memories"
	ToolClearMemories       = "clear-memories"
	ToolArchiveContext      = "archive-context"
	ToolRetrieveContext     = "retrieve-context"
	ToolSearchContextByTags = "search-context-by-tags"
	ToolScoreRelevance      = "score-relevance"
	ToolCreateSummary       = "create-summary"
	ToolGetSummaries        = "get-summaries"
)

// ToolHandler executes one tool against a decoded argument bundle.
type ToolHandler func(ctx context.Context, args map[string]any) (any, error)

// Tool is one entry in the registry: the descriptor served by every
// discovery alias plus the handler behind it.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`

	handler ToolHandler
}

// Registry holds every tool, in a stable order for discovery payloads. The
// same table drives REST dispatch, the discovery aliases, the SSE tool
// announcement, and mirrors what the MCP server registers.
type Registry struct {
	tools []Tool

	// byName maps a tool name to its index in tools. Indexes stay valid
	// across the appends in NewRegistry; pointers into the slice would not.
	byName map[string]int
}

// UnknownToolError is returned by Call for names not in the registry.
type UnknownToolError struct {
	Name string
}

func (e UnknownToolError) Error() string {
	return "unknown tool: " + e.Name
}

// NewRegistry builds the tool table over the memory service. Events are
// published to the given publisher after each successful write; pass a nop
// publisher to disable.
func NewRegistry(svc *memory.Service, events eventstream.Publisher) *Registry {
	r := &Registry{byName: make(map[string]int)}

	r.add(Tool{
		Name:        ToolSaveMemories,
		Description: "Replace all stored memories with a new batch. Clears the ledger first, then writes the given memories as the current snapshot.",
		InputSchema: objectSchema(map[string]any{
			"memories": arraySchema("string", "memories to store"),
			"llm":      stringSchema("identifier of the originating client"),
			"userId":   stringSchema("optional user identifier"),
		}, "memories", "llm"),
		handler: func(ctx context.Context, args map[string]any) (any, error) {
			memories, err := stringSliceArg(args, "memories", true)
			if err != nil {
				return nil, err
			}
			llm, err := stringArg(args, "llm", true)
			if err != nil {
				return nil, err
			}
			userID, err := stringArg(args, "userId", false)
			if err != nil {
				return nil, err
			}

			// Overwrite semantics live here, not in the engine: clear first,
			// then write the batch as the one current snapshot.
			if _, err := svc.ClearAllMemories(ctx); err != nil {
				return nil, err
			}
			if err := svc.SaveMemories(ctx, memories, llm, userID); err != nil {
				return nil, err
			}

			publish(ctx, events, eventstream.EventTypeMemorySaved, "", llm, map[string]any{
				"count": len(memories),
				"mode":  "save",
			})
			return map[string]any{"saved": len(memories)}, nil
		},
	})

	r.add(Tool{
		Name:        ToolAddMemories,
		Description: "Append a batch of memories to the ledger without clearing existing ones.",
		InputSchema: objectSchema(map[string]any{
			"memories": arraySchema("string", "memories to append"),
			"llm":      stringSchema("identifier of the originating client"),
			"userId":   stringSchema("optional user identifier"),
		}, "memories", "llm"),
		handler: func(ctx context.Context, args map[string]any) (any, error) {
			memories, err := stringSliceArg(args, "memories", true)
			if err != nil {
				return nil, err
			}
			llm, err := stringArg(args, "llm", true)
			if err != nil {
				return nil, err
			}
			userID, err := stringArg(args, "userId", false)
			if err != nil {
				return nil, err
			}

			if err := svc.AddMemories(ctx, memories, llm, userID); err != nil {
				return nil, err
			}

			publish(ctx, events, eventstream.EventTypeMemorySaved, "", llm, map[string]any{
				"count": len(memories),
				"mode":  "add",
			})
			return map[string]any{"added": len(memories)}, nil
		},
	})

	r.add(Tool{
		Name:        ToolGetMemories,
		Description: "Return every stored memory batch, newest first.",
		InputSchema: objectSchema(map[string]any{}),
		handler: func(ctx context.Context, _ map[string]any) (any, error) {
			recs, err := svc.GetAllMemories(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{"memories": recs, "count": len(recs)}, nil
		},
	})

	r.add(Tool{
		Name:        ToolClearMemories,
		Description: "Delete every stored memory batch. Returns the number deleted; clearing an empty ledger is not an error.",
		InputSchema: objectSchema(map[string]any{}),
		handler: func(ctx context.Context, _ map[string]any) (any, error) {
			n, err := svc.ClearAllMemories(ctx)
			if err != nil {
				return nil, err
			}

			publish(ctx, events, eventstream.EventTypeMemoryCleared, "", "", map[string]any{
				"cleared": n,
			})
			return map[string]any{"cleared": n}, nil
		},
	})

	r.add(Tool{
		Name:        ToolArchiveContext,
		Description: "Archive a batch of conversation messages as tagged context fragments. Fragments keep their batch order and share the given tags.",
		InputSchema: objectSchema(map[string]any{
			"conversationId":  stringSchema("conversation the messages belong to"),
			"contextMessages": arraySchema("string", "messages to archive, in order"),
			"tags":            arraySchema("string", "tags shared by every fragment in the batch"),
			"llm":             stringSchema("identifier of the originating client"),
			"userId":          stringSchema("optional user identifier"),
		}, "conversationId", "contextMessages", "tags", "llm"),
		handler: func(ctx context.Context, args map[string]any) (any, error) {
			conversationID, err := stringArg(args, "conversationId", true)
			if err != nil {
				return nil, err
			}
			messages, err := stringSliceArg(args, "contextMessages", true)
			if err != nil {
				return nil, err
			}
			tags, err := stringSliceArg(args, "tags", true)
			if err != nil {
				return nil, err
			}
			llm, err := stringArg(args, "llm", true)
			if err != nil {
				return nil, err
			}
			userID, err := stringArg(args, "userId", false)
			if err != nil {
				return nil, err
			}

			n, err := svc.ArchiveContext(ctx, conversationID, messages, tags, llm, userID)
			if err != nil {
				return nil, err
			}

			publish(ctx, events, eventstream.EventTypeContextArchived, conversationID, llm, map[string]any{
				"archived": n,
				"tags":     tags,
			})
			return map[string]any{"archived": n}, nil
		},
	})

	r.add(Tool{
		Name:        ToolRetrieveContext,
		Description: "Retrieve archived context fragments of a conversation, filtered by minimum relevance score and optional tags, best matches first.",
		InputSchema: objectSchema(map[string]any{
			"conversationId":    stringSchema("conversation to retrieve from"),
			"tags":              arraySchema("string", "optional tags; fragments must share at least one"),
			"minRelevanceScore": numberSchema("minimum relevance score between 0 and 1 (default 0.1)"),
			"limit":             numberSchema("maximum results between 1 and 50 (default 10)"),
		}, "conversationId"),
		handler: func(ctx context.Context, args map[string]any) (any, error) {
			conversationID, err := stringArg(args, "conversationId", true)
			if err != nil {
				return nil, err
			}
			tags, err := stringSliceArg(args, "tags", false)
			if err != nil {
				return nil, err
			}
			minScore, err := floatArg(args, "minRelevanceScore", memory.DefaultMinScore)
			if err != nil {
				return nil, err
			}
			limit, err := intArg(args, "limit", memory.DefaultRetrieveLimit)
			if err != nil {
				return nil, err
			}

			items, err := svc.RetrieveContext(ctx, conversationID, tags, minScore, limit)
			if err != nil {
				return nil, err
			}
			return map[string]any{"items": items, "count": len(items)}, nil
		},
	})

	r.add(Tool{
		Name:        ToolSearchContextByTags,
		Description: "Search context items across all conversations by tag. Returns archived fragments and summaries sharing at least one of the given tags.",
		InputSchema: objectSchema(map[string]any{
			"tags": arraySchema("string", "tags to search for"),
		}, "tags"),
		handler: func(ctx context.Context, args map[string]any) (any, error) {
			tags, err := stringSliceArg(args, "tags", true)
			if err != nil {
				return nil, err
			}

			items, err := svc.SearchContextByTags(ctx, tags)
			if err != nil {
				return nil, err
			}
			return map[string]any{"items": items, "count": len(items)}, nil
		},
	})

	r.add(Tool{
		Name:        ToolScoreRelevance,
		Description: "Recompute the relevance score of every archived fragment in a conversation against the given current context, persisting each score.",
		InputSchema: objectSchema(map[string]any{
			"conversationId": stringSchema("conversation whose fragments get rescored"),
			"currentContext": stringSchema("text to score fragments against"),
			"llm":            stringSchema("identifier of the originating client"),
		}, "conversationId", "currentContext", "llm"),
		handler: func(ctx context.Context, args map[string]any) (any, error) {
			conversationID, err := stringArg(args, "conversationId", true)
			if err != nil {
				return nil, err
			}
			currentContext, err := stringArg(args, "currentContext", false)
			if err != nil {
				return nil, err
			}
			if _, ok := args["currentContext"]; !ok {
				return nil, memory.ValidationError{Field: "currentContext", Reason: "must be a string"}
			}
			llm, err := stringArg(args, "llm", true)
			if err != nil {
				return nil, err
			}

			n, err := svc.ScoreRelevance(ctx, conversationID, currentContext, llm)
			if err != nil {
				return nil, err
			}

			publish(ctx, events, eventstream.EventTypeRelevanceScored, conversationID, llm, map[string]any{
				"scored": n,
			})
			return map[string]any{"scored": n}, nil
		},
	})

	r.add(Tool{
		Name:        ToolCreateSummary,
		Description: "Create a summary item from the given context fragments and relink those fragments to point at it.",
		InputSchema: objectSchema(map[string]any{
			"conversationId": stringSchema("conversation the summary belongs to"),
			"contextItems":   arraySchema("object", "source fragments; each must carry its id"),
			"summaryText":    stringSchema("the summary text"),
			"llm":            stringSchema("identifier of the originating client"),
			"userId":         stringSchema("optional user identifier"),
		}, "conversationId", "contextItems", "summaryText", "llm"),
		handler: func(ctx context.Context, args map[string]any) (any, error) {
			conversationID, err := stringArg(args, "conversationId", true)
			if err != nil {
				return nil, err
			}
			items, err := contextItemsArg(args, "contextItems")
			if err != nil {
				return nil, err
			}
			summaryText, err := stringArg(args, "summaryText", true)
			if err != nil {
				return nil, err
			}
			llm, err := stringArg(args, "llm", true)
			if err != nil {
				return nil, err
			}
			userID, err := stringArg(args, "userId", false)
			if err != nil {
				return nil, err
			}

			summaryID, err := svc.CreateSummary(ctx, conversationID, items, summaryText, llm, userID)
			if err != nil {
				return nil, err
			}

			publish(ctx, events, eventstream.EventTypeSummaryCreated, conversationID, llm, map[string]any{
				"summaryId": summaryID,
				"sources":   len(items),
			})
			return map[string]any{"summaryId": summaryID}, nil
		},
	})

	r.add(Tool{
		Name:        ToolGetSummaries,
		Description: "Return every summary of a conversation, newest first.",
		InputSchema: objectSchema(map[string]any{
			"conversationId": stringSchema("conversation to list summaries for"),
		}, "conversationId"),
		handler: func(ctx context.Context, args map[string]any) (any, error) {
			conversationID, err := stringArg(args, "conversationId", true)
			if err != nil {
				return nil, err
			}

			items, err := svc.GetConversationSummaries(ctx, conversationID)
			if err != nil {
				return nil, err
			}
			return map[string]any{"summaries": items, "count": len(items)}, nil
		},
	})

	return r
}

func (r *Registry) add(t Tool) {
	r.byName[t.Name] = len(r.tools)
	r.tools = append(r.tools, t)
}

// List returns the tool descriptors in registration order.
func (r *Registry) List() []Tool {
	return r.tools
}

// Call dispatches to a tool by name.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (any, error) {
	idx, ok := r.byName[name]
	if !ok {
		return nil, UnknownToolError{Name: name}
	}
	if args == nil {
		args = map[string]any{}
	}
	return r.tools[idx].handler(ctx, args)
}

// publish emits a memory event, ignoring publisher errors: event delivery is
// best-effort and never fails the request that triggered it.
func publish(ctx context.Context, events eventstream.Publisher, eventType, conversationID, llm string, data map[string]any) {
	if events == nil {
		return
	}
	_ = events.PublishMemory(ctx, &eventstream.MemoryEvent{
		SchemaVersion:  eventstream.SchemaVersionV1,
		EventType:      eventType,
		EventID:        uuid.NewString(),
		EmittedAt:      time.Now().UTC(),
		ConversationID: conversationID,
		LLM:            llm,
		Data:           data,
	})
}

// Schema builder helpers. The descriptors are plain maps because every
// discovery alias serves them as raw JSON.

func objectSchema(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringSchema(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func numberSchema(description string) map[string]any {
	return map[string]any{"type": "number", "description": description}
}

func arraySchema(itemType, description string) map[string]any {
	return map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": itemType},
		"description": description,
	}
}

// Argument decoding. Tool arguments arrive as a JSON object; every helper
// returns memory.ValidationError on a type mismatch so no store work happens
// on malformed input.

func stringArg(args map[string]any, key string, required bool) (string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		if required {
			return "", memory.ValidationError{Field: key, Reason: "must be a non-empty string"}
		}
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", memory.ValidationError{Field: key, Reason: fmt.Sprintf("must be a string, got %T", raw)}
	}
	if required && s == "" {
		return "", memory.ValidationError{Field: key, Reason: "must be a non-empty string"}
	}
	return s, nil
}

func stringSliceArg(args map[string]any, key string, required bool) ([]string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		if required {
			return nil, memory.ValidationError{Field: key, Reason: "must be an array of strings"}
		}
		return nil, nil
	}

	list, ok := raw.([]any)
	if !ok {
		// Already-typed slices show up when handlers are called in process.
		if typed, ok := raw.([]string); ok {
			return typed, nil
		}
		return nil, memory.ValidationError{Field: key, Reason: fmt.Sprintf("must be an array of strings, got %T", raw)}
	}

	out := make([]string, len(list))
	for i, el := range list {
		s, ok := el.(string)
		if !ok {
			return nil, memory.ValidationError{Field: key, Reason: fmt.Sprintf("element %d must be a string, got %T", i, el)}
		}
		out[i] = s
	}
	return out, nil
}

func floatArg(args map[string]any, key string, def float64) (float64, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, memory.ValidationError{Field: key, Reason: fmt.Sprintf("must be a number, got %T", raw)}
	}
}

func intArg(args map[string]any, key string, def int) (int, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, memory.ValidationError{Field: key, Reason: "must be an integer"}
		}
		return int(v), nil
	case int:
		return v, nil
	default:
		return 0, memory.ValidationError{Field: key, Reason: fmt.Sprintf("must be an integer, got %T", raw)}
	}
}

// contextItemsArg decodes the create-summary source list. Only the id of each
// element matters for relinking; elements without an id are kept (the engine
// skips them) but elements of the wrong shape are rejected.
func contextItemsArg(args map[string]any, key string) ([]*memory.ContextItem, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, memory.ValidationError{Field: key, Reason: "must be an array of context items"}
	}

	list, ok := raw.([]any)
	if !ok {
		return nil, memory.ValidationError{Field: key, Reason: fmt.Sprintf("must be an array of context items, got %T", raw)}
	}

	items := make([]*memory.ContextItem, len(list))
	for i, el := range list {
		obj, ok := el.(map[string]any)
		if !ok {
			return nil, memory.ValidationError{Field: key, Reason: fmt.Sprintf("element %d must be an object, got %T", i, el)}
		}

		item := &memory.ContextItem{}
		if rawID, ok := obj["id"]; ok && rawID != nil {
			id, ok := rawID.(string)
			if !ok {
				return nil, memory.ValidationError{Field: key, Reason: fmt.Sprintf("element %d id must be a string, got %T", i, rawID)}
			}
			item.ID = id
		}
		items[i] = item
	}
	return items, nil
}
