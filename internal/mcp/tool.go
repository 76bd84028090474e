package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func inputSchema(properties map[string]any, required ...string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// addTool registers fn under tool. Arguments are decoded into In; failures
// are reported as tool errors so the calling model can correct itself.
func addTool[In any](s *Server, tool *sdk.Tool, fn func(ctx context.Context, in In) (any, error)) {
	s.srv.AddTool(tool, func(ctx context.Context, req *sdk.CallToolRequest) (*sdk.CallToolResult, error) {
		start := time.Now()

		var in In
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &in); err != nil {
				return toolError(fmt.Errorf("invalid arguments: %w", err)), nil
			}
		}

		out, err := fn(ctx, in)
		if err != nil {
			s.logger.Warn("tool.error", "tool", tool.Name, "elapsed_ms", time.Since(start).Milliseconds(), "error", err)
			return toolError(err), nil
		}

		data, err := json.Marshal(out)
		if err != nil {
			return toolError(fmt.Errorf("marshal: %w", err)), nil
		}

		s.logger.Info("tool.ok", "tool", tool.Name, "elapsed_ms", time.Since(start).Milliseconds())
		return &sdk.CallToolResult{
			Content: []sdk.Content{&sdk.TextContent{Text: string(data)}},
		}, nil
	})
}

func toolError(err error) *sdk.CallToolResult {
	var res sdk.CallToolResult
	res.SetError(err)
	return &res
}
