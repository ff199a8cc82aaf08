package system

import (
	"context"
	"time"

	"github.com/jamesprial/pi-monitor/internal/safety"
	"github.com/jamesprial/pi-monitor/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SystemTools returns the read-only MCP tools backed by reader.
func SystemTools(reader SnapshotReader, audit *safety.AuditLogger) []tools.Registration {
	return []tools.Registration{
		systemSnapshot(reader, audit),
	}
}

func systemSnapshot(reader SnapshotReader, audit *safety.AuditLogger) tools.Registration {
	const toolName = "system_snapshot"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Read the host's current 15-minute CPU load average, RAM usage (MB), SoC temperature (C) and disk usage (GB)."),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		snap, err := reader.ReadSystem(ctx)
		if err != nil {
			tools.LogAudit(audit, toolName, nil, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, toolName, nil, "ok", start)
		return tools.JSONResult(snap), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
