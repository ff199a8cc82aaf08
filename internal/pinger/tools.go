package pinger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jamesprial/pi-monitor/internal/safety"
	"github.com/jamesprial/pi-monitor/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// PingTools returns the website_ping tool. websites is the default target
// list used when a call names no URLs.
func PingTools(p *Pinger, websites []string, audit *safety.AuditLogger) []tools.Registration {
	return []tools.Registration{
		websitePing(p, websites, audit),
	}
}

func websitePing(p *Pinger, websites []string, audit *safety.AuditLogger) tools.Registration {
	const toolName = "website_ping"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("GET each website and report its HTTP status. Only 200 and 303 count as healthy. No email is sent."),
		mcp.WithString("urls",
			mcp.Description("Comma-separated URLs to check. Defaults to the configured websites."),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		urls := splitURLs(req.GetString("urls", ""))
		if len(urls) == 0 {
			urls = websites
		}
		params := map[string]any{"urls": urls}
		if len(urls) == 0 {
			tools.LogAudit(audit, toolName, params, "error: no urls", start)
			return tools.ErrorResult("no URLs given and no websites configured"), nil
		}

		results := p.Check(ctx, urls)
		failed := 0
		for _, r := range results {
			if !r.OK() {
				failed++
			}
		}

		tools.LogAudit(audit, toolName, params, fmt.Sprintf("ok: %d/%d failed", failed, len(results)), start)
		return tools.JSONResult(results), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func splitURLs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
