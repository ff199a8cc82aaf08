package pause

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/jamesprial/pi-monitor/internal/safety"
	"github.com/jamesprial/pi-monitor/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// DestructiveTools lists the pause tools that require a confirmation token.
var DestructiveTools = []string{"alert_pause"}

// PauseTools returns the MCP tools that inspect and change the pause window.
// now may be nil, in which case time.Now is used.
func PauseTools(store Store, confirm *safety.ConfirmationTracker, audit *safety.AuditLogger, now func() time.Time) []tools.Registration {
	if now == nil {
		now = time.Now
	}
	return []tools.Registration{
		alertStatus(store, audit, now),
		alertPause(store, confirm, audit, now),
	}
}

func alertStatus(store Store, audit *safety.AuditLogger, now func() time.Time) tools.Registration {
	const toolName = "alert_status"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Report whether alert emails are currently active or suppressed by a pause window."),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		w, err := store.Load()
		if err != nil {
			tools.LogAudit(audit, toolName, nil, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		status := StatusAt(w, now())
		tools.LogAudit(audit, toolName, nil, string(status.State), start)
		return tools.JSONResult(status), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func alertPause(store Store, confirm *safety.ConfirmationTracker, audit *safety.AuditLogger, now func() time.Time) tools.Registration {
	const toolName = "alert_pause"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Suppress alert emails for the given number of minutes from now. Zero lifts an active pause. Requires confirmation."),
		mcp.WithNumber("minutes",
			mcp.Required(),
			mcp.Description("Minutes to suppress alerts for"),
		),
		mcp.WithString("confirmation_token",
			mcp.Description("Confirmation token returned by a prior call to this tool"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		raw := req.GetFloat("minutes", -1)
		token := req.GetString("confirmation_token", "")
		params := map[string]any{"minutes": raw}

		minutes, ok := wholeMinutes(raw)
		if !ok {
			tools.LogAudit(audit, toolName, params, "error: invalid minutes", start)
			return tools.ErrorResult(fmt.Sprintf("minutes must be a non-negative integer, got %v", raw)), nil
		}

		subject := strconv.Itoa(minutes)
		if confirm.NeedsConfirmation(toolName) && !confirm.Confirm(token, toolName, subject) {
			desc := fmt.Sprintf("Alert emails will be suppressed for %d minutes.", minutes)
			return tools.ConfirmPrompt(confirm, toolName, subject, desc), nil
		}

		w, err := NewWindow(now(), minutes)
		if err != nil {
			tools.LogAudit(audit, toolName, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}
		if err := store.Save(w); err != nil {
			tools.LogAudit(audit, toolName, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, toolName, params, "ok", start)
		return tools.JSONResult(StatusAt(&w, now())), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

// wholeMinutes accepts non-negative integral values that fit in an int.
func wholeMinutes(v float64) (int, bool) {
	if v < 0 || v != math.Trunc(v) || v >= 1<<53 || v > math.MaxInt {
		return 0, false
	}
	return int(v), true
}
