package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/jamesprial/pi-monitor/internal/pause"
	"github.com/jamesprial/pi-monitor/internal/safety"
	"github.com/jamesprial/pi-monitor/internal/system"
	"github.com/jamesprial/pi-monitor/internal/thresholds"
	"github.com/jamesprial/pi-monitor/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MonitorTools returns the threshold_check tool backed by cycle.
func MonitorTools(cycle *Cycle, audit *safety.AuditLogger) []tools.Registration {
	return []tools.Registration{
		thresholdCheck(cycle.WithSource(safety.SourceMCP), audit),
	}
}

// checkReport is the threshold_check response.
type checkReport struct {
	CycleID    string                 `json:"cycle_id"`
	Limits     thresholds.Limits      `json:"limits"`
	Snapshot   system.Snapshot        `json:"snapshot"`
	Violations []thresholds.Violation `json:"violations"`
	Alerts     pause.State            `json:"alerts"`
	Notified   bool                   `json:"notified"`
	NotifyErr  string                 `json:"notify_error,omitempty"`
}

func thresholdCheck(cycle *Cycle, audit *safety.AuditLogger) tools.Registration {
	const toolName = "threshold_check"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Read the host metrics and compare them with the configured thresholds. With notify=true, run a full monitoring cycle and email any violations unless alerts are paused."),
		mcp.WithBoolean("notify",
			mcp.Description("Send the alert email when violations are found and alerts are active (default false)"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		send := req.GetBool("notify", false)
		params := map[string]any{"notify": send}

		var (
			res *Result
			err error
		)
		if send {
			res, err = cycle.Run(ctx)
		} else {
			res, err = cycle.Check(ctx)
		}
		if err != nil {
			tools.LogAudit(audit, toolName, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		report := checkReport{
			CycleID:    res.CycleID,
			Limits:     cycle.Limits(),
			Snapshot:   res.Snapshot,
			Violations: res.Violations,
			Alerts:     pause.Active,
			Notified:   res.Notified,
		}
		if !res.Alerting {
			report.Alerts = pause.Suppressed
		}
		if res.NotifyErr != nil {
			report.NotifyErr = res.NotifyErr.Error()
		}

		tools.LogAudit(audit, toolName, params, fmt.Sprintf("ok: %d violations", len(res.Violations)), start)
		return tools.JSONResult(report), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
