// Package tools provides shared helper utilities for MCP tool handlers.
package tools

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jamesprial/pi-monitor/internal/safety"
	"github.com/mark3labs/mcp-go/mcp"
)

// JSONResult marshals v to indented JSON and returns an mcp.CallToolResult.
func JSONResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("error marshaling result: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}

// ErrorResult returns a tool result flagged as an error.
func ErrorResult(msg string) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("error: %s", msg))
}

// LogAudit records an MCP tool invocation, ignoring a nil logger.
func LogAudit(audit *safety.AuditLogger, toolName string, params map[string]any, result string, start time.Time) {
	audit.Record(safety.SourceMCP, toolName, "", params, result, start)
}

// ConfirmPrompt issues a confirmation token for toolName on subject and
// returns the instructions telling the client how to proceed.
func ConfirmPrompt(confirm *safety.ConfirmationTracker, toolName, subject, description string) *mcp.CallToolResult {
	token := confirm.RequestConfirmation(toolName, subject)
	return mcp.NewToolResultText(fmt.Sprintf(
		"Confirmation required for %s (%s).\n\n%s\n\nTo proceed, call %s again with the same arguments and confirmation_token=%q.",
		toolName, subject, description, toolName, token,
	))
}
