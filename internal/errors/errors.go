// Package errors defines the error kinds shared across the monitoring cycle.
//
// Each kind has a sentinel (for errors.Is) and a typed error (for errors.As)
// carrying the details a log line or an operator needs.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Base error kinds
var (
	ErrCommandExecution = errors.New("command execution failed")
	ErrParse            = errors.New("unexpected command output")
	ErrConfig           = errors.New("invalid configuration")
	ErrNotification     = errors.New("notification failed")
)

// CommandError reports an external command that could not be started or
// exited non-zero.
type CommandError struct {
	Argv     []string
	ExitCode int // -1 when the process never ran to completion
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	cmd := strings.Join(e.Argv, " ")
	if e.ExitCode > 0 {
		if e.Stderr != "" {
			return fmt.Sprintf("command %q exited with code %d: %s", cmd, e.ExitCode, e.Stderr)
		}
		return fmt.Sprintf("command %q exited with code %d", cmd, e.ExitCode)
	}
	return fmt.Sprintf("command %q: %v", cmd, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Is implements errors.Is interface
func (e *CommandError) Is(target error) bool { return target == ErrCommandExecution }

// ParseError reports command output that does not have the shape a reader
// expects.
type ParseError struct {
	Metric string
	Reason string
	Output string
}

func (e *ParseError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("parse %s: %s", e.Metric, e.Reason)
	}
	return fmt.Sprintf("parse %s: %s (output %q)", e.Metric, e.Reason, truncate(e.Output, 120))
}

// Is implements errors.Is interface
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// ConfigError reports a missing or malformed configuration or state file.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Is implements errors.Is interface
func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// NotificationError reports a transport failure while delivering an alert.
type NotificationError struct {
	Transport string // e.g. "smtp"
	Addr      string
	Err       error
}

func (e *NotificationError) Error() string {
	if e.Addr == "" {
		return fmt.Sprintf("%s notification: %v", e.Transport, e.Err)
	}
	return fmt.Sprintf("%s notification via %s: %v", e.Transport, e.Addr, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// Is implements errors.Is interface
func (e *NotificationError) Is(target error) bool { return target == ErrNotification }

// Kind returns a short label for the error kind of err, or "internal" when
// err matches none of them.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCommandExecution):
		return "command"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrConfig):
		return "config"
	case errors.Is(err, ErrNotification):
		return "notification"
	default:
		return "internal"
	}
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
