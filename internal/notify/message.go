// Package notify delivers alert messages to the operator by email.
package notify

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/host"
)

// Default texts for threshold alert mail.
const (
	DefaultSubject = "Raspberry Pi Server Warnings"
	DefaultHeading = "The following issues are occurring with the pi:"
)

// Message is one alert letter. Lines are already formatted by the caller.
type Message struct {
	Subject string
	Heading string
	Lines   []string
}

// Empty reports whether m has nothing to say.
func (m Message) Empty() bool { return len(m.Lines) == 0 }

// Notifier sends a Message. Implementations return nil without sending when
// the message is empty.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// HTML renders the letter body: a heading followed by each line, and the
// footer when one is given. Lines are inserted verbatim.
func (m Message) HTML(footer string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h1>%s</h1><br><br>\n", m.Heading)
	for _, line := range m.Lines {
		b.WriteString(line)
		b.WriteString("<br><br>\n")
	}
	if footer != "" {
		fmt.Fprintf(&b, "<hr><small>%s</small>\n", html.EscapeString(footer))
	}
	return b.String()
}

// HostInfoFunc reports details about the machine sending the alert.
type HostInfoFunc func(ctx context.Context) (*host.InfoStat, error)

// HostFooter describes the local host in one line, or returns "" when host
// details are unavailable.
func HostFooter(ctx context.Context, info HostInfoFunc) string {
	if info == nil {
		return ""
	}
	stat, err := info(ctx)
	if err != nil || stat == nil || stat.Hostname == "" {
		return ""
	}

	footer := "Sent from " + stat.Hostname
	if platform := strings.TrimSpace(stat.Platform + " " + stat.PlatformVersion); platform != "" {
		footer += " (" + platform + ")"
	}
	if stat.Uptime > 0 {
		up := (time.Duration(stat.Uptime) * time.Second).Truncate(time.Minute)
		footer += ", up " + up.String()
	}
	return footer
}
