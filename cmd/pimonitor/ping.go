package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesprial/pi-monitor/internal/logging"
	"github.com/jamesprial/pi-monitor/internal/pinger"
	"github.com/jamesprial/pi-monitor/internal/safety"
)

func newPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check the configured websites and mail any failures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPing(cmd)
		},
	}
}

// runPing checks every configured website once. Failed sites are printed and
// mailed in a single letter; a delivery failure is logged, not returned.
func runPing(cmd *cobra.Command) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if len(a.cfg.Websites) == 0 {
		a.logger.Info().Msg("No websites configured")
		return nil
	}

	start := time.Now()
	timeout := time.Duration(a.cfg.Ping.TimeoutSeconds) * time.Second
	p := pinger.New(nil, timeout, a.cfg.Ping.Concurrency, logging.New("pinger"))
	lines := p.Ping(cmd.Context(), a.cfg.Websites)

	out := cmd.OutOrStdout()
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}

	result := fmt.Sprintf("ok: %d of %d failed", len(lines), len(a.cfg.Websites))
	if len(lines) > 0 {
		if err := a.notifier.Notify(cmd.Context(), pinger.Message(lines)); err != nil {
			a.logger.Warn().Err(err).Msg("Ping failure notification failed")
			result += ": notify failed: " + err.Error()
		}
	}
	a.audit.Record(safety.SourceCLI, "ping", "", map[string]any{"websites": len(a.cfg.Websites)}, result, start)
	return nil
}
