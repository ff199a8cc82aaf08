package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesprial/pi-monitor/internal/pause"
	"github.com/jamesprial/pi-monitor/internal/safety"
	"github.com/jamesprial/pi-monitor/internal/thresholds"
)

// runCycle performs one read-evaluate-notify cycle and prints each violation.
func runCycle(cmd *cobra.Command) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.cycle(nil).Run(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, line := range thresholds.Messages(res.Violations) {
		fmt.Fprintln(out, line)
	}
	if len(res.Violations) > 0 && !res.Alerting {
		fmt.Fprintln(out, pause.StatusAt(res.Pause, nowFn()))
	}
	return nil
}

// runPause writes a pause window of arg minutes starting now. Zero minutes
// lifts an active pause.
func runPause(cmd *cobra.Command, arg string) error {
	minutes, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("minutes must be a whole number, got %q", arg)
	}
	w, err := pause.NewWindow(nowFn(), minutes)
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	start := time.Now()
	store := a.pauseStore()
	if err := store.Save(w); err != nil {
		return err
	}
	a.audit.Record(safety.SourceCLI, "pause", "", map[string]any{"minutes": minutes}, "ok", start)
	a.logger.Info().
		Int("minutes", minutes).
		Time("pause_until", w.Until()).
		Str("path", store.Path()).
		Msg("Alerting paused")

	fmt.Fprintln(cmd.OutOrStdout(), pause.StatusAt(&w, nowFn()))
	return nil
}
