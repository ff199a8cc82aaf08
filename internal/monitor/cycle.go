// Package monitor runs the read, evaluate, gate and notify cycle.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	monerrors "github.com/jamesprial/pi-monitor/internal/errors"
	"github.com/jamesprial/pi-monitor/internal/logging"
	"github.com/jamesprial/pi-monitor/internal/notify"
	"github.com/jamesprial/pi-monitor/internal/pause"
	"github.com/jamesprial/pi-monitor/internal/safety"
	"github.com/jamesprial/pi-monitor/internal/system"
	"github.com/jamesprial/pi-monitor/internal/telemetry"
	"github.com/jamesprial/pi-monitor/internal/thresholds"
)

// Deps are the collaborators of a Cycle. Reader, Pause and Notifier are
// required; the rest may be zero.
type Deps struct {
	Reader   system.SnapshotReader
	Limits   thresholds.Limits
	Pause    pause.Store
	Notifier notify.Notifier
	Subject  string
	Heading  string
	Source   string // audit source, defaults to safety.SourceCLI
	Audit    *safety.AuditLogger
	Recorder *telemetry.Recorder
	Logger   zerolog.Logger
	Now      func() time.Time
}

// Result describes one completed cycle.
type Result struct {
	CycleID    string                 `json:"cycle_id"`
	Snapshot   system.Snapshot        `json:"snapshot"`
	Violations []thresholds.Violation `json:"violations"`
	Pause      *pause.Window          `json:"pause,omitempty"` // window the gate decided on, nil when none
	Alerting   bool                   `json:"alerting"`
	Notified   bool                   `json:"notified"`
	NotifyErr  error                  `json:"-"`
	Duration   time.Duration          `json:"duration_ns"`
}

// Outcome classifies r for metrics and audit records.
func (r *Result) Outcome() string {
	switch {
	case len(r.Violations) == 0:
		return telemetry.OutcomeOK
	case !r.Alerting:
		return telemetry.OutcomeSuppressed
	default:
		return telemetry.OutcomeAlerted
	}
}

// Cycle performs monitoring cycles. It holds no state between runs.
type Cycle struct {
	d Deps
}

// NewCycle returns a Cycle over d. It panics when a required collaborator is
// missing.
func NewCycle(d Deps) *Cycle {
	if d.Reader == nil || d.Pause == nil || d.Notifier == nil {
		panic("monitor: NewCycle requires Reader, Pause and Notifier")
	}
	if d.Subject == "" {
		d.Subject = notify.DefaultSubject
	}
	if d.Heading == "" {
		d.Heading = notify.DefaultHeading
	}
	if d.Source == "" {
		d.Source = safety.SourceCLI
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Cycle{d: d}
}

// Limits returns the thresholds the cycle evaluates against.
func (c *Cycle) Limits() thresholds.Limits { return c.d.Limits }

// Check reads the system, evaluates thresholds and consults the pause window
// without sending anything. A reader failure or a malformed pause file
// aborts the check.
func (c *Cycle) Check(ctx context.Context) (*Result, error) {
	ctx, id := logging.WithCycleID(ctx, logging.CycleID(ctx))
	res := &Result{CycleID: id}

	snap, err := c.d.Reader.ReadSystem(ctx)
	if err != nil {
		return nil, err
	}
	res.Snapshot = snap
	c.d.Recorder.ObserveSnapshot(snap)

	res.Violations, err = thresholds.Evaluate(c.d.Limits, snap)
	if err != nil {
		return nil, err
	}

	w, err := c.d.Pause.Load()
	if err != nil {
		return nil, err
	}
	res.Pause = w
	res.Alerting = pause.ShouldAlert(w, c.d.Now().UnixMilli())
	c.d.Recorder.SetSuppressed(!res.Alerting)

	return res, nil
}

// Run performs one full cycle. Errors from reading, evaluating or loading the
// pause window are returned and nothing is sent. A notification failure is
// logged and kept on Result.NotifyErr; it is not retried.
func (c *Cycle) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	ctx, id := logging.WithCycleID(ctx, uuid.NewString())
	logger := c.d.Logger.With().Str("cycle_id", id).Logger()

	res, err := c.Check(ctx)
	if err != nil {
		logger.Error().Err(err).Str("kind", monerrors.Kind(err)).Msg("Monitoring cycle aborted")
		c.d.Recorder.CycleFinished(telemetry.OutcomeError)
		c.d.Audit.Record(c.d.Source, "cycle", id, nil, "error: "+err.Error(), start)
		return nil, fmt.Errorf("cycle %s: %w", id, err)
	}

	c.d.Recorder.Violations(res.Violations)

	if len(res.Violations) > 0 && res.Alerting {
		msg := notify.Message{
			Subject: c.d.Subject,
			Heading: c.d.Heading,
			Lines:   thresholds.Messages(res.Violations),
		}
		res.NotifyErr = c.d.Notifier.Notify(ctx, msg)
		res.Notified = res.NotifyErr == nil
		c.d.Recorder.Notification(res.NotifyErr)
		if res.NotifyErr != nil {
			logger.Warn().Err(res.NotifyErr).Msg("Alert notification failed, next cycle will retry")
		}
	}

	res.Duration = time.Since(start)
	outcome := res.Outcome()
	c.d.Recorder.CycleFinished(outcome)

	result := outcome
	if res.NotifyErr != nil {
		result += ": notify failed: " + res.NotifyErr.Error()
	}
	c.d.Audit.Record(c.d.Source, "cycle", id, map[string]any{"violations": len(res.Violations)}, result, start)

	evt := logger.Info()
	if len(res.Violations) > 0 {
		evt = logger.Warn()
	}
	evt.Str("outcome", outcome).
		Int("violations", len(res.Violations)).
		Bool("alerting", res.Alerting).
		Bool("notified", res.Notified).
		Dur("duration", res.Duration).
		Msg("Monitoring cycle complete")

	return res, nil
}

// WithSource returns a copy of c that records audit entries under source.
func (c *Cycle) WithSource(source string) *Cycle {
	d := c.d
	d.Source = source
	return &Cycle{d: d}
}
