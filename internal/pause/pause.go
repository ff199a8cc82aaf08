// Package pause decides whether alerts may be sent and persists the operator's
// pause window between runs.
package pause

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

// Window is the persisted pause record. PauseUntil is epoch milliseconds.
type Window struct {
	PauseUntil int64 `json:"pause_until"`
}

// Until returns PauseUntil as a time.Time.
func (w Window) Until() time.Time {
	return time.UnixMilli(w.PauseUntil)
}

// NewWindow returns a window that suppresses alerts for minutes from now.
// Zero minutes yields a window ending now, which lifts any earlier pause as
// soon as the clock moves on. A window whose end does not fit in epoch
// milliseconds is rejected.
func NewWindow(now time.Time, minutes int) (Window, error) {
	if minutes < 0 {
		return Window{}, fmt.Errorf("pause minutes must not be negative, got %d", minutes)
	}
	nowMillis := now.UnixMilli()
	if maxMinutes := (math.MaxInt64 - nowMillis) / 60000; int64(minutes) > maxMinutes {
		return Window{}, fmt.Errorf("pause of %d minutes is too long, at most %d", minutes, maxMinutes)
	}
	return Window{PauseUntil: nowMillis + int64(minutes)*60000}, nil
}

// ShouldAlert reports whether alerts are active at nowMillis. With no window
// alerts are always active; otherwise they resume once now is strictly after
// PauseUntil.
func ShouldAlert(w *Window, nowMillis int64) bool {
	if w == nil {
		return true
	}
	return nowMillis > w.PauseUntil
}

// State names the two alerting states.
type State string

const (
	Active     State = "active"
	Suppressed State = "suppressed"
)

// Status is a readable description of the alerting state.
type Status struct {
	State      State     `json:"state"`
	PauseUntil time.Time `json:"pause_until,omitzero"`
	Remaining  string    `json:"remaining,omitempty"`
}

func (s Status) String() string {
	if s.State == Suppressed {
		return fmt.Sprintf("alerts suppressed until %s (%s)", s.PauseUntil.Format(time.RFC3339), s.Remaining)
	}
	if !s.PauseUntil.IsZero() {
		return fmt.Sprintf("alerts active (pause ended %s)", humanize.Time(s.PauseUntil))
	}
	return "alerts active"
}

// StatusAt describes w at now.
func StatusAt(w *Window, now time.Time) Status {
	if w == nil {
		return Status{State: Active}
	}
	until := w.Until()
	if ShouldAlert(w, now.UnixMilli()) {
		return Status{State: Active, PauseUntil: until}
	}
	return Status{
		State:      Suppressed,
		PauseUntil: until,
		Remaining:  humanize.RelTime(now, until, "remaining", "ago"),
	}
}
