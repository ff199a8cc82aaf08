// Package telemetry exposes monitoring cycle results as Prometheus metrics.
package telemetry

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jamesprial/pi-monitor/internal/system"
	"github.com/jamesprial/pi-monitor/internal/thresholds"
)

// Cycle outcomes.
const (
	OutcomeOK         = "ok"         // nothing breached
	OutcomeAlerted    = "alerted"    // violations sent or attempted
	OutcomeSuppressed = "suppressed" // violations found during a pause
	OutcomeError      = "error"      // cycle aborted
)

// Notification results.
const (
	NotifySent   = "sent"
	NotifyFailed = "failed"
)

// Recorder holds the pimonitor collectors. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	metricValue     *prometheus.GaugeVec
	threshold       *prometheus.GaugeVec
	alertSuppressed prometheus.Gauge
	cyclesTotal     *prometheus.CounterVec
	violationsTotal *prometheus.CounterVec
	notifications   *prometheus.CounterVec
}

// NewRecorder creates the collectors and registers them on reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		metricValue: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "pimonitor",
				Name:      "metric_value",
				Help:      "Last observed value per metric: CPU load, RAM used MB, TEMP C, DISK used GB.",
			},
			[]string{"metric"},
		),
		threshold: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "pimonitor",
				Name:      "threshold",
				Help:      "Configured alert threshold per metric.",
			},
			[]string{"metric"},
		),
		alertSuppressed: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "pimonitor",
				Name:      "alert_suppressed",
				Help:      "1 while a pause window suppresses alerts.",
			},
		),
		cyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pimonitor",
				Name:      "cycles_total",
				Help:      "Monitoring cycles by outcome.",
			},
			[]string{"outcome"},
		),
		violationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pimonitor",
				Name:      "violations_total",
				Help:      "Threshold violations by metric.",
			},
			[]string{"metric"},
		),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pimonitor",
				Name:      "notifications_total",
				Help:      "Alert notifications by result.",
			},
			[]string{"result"},
		),
	}

	var errs []error
	for _, c := range []prometheus.Collector{
		r.metricValue, r.threshold, r.alertSuppressed, r.cyclesTotal, r.violationsTotal, r.notifications,
	} {
		if err := reg.Register(c); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return r, nil
}

// ObserveSnapshot records the numeric reading of every metric in snap.
// Readings that do not parse are skipped.
func (r *Recorder) ObserveSnapshot(snap system.Snapshot) {
	if r == nil {
		return
	}
	set := func(m system.Metric, s string) {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			r.metricValue.WithLabelValues(string(m)).Set(v)
		}
	}
	set(system.CPU, string(snap.CPU))
	set(system.RAM, snap.RAM.Used)
	set(system.TEMP, string(snap.Temp))
	set(system.DISK, snap.Disk.Used)
}

// SetLimits records the configured thresholds.
func (r *Recorder) SetLimits(l thresholds.Limits) {
	if r == nil {
		return
	}
	for _, m := range system.Metrics {
		r.threshold.WithLabelValues(string(m)).Set(l.For(m).Value)
	}
}

// SetSuppressed records whether alerts are paused.
func (r *Recorder) SetSuppressed(suppressed bool) {
	if r == nil {
		return
	}
	if suppressed {
		r.alertSuppressed.Set(1)
	} else {
		r.alertSuppressed.Set(0)
	}
}

// Violations counts each breached metric.
func (r *Recorder) Violations(vs []thresholds.Violation) {
	if r == nil {
		return
	}
	for _, v := range vs {
		r.violationsTotal.WithLabelValues(string(v.Metric)).Inc()
	}
}

// CycleFinished counts a cycle with the given outcome.
func (r *Recorder) CycleFinished(outcome string) {
	if r == nil {
		return
	}
	r.cyclesTotal.WithLabelValues(outcome).Inc()
}

// Notification counts a delivery attempt.
func (r *Recorder) Notification(err error) {
	if r == nil {
		return
	}
	if err != nil {
		r.notifications.WithLabelValues(NotifyFailed).Inc()
		return
	}
	r.notifications.WithLabelValues(NotifySent).Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
