package main

import (
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jamesprial/pi-monitor/internal/config"
	"github.com/jamesprial/pi-monitor/internal/logging"
	"github.com/jamesprial/pi-monitor/internal/monitor"
	"github.com/jamesprial/pi-monitor/internal/notify"
	"github.com/jamesprial/pi-monitor/internal/pause"
	"github.com/jamesprial/pi-monitor/internal/safety"
	"github.com/jamesprial/pi-monitor/internal/system"
	"github.com/jamesprial/pi-monitor/internal/telemetry"
)

// Overridden in tests.
var (
	nowFn     = time.Now
	newRunner = func(timeout time.Duration) system.Runner {
		return system.NewExecRunner(timeout)
	}
	newNotifier = func(cfg config.EmailConfig, logger zerolog.Logger) notify.Notifier {
		return notify.NewEmailNotifier(cfg, notify.WithLogger(logger))
	}
)

// app holds the collaborators built from one loaded configuration.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	audit    *safety.AuditLogger
	notifier notify.Notifier
	closers  []io.Closer
}

// newApp loads the config named by the --config flag and configures logging.
// A config that fails to load or validate is fatal.
func newApp(cmd *cobra.Command) (*app, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logging.Init(logging.Config{
		Format:    cfg.Log.Format,
		Level:     cfg.Log.Level,
		Component: "pimonitor",
	})
	logger := logging.New("pimonitor")
	logger.Debug().Str("config", path).Msg("Configuration loaded")

	a := &app{cfg: cfg, logger: logger}
	if cfg.Audit.Enabled {
		audit, closer, err := safety.OpenAuditLog(cfg.Audit.LogPath)
		if err != nil {
			logger.Warn().Err(err).Msg("Audit logging disabled")
		} else {
			a.audit = audit
			a.closers = append(a.closers, closer)
		}
	}
	a.notifier = newNotifier(cfg.Email, logging.New("notify"))
	return a, nil
}

// Close releases files opened by newApp.
func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func (a *app) reader() *system.SystemReader {
	return system.NewSystemReader(newRunner(a.cfg.Commands.Timeout()), a.cfg.Commands.Commands())
}

func (a *app) pauseStore() *pause.FileStore {
	return pause.NewFileStore(a.cfg.Paths.PauseFile)
}

// cycle builds a monitoring cycle. rec may be nil.
func (a *app) cycle(rec *telemetry.Recorder) *monitor.Cycle {
	return monitor.NewCycle(monitor.Deps{
		Reader:   a.reader(),
		Limits:   a.cfg.Thresholds.Limits(),
		Pause:    a.pauseStore(),
		Notifier: a.notifier,
		Subject:  a.cfg.Email.Subject,
		Audit:    a.audit,
		Recorder: rec,
		Logger:   logging.New("monitor"),
		Now:      nowFn,
	})
}
