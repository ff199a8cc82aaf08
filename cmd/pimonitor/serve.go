package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/jamesprial/pi-monitor/internal/auth"
	"github.com/jamesprial/pi-monitor/internal/config"
	"github.com/jamesprial/pi-monitor/internal/logging"
	"github.com/jamesprial/pi-monitor/internal/monitor"
	"github.com/jamesprial/pi-monitor/internal/pause"
	"github.com/jamesprial/pi-monitor/internal/pinger"
	"github.com/jamesprial/pi-monitor/internal/safety"
	"github.com/jamesprial/pi-monitor/internal/system"
	"github.com/jamesprial/pi-monitor/internal/telemetry"
	"github.com/jamesprial/pi-monitor/internal/tools"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP tools and metrics, running cycles on an interval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd)
		},
	}
}

// runServe blocks until ctx is cancelled, then shuts the HTTP server down.
func runServe(ctx context.Context, cmd *cobra.Command) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	tokenBefore := a.cfg.Server.AuthToken
	token, err := config.EnsureAuthToken(a.cfg)
	if err != nil {
		a.logger.Warn().Err(err).Msg("Could not generate auth token, running without authentication")
	} else if tokenBefore == "" {
		a.logger.Warn().Str("token", token).Msg("Generated auth token (set PIMONITOR_AUTH_TOKEN to persist)")
	}

	handler, cycle, err := a.serveHandler()
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", a.cfg.Server.Port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", addr).Msg("pimonitor listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if interval := a.cfg.Server.IntervalSeconds; interval > 0 {
		sched := monitor.NewScheduler(
			cycle.WithSource(safety.SourceSchedule),
			time.Duration(interval)*time.Second,
			logging.New("scheduler"),
		)
		go func() { _ = sched.Start(ctx) }()
	}

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	a.logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("Graceful shutdown failed")
		return err
	}
	a.logger.Info().Msg("Server stopped")
	return nil
}

// serveHandler builds the MCP server, the metrics registry and the
// authenticated mux. The returned cycle feeds the shared recorder.
func (a *app) serveHandler() (http.Handler, *monitor.Cycle, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rec, err := telemetry.NewRecorder(reg)
	if err != nil {
		return nil, nil, err
	}
	rec.SetLimits(a.cfg.Thresholds.Limits())

	cycle := a.cycle(rec)
	reader := a.reader()
	store := a.pauseStore()
	confirm := safety.NewConfirmationTracker(pause.DestructiveTools)
	timeout := time.Duration(a.cfg.Ping.TimeoutSeconds) * time.Second
	p := pinger.New(nil, timeout, a.cfg.Ping.Concurrency, logging.New("pinger"))

	mcpServer := server.NewMCPServer("pimonitor", Version, server.WithToolCapabilities(false))

	var registrations []tools.Registration
	registrations = append(registrations, system.SystemTools(reader, a.audit)...)
	registrations = append(registrations, monitor.MonitorTools(cycle, a.audit)...)
	registrations = append(registrations, pause.PauseTools(store, confirm, a.audit, nowFn)...)
	registrations = append(registrations, pinger.PingTools(p, a.cfg.Websites, a.audit)...)
	names := tools.RegisterAll(mcpServer, registrations)
	a.logger.Debug().Strs("tools", names).Msg("MCP tools registered")

	mux := http.NewServeMux()
	mux.Handle("/mcp", server.NewStreamableHTTPServer(mcpServer))
	mux.Handle("/metrics", telemetry.Handler(reg))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mw := auth.NewAuthMiddleware(a.cfg.Server.AuthToken,
		auth.WithOpenPaths("/healthz"),
		auth.WithLogger(logging.New("auth")),
	)
	return mw(mux), cycle, nil
}
