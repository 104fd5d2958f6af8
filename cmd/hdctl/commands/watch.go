package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

// newWatchCmd rescans the network periodically and exposes the client
// metrics on an HTTP endpoint until interrupted.
func newWatchCmd(a *app) *cobra.Command {
	var (
		listen   string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rescan periodically and serve Prometheus metrics",
		Long: `Run discovery every --interval and serve /metrics and /health on --listen.

Scan failures are logged and retried on the next tick.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("listen") {
				a.cfg.Metrics.Address = listen
			}
			if cmd.Flags().Changed("interval") {
				a.cfg.Metrics.Interval = interval
			}
			if err := a.cfg.Metrics.Validate(); err != nil {
				return fmt.Errorf("invalid flags: %w", err)
			}

			a.registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			ln, err := net.Listen("tcp", a.cfg.Metrics.Address)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", a.cfg.Metrics.Address, err)
			}
			return a.watch(cmd.Context(), ln)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", ":9110", "Metrics listen address")
	cmd.Flags().DurationVar(&interval, "interval", time.Minute, "Time between scans")
	return cmd
}

// watch serves metrics on ln and scans on every tick until ctx is done
func (a *app) watch(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:      newMetricsMux(a.registry),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	a.log.Info("Watching controllers",
		slog.String("metrics_address", ln.Addr().String()),
		slog.Duration("interval", a.cfg.Metrics.Interval),
	)

	ticker := time.NewTicker(a.cfg.Metrics.Interval)
	defer ticker.Stop()

	a.scanOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			a.log.Info("Shutting down watcher")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("metrics server shutdown: %w", err)
			}
			return <-serveErr
		case err := <-serveErr:
			return fmt.Errorf("metrics server: %w", err)
		case <-ticker.C:
			a.scanOnce(ctx)
		}
	}
}

func (a *app) scanOnce(ctx context.Context) {
	devices, err := a.discover(ctx)
	if err != nil {
		if ctx.Err() == nil {
			a.log.Warn("Scan failed", slog.String("error", err.Error()))
		}
		return
	}
	for i, d := range devices {
		a.log.Debug("Device present",
			slog.Int("index", i),
			slog.String("host", d.Host),
			slog.String("id", d.IDString()),
		)
	}
}

func newMetricsMux(reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	return mux
}
