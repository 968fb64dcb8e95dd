package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getlantern/cleanurl/internal/metrics"
	"github.com/getlantern/cleanurl/internal/watch"
	"github.com/spf13/cobra"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		file        string
		interval    time.Duration
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep cleaning URLs written to a file",
		Long: `Watch polls a file, such as one synced with the clipboard, and replaces any
URL written to it with its cleaned form. It runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("file") {
				a.cfg.Watch.File = file
			}
			if cmd.Flags().Changed("interval") {
				a.cfg.Watch.Interval = interval
			}
			if cmd.Flags().Changed("metrics-addr") {
				a.cfg.Metrics.Addr = metricsAddr
			}
			if a.cfg.Watch.File == "" {
				return errors.New("no file to watch; set watch.file or pass --file")
			}
			if a.cfg.Watch.Interval <= 0 {
				return fmt.Errorf("interval must be positive, got %v", a.cfg.Watch.Interval)
			}

			c, err := a.cleaner()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rec := metrics.New()
			defer rec.Close()
			if a.cfg.Metrics.Addr != "" {
				srv := serveMetrics(a.cfg.Metrics.Addr, rec)
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := srv.Shutdown(shutdownCtx); err != nil {
						log.Errorf("Unable to stop metrics server: %v", err)
					}
				}()
			}

			w := watch.New(&watch.FileSource{Path: a.cfg.Watch.File}, c, a.cfg.Watch.Interval, rec)
			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s\n", a.cfg.Watch.File)
			return w.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "file to watch (overrides watch.file)")
	cmd.Flags().DurationVar(&interval, "interval", 0, "poll interval (overrides watch.interval)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address (overrides metrics.addr)")
	return cmd
}

func serveMetrics(addr string, rec *metrics.Recorder) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", rec.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Debugf("Serving metrics on %v", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Metrics server failed: %v", err)
		}
	}()
	return srv
}
