package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/pastpapers/api"
	"github.com/use-agent/pastpapers/cache"
	"github.com/use-agent/pastpapers/listing"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve listing and download runs over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadConfig(cmd)
			if host != "" {
				cfg.Server.Host = host
			}
			if port != 0 {
				cfg.Server.Port = port
			}
			logCloser := initLogger(cfg.Log)
			defer logCloser.Close()

			slog.Info("pastpapers starting",
				"host", cfg.Server.Host,
				"port", cfg.Server.Port,
				"mode", cfg.Server.Mode,
				"dir", cfg.Download.OutputDir,
			)

			svc, err := newService(cfg)
			if err != nil {
				return err
			}
			lister := listing.New(nil, cfg.Listing.UserAgent, cfg.Listing.Timeout)
			cc := cache.New(cfg.Cache.MaxEntries)

			router := api.NewRouter(lister, svc, cfg, cc, time.Now())

			addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
			srv := &http.Server{
				Addr:    addr,
				Handler: router,
			}

			errCh := make(chan error, 1)
			go func() {
				slog.Info("HTTP server listening", "addr", addr)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			// ── Graceful shutdown ───────────────────────────────────
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			select {
			case err := <-errCh:
				return fmt.Errorf("http server: %w", err)
			case <-ctx.Done():
			}
			slog.Info("shutdown signal received")

			// Give in-flight requests 5 seconds to complete.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("HTTP server forced shutdown", "error", err)
			} else {
				slog.Info("HTTP server drained gracefully")
			}
			slog.Info("pastpapers stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Listen host (default from PASTPAPERS_HOST)")
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (default from PASTPAPERS_PORT)")

	return cmd
}
