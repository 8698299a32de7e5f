package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/52North/SOS-sub005/internal/decode"
	"github.com/52North/SOS-sub005/internal/metrics"
	"github.com/52North/SOS-sub005/internal/server"
	"github.com/52North/SOS-sub005/internal/store"
	"github.com/52North/SOS-sub005/internal/version"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Port int // overrides http.port
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP decode service",
		Long: `Run the HTTP service. Documents POSTed to /decode are decoded and
returned as canonical JSON; /observations stores decoded observations and
/observations/query evaluates GetObservation requests against the store.

Settings come from --config (YAML or CUE). The store defaults to a local
SQLite file.

Examples:
  sosdecode serve
  sosdecode serve --config sosdecode.yaml
  sosdecode serve --port 9090`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "listen port (overrides the config file)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg := opts.settings()
	if opts.Port != 0 {
		cfg.HTTP.Port = opts.Port
	}
	log := opts.log("info")
	defer func() { _ = log.Sync() }()

	log.Info("Starting sosdecode server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", cfg.Logging.Env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("store_driver", cfg.Store.Driver),
	)

	st, err := store.Open(cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer st.Close()
	log.Info("Opened store", zap.String("dialect", st.Dialect().String()))

	m, err := metrics.NewDecodeMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("failed to register decode metrics: %w", err)
	}

	srv := server.New(opts.dispatcher(decode.WithObserver(m)),
		server.WithStore(st),
		server.WithLimits(cfg.Limits.MaxBodyBytes, cfg.Limits.MaxNodes),
		server.WithLogger(log),
	)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      srv.Handler(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", zap.String("addr", addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return WrapExitError(ExitCommandError, "HTTP server error", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("Error during shutdown", zap.Error(err))
		return err
	}

	log.Info("Server stopped gracefully")
	return nil
}
