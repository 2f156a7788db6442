package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/metailurini/ravl/internal/observability"
	"github.com/metailurini/ravl/internal/report"
	"github.com/metailurini/ravl/internal/workload"
)

const shutdownTimeout = 5 * time.Second

var runFlagKeys = map[string]string{
	"threads":      "workload.threads",
	"duration":     "workload.duration",
	"initial-size": "workload.initial_size",
	"key-range":    "workload.key_range",
	"update":       "workload.update_percent",
	"insert":       "workload.insert_percent",
	"distribution": "workload.distribution",
	"zipf-alpha":   "workload.zipf_alpha",
	"seed":         "workload.seed",
	"metrics-addr": "metrics.addr",
}

func newRunCommand(configPath *string) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a concurrent throughput benchmark",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBenchmark(cmd, *configPath, verbose)
		},
	}

	cmd.Flags().IntP("threads", "t", 0, "number of worker goroutines")
	cmd.Flags().Duration("duration", 0, "measured run length")
	cmd.Flags().IntP("initial-size", "i", 0, "keys inserted before the run")
	cmd.Flags().IntP("key-range", "r", 0, "keys are drawn from [0, key-range)")
	cmd.Flags().IntP("update", "u", 0, "percentage of operations that write")
	cmd.Flags().Int("insert", 0, "percentage of writes that insert")
	cmd.Flags().String("distribution", "", "key distribution: uniform, zipf, ascending")
	cmd.Flags().Float64("zipf-alpha", 0, "zipf exponent, greater than 1")
	cmd.Flags().Int64P("seed", "s", 0, "random seed, 0 for time based")
	cmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address during the run")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print per-worker tallies")

	return cmd
}

func runBenchmark(cmd *cobra.Command, configPath string, verbose bool) error {
	s, err := setup(cmd, configPath, runFlagKeys)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if s.cfg.Metrics.Addr != "" {
		shutdown, serveErr := serveMetrics(s)
		if serveErr != nil {
			return serveErr
		}
		defer shutdown()
	}

	res, err := workload.Run(ctx, s.cfg.Workload, s.m, s.logger)
	if err != nil {
		return err
	}

	if err := report.Write(cmd.OutOrStdout(), res, verbose); err != nil {
		return err
	}

	return res.Err()
}

// serveMetrics exposes the map counters until the returned func is called.
func serveMetrics(s *session) (func(), error) {
	handler, provider, err := observability.PrometheusHandler()
	if err != nil {
		return nil, err
	}

	if _, err := observability.NewMapMetrics(provider.Meter("ravlbench"), s.m); err != nil {
		return nil, err
	}

	ln, err := net.Listen("tcp", s.cfg.Metrics.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", s.cfg.Metrics.Addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: shutdownTimeout}

	go func() {
		if serveErr := srv.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.logger.Error("metrics server", zap.Error(serveErr))
		}
	}()
	s.logger.Info("serving metrics", zap.String("addr", ln.Addr().String()))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(ctx)
		_ = provider.Shutdown(ctx)
	}, nil
}
