package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	vshl "github.com/casualjim/vshl"
	"github.com/casualjim/vshl/internal/backend"
	"github.com/casualjim/vshl/internal/broker"
	"github.com/casualjim/vshl/internal/config"
	"github.com/casualjim/vshl/internal/metrics"
	"github.com/casualjim/vshl/internal/natsbind"
	"github.com/casualjim/vshl/pkg/natsx"
	"github.com/casualjim/vshl/pkg/slogx"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const serveLogger = "vshl::serve"

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the voice service daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, settings)
		},
	}
}

func serve(ctx context.Context, s *config.Settings) error {
	nc, err := natsx.NewClient(s.NATS.URL, nats.Name(s.NATS.Name), nats.Compression(true))
	if err != nil {
		return fmt.Errorf("connect to nats: %w", err)
	}
	defer nc.Drain() //nolint:errcheck

	caller, err := backend.NewNATSCaller(nc,
		backend.WithSubjectPrefix(s.Subjects.RPC),
		backend.WithTimeout(s.RPCTimeout),
	)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	options := []vshl.Option{
		vshl.WithCaller(caller),
		vshl.WithRPCTimeout(s.RPCTimeout),
		vshl.WithMetrics(metrics.New(reg)),
	}
	if s.Broker == config.BrokerNATS {
		options = append(options, vshl.WithBroker(broker.NATS(nc, s.Subjects.Events)))
	}

	svc, err := vshl.New(options...)
	if err != nil {
		return err
	}
	defer svc.Close(context.WithoutCancel(ctx))

	if s.AgentsFile != "" {
		if err := svc.LoadVoiceAgentsFile(ctx, s.AgentsFile); err != nil {
			return fmt.Errorf("load voice agents from %s: %w", s.AgentsFile, err)
		}
	}

	binding, err := natsbind.New(nc, svc,
		natsbind.WithVerbPrefix(s.Subjects.Verbs),
		natsbind.WithBackendPrefix(s.Subjects.Backend),
	)
	if err != nil {
		return err
	}
	if err := binding.Start(ctx); err != nil {
		return err
	}
	defer binding.Close()

	if s.Metrics.Addr != "" {
		srv := &http.Server{
			Addr:              s.Metrics.Addr,
			Handler:           metricsHandler(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			slog.InfoContext(ctx, "serving metrics", slogx.LoggerName(serveLogger), slog.String("addr", s.Metrics.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.ErrorContext(ctx, "metrics server failed", slogx.LoggerName(serveLogger), slogx.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	slog.InfoContext(ctx, "voice service ready",
		slogx.LoggerName(serveLogger),
		slog.String("nats", nc.ConnectedUrlRedacted()),
		slog.String("broker", s.Broker),
	)
	<-ctx.Done()
	slog.InfoContext(ctx, "shutting down", slogx.LoggerName(serveLogger))
	return nil
}

func metricsHandler(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return mux
}
