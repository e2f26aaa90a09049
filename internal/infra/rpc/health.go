// Package rpc exposes the relay's dependency health over the standard gRPC
// health protocol.
package rpc

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/DioGolang/GoTrack/pkg/logger"
)

type Check func(ctx context.Context) error

// HealthReporter polls named checks and publishes each as a gRPC health
// service. The overall service ("") is SERVING only while every check passes.
type HealthReporter struct {
	srv      *health.Server
	log      logger.Logger
	interval time.Duration
	timeout  time.Duration

	mu     sync.Mutex
	checks map[string]Check
}

func NewHealthReporter(interval time.Duration, log logger.Logger) *HealthReporter {
	return &HealthReporter{
		srv:      health.NewServer(),
		log:      log,
		interval: interval,
		timeout:  3 * time.Second,
		checks:   make(map[string]Check),
	}
}

func (r *HealthReporter) Register(name string, check Check) {
	r.mu.Lock()
	r.checks[name] = check
	r.mu.Unlock()
	r.srv.SetServingStatus(name, healthpb.HealthCheckResponse_UNKNOWN)
}

// NewServer returns a gRPC server with tracing and the health service
// registered.
func (r *HealthReporter) NewServer() *grpc.Server {
	s := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthpb.RegisterHealthServer(s, r.srv)
	return s
}

// Run probes every interval until ctx is done, then marks everything
// NOT_SERVING.
func (r *HealthReporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			r.srv.Shutdown()
			return
		case <-ticker.C:
			r.Probe(ctx)
		}
	}
}

func (r *HealthReporter) Probe(ctx context.Context) {
	r.mu.Lock()
	checks := make(map[string]Check, len(r.checks))
	for name, c := range r.checks {
		checks[name] = c
	}
	r.mu.Unlock()

	overall := healthpb.HealthCheckResponse_SERVING
	for name, check := range checks {
		cctx, cancel := context.WithTimeout(ctx, r.timeout)
		err := check(cctx)
		cancel()

		status := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			overall = status
			r.log.Warn(ctx, "Health check failed", logger.String("check", name), logger.WithError(err))
		}
		r.srv.SetServingStatus(name, status)
	}
	r.srv.SetServingStatus("", overall)
}
