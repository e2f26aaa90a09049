package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/riandyrn/otelchi"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/DioGolang/GoTrack/configs"
	"github.com/DioGolang/GoTrack/internal/application/port/outbound"
	"github.com/DioGolang/GoTrack/internal/infra/event"
	"github.com/DioGolang/GoTrack/internal/infra/relay"
	"github.com/DioGolang/GoTrack/internal/infra/rpc"
	"github.com/DioGolang/GoTrack/internal/infra/storage"
	"github.com/DioGolang/GoTrack/internal/infra/web/handler"
	"github.com/DioGolang/GoTrack/internal/infra/web/middleware"
	"github.com/DioGolang/GoTrack/pkg/logger"
	"github.com/DioGolang/GoTrack/pkg/metrics"
	"github.com/DioGolang/GoTrack/pkg/otel"
	"github.com/DioGolang/GoTrack/pkg/ratelimit"
)

const serviceName = "gotrack-relay"

func main() {
	fs := pflag.NewFlagSet("relay", pflag.ExitOnError)
	fs.String("web-server-port", "", "HTTP port for /ws, the API, /health and /metrics")
	fs.String("grpc-port", "", "gRPC health port")
	fs.String("amqp-url", "", "RabbitMQ URL; empty relays status changes in-process")
	fs.String("status-exchange", "", "fanout exchange carrying order status changes")
	_ = fs.Parse(os.Args[1:])

	config, err := configs.LoadConfig(".", fs)
	if err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.NewLogger(serviceName, config.IsProduction())
	if err := run(ctx, config, log); err != nil {
		log.Error(ctx, "Relay stopped with error", logger.WithError(err))
		os.Exit(1)
	}
	log.Info(ctx, "Relay stopped")
}

func run(ctx context.Context, config *configs.Conf, log logger.Logger) error {
	shutdown, err := otel.InitProvider(ctx, serviceName, config.OtelCollector, config.Environment)
	if err != nil {
		return err
	}
	defer shutdown()

	m := metrics.NewPrometheusMetrics(prometheus.DefaultRegisterer, serviceName)

	var (
		rdb       *redis.Client
		locations outbound.LocationRepository
	)
	rdb, err = storage.NewRedisClient(ctx, config.RedisHost, config.RedisPort)
	if err != nil {
		log.Warn(ctx, "Redis unavailable, running without location index", logger.WithError(err))
		rdb = nil
	} else {
		defer rdb.Close()
		locations = storage.NewRedisLocationRepository(rdb, log)
	}

	locationLimiter := ratelimit.New(ratelimit.Config{
		PerSecond:       config.LocationRate,
		Burst:           config.LocationBurst,
		CleanupInterval: time.Minute,
		IdleTimeout:     10 * time.Minute,
	})
	apiLimiter := ratelimit.New(ratelimit.Config{
		PerSecond:       20,
		Burst:           40,
		CleanupInterval: time.Minute,
		IdleTimeout:     10 * time.Minute,
	})
	hub := relay.NewHub(locations, locationLimiter, log, m)

	g, gctx := errgroup.WithContext(ctx)

	var publisher handler.StatusPublisher = hub
	if config.AMQPURL != "" {
		conn, err := amqp.Dial(config.AMQPURL)
		if err != nil {
			return err
		}
		defer conn.Close()

		pubCh, err := conn.Channel()
		if err != nil {
			return err
		}
		defer pubCh.Close()
		if err := event.DeclareExchange(pubCh, config.StatusExchange); err != nil {
			return err
		}
		publisher = event.NewDispatcher(pubCh, config.StatusExchange, log)

		instanceID := uuid.NewString()
		log.Info(ctx, "Consuming status changes", logger.String("instance_id", instanceID))
		consume := statusConsumer(hub, rdb, instanceID, log, m)
		consumer := event.NewConsumer(conn, log)
		g.Go(func() error {
			return consumer.Start(gctx, config.StatusExchange, consume)
		})
	}

	healthHandler, err := handler.NewHealthHandler(serviceName, "1.0.0",
		handler.WithRedis(rdb),
		handler.WithRabbitMQ(config.AMQPURL),
		handler.WithRooms(hub.Rooms, 10000),
	)
	if err != nil {
		return err
	}
	orderHandler := handler.NewOrderHandler(publisher, locations, log)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(log))

	// Upgraded connections outlive the request; keep them out of the
	// tracing and latency middleware.
	r.Handle("/ws", relay.NewServer(hub, log))

	r.Group(func(r chi.Router) {
		r.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(r)))
		r.Use(middleware.Metrics(m))

		r.Handle("/metrics", promhttp.Handler())
		r.Handle("/health", healthHandler)
		r.Route("/api/v1", func(r chi.Router) {
			r.Use(middleware.RateLimit(apiLimiter, log))
			r.Post("/orders/{id}/status", orderHandler.UpdateStatus)
			r.Get("/riders/nearby", orderHandler.Nearby)
		})
	})

	srv := &http.Server{
		Addr:              ":" + config.WebServerPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	reporter := rpc.NewHealthReporter(10*time.Second, log)
	if rdb != nil {
		reporter.Register("redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}
	grpcServer := reporter.NewServer()
	lis, err := net.Listen("tcp", ":"+config.GRPCPort)
	if err != nil {
		return err
	}

	g.Go(func() error {
		log.Info(gctx, "HTTP server listening", logger.String("port", config.WebServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info(gctx, "gRPC health listening", logger.String("port", config.GRPCPort))
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		locationLimiter.Run(gctx)
		return nil
	})
	g.Go(func() error {
		apiLimiter.Run(gctx)
		return nil
	})
	g.Go(func() error {
		reporter.Run(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		grpcServer.GracefulStop()
		return srv.Shutdown(shutCtx)
	})

	return g.Wait()
}

// statusConsumer builds the queue handler: dedup by event id when Redis is
// available, then retry with backoff, then timeout and breaker around the hub.
// Dedup keys are scoped to this instance; every relay must deliver every
// status to its own rooms.
func statusConsumer(hub *relay.Hub, rdb *redis.Client, instanceID string, log logger.Logger, m metrics.Metrics) event.MessageHandler {
	const name = "RelayStatus"

	h := event.NewStatusHandler(hub, relay.ValidateStatus, log)
	h = event.WrapResilientConsumer(m, name, 5*time.Second, event.NewBreaker(name), h)
	h = event.WrapExponentialBackoff(log, m, name, 3, 200*time.Millisecond, h)
	if rdb != nil {
		h = event.WrapIdempotency(log, storage.NewRedisAdapter(rdb), name+":"+instanceID, 10*time.Minute, h)
	}
	return h
}
