package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/DioGolang/GoTrack/configs"
	"github.com/DioGolang/GoTrack/internal/application/usecase/delivery"
	"github.com/DioGolang/GoTrack/internal/application/usecase/tracking"
	"github.com/DioGolang/GoTrack/internal/infra/channel"
	"github.com/DioGolang/GoTrack/internal/infra/geo"
	"github.com/DioGolang/GoTrack/internal/infra/rest"
	"github.com/DioGolang/GoTrack/pkg/logger"
	"github.com/DioGolang/GoTrack/pkg/metrics"
	"github.com/DioGolang/GoTrack/pkg/otel"
)

const serviceName = "gotrack-rider"

const usage = `usage: rider <command> [flags]

commands:
  publish  --order ID [--lat N --lng N --simulate]   push the rider position
  accept   --order ID                                 take an order
  advance  --order ID --status accepted|picked_up|delivered
  toggle                                              flip availability`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	cmd := os.Args[1]

	fs := pflag.NewFlagSet("rider "+cmd, pflag.ExitOnError)
	orderID := fs.String("order", "", "order id")
	status := fs.String("status", "", "delivery status for advance")
	lat := fs.Float64("lat", 12.9716, "start latitude")
	lng := fs.Float64("lng", 77.5946, "start longitude")
	simulate := fs.Bool("simulate", true, "random walk instead of a fixed position")
	fs.String("channel-url", "", "live channel WebSocket URL")
	fs.String("api-url", "", "order API base URL")
	fs.String("api-token", "", "bearer token for the order API and channel")
	fs.Duration("geo-interval", 0, "time between position samples")
	fs.Duration("geo-timeout", 0, "per-sample timeout")
	_ = fs.Parse(os.Args[2:])

	config, err := configs.LoadConfig(".", fs)
	if err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.NewLogger(serviceName, config.IsProduction())
	shutdown, err := otel.InitProvider(ctx, serviceName, config.OtelCollector, config.Environment)
	if err != nil {
		panic(err)
	}
	defer shutdown()

	m := metrics.NewNop()
	gateway, err := rest.NewOrderClient(rest.Config{
		BaseURL: config.APIURL,
		Token:   config.APIToken,
		Timeout: config.APITimeout,
	}, log, m)
	if err != nil {
		panic(err)
	}

	switch cmd {
	case "publish":
		err = publish(ctx, config, *orderID, *lat, *lng, *simulate, log, m)
	case "accept":
		uc := delivery.AcceptMetricsDecorator{Next: delivery.NewAcceptUseCase(gateway), Metrics: m}
		if err = uc.Execute(ctx, delivery.AcceptInput{OrderID: *orderID}); err == nil {
			fmt.Printf("accepted %s\n", *orderID)
		}
	case "advance":
		uc := delivery.AdvanceMetricsDecorator{Next: delivery.NewAdvanceUseCase(gateway), Metrics: m}
		var out delivery.AdvanceOutput
		if out, err = uc.Execute(ctx, delivery.AdvanceInput{OrderID: *orderID, Status: *status}); err == nil {
			fmt.Printf("order %s is now %s\n", out.OrderID, out.Status)
		}
	case "toggle":
		uc := delivery.ToggleMetricsDecorator{Next: delivery.NewToggleUseCase(gateway), Metrics: m}
		var out delivery.ToggleOutput
		if out, err = uc.Execute(ctx); err == nil {
			fmt.Printf("active: %t\n", out.Active)
		}
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		log.Error(ctx, "Rider command failed", logger.String("command", cmd), logger.WithError(err))
		os.Exit(1)
	}
}

func publish(
	ctx context.Context,
	config *configs.Conf,
	orderID string,
	lat, lng float64,
	simulate bool,
	log logger.Logger,
	m metrics.Metrics,
) error {
	var source geo.Source = geo.NewStaticSource(lat, lng, config.GeoInterval)
	if simulate {
		source = geo.NewSimulatedSource(lat, lng, config.GeoInterval, uint64(time.Now().UnixNano()))
	}
	opts := geo.DefaultOptions()
	opts.Timeout = config.GeoTimeout
	sampler := geo.NewSampler(source, opts, log)

	ch := channel.New(
		channel.NewWebSocketDialer(config.ChannelURL, config.APIToken),
		channel.Options{ReconnectAttempts: config.ReconnectAttempts, ReconnectDelay: config.ReconnectDelay},
		log, m,
	)

	failed := make(chan error, 1)
	pub := tracking.NewPublisher(channel.NewManager(ch), sampler, log, m,
		tracking.WithErrorHandler(func(err error) {
			failed <- err
		}),
	)
	if err := pub.BeginPublishing(ctx, orderID); err != nil {
		return err
	}
	defer pub.StopPublishing()

	select {
	case <-ctx.Done():
		return nil
	case err := <-failed:
		return err
	}
}
