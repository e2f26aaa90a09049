package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/DioGolang/GoTrack/configs"
	"github.com/DioGolang/GoTrack/internal/application/port/outbound"
	"github.com/DioGolang/GoTrack/internal/application/usecase/tracking"
	"github.com/DioGolang/GoTrack/internal/domain/entity"
	"github.com/DioGolang/GoTrack/internal/infra/channel"
	"github.com/DioGolang/GoTrack/internal/infra/rest"
	"github.com/DioGolang/GoTrack/pkg/logger"
	"github.com/DioGolang/GoTrack/pkg/metrics"
	"github.com/DioGolang/GoTrack/pkg/otel"
)

const serviceName = "gotrack-tracker"

func main() {
	fs := pflag.NewFlagSet("tracker", pflag.ExitOnError)
	orderID := fs.String("order", "", "order id to track (required)")
	fs.String("channel-url", "", "live channel WebSocket URL")
	fs.String("api-url", "", "order API base URL")
	fs.String("api-token", "", "bearer token for the order API and channel")
	fs.Bool("strict-location-order", false, "drop location samples older than the last one shown")
	_ = fs.Parse(os.Args[1:])
	if *orderID == "" {
		fmt.Fprintln(os.Stderr, "--order is required")
		os.Exit(2)
	}

	config, err := configs.LoadConfig(".", fs)
	if err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.NewLogger(serviceName, config.IsProduction())
	if err := run(ctx, config, *orderID, log); err != nil {
		log.Error(ctx, "Tracking failed", logger.WithError(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, config *configs.Conf, orderID string, log logger.Logger) error {
	shutdown, err := otel.InitProvider(ctx, serviceName, config.OtelCollector, config.Environment)
	if err != nil {
		return err
	}
	defer shutdown()

	m := metrics.NewNop()
	gateway, err := rest.NewOrderClient(rest.Config{
		BaseURL: config.APIURL,
		Token:   config.APIToken,
		Timeout: config.APITimeout,
	}, log, m)
	if err != nil {
		return err
	}

	ch := channel.New(
		channel.NewWebSocketDialer(config.ChannelURL, config.APIToken),
		channel.Options{ReconnectAttempts: config.ReconnectAttempts, ReconnectDelay: config.ReconnectDelay},
		log, m,
	)
	tracker := tracking.NewTracker(channel.NewManager(ch), gateway,
		tracking.Options{StrictLocationOrder: config.StrictLocationOrder}, log, m)

	done := make(chan struct{})
	var finish sync.Once
	sub, err := tracker.Observe(ctx, orderID, tracking.Handlers{
		OnStatus: func(v entity.SessionView) {
			printSteps(v)
			if v.Terminal {
				finish.Do(func() { close(done) })
			}
		},
		OnLocation: func(c entity.Coordinate) {
			fmt.Printf("rider at %s\n", c)
		},
		OnConnection: func(s outbound.ConnectionState) {
			fmt.Printf("[%s]\n", s)
		},
	})
	if err != nil {
		return err
	}
	defer sub.Release()

	select {
	case <-ctx.Done():
	case <-done:
	}
	return nil
}

func printSteps(v entity.SessionView) {
	fmt.Printf("order %s\n", v.OrderID)
	if v.HasStatus && v.Status == entity.StatusCancelled {
		fmt.Println("  x cancelled")
		return
	}
	for _, step := range entity.CustomerSteps {
		mark := " "
		if v.HasStatus && step.Index() <= v.Status.Index() {
			mark = "✓"
		}
		fmt.Printf("  %s %s\n", mark, step)
	}
	if v.DeliveryStatus.Valid() {
		fmt.Printf("  rider: %s\n", v.DeliveryStatus)
	}
}
