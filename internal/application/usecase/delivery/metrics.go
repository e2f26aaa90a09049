package delivery

import (
	"context"
	"time"

	"github.com/DioGolang/GoTrack/pkg/metrics"
)

type AcceptMetricsDecorator struct {
	Next    AcceptUseCase
	Metrics metrics.Metrics
}

func (d AcceptMetricsDecorator) Execute(ctx context.Context, input AcceptInput) error {
	start := time.Now()
	err := d.Next.Execute(ctx, input)
	d.Metrics.RecordUseCaseExecution("AcceptOrder", err == nil, time.Since(start))
	return err
}

type AdvanceMetricsDecorator struct {
	Next    AdvanceUseCase
	Metrics metrics.Metrics
}

func (d AdvanceMetricsDecorator) Execute(ctx context.Context, input AdvanceInput) (AdvanceOutput, error) {
	start := time.Now()
	output, err := d.Next.Execute(ctx, input)
	d.Metrics.RecordUseCaseExecution("AdvanceDelivery", err == nil, time.Since(start))
	return output, err
}

type ToggleMetricsDecorator struct {
	Next    ToggleUseCase
	Metrics metrics.Metrics
}

func (d ToggleMetricsDecorator) Execute(ctx context.Context) (ToggleOutput, error) {
	start := time.Now()
	output, err := d.Next.Execute(ctx)
	d.Metrics.RecordUseCaseExecution("ToggleAvailability", err == nil, time.Since(start))
	return output, err
}
