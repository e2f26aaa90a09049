package geo

import (
	"context"
	"errors"
	"sync"

	"github.com/DioGolang/GoTrack/internal/application/port/outbound"
	"github.com/DioGolang/GoTrack/internal/domain/entity"
	"github.com/DioGolang/GoTrack/pkg/logger"
)

type watch struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Sampler runs at most one watch over a Source at a time.
type Sampler struct {
	source Source
	opts   Options
	log    logger.Logger

	mu    sync.Mutex
	watch *watch
}

var _ outbound.PositionSampler = (*Sampler)(nil)

func NewSampler(source Source, opts Options, log logger.Logger) *Sampler {
	return &Sampler{
		source: source,
		opts:   opts,
		log:    log.With(logger.String("component", "geo_sampler")),
	}
}

// Start begins a new watch, stopping the running one first. onError fires at
// most once and ends the watch. onSample must not call Start or Stop;
// onError may.
func (s *Sampler) Start(ctx context.Context, onSample func(entity.Coordinate), onError func(error)) {
	s.Stop()

	runCtx, cancel := context.WithCancel(ctx)
	w := &watch{cancel: cancel, done: make(chan struct{})}
	s.mu.Lock()
	s.watch = w
	s.mu.Unlock()

	go s.loop(runCtx, w, onSample, onError)
}

// Stop cancels the running watch and waits for it to finish. Safe to call
// when idle.
func (s *Sampler) Stop() {
	s.mu.Lock()
	w := s.watch
	s.watch = nil
	s.mu.Unlock()

	if w != nil {
		w.cancel()
		<-w.done
	}
}

func (s *Sampler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watch != nil
}

func (s *Sampler) loop(ctx context.Context, w *watch, onSample func(entity.Coordinate), onError func(error)) {
	defer close(w.done)
	defer w.cancel()

	for {
		c, err := s.next(ctx)
		if ctx.Err() != nil {
			s.clear(w)
			return
		}
		if err != nil {
			s.clear(w)
			s.log.Warn(ctx, "Location sampling failed", logger.WithError(err))
			if onError != nil {
				onError(err)
			}
			return
		}
		onSample(c)
	}
}

func (s *Sampler) clear(w *watch) {
	s.mu.Lock()
	if s.watch == w {
		s.watch = nil
	}
	s.mu.Unlock()
}

func (s *Sampler) next(ctx context.Context) (entity.Coordinate, error) {
	attemptCtx := ctx
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	c, err := s.source.Next(attemptCtx, s.opts)
	if err != nil {
		return entity.Coordinate{}, classify(err)
	}
	if err := c.Validate(); err != nil {
		return entity.Coordinate{}, &LocationError{Kind: ErrPositionUnavailable, Err: err}
	}
	return c, nil
}

func classify(err error) error {
	var le *LocationError
	switch {
	case errors.As(err, &le):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return &LocationError{Kind: ErrTimeout, Err: err}
	case errors.Is(err, ErrPermissionDenied):
		return &LocationError{Kind: ErrPermissionDenied, Err: err}
	case errors.Is(err, ErrTimeout):
		return &LocationError{Kind: ErrTimeout, Err: err}
	default:
		return &LocationError{Kind: ErrPositionUnavailable, Err: err}
	}
}
