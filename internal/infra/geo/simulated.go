package geo

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/DioGolang/GoTrack/internal/domain/entity"
)

// SimulatedSource walks randomly around an origin, one step per interval.
// Steps are at most StepMeters long.
type SimulatedSource struct {
	Interval   time.Duration
	StepMeters float64

	mu    sync.Mutex
	cur   entity.Coordinate
	rng   *rand.Rand
	first bool
}

const metersPerDegree = 111_320.0

func NewSimulatedSource(originLat, originLng float64, interval time.Duration, seed uint64) *SimulatedSource {
	return &SimulatedSource{
		Interval:   interval,
		StepMeters: 25,
		cur:        entity.Coordinate{Lat: originLat, Lng: originLng},
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		first:      true,
	}
}

func (s *SimulatedSource) Next(ctx context.Context, _ Options) (entity.Coordinate, error) {
	s.mu.Lock()
	first := s.first
	s.first = false
	s.mu.Unlock()

	if !first {
		if err := sleep(ctx, s.Interval); err != nil {
			return entity.Coordinate{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !first {
		s.step()
	}
	c := s.cur
	c.CapturedAt = time.Now()
	return c, nil
}

func (s *SimulatedSource) step() {
	angle := s.rng.Float64() * 2 * math.Pi
	dist := s.rng.Float64() * s.StepMeters
	dLat := dist * math.Sin(angle) / metersPerDegree
	dLng := dist * math.Cos(angle) / (metersPerDegree * math.Max(math.Cos(s.cur.Lat*math.Pi/180), 0.01))

	s.cur.Lat = clamp(s.cur.Lat+dLat, -90, 90)
	s.cur.Lng = s.cur.Lng + dLng
	if s.cur.Lng > 180 {
		s.cur.Lng -= 360
	} else if s.cur.Lng < -180 {
		s.cur.Lng += 360
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
