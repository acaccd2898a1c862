package simulated

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"sync"
	"time"

	"candle-feed/src/models"
)

// walk is the random-walk state of one instrument
type walk struct {
	base    float64
	current float64
	open    float64
	high    float64
	low     float64
	trend   float64
}

// SimulatedSource produces random-walk quotes for local runs. It is always
// connected.
type SimulatedSource struct {
	Volatility float64

	mu    sync.Mutex
	rng   *rand.Rand
	walks map[models.InstrumentKey]*walk
}

// -----------------------------------------------------------------------------

func NewSimulatedSource(seed int64) *SimulatedSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SimulatedSource{
		Volatility: 0.0005,
		rng:        rand.New(rand.NewSource(seed)),
		walks:      make(map[models.InstrumentKey]*walk),
	}
}

// -----------------------------------------------------------------------------

func (s *SimulatedSource) Name() string {
	return "simulated"
}

func (s *SimulatedSource) IsConnected() bool {
	return true
}

// -----------------------------------------------------------------------------

func (s *SimulatedSource) GetQuote(ctx context.Context, key models.InstrumentKey) (*models.MQuote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.walks[key]
	if !ok {
		base := basePrice(key)
		w = &walk{base: base, current: base, open: base, high: base, low: base, trend: 1}
		s.walks[key] = w
	}

	change := s.rng.NormFloat64() * s.Volatility * w.current
	change += change * 0.1 * w.trend
	next := w.current + change

	// Keep within 20% of the base price
	maxDeviation := w.base * 0.2
	if next > w.base+maxDeviation {
		next = w.base + maxDeviation
		w.trend = -1
	} else if next < w.base-maxDeviation {
		next = w.base - maxDeviation
		w.trend = 1
	}
	if s.rng.Float64() < 0.05 {
		w.trend = -w.trend
	}

	next = math.Round(next*20) / 20 // 0.05 tick size
	if next <= 0 {
		next = 0.05
	}

	w.current = next
	w.high = math.Max(w.high, next)
	w.low = math.Min(w.low, next)

	return &models.MQuote{Last: w.current, Open: w.open, High: w.high, Low: w.low}, nil
}

// -----------------------------------------------------------------------------

// basePrice derives a stable starting price from the instrument token.
func basePrice(key models.InstrumentKey) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key.String()))
	return float64(100 + h.Sum32()%4900)
}
