package runner

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/manthysbr/modelpilot/internal/core/domain"
)

// ErrSimulatedFailure is returned when the simulated resource "fails" a task.
var ErrSimulatedFailure = errors.New("simulated failure")

// Simulator fakes task execution from a resource's nominal profile.
// Latency is jittered around the nominal value, failures occur with
// probability 1-reliability, and quality is drawn around accuracy.
// Degrade lets demos and tests push a resource out of its profile.
type Simulator struct {
	mu       sync.Mutex
	rng      *rand.Rand
	jitter   float64
	sleep    bool
	degraded map[domain.ResourceID]float64
}

// NewSimulator creates a runner. With sleep set, Run blocks for the simulated latency.
func NewSimulator(seed int64, jitter float64, sleep bool) *Simulator {
	if jitter < 0 {
		jitter = 0
	}
	return &Simulator{
		rng:      rand.New(rand.NewSource(seed)),
		jitter:   jitter,
		sleep:    sleep,
		degraded: make(map[domain.ResourceID]float64),
	}
}

// Degrade multiplies a resource's latency by factor and scales its quality
// and reliability down by the same factor. A factor <= 1 restores it.
func (s *Simulator) Degrade(id domain.ResourceID, factor float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if factor <= 1 {
		delete(s.degraded, id)
		return
	}
	s.degraded[id] = factor
}

func (s *Simulator) draw() (jit, fail, qual float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()*2 - 1, s.rng.Float64(), s.rng.Float64()*2 - 1
}

func (s *Simulator) Run(ctx context.Context, res domain.Resource, task domain.Task) (domain.TaskOutcome, error) {
	s.mu.Lock()
	factor, degraded := s.degraded[res.ID]
	s.mu.Unlock()
	if !degraded {
		factor = 1
	}

	jit, fail, qual := s.draw()
	latency := res.Performance.LatencyMs * factor * (1 + s.jitter*jit)
	if latency < 0 {
		latency = 0
	}

	if s.sleep && latency > 0 {
		timer := time.NewTimer(time.Duration(latency * float64(time.Millisecond)))
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return domain.TaskOutcome{LatencyMs: latency}, ctx.Err()
		case <-timer.C:
		}
	}

	outputTokens := task.InputTokens / 2
	if outputTokens == 0 {
		outputTokens = 64
	}
	outcome := domain.TaskOutcome{
		Output:       fmt.Sprintf("[%s] %s", res.ID, task.Label),
		OutputTokens: outputTokens,
		Cost:         res.Cost.Estimate(task.InputTokens, outputTokens),
		LatencyMs:    latency,
	}
	if res.Cost.FreeTier.Enabled {
		outcome.Cost = 0
	}

	reliability := res.Performance.Reliability / factor
	if fail > reliability {
		return outcome, fmt.Errorf("%s: %w", res.ID, ErrSimulatedFailure)
	}

	quality := res.Performance.Accuracy/factor + 0.05*qual
	outcome.Quality = min(1, max(0, quality))
	return outcome, nil
}
