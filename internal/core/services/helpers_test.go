package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/manthysbr/modelpilot/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type sequenceIDs struct {
	n atomic.Int64
}

func (s *sequenceIDs) NewID() string {
	return fmt.Sprintf("id-%d", s.n.Add(1))
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// resource builds a healthy, available descriptor for tests.
func resource(id, provider string, speed domain.SpeedClass, accuracy, latency float64) domain.Resource {
	return domain.Resource{
		ID:       domain.ResourceID(id),
		Name:     id,
		Provider: provider,
		Type:     "chat",
		Capabilities: domain.Capabilities{
			Languages:     []string{"go", "python"},
			Features:      []string{"code_generation"},
			ContextWindow: 32000,
		},
		Performance: domain.PerformanceProfile{
			Speed:       speed,
			Accuracy:    accuracy,
			LatencyMs:   latency,
			Reliability: 0.99,
		},
		Cost: domain.CostProfile{InputPerUnit: 0.002, OutputPerUnit: 0.004},
		Availability: domain.AvailabilityProfile{
			Status:     domain.StatusAvailable,
			RateLimits: domain.RateLimits{RequestsPerMinute: 1000},
			SLA:        99.9,
		},
	}
}

// noopTelemetry accepts every write and reports no rollups.
type noopTelemetry struct{}

func (noopTelemetry) SaveUsage(context.Context, domain.UsageRecord) error   { return nil }
func (noopTelemetry) SaveSwitch(context.Context, domain.SwitchRecord) error { return nil }
func (noopTelemetry) DailyCost(context.Context, domain.TimeRange) ([]domain.DailyCost, error) {
	return nil, nil
}
func (noopTelemetry) Close() error { return nil }
