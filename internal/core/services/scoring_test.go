package services

import (
	"testing"

	"github.com/manthysbr/modelpilot/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestBreakdown_Balanced(t *testing.T) {
	res := resource("r", "acme", domain.SpeedFast, 0.9, 1000)

	b := Breakdown(res, domain.SelectionCriteria{Priority: domain.PriorityBalanced})

	assert.InDelta(t, 0.84, b.Performance, 1e-9)
	assert.InDelta(t, 0.7, b.Cost, 1e-9)
	assert.InDelta(t, 1.0, b.Capability, 1e-9)
	assert.InDelta(t, 0.9997, b.Availability, 1e-9)
	assert.Equal(t, domain.WeightsFor(domain.PriorityBalanced), b.Weights)
	assert.InDelta(t, 0.86197, b.Total, 1e-9)
	assert.Equal(t, b.Total, Score(res, domain.SelectionCriteria{Priority: domain.PriorityBalanced}))
}

func TestWeightsFor(t *testing.T) {
	tests := []struct {
		priority domain.Priority
		want     domain.Weights
	}{
		{domain.PrioritySpeed, domain.Weights{Performance: 0.6, Cost: 0.2, Capability: 0.1, Availability: 0.1}},
		{domain.PriorityQuality, domain.Weights{Performance: 0.4, Cost: 0.1, Capability: 0.4, Availability: 0.1}},
		{domain.PriorityCost, domain.Weights{Performance: 0.2, Cost: 0.6, Capability: 0.1, Availability: 0.1}},
		{domain.PriorityBalanced, domain.Weights{Performance: 0.3, Cost: 0.3, Capability: 0.3, Availability: 0.1}},
		{"unheard-of", domain.Weights{Performance: 0.3, Cost: 0.3, Capability: 0.3, Availability: 0.1}},
	}
	for _, tt := range tests {
		t.Run(string(tt.priority), func(t *testing.T) {
			w := domain.WeightsFor(tt.priority)
			assert.Equal(t, tt.want, w)
			assert.InDelta(t, 1.0, w.Performance+w.Cost+w.Capability+w.Availability, 1e-9)
		})
	}
}

func TestPerformanceScore_LatencyConstraint(t *testing.T) {
	res := resource("r", "acme", domain.SpeedMedium, 0.8, 1000)

	unset := performanceScore(res, domain.SelectionCriteria{})
	assert.InDelta(t, 0.15+0.32+0.3*0.8, unset, 1e-9)

	tight := performanceScore(res, domain.SelectionCriteria{
		Constraints: domain.Constraints{MaxLatencyMs: domain.Float64(500)},
	})
	assert.InDelta(t, 0.15+0.32, tight, 1e-9, "latency beyond the bound contributes nothing")

	unknownSpeed := res
	unknownSpeed.Performance.Speed = "warp"
	assert.InDelta(t, 0.32+0.3*0.8, performanceScore(unknownSpeed, domain.SelectionCriteria{}), 1e-9)
}

func TestCostScore(t *testing.T) {
	cheap := resource("cheap", "acme", domain.SpeedFast, 0.9, 500)
	pricey := cheap
	pricey.Cost = domain.CostProfile{InputPerUnit: 0.02, OutputPerUnit: 0.02}
	free := cheap
	free.Cost.FreeTier.Enabled = true
	pricyFree := pricey
	pricyFree.Cost.FreeTier.Enabled = true
	almostFree := cheap
	almostFree.Cost = domain.CostProfile{InputPerUnit: 0.0001, OutputPerUnit: 0.0001, FreeTier: domain.FreeTier{Enabled: true}}

	none := domain.SelectionCriteria{}
	tests := []struct {
		name     string
		res      domain.Resource
		criteria domain.SelectionCriteria
		want     float64
	}{
		{"default bound", cheap, none, 0.7},
		{"floor", pricey, none, 0.1},
		{"free tier bonus", free, none, 0.84},
		{"free tier on floor", pricyFree, none, 0.12},
		{"bonus capped at one", almostFree, none, 1.0},
		{"custom bound", cheap, domain.SelectionCriteria{Constraints: domain.Constraints{MaxCost: domain.Float64(0.006)}}, 0.5},
		{"zero bound uses default", cheap, domain.SelectionCriteria{Constraints: domain.Constraints{MaxCost: domain.Float64(0)}}, 0.7},
		{"negative bound", pricey, domain.SelectionCriteria{Constraints: domain.Constraints{MaxCost: domain.Float64(-1)}}, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, costScore(tt.res, tt.criteria), 1e-9)
		})
	}
}

func TestCapabilityScore(t *testing.T) {
	res := resource("r", "acme", domain.SpeedFast, 0.9, 500)

	assert.InDelta(t, 1.0, capabilityScore(res, domain.SelectionCriteria{}), 1e-9)

	partial := domain.SelectionCriteria{Constraints: domain.Constraints{
		RequiredLanguage:    "rust",
		RequiredFeatures:    []string{"code_generation", "vision"},
		RequiredContextSize: 64000,
	}}
	assert.InDelta(t, 0.35, capabilityScore(res, partial), 1e-9)

	caseInsensitive := domain.SelectionCriteria{Constraints: domain.Constraints{
		RequiredLanguage: "Go",
		RequiredFeatures: []string{"CODE_GENERATION"},
	}}
	assert.InDelta(t, 1.0, capabilityScore(res, caseInsensitive), 1e-9)
}

func TestAvailabilityScore(t *testing.T) {
	res := resource("r", "acme", domain.SpeedFast, 0.9, 500)

	tests := []struct {
		status domain.AvailabilityStatus
		want   float64
	}{
		{domain.StatusAvailable, 0.5 + 0.2997 + 0.2},
		{domain.StatusLimited, 0.15 + 0.2997 + 0.2},
		{domain.StatusUnavailable, 0.2997 + 0.2},
		{domain.StatusMaintenance, 0.2997 + 0.2},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			r := res
			r.Availability.Status = tt.status
			assert.InDelta(t, tt.want, availabilityScore(r), 1e-9)
		})
	}

	slowRPM := res
	slowRPM.Availability.RateLimits.RequestsPerMinute = 250
	assert.InDelta(t, 0.5+0.2997+0.05, availabilityScore(slowRPM), 1e-9)
}

func TestScore_SpeedPriorityPrefersFasterResource(t *testing.T) {
	a := resource("A", "acme", domain.SpeedFast, 0.95, 1200)
	b := resource("B", "acme", domain.SpeedUltraFast, 0.90, 600)
	criteria := domain.SelectionCriteria{Priority: domain.PrioritySpeed}

	pa, pb := performanceScore(a, criteria), performanceScore(b, criteria)
	assert.InDelta(t, 0.848, pa, 1e-9)
	assert.InDelta(t, 0.924, pb, 1e-9)
	assert.Greater(t, Score(b, criteria), Score(a, criteria))
}

func TestScore_Bounded(t *testing.T) {
	extreme := resource("x", "acme", domain.SpeedUltraFast, 5, -100)
	extreme.Availability.SLA = 500
	extreme.Availability.RateLimits.RequestsPerMinute = 1 << 30

	for _, p := range []domain.Priority{domain.PrioritySpeed, domain.PriorityQuality, domain.PriorityCost, domain.PriorityBalanced} {
		s := Score(extreme, domain.SelectionCriteria{Priority: p})
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}

	empty := domain.Resource{}
	s := Score(empty, domain.SelectionCriteria{})
	assert.GreaterOrEqual(t, s, 0.0)
	assert.LessOrEqual(t, s, 1.0)
}

func TestScore_MonotonicInLatencyAndAccuracy(t *testing.T) {
	criteria := domain.SelectionCriteria{Priority: domain.PriorityBalanced}
	base := resource("r", "acme", domain.SpeedMedium, 0.7, 2000)

	faster := base
	faster.Performance.LatencyMs = 800
	assert.GreaterOrEqual(t, performanceScore(faster, criteria), performanceScore(base, criteria))

	smarter := base
	smarter.Performance.Accuracy = 0.9
	assert.GreaterOrEqual(t, performanceScore(smarter, criteria), performanceScore(base, criteria))
}

func TestScore_AccuracyNeverLowersScoreUnderAnyPriority(t *testing.T) {
	priorities := []domain.Priority{domain.PrioritySpeed, domain.PriorityQuality, domain.PriorityCost, domain.PriorityBalanced}
	for _, p := range priorities {
		t.Run(string(p), func(t *testing.T) {
			criteria := domain.SelectionCriteria{Priority: p}
			prev := -1.0
			for _, acc := range []float64{0, 0.25, 0.5, 0.7, 0.9, 1} {
				r := resource("r", "acme", domain.SpeedMedium, acc, 2000)
				s := Score(r, criteria)
				assert.GreaterOrEqual(t, s, prev, "accuracy %.2f", acc)
				prev = s
			}
		})
	}
}
