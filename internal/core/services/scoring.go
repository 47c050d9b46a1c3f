package services

import (
	"math"
	"strings"

	"github.com/manthysbr/modelpilot/internal/core/domain"
)

const (
	defaultMaxLatencyMs = 5000.0
	defaultMaxCost      = 0.01
	costScoreFloor      = 0.1
	freeTierBonus       = 1.2
	rpmSaturation       = 1000.0
)

// Score rates a resource against the criteria on a 0..1 scale.
// It is a pure function and safe for concurrent use.
func Score(res domain.Resource, criteria domain.SelectionCriteria) float64 {
	return Breakdown(res, criteria).Total
}

// Breakdown computes the four sub-scores and their weighted, clamped sum.
func Breakdown(res domain.Resource, criteria domain.SelectionCriteria) domain.ScoreBreakdown {
	w := domain.WeightsFor(criteria.Priority)
	b := domain.ScoreBreakdown{
		Performance:  performanceScore(res, criteria),
		Cost:         costScore(res, criteria),
		Capability:   capabilityScore(res, criteria),
		Availability: availabilityScore(res),
		Weights:      w,
	}
	b.Total = clamp01(b.Performance*w.Performance +
		b.Cost*w.Cost +
		b.Capability*w.Capability +
		b.Availability*w.Availability)
	return b
}

func speedClassScore(s domain.SpeedClass) float64 {
	switch s {
	case domain.SpeedSlow:
		return 0.2
	case domain.SpeedMedium:
		return 0.5
	case domain.SpeedFast:
		return 0.8
	case domain.SpeedUltraFast:
		return 1.0
	default:
		return 0
	}
}

func performanceScore(res domain.Resource, criteria domain.SelectionCriteria) float64 {
	maxLatency := defaultMaxLatencyMs
	if c := criteria.Constraints.MaxLatencyMs; c != nil && *c > 0 {
		maxLatency = *c
	}
	latency := math.Max(0, 1-res.Performance.LatencyMs/maxLatency)
	return clamp01(0.3*speedClassScore(res.Performance.Speed) +
		0.4*res.Performance.Accuracy +
		0.3*latency)
}

func costScore(res domain.Resource, criteria domain.SelectionCriteria) float64 {
	maxCost := defaultMaxCost
	if c := criteria.Constraints.MaxCost; c != nil && *c != 0 {
		maxCost = *c
	}
	if maxCost <= 0 {
		return 1.0
	}
	score := math.Max(costScoreFloor, clamp01(1-res.Cost.AverageUnitCost()/maxCost))
	if res.Cost.FreeTier.Enabled {
		score *= freeTierBonus
	}
	return math.Min(1.0, score)
}

func capabilityScore(res domain.Resource, criteria domain.SelectionCriteria) float64 {
	c := criteria.Constraints

	language := 1.0
	if lang := strings.TrimSpace(c.RequiredLanguage); lang != "" && !res.SupportsLanguage(lang) {
		language = 0
	}

	features := 1.0
	if len(c.RequiredFeatures) > 0 {
		matched := 0
		for _, f := range c.RequiredFeatures {
			if res.HasFeature(f) {
				matched++
			}
		}
		features = float64(matched) / float64(len(c.RequiredFeatures))
	}

	context := 1.0
	if c.RequiredContextSize > 0 {
		context = math.Min(1, float64(res.Capabilities.ContextWindow)/float64(c.RequiredContextSize))
	}

	return 0.3*language + 0.4*features + 0.3*context
}

func availabilityScore(res domain.Resource) float64 {
	status := 0.0
	switch res.Availability.Status {
	case domain.StatusAvailable:
		status = 1
	case domain.StatusLimited:
		status = 0.3
	}
	sla := clamp01(res.Availability.SLA / 100)
	rpm := math.Min(1, float64(res.Availability.RateLimits.RequestsPerMinute)/rpmSaturation)
	return 0.5*status + 0.3*sla + 0.2*math.Max(0, rpm)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
