package services

import (
	"testing"
	"time"

	"github.com/manthysbr/modelpilot/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRanker(resources ...domain.Resource) (*Ranker, *Catalog, *UsageLedger, *fakeClock) {
	clock := newFakeClock()
	catalog := NewCatalog(testLogger())
	catalog.Load(resources)
	ledger := NewUsageLedger()
	ledger.now = clock.Now
	ranker := NewRanker(testLogger(), catalog, ledger, domain.DefaultRankingConfig())
	ranker.now = clock.Now
	return ranker, catalog, ledger, clock
}

func weakResource(id string) domain.Resource {
	r := resource(id, "weak", domain.SpeedSlow, 0.2, 5000)
	r.Cost = domain.CostProfile{InputPerUnit: 0.05, OutputPerUnit: 0.05}
	r.Availability.SLA = 0
	r.Availability.RateLimits.RequestsPerMinute = 0
	return r
}

func TestRanker_SpeedScenario(t *testing.T) {
	a := resource("A", "acme", domain.SpeedFast, 0.95, 1200)
	b := resource("B", "acme", domain.SpeedUltraFast, 0.90, 600)
	ranker, _, _, _ := newTestRanker(a, b)

	recs := ranker.Recommend(domain.SelectionCriteria{Priority: domain.PrioritySpeed})
	require.Len(t, recs, 2)
	assert.Equal(t, domain.ResourceID("B"), recs[0].ResourceID)
	assert.Equal(t, domain.ResourceID("A"), recs[1].ResourceID)
}

func TestRanker_ThresholdAndFiltering(t *testing.T) {
	good := resource("good", "acme", domain.SpeedFast, 0.9, 800)
	weak := weakResource("weak")
	down := resource("down", "acme", domain.SpeedUltraFast, 0.99, 100)
	down.Availability.Status = domain.StatusUnavailable
	limited := resource("limited", "acme", domain.SpeedUltraFast, 0.99, 100)
	limited.Availability.Status = domain.StatusLimited
	avoided := resource("avoided", "acme", domain.SpeedUltraFast, 0.99, 100)

	ranker, _, _, _ := newTestRanker(good, weak, down, limited, avoided)
	require.LessOrEqual(t, Score(weak, domain.SelectionCriteria{}), 0.5)

	recs := ranker.Recommend(domain.SelectionCriteria{
		Priority:    domain.PriorityBalanced,
		Preferences: domain.Preferences{Avoid: []domain.ResourceID{"avoided"}},
	})
	require.Len(t, recs, 1)
	assert.Equal(t, domain.ResourceID("good"), recs[0].ResourceID)
	for _, rec := range recs {
		assert.Greater(t, rec.Score, 0.5)
		assert.LessOrEqual(t, rec.Score, 1.0)
	}
}

func TestRanker_ScoresIndependentOfOtherResources(t *testing.T) {
	a := resource("a", "acme", domain.SpeedFast, 0.9, 800)
	b := resource("b", "acme", domain.SpeedUltraFast, 0.95, 300)
	c := resource("c", "other", domain.SpeedMedium, 0.8, 1500)
	criteria := domain.SelectionCriteria{Priority: domain.PriorityQuality}

	scores := func(resources ...domain.Resource) map[domain.ResourceID]float64 {
		ranker, _, _, _ := newTestRanker(resources...)
		out := make(map[domain.ResourceID]float64)
		for _, rec := range ranker.Recommend(criteria) {
			out[rec.ResourceID] = rec.Score
		}
		return out
	}

	full := scores(a, b, c)
	require.Len(t, full, 3)

	without := scores(a, c)
	require.Len(t, without, 2)
	assert.Equal(t, full["a"], without["a"])
	assert.Equal(t, full["c"], without["c"])
}

func TestRanker_EmptyWhenNothingQualifies(t *testing.T) {
	ranker, _, _, _ := newTestRanker(weakResource("w1"), weakResource("w2"))

	recs := ranker.Recommend(domain.SelectionCriteria{})
	assert.NotNil(t, recs)
	assert.Empty(t, recs)

	_, ok := ranker.SelectBest(domain.SelectionCriteria{})
	assert.False(t, ok)

	empty, _, _, _ := newTestRanker()
	assert.Empty(t, empty.Recommend(domain.SelectionCriteria{}))
}

func TestRanker_StableTiesAndDeterminism(t *testing.T) {
	first := resource("first", "acme", domain.SpeedFast, 0.9, 800)
	second := resource("second", "other", domain.SpeedFast, 0.9, 800)
	third := resource("third", "acme", domain.SpeedFast, 0.9, 800)
	ranker, _, _, _ := newTestRanker(first, second, third)

	criteria := domain.SelectionCriteria{Priority: domain.PriorityQuality}
	recs := ranker.Recommend(criteria)
	require.Len(t, recs, 3)
	assert.Equal(t, []domain.ResourceID{"first", "second", "third"},
		[]domain.ResourceID{recs[0].ResourceID, recs[1].ResourceID, recs[2].ResourceID})

	assert.Equal(t, recs, ranker.Recommend(criteria))

	best, ok := ranker.SelectBest(criteria)
	require.True(t, ok)
	assert.Equal(t, recs[0], best)
}

func TestRanker_Reasons(t *testing.T) {
	star := resource("star", "acme", domain.SpeedUltraFast, 0.95, 300)
	star.Cost.FreeTier.Enabled = true
	star.Capabilities.ContextWindow = 200000
	star.Capabilities.Features = []string{"code_generation", "Multimodal"}

	plain := resource("plain", "other", domain.SpeedMedium, 0.85, 900)

	ranker, _, _, _ := newTestRanker(star, plain)
	recs := ranker.Recommend(domain.SelectionCriteria{
		Priority:    domain.PriorityBalanced,
		Constraints: domain.Constraints{MinAccuracy: domain.Float64(0.9)},
		Preferences: domain.Preferences{PreferredProvider: "ACME", PreferredType: "chat"},
	})
	require.Len(t, recs, 2)

	assert.Equal(t, []string{
		ReasonHighAccuracy,
		ReasonFastResponse,
		ReasonFreeTier,
		ReasonLargeContext,
		ReasonVision,
		ReasonPreferredProvider,
		ReasonPreferredType,
		ReasonMeetsAccuracy,
	}, recs[0].Reasons)

	// Below the accuracy floor still ranks, without the accuracy reason
	assert.Equal(t, domain.ResourceID("plain"), recs[1].ResourceID)
	assert.Equal(t, []string{ReasonPreferredType}, recs[1].Reasons)
}

func TestRanker_Alternatives(t *testing.T) {
	resources := []domain.Resource{
		resource("o1", "openai", domain.SpeedFast, 0.9, 800),
		resource("o2", "openai", domain.SpeedFast, 0.9, 800),
		resource("x1", "other", domain.SpeedFast, 0.9, 800),
		resource("o3", "openai", domain.SpeedFast, 0.9, 800),
		resource("o4", "openai", domain.SpeedFast, 0.9, 800),
		resource("o5", "openai", domain.SpeedFast, 0.9, 800),
	}
	resources[1].Availability.Status = domain.StatusMaintenance

	ranker, _, _, _ := newTestRanker(resources...)
	recs := ranker.Recommend(domain.SelectionCriteria{})

	byID := make(map[domain.ResourceID]domain.Recommendation)
	for _, r := range recs {
		byID[r.ResourceID] = r
	}
	assert.Equal(t, []domain.ResourceID{"o3", "o4", "o5"}, byID["o1"].Alternatives)
	assert.Equal(t, []domain.ResourceID{"o1", "o4", "o5"}, byID["o3"].Alternatives)
	assert.Empty(t, byID["x1"].Alternatives)
	assert.NotContains(t, byID["o1"].Alternatives, domain.ResourceID("o1"))
}

func TestRanker_Confidence(t *testing.T) {
	veteran := resource("veteran", "acme", domain.SpeedFast, 0.9, 800)
	stale := resource("stale", "acme", domain.SpeedFast, 0.9, 800)
	fresh := resource("fresh", "acme", domain.SpeedFast, 0.9, 800)
	ranker, _, ledger, clock := newTestRanker(veteran, stale, fresh)

	for i := 0; i < 3; i++ {
		ledger.Record(domain.UsageRecord{ResourceID: "stale", Success: i < 2})
	}
	clock.Advance(8 * 24 * time.Hour)
	for i := 0; i < 11; i++ {
		ledger.Record(domain.UsageRecord{ResourceID: "veteran", Success: true})
	}

	conf := make(map[domain.ResourceID]float64)
	for _, rec := range ranker.Recommend(domain.SelectionCriteria{}) {
		conf[rec.ResourceID] = rec.Confidence
	}
	assert.InDelta(t, 1.0, conf["veteran"], 1e-9)
	assert.InDelta(t, 0.5+0.1*2.0/3.0, conf["stale"], 1e-9)
	assert.InDelta(t, 0.5, conf["fresh"], 1e-9)
}
