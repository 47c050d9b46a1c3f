package services

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/manthysbr/modelpilot/internal/core/domain"
)

// Reason strings attached to recommendations.
const (
	ReasonHighAccuracy      = "High accuracy"
	ReasonFastResponse      = "Fast response time"
	ReasonFreeTier          = "Free tier available"
	ReasonLargeContext      = "Large context window"
	ReasonVision            = "Vision capabilities"
	ReasonPreferredProvider = "Preferred provider"
	ReasonPreferredType     = "Preferred type"
	ReasonMeetsAccuracy     = "Meets accuracy requirement"
)

const largeContextWindow = 100000

var visionFeatures = []string{"vision", "image", "multimodal"}

// usageSummarizer is the slice of the ledger the ranker needs for confidence.
type usageSummarizer interface {
	Summary(id domain.ResourceID, recentSince time.Time) domain.UsageSummary
}

// Ranker scores the catalog and turns scores into recommendations.
type Ranker struct {
	logger  *slog.Logger
	catalog *Catalog
	usage   usageSummarizer
	cfg     domain.RankingConfig
	now     func() time.Time
}

func NewRanker(logger *slog.Logger, catalog *Catalog, usage usageSummarizer, cfg domain.RankingConfig) *Ranker {
	return &Ranker{
		logger:  logger,
		catalog: catalog,
		usage:   usage,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Recommend returns qualifying resources ordered by score, highest first.
// Ties keep catalog order. An empty slice means nothing qualified.
func (r *Ranker) Recommend(criteria domain.SelectionCriteria) []domain.Recommendation {
	resources := r.catalog.All()
	recentSince := r.now().Add(-r.cfg.RecentWindow)

	recs := make([]domain.Recommendation, 0, len(resources))
	for _, res := range resources {
		if res.Availability.Status != domain.StatusAvailable || criteria.Avoids(res.ID) {
			continue
		}
		score := Score(res, criteria)
		if score <= r.cfg.ScoreThreshold {
			continue
		}
		recs = append(recs, domain.Recommendation{
			ResourceID:   res.ID,
			Score:        score,
			Reasons:      reasonsFor(res, criteria),
			Alternatives: r.alternativesFor(res, resources, criteria),
			Confidence:   r.confidence(r.usage.Summary(res.ID, recentSince)),
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})

	r.logger.Debug("ranked resources",
		"task", criteria.Task,
		"priority", criteria.Priority,
		"candidates", len(resources),
		"qualified", len(recs))
	return recs
}

// SelectBest returns the top recommendation, if any.
func (r *Ranker) SelectBest(criteria domain.SelectionCriteria) (domain.Recommendation, bool) {
	recs := r.Recommend(criteria)
	if len(recs) == 0 {
		return domain.Recommendation{}, false
	}
	return recs[0], true
}

func reasonsFor(res domain.Resource, criteria domain.SelectionCriteria) []string {
	reasons := []string{}
	if res.Performance.Accuracy > 0.9 {
		reasons = append(reasons, ReasonHighAccuracy)
	}
	if res.Performance.Speed == domain.SpeedFast || res.Performance.Speed == domain.SpeedUltraFast {
		reasons = append(reasons, ReasonFastResponse)
	}
	if res.Cost.FreeTier.Enabled {
		reasons = append(reasons, ReasonFreeTier)
	}
	if res.Capabilities.ContextWindow > largeContextWindow {
		reasons = append(reasons, ReasonLargeContext)
	}
	for _, f := range visionFeatures {
		if res.HasFeature(f) {
			reasons = append(reasons, ReasonVision)
			break
		}
	}

	prefs := criteria.Preferences
	if prefs.PreferredProvider != "" && strings.EqualFold(prefs.PreferredProvider, res.Provider) {
		reasons = append(reasons, ReasonPreferredProvider)
	}
	if prefs.PreferredType != "" && strings.EqualFold(prefs.PreferredType, res.Type) {
		reasons = append(reasons, ReasonPreferredType)
	}
	if floor := criteria.Constraints.MinAccuracy; floor != nil && res.Performance.Accuracy >= *floor {
		reasons = append(reasons, ReasonMeetsAccuracy)
	}
	return reasons
}

// alternativesFor lists other available resources of the same provider in catalog order.
func (r *Ranker) alternativesFor(res domain.Resource, all []domain.Resource, criteria domain.SelectionCriteria) []domain.ResourceID {
	alts := []domain.ResourceID{}
	for _, other := range all {
		if len(alts) >= r.cfg.MaxAlternatives {
			break
		}
		if other.ID == res.ID || other.Provider != res.Provider {
			continue
		}
		if other.Availability.Status != domain.StatusAvailable || criteria.Avoids(other.ID) {
			continue
		}
		alts = append(alts, other.ID)
	}
	return alts
}

func (r *Ranker) confidence(s domain.UsageSummary) float64 {
	c := 0.5
	if s.Total > r.cfg.ExperiencedThreshold {
		c += 0.2
	}
	if s.Recent > 0 {
		c += 0.2
	}
	c += 0.1 * s.SuccessRate
	return clamp01(c)
}
