package services

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/manthysbr/modelpilot/internal/core/domain"
	"github.com/manthysbr/modelpilot/internal/core/ports"
)

// SwitchListener is notified after a switch commits, outside the controller lock.
type SwitchListener func(domain.SwitchRecord)

// SwitchController owns the current-resource pointer and the switch history.
// All switches serialize on mu; concurrent attempts apply last-writer-wins
// and every committed one lands in the history.
type SwitchController struct {
	logger  *slog.Logger
	catalog *Catalog
	ledger  *UsageLedger
	ranker  *Ranker
	ids     ports.IDGenerator
	policy  domain.PolicyConfig
	now     func() time.Time

	mu        sync.RWMutex
	current   domain.ResourceID
	snapshot  domain.Resource
	history   []domain.SwitchRecord
	listeners []SwitchListener
}

func NewSwitchController(logger *slog.Logger, catalog *Catalog, ledger *UsageLedger, ranker *Ranker, ids ports.IDGenerator, policy domain.PolicyConfig) *SwitchController {
	return &SwitchController{
		logger:  logger,
		catalog: catalog,
		ledger:  ledger,
		ranker:  ranker,
		ids:     ids,
		policy:  policy,
		now:     time.Now,
	}
}

// OnSwitch registers a listener for committed switches.
func (s *SwitchController) OnSwitch(fn SwitchListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// SetPolicy replaces the auto-switch thresholds.
func (s *SwitchController) SetPolicy(p domain.PolicyConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy = p
}

func (s *SwitchController) Policy() domain.PolicyConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy
}

// SwitchTo makes id the current resource. It returns false, changing nothing,
// when id is unknown or its status is not available.
func (s *SwitchController) SwitchTo(id domain.ResourceID, reason, context, actor string) bool {
	if actor == "" {
		actor = domain.ActorUser
	}

	var (
		rec       domain.SwitchRecord
		listeners []SwitchListener
		committed bool
	)
	// The commit happens inside View so the status cannot flip between the
	// check and the pointer swap.
	found := s.catalog.View(id, func(res domain.Resource) {
		if res.Availability.Status != domain.StatusAvailable {
			s.logger.Debug("switch refused: resource not available", "resource_id", id, "status", res.Availability.Status)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		from := s.current
		if from == "" {
			from = domain.NoResource
		}
		rec = domain.SwitchRecord{
			ID:        s.ids.NewID(),
			From:      from,
			To:        id,
			Reason:    reason,
			Timestamp: s.now(),
			Snapshot: domain.SwitchSnapshot{
				Performance: res.Performance,
				Cost:        res.Cost,
			},
			Actor:   actor,
			Context: context,
		}
		s.current = id
		s.snapshot = res
		s.history = append(s.history, rec)
		listeners = append([]SwitchListener(nil), s.listeners...)
		committed = true
	})
	if !found {
		s.logger.Debug("switch refused: unknown resource", "resource_id", id)
		return false
	}
	if !committed {
		return false
	}

	s.logger.Info("switched resource", "from", rec.From, "to", rec.To, "reason", reason, "actor", actor)
	for _, fn := range listeners {
		fn(rec)
	}
	return true
}

// Current returns the active resource. The catalog's live copy is preferred so
// availability changes show through; the switch-time snapshot is the fallback
// when the catalog no longer holds it.
func (s *SwitchController) Current() (domain.Resource, bool) {
	s.mu.RLock()
	id, snap := s.current, s.snapshot
	s.mu.RUnlock()
	if id == "" {
		return domain.Resource{}, false
	}
	if res, ok := s.catalog.Get(id); ok {
		return res, true
	}
	return snap.Clone(), true
}

// History returns the switch records in commit order.
func (s *SwitchController) History() []domain.SwitchRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.SwitchRecord{}, s.history...)
}

// Degradation is the outcome of evaluating the current resource's recent usage.
type Degradation struct {
	Samples     int     `json:"samples"`
	AvgLatency  float64 `json:"avg_latency_ms"`
	SuccessRate float64 `json:"success_rate"`
	AvgQuality  float64 `json:"avg_quality"`
	Degraded    bool    `json:"degraded"`
}

// Evaluate computes rolling averages over the lookback window. ok is false
// when there is no current resource or too few samples to judge.
func (s *SwitchController) Evaluate() (domain.Resource, Degradation, bool) {
	policy := s.Policy()
	current, ok := s.Current()
	if !ok {
		return domain.Resource{}, Degradation{}, false
	}

	window := domain.LastWindow(s.now(), policy.LookbackWindow)
	records := s.ledger.Query(current.ID, &window)
	if len(records) < policy.MinSamples {
		return current, Degradation{Samples: len(records)}, false
	}

	d := Degradation{Samples: len(records)}
	d.AvgLatency, d.AvgQuality, d.SuccessRate = rollingAverages(records)
	d.Degraded = d.AvgLatency > policy.LatencyFactor*current.Performance.LatencyMs ||
		d.SuccessRate < policy.MinSuccessRate ||
		d.AvgQuality < policy.QualityFactor*current.Performance.Accuracy
	return current, d, true
}

// AutoSwitchIfNeeded replaces a degraded current resource with the best
// alternative scoring above the policy floor. It reports whether a switch committed.
func (s *SwitchController) AutoSwitchIfNeeded() bool {
	current, d, ok := s.Evaluate()
	if !ok || !d.Degraded {
		return false
	}
	policy := s.Policy()

	criteria := domain.SelectionCriteria{
		Task:     "auto-switch",
		Priority: domain.PriorityBalanced,
		Constraints: domain.Constraints{
			MaxLatencyMs: domain.Float64(policy.TargetLatencyFactor * d.AvgLatency),
			MinAccuracy:  domain.Float64(policy.TargetAccuracyFactor * d.AvgQuality),
		},
	}

	for _, rec := range s.ranker.Recommend(criteria) {
		if rec.ResourceID == current.ID || rec.Score <= policy.MinAlternativeScore {
			continue
		}
		context := fmt.Sprintf("avg latency %.0fms, success rate %.1f%%, avg quality %.2f over %d samples",
			d.AvgLatency, d.SuccessRate*100, d.AvgQuality, d.Samples)
		if s.SwitchTo(rec.ResourceID, domain.AutoSwitchReason, context, domain.ActorAutoSwitch) {
			return true
		}
	}

	s.logger.Info("degradation detected but no eligible alternative",
		"resource_id", current.ID,
		"avg_latency_ms", d.AvgLatency,
		"success_rate", d.SuccessRate)
	return false
}
