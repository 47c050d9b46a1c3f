package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/manthysbr/modelpilot/internal/core/domain"
	"github.com/manthysbr/modelpilot/internal/core/ports"
)

const mirrorWriteTimeout = 5 * time.Second

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithPolicy overrides the auto-switch thresholds.
func WithPolicy(p domain.PolicyConfig) EngineOption {
	return func(e *Engine) { e.policy = p }
}

// WithRanking overrides the recommendation thresholds.
func WithRanking(r domain.RankingConfig) EngineOption {
	return func(e *Engine) { e.ranking = r }
}

// WithTelemetry mirrors usage and switch records into repo.
func WithTelemetry(repo ports.TelemetryRepository) EngineOption {
	return func(e *Engine) { e.mirror = repo }
}

// WithEventBus publishes switch, availability and usage events.
func WithEventBus(bus *EventBus) EngineOption {
	return func(e *Engine) { e.bus = bus }
}

// WithIDGenerator sets the switch record id source.
func WithIDGenerator(ids ports.IDGenerator) EngineOption {
	return func(e *Engine) { e.ids = ids }
}

// WithClock sets the time source used for stamps and windows.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// UUIDGenerator issues random UUIDv4 ids.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

// Engine ties the catalog, ledger, ranker, analytics and switch controller together.
type Engine struct {
	logger  *slog.Logger
	policy  domain.PolicyConfig
	ranking domain.RankingConfig
	mirror  ports.TelemetryRepository
	bus     *EventBus
	ids     ports.IDGenerator
	now     func() time.Time

	catalog    *Catalog
	ledger     *UsageLedger
	ranker     *Ranker
	analytics  *Analytics
	controller *SwitchController

	// flushMu keeps new mirror writes out while Flush waits.
	flushMu sync.RWMutex
	pending sync.WaitGroup
}

// NewEngine builds an engine over the given resource descriptors.
func NewEngine(logger *slog.Logger, resources []domain.Resource, opts ...EngineOption) *Engine {
	e := &Engine{
		logger:  logger,
		policy:  domain.DefaultPolicyConfig(),
		ranking: domain.DefaultRankingConfig(),
		ids:     UUIDGenerator{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.catalog = NewCatalog(logger)
	e.catalog.Load(resources)

	e.ledger = NewUsageLedger()
	e.ledger.now = e.now

	e.ranker = NewRanker(logger, e.catalog, e.ledger, e.ranking)
	e.ranker.now = e.now

	e.analytics = NewAnalytics(logger, e.ledger, e.mirror)

	e.controller = NewSwitchController(logger, e.catalog, e.ledger, e.ranker, e.ids, e.policy)
	e.controller.now = e.now
	e.controller.OnSwitch(e.onSwitch)
	return e
}

func (e *Engine) onSwitch(rec domain.SwitchRecord) {
	if e.bus != nil {
		e.bus.PublishJSON(string(rec.To), EventTypeSwitch, rec)
	}
	if e.mirror != nil {
		e.mirrorWrite("switch", func(ctx context.Context) error { return e.mirror.SaveSwitch(ctx, rec) })
	}
}

// mirrorWrite persists in the background; failures are logged and never reach the caller.
func (e *Engine) mirrorWrite(kind string, fn func(ctx context.Context) error) {
	e.flushMu.RLock()
	e.pending.Add(1)
	e.flushMu.RUnlock()
	go func() {
		defer e.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), mirrorWriteTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			e.logger.Warn("telemetry mirror write failed", "kind", kind, "error", err)
		}
	}()
}

// Flush waits for in-flight mirror writes.
func (e *Engine) Flush() {
	e.flushMu.Lock()
	defer e.flushMu.Unlock()
	e.pending.Wait()
}

// ListResources returns the catalog in load order.
func (e *Engine) ListResources() []domain.Resource {
	return e.catalog.All()
}

// GetResource looks up one resource.
func (e *Engine) GetResource(id domain.ResourceID) (domain.Resource, bool) {
	return e.catalog.Get(id)
}

// SetAvailability updates a resource's status from external telemetry.
func (e *Engine) SetAvailability(id domain.ResourceID, status domain.AvailabilityStatus) bool {
	if !e.catalog.SetAvailability(id, status) {
		return false
	}
	if e.bus != nil {
		e.bus.PublishJSON(string(id), EventTypeAvailability, map[string]any{
			"resource_id": id,
			"status":      status,
		})
	}
	return true
}

// ReplaceCatalog swaps the catalog for reloaded descriptors. The current
// resource pointer and all history are kept.
func (e *Engine) ReplaceCatalog(resources []domain.Resource) {
	e.catalog.Replace(resources)
	if e.bus != nil {
		e.bus.PublishJSON("catalog", EventTypeCatalog, map[string]int{"count": len(resources)})
	}
}

// SetPolicy replaces the auto-switch thresholds.
func (e *Engine) SetPolicy(p domain.PolicyConfig) {
	e.controller.SetPolicy(p)
}

// Score explains how a resource scores against criteria.
func (e *Engine) Score(id domain.ResourceID, criteria domain.SelectionCriteria) (domain.ScoreBreakdown, bool) {
	res, ok := e.catalog.Get(id)
	if !ok {
		return domain.ScoreBreakdown{}, false
	}
	return Breakdown(res, criteria), true
}

func (e *Engine) Recommend(criteria domain.SelectionCriteria) []domain.Recommendation {
	return e.ranker.Recommend(criteria)
}

func (e *Engine) SelectBest(criteria domain.SelectionCriteria) (domain.Recommendation, bool) {
	return e.ranker.SelectBest(criteria)
}

// SwitchTo switches on behalf of a user.
func (e *Engine) SwitchTo(id domain.ResourceID, reason, context string) bool {
	return e.controller.SwitchTo(id, reason, context, domain.ActorUser)
}

// SwitchToAs switches on behalf of the given actor.
func (e *Engine) SwitchToAs(actor string, id domain.ResourceID, reason, context string) bool {
	return e.controller.SwitchTo(id, reason, context, actor)
}

func (e *Engine) CurrentResource() (domain.Resource, bool) {
	return e.controller.Current()
}

func (e *Engine) SwitchHistory() []domain.SwitchRecord {
	return e.controller.History()
}

// RecordUsage appends a usage record. Records for resources outside the
// catalog are dropped and reported as false.
func (e *Engine) RecordUsage(rec domain.UsageRecord) (domain.UsageRecord, bool) {
	if _, ok := e.catalog.Get(rec.ResourceID); !ok {
		e.logger.Warn("dropping usage for unknown resource", "resource_id", rec.ResourceID)
		return domain.UsageRecord{}, false
	}
	stamped := e.ledger.Record(rec)
	if e.mirror != nil {
		e.mirrorWrite("usage", func(ctx context.Context) error { return e.mirror.SaveUsage(ctx, stamped) })
	}
	if e.bus != nil {
		e.bus.PublishJSON(string(stamped.ResourceID), EventTypeUsage, stamped)
	}
	return stamped, true
}

// Usage returns a resource's records, optionally restricted to a range.
func (e *Engine) Usage(id domain.ResourceID, r *domain.TimeRange) []domain.UsageRecord {
	return e.ledger.Query(id, r)
}

func (e *Engine) CostAnalysis(r domain.TimeRange) domain.CostAnalysis {
	return e.analytics.CostAnalysis(r)
}

func (e *Engine) PerformanceAnalysis(r domain.TimeRange) domain.PerformanceAnalysis {
	return e.analytics.PerformanceAnalysis(r)
}

// DailyCost waits for pending mirror writes so the trend includes them.
func (e *Engine) DailyCost(ctx context.Context, r domain.TimeRange) []domain.DailyCost {
	e.Flush()
	return e.analytics.DailyCost(ctx, r)
}

// Evaluate reports the current resource's degradation state without switching.
func (e *Engine) Evaluate() (domain.Resource, Degradation, bool) {
	return e.controller.Evaluate()
}

func (e *Engine) AutoSwitchIfNeeded() bool {
	return e.controller.AutoSwitchIfNeeded()
}

// Now is the engine's clock.
func (e *Engine) Now() time.Time {
	return e.now()
}
