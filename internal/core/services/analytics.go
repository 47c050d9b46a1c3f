package services

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/manthysbr/modelpilot/internal/core/domain"
	"github.com/manthysbr/modelpilot/internal/core/ports"
)

// Analytics computes windowed rollups over the usage ledger. It never writes.
type Analytics struct {
	logger *slog.Logger
	ledger *UsageLedger
	mirror ports.TelemetryRepository // optional; serves DailyCost
}

func NewAnalytics(logger *slog.Logger, ledger *UsageLedger, mirror ports.TelemetryRepository) *Analytics {
	return &Analytics{logger: logger, ledger: ledger, mirror: mirror}
}

// CostAnalysis totals cost across all resources within r.
// Empty input yields zero values, never an error.
func (a *Analytics) CostAnalysis(r domain.TimeRange) domain.CostAnalysis {
	out := domain.CostAnalysis{
		Range:          r,
		CostByResource: make(map[domain.ResourceID]float64),
		CostByTask:     make(map[string]float64),
	}
	for _, rec := range a.ledger.All(&r) {
		out.Requests++
		out.TotalCost += rec.Cost
		out.CostByResource[rec.ResourceID] += rec.Cost
		out.CostByTask[rec.Task] += rec.Cost
	}
	if out.Requests > 0 {
		out.AverageCostPerRequest = out.TotalCost / float64(out.Requests)
	}
	out.ProjectedMonthlyCost = out.TotalCost / r.Days() * 30
	return out
}

// PerformanceAnalysis averages latency, quality and success across all
// resources within r, with a per-resource breakdown.
func (a *Analytics) PerformanceAnalysis(r domain.TimeRange) domain.PerformanceAnalysis {
	out := domain.PerformanceAnalysis{
		Range:       r,
		PerResource: make(map[domain.ResourceID]domain.ResourcePerformance),
	}

	records := a.ledger.All(&r)
	out.Requests = len(records)
	out.AverageLatencyMs, out.AverageQuality, out.SuccessRate = rollingAverages(records)

	byResource := make(map[domain.ResourceID][]domain.UsageRecord)
	for _, rec := range records {
		byResource[rec.ResourceID] = append(byResource[rec.ResourceID], rec)
	}
	for id, recs := range byResource {
		lat, q, sr := rollingAverages(recs)
		out.PerResource[id] = domain.ResourcePerformance{
			Requests:         len(recs),
			AverageLatencyMs: lat,
			AverageQuality:   q,
			SuccessRate:      sr,
		}
	}
	return out
}

// DailyCost buckets cost per UTC day. The DuckDB mirror answers when configured;
// otherwise, or when the query fails, the in-memory ledger is used.
func (a *Analytics) DailyCost(ctx context.Context, r domain.TimeRange) []domain.DailyCost {
	if a.mirror != nil {
		days, err := a.mirror.DailyCost(ctx, r)
		if err == nil {
			return days
		}
		a.logger.Warn("telemetry mirror daily cost failed, using ledger", "error", err)
	}

	buckets := make(map[time.Time]*domain.DailyCost)
	for _, rec := range a.ledger.All(&r) {
		day := rec.Timestamp.UTC().Truncate(24 * time.Hour)
		b, ok := buckets[day]
		if !ok {
			b = &domain.DailyCost{Day: day}
			buckets[day] = b
		}
		b.Cost += rec.Cost
		b.Requests++
	}

	out := make([]domain.DailyCost, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out
}

// rollingAverages returns mean latency, mean quality and success rate.
func rollingAverages(records []domain.UsageRecord) (latency, quality, successRate float64) {
	if len(records) == 0 {
		return 0, 0, 0
	}
	successes := 0
	for _, rec := range records {
		latency += rec.LatencyMs
		quality += rec.Quality
		if rec.Success {
			successes++
		}
	}
	n := float64(len(records))
	return latency / n, quality / n, float64(successes) / n
}
