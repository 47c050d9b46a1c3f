package domain

import "time"

// UsageRecord is an immutable telemetry fact about one task execution.
type UsageRecord struct {
	ResourceID ResourceID `json:"resource_id"`
	Timestamp  time.Time  `json:"timestamp"`
	TokensUsed int64      `json:"tokens_used"`
	Cost       float64    `json:"cost"`
	LatencyMs  float64    `json:"latency_ms"`
	Quality    float64    `json:"quality"` // 0..1
	Task       string     `json:"task"`
	Success    bool       `json:"success"`
	Error      string     `json:"error,omitempty"`
}

// UsageSummary condenses a resource's ledger for confidence estimation.
type UsageSummary struct {
	Total       int       `json:"total"`
	Recent      int       `json:"recent"`
	SuccessRate float64   `json:"success_rate"`
	LastSeen    time.Time `json:"last_seen"`
}

// TimeRange is an inclusive [Start, End] window.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// LastWindow returns the range (now-d, now].
func LastWindow(now time.Time, d time.Duration) TimeRange {
	return TimeRange{Start: now.Add(-d), End: now}
}

// Contains reports whether t lies within the range, bounds included.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Days is the length of the range in days. Zero-length and inverted ranges count as one day.
func (r TimeRange) Days() float64 {
	days := r.End.Sub(r.Start).Hours() / 24
	if days <= 0 {
		return 1
	}
	return days
}

// CostAnalysis is a windowed cost rollup over the usage ledger.
type CostAnalysis struct {
	Range                 TimeRange              `json:"range"`
	Requests              int                    `json:"requests"`
	TotalCost             float64                `json:"total_cost"`
	CostByResource        map[ResourceID]float64 `json:"cost_by_resource"`
	CostByTask            map[string]float64     `json:"cost_by_task"`
	AverageCostPerRequest float64                `json:"average_cost_per_request"`
	ProjectedMonthlyCost  float64                `json:"projected_monthly_cost"`
}

// ResourcePerformance is the per-resource slice of a PerformanceAnalysis.
type ResourcePerformance struct {
	Requests         int     `json:"requests"`
	AverageLatencyMs float64 `json:"average_latency_ms"`
	AverageQuality   float64 `json:"average_quality"`
	SuccessRate      float64 `json:"success_rate"`
}

// PerformanceAnalysis is a windowed performance rollup over the usage ledger.
type PerformanceAnalysis struct {
	Range            TimeRange                          `json:"range"`
	Requests         int                                `json:"requests"`
	AverageLatencyMs float64                            `json:"average_latency_ms"`
	AverageQuality   float64                            `json:"average_quality"`
	SuccessRate      float64                            `json:"success_rate"`
	PerResource      map[ResourceID]ResourcePerformance `json:"per_resource"`
}

// DailyCost is one bucket of a cost trend.
type DailyCost struct {
	Day      time.Time `json:"day"`
	Cost     float64   `json:"cost"`
	Requests int       `json:"requests"`
}
