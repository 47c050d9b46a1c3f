package services

import (
	"sort"
	"sync"
	"time"

	"github.com/manthysbr/modelpilot/internal/core/domain"
)

// usageLog is one resource's append-only sequence.
type usageLog struct {
	mu      sync.RWMutex
	records []domain.UsageRecord
}

// UsageLedger keeps per-resource usage records in append order.
// Appends to different resources never contend with each other.
type UsageLedger struct {
	mu   sync.RWMutex
	logs map[domain.ResourceID]*usageLog
	now  func() time.Time
}

func NewUsageLedger() *UsageLedger {
	return &UsageLedger{
		logs: make(map[domain.ResourceID]*usageLog),
		now:  time.Now,
	}
}

func (l *UsageLedger) logFor(id domain.ResourceID) *usageLog {
	l.mu.RLock()
	lg, ok := l.logs[id]
	l.mu.RUnlock()
	if ok {
		return lg
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if lg, ok = l.logs[id]; !ok {
		lg = &usageLog{}
		l.logs[id] = lg
	}
	return lg
}

// Record stamps the record with the current time and appends it. The stamp is
// taken under the resource's lock so timestamps are non-decreasing per resource.
func (l *UsageLedger) Record(rec domain.UsageRecord) domain.UsageRecord {
	lg := l.logFor(rec.ResourceID)
	lg.mu.Lock()
	rec.Timestamp = l.now()
	if n := len(lg.records); n > 0 && rec.Timestamp.Before(lg.records[n-1].Timestamp) {
		rec.Timestamp = lg.records[n-1].Timestamp
	}
	lg.records = append(lg.records, rec)
	lg.mu.Unlock()
	return rec
}

// Query returns the resource's records in append order, optionally filtered
// to an inclusive range. Unknown resources yield an empty slice.
func (l *UsageLedger) Query(id domain.ResourceID, r *domain.TimeRange) []domain.UsageRecord {
	l.mu.RLock()
	lg, ok := l.logs[id]
	l.mu.RUnlock()
	if !ok {
		return []domain.UsageRecord{}
	}

	lg.mu.RLock()
	defer lg.mu.RUnlock()
	out := make([]domain.UsageRecord, 0, len(lg.records))
	for _, rec := range lg.records {
		if r == nil || r.Contains(rec.Timestamp) {
			out = append(out, rec)
		}
	}
	return out
}

// All returns the records of every resource within the range, grouped by
// resource in id order and in append order within a resource.
func (l *UsageLedger) All(r *domain.TimeRange) []domain.UsageRecord {
	var out []domain.UsageRecord
	for _, id := range l.ResourceIDs() {
		out = append(out, l.Query(id, r)...)
	}
	return out
}

// ResourceIDs lists resources with at least one record, sorted.
func (l *UsageLedger) ResourceIDs() []domain.ResourceID {
	l.mu.RLock()
	ids := make([]domain.ResourceID, 0, len(l.logs))
	for id := range l.logs {
		ids = append(ids, id)
	}
	l.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Count returns the number of records for a resource.
func (l *UsageLedger) Count(id domain.ResourceID) int {
	l.mu.RLock()
	lg, ok := l.logs[id]
	l.mu.RUnlock()
	if !ok {
		return 0
	}
	lg.mu.RLock()
	defer lg.mu.RUnlock()
	return len(lg.records)
}

// Summary condenses a resource's history. Records at or after recentSince
// count as recent.
func (l *UsageLedger) Summary(id domain.ResourceID, recentSince time.Time) domain.UsageSummary {
	var s domain.UsageSummary
	successes := 0
	for _, rec := range l.Query(id, nil) {
		s.Total++
		if rec.Success {
			successes++
		}
		if !rec.Timestamp.Before(recentSince) {
			s.Recent++
		}
		if rec.Timestamp.After(s.LastSeen) {
			s.LastSeen = rec.Timestamp
		}
	}
	if s.Total > 0 {
		s.SuccessRate = float64(successes) / float64(s.Total)
	}
	return s
}
