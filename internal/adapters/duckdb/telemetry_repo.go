package duckdb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/manthysbr/modelpilot/internal/core/domain"
)

// SaveUsage appends a usage record.
func (r *Repository) SaveUsage(ctx context.Context, rec domain.UsageRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO usage_records (resource_id, ts, tokens_used, cost, latency_ms, quality, task, success, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(rec.ResourceID),
		rec.Timestamp.UTC(),
		rec.TokensUsed,
		rec.Cost,
		rec.LatencyMs,
		rec.Quality,
		rec.Task,
		rec.Success,
		rec.Error,
	)
	if err != nil {
		return fmt.Errorf("insert usage: %w", err)
	}
	return nil
}

// SaveSwitch appends a switch record. The snapshot is stored as JSON.
func (r *Repository) SaveSwitch(ctx context.Context, rec domain.SwitchRecord) error {
	snap, err := json.Marshal(rec.Snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO switch_records (id, from_id, to_id, reason, ts, snapshot, actor, context)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		string(rec.From),
		string(rec.To),
		rec.Reason,
		rec.Timestamp.UTC(),
		string(snap),
		rec.Actor,
		rec.Context,
	)
	if err != nil {
		return fmt.Errorf("insert switch: %w", err)
	}
	return nil
}

// DailyCost buckets usage cost by UTC day within the inclusive range.
func (r *Repository) DailyCost(ctx context.Context, tr domain.TimeRange) ([]domain.DailyCost, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT CAST(date_trunc('day', ts) AS TIMESTAMP) AS day, SUM(cost), COUNT(*)
		FROM usage_records
		WHERE ts BETWEEN ? AND ?
		GROUP BY day
		ORDER BY day ASC`,
		tr.Start.UTC(), tr.End.UTC())
	if err != nil {
		return nil, fmt.Errorf("query daily cost: %w", err)
	}
	defer rows.Close()

	out := []domain.DailyCost{}
	for rows.Next() {
		var (
			day      time.Time
			cost     float64
			requests int64
		)
		if err := rows.Scan(&day, &cost, &requests); err != nil {
			return nil, fmt.Errorf("scan daily cost: %w", err)
		}
		out = append(out, domain.DailyCost{Day: day.UTC(), Cost: cost, Requests: int(requests)})
	}
	return out, rows.Err()
}
