package ports

import (
	"context"

	"github.com/manthysbr/modelpilot/internal/core/domain"
)

// IDGenerator produces identifiers for switch records and tasks.
// Production uses UUIDs; tests inject a deterministic sequence.
type IDGenerator interface {
	NewID() string
}

// TelemetryRepository abstracts the in-process analytics store (DuckDB).
// Writes are best-effort: the engine logs failures and never blocks on them.
type TelemetryRepository interface {
	// SaveUsage appends a stamped usage record.
	SaveUsage(ctx context.Context, rec domain.UsageRecord) error

	// SaveSwitch appends a committed switch record.
	SaveSwitch(ctx context.Context, rec domain.SwitchRecord) error

	// DailyCost buckets usage cost by calendar day (UTC) within the range.
	DailyCost(ctx context.Context, r domain.TimeRange) ([]domain.DailyCost, error)

	Close() error
}

// TaskRunner is the pluggable execution hook that sends a task to a resource.
type TaskRunner interface {
	Run(ctx context.Context, res domain.Resource, task domain.Task) (domain.TaskOutcome, error)
}
