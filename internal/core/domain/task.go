package domain

import (
	"errors"
	"time"
)

// Task is a unit of work handed to the execution hook.
type Task struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Prompt      string `json:"prompt"`
	InputTokens int64  `json:"input_tokens"`
}

// TaskOutcome is what a runner reports back. LatencyMs may be left zero,
// in which case the executor's wall-clock measurement is used.
type TaskOutcome struct {
	Output       string  `json:"output"`
	OutputTokens int64   `json:"output_tokens"`
	Cost         float64 `json:"cost"`
	Quality      float64 `json:"quality"`
	LatencyMs    float64 `json:"latency_ms"`
}

// TaskResult is the executor's view of a finished task.
type TaskResult struct {
	TaskID     string      `json:"task_id"`
	ResourceID ResourceID  `json:"resource_id"`
	Outcome    TaskOutcome `json:"outcome"`
	LatencyMs  float64     `json:"latency_ms"`
	Success    bool        `json:"success"`
	Error      string      `json:"error,omitempty"`
	FinishedAt time.Time   `json:"finished_at"`
}

var (
	ErrResourceNotFound    = errors.New("resource not found")
	ErrResourceUnavailable = errors.New("resource unavailable")
	ErrNoCurrentResource   = errors.New("no current resource")
	ErrTaskFailed          = errors.New("task failed")
)
