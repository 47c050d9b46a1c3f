package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/manthysbr/modelpilot/internal/core/domain"
	"github.com/manthysbr/modelpilot/internal/core/ports"
	"golang.org/x/sync/semaphore"
)

// taskHost is the engine surface the executor needs.
type taskHost interface {
	CurrentResource() (domain.Resource, bool)
	RecordUsage(rec domain.UsageRecord) (domain.UsageRecord, bool)
}

// TaskExecutor sends tasks to the current resource and feeds the outcome
// back into the usage ledger, closing the loop for the auto-switch policy.
type TaskExecutor struct {
	logger    *slog.Logger
	host      taskHost
	runner    ports.TaskRunner
	ids       ports.IDGenerator
	bus       *EventBus // optional
	queue     chan domain.Task
	semaphore *semaphore.Weighted
}

func NewTaskExecutor(logger *slog.Logger, host taskHost, runner ports.TaskRunner, ids ports.IDGenerator, bus *EventBus, cfg domain.ExecutorConfig) *TaskExecutor {
	limit := cfg.MaxConcurrent
	if limit <= 0 {
		limit = 10
	}
	size := cfg.QueueSize
	if size <= 0 {
		size = 100
	}
	return &TaskExecutor{
		logger:    logger,
		host:      host,
		runner:    runner,
		ids:       ids,
		bus:       bus,
		queue:     make(chan domain.Task, size),
		semaphore: semaphore.NewWeighted(limit),
	}
}

// Execute runs one task synchronously on the current resource.
// A runner failure is still recorded as a failed usage record.
func (e *TaskExecutor) Execute(ctx context.Context, task domain.Task) (domain.TaskResult, error) {
	if task.ID == "" {
		task.ID = e.ids.NewID()
	}
	if err := e.semaphore.Acquire(ctx, 1); err != nil {
		return domain.TaskResult{}, fmt.Errorf("acquire execution slot: %w", err)
	}
	defer e.semaphore.Release(1)

	res, ok := e.host.CurrentResource()
	if !ok {
		return domain.TaskResult{}, domain.ErrNoCurrentResource
	}
	if res.Availability.Status == domain.StatusUnavailable || res.Availability.Status == domain.StatusMaintenance {
		return domain.TaskResult{}, fmt.Errorf("%s: %w", res.ID, domain.ErrResourceUnavailable)
	}

	start := time.Now()
	outcome, runErr := e.runner.Run(ctx, res, task)
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	if outcome.LatencyMs <= 0 {
		outcome.LatencyMs = elapsed
	}

	result := domain.TaskResult{
		TaskID:     task.ID,
		ResourceID: res.ID,
		Outcome:    outcome,
		LatencyMs:  outcome.LatencyMs,
		Success:    runErr == nil,
		FinishedAt: time.Now(),
	}
	usage := domain.UsageRecord{
		ResourceID: res.ID,
		TokensUsed: task.InputTokens + outcome.OutputTokens,
		Cost:       outcome.Cost,
		LatencyMs:  outcome.LatencyMs,
		Quality:    outcome.Quality,
		Task:       task.Label,
		Success:    runErr == nil,
	}
	if runErr != nil {
		result.Error = runErr.Error()
		usage.Error = runErr.Error()
		usage.Quality = 0
	}
	e.host.RecordUsage(usage)

	if runErr != nil {
		e.logger.Warn("task failed", "task_id", task.ID, "resource_id", res.ID, "error", runErr)
		if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
			return result, runErr
		}
		return result, fmt.Errorf("%w: %v", domain.ErrTaskFailed, runErr)
	}
	e.logger.Debug("task completed", "task_id", task.ID, "resource_id", res.ID, "latency_ms", outcome.LatencyMs)
	return result, nil
}

// Submit queues a task for background execution. Results are published on the event bus.
func (e *TaskExecutor) Submit(task domain.Task) (string, error) {
	if task.ID == "" {
		task.ID = e.ids.NewID()
	}
	select {
	case e.queue <- task:
		e.logger.Info("task submitted", "task_id", task.ID)
		return task.ID, nil
	default:
		return "", errors.New("task queue full")
	}
}

// Run consumes the queue until ctx is cancelled.
func (e *TaskExecutor) Run(ctx context.Context) error {
	e.logger.Info("task executor started")
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("task executor stopped")
			return nil
		case task := <-e.queue:
			go func(t domain.Task) {
				result, err := e.Execute(ctx, t)
				if err != nil && result.TaskID == "" {
					e.logger.Error("queued task not executed", "task_id", t.ID, "error", err)
					result = domain.TaskResult{TaskID: t.ID, Error: err.Error(), FinishedAt: time.Now()}
				}
				if e.bus != nil {
					e.bus.PublishJSON(t.ID, EventTypeTask, result)
				}
			}(task)
		}
	}
}
