package services

import (
	"context"
	"log/slog"
	"time"
)

// autoSwitcher is what the loop drives; the SwitchController satisfies it.
type autoSwitcher interface {
	AutoSwitchIfNeeded() bool
}

// AutoSwitchLoop periodically runs the auto-switch policy.
type AutoSwitchLoop struct {
	logger   *slog.Logger
	switcher autoSwitcher
	interval time.Duration // default 5 minutes
}

func NewAutoSwitchLoop(logger *slog.Logger, switcher autoSwitcher, interval time.Duration) *AutoSwitchLoop {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &AutoSwitchLoop{
		logger:   logger,
		switcher: switcher,
		interval: interval,
	}
}

// Run starts the evaluation loop. Blocks until ctx is cancelled.
func (l *AutoSwitchLoop) Run(ctx context.Context) error {
	l.logger.Info("auto-switch loop started", "interval", l.interval)
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("auto-switch loop stopped")
			return nil
		case <-ticker.C:
			if l.switcher.AutoSwitchIfNeeded() {
				l.logger.Info("auto-switch committed")
			}
		}
	}
}
