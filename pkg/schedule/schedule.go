package schedule

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Watch runs job immediately and then every interval until ctx is done.
// Runs never overlap; a slow run delays the next one.
func Watch(ctx context.Context, interval time.Duration, logger *zap.Logger, job func(context.Context) error) error {
	if interval <= 0 {
		return fmt.Errorf("schedule: interval must be positive, got %v", interval)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	var runs atomic.Int32
	_, err := s.Every(interval).Do(func() {
		run := runs.Add(1)
		logger.Info("watch run starting", zap.Int32("run", run))
		if err := job(ctx); err != nil {
			logger.Error("watch run failed", zap.Int32("run", run), zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule: %w", err)
	}

	s.StartAsync()
	logger.Info("watching", zap.Duration("interval", interval))
	<-ctx.Done()
	s.Stop()
	logger.Info("watch stopped", zap.Int32("runs", runs.Load()))
	return nil
}
