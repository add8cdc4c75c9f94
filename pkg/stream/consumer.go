package stream

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

type Handler[T any] func(ctx context.Context, v T) error

// Consumer drains a queue on a single goroutine. Handler errors are logged
// and the item is skipped.
type Consumer[T any] struct {
	Queue   *Queue[T]
	Handler Handler[T]
	Logger  *zap.Logger

	done chan error
}

func NewConsumer[T any](queue *Queue[T], handler Handler[T], logger *zap.Logger) *Consumer[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer[T]{Queue: queue, Handler: handler, Logger: logger}
}

// Run blocks until the queue is closed and drained (nil) or ctx is done.
func (c *Consumer[T]) Run(ctx context.Context) error {
	handled := 0
	for {
		v, err := c.Queue.Pop(ctx)
		if errors.Is(err, ErrClosed) {
			c.Logger.Info("queue closed, consumer stopping",
				zap.Int("handled", handled),
				zap.Int("dropped", c.Queue.Dropped()))
			return nil
		}
		if err != nil {
			return err
		}
		if err := c.Handler(ctx, v); err != nil {
			c.Logger.Warn("handler failed", zap.Error(err))
			continue
		}
		handled++
	}
}

// Start runs the consumer in the background. Wait returns its result.
func (c *Consumer[T]) Start(ctx context.Context) {
	c.done = make(chan error, 1)
	go func() {
		c.done <- c.Run(ctx)
	}()
}

func (c *Consumer[T]) Wait() error {
	if c.done == nil {
		return nil
	}
	return <-c.done
}
