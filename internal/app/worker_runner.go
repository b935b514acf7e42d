package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/dig"

	"delivery-tracking/internal/events"
	"delivery-tracking/internal/logx"
	"delivery-tracking/internal/transport/kafka"
)

// WorkerRunner runs the dispatch worker
type WorkerRunner struct {
	runFn func(*dig.Container) error
}

// NewWorkerRunner returns a new WorkerRunner
func NewWorkerRunner() *WorkerRunner {
	return &WorkerRunner{runFn: runWorker}
}

// MustRun consumes order events until the context is cancelled
func (r *WorkerRunner) MustRun(container *dig.Container) {
	err := r.runFn(container)
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	panic(err)
}

func runWorker(container *dig.Container) error {
	return container.Invoke(workerRun)
}

func workerRun(
	ctx context.Context,
	pool *pgxpool.Pool,
	logger logx.Logger,
	consumer *kafka.Consumer,
	dispatcher *events.Dispatcher,
	producer *kafka.Producer,
	closeStore storeCloser,
) error {
	if consumer == nil {
		return fmt.Errorf("kafka consumer is nil: worker container misconfigured")
	}
	defer closeWorker(pool, logger, consumer, dispatcher, producer, closeStore)

	logger.Info("dispatch worker started")
	return consumer.Run(ctx)
}

func closeWorker(
	pool *pgxpool.Pool,
	logger logx.Logger,
	consumer *kafka.Consumer,
	dispatcher *events.Dispatcher,
	producer *kafka.Producer,
	closeStore storeCloser,
) {
	if err := consumer.Close(); err != nil {
		logger.Error("kafka close error", logx.Err(err))
	}
	dispatcher.Close()
	if err := producer.Close(); err != nil {
		logger.Error("producer close error", logx.Err(err))
	}
	if closeStore != nil {
		if err := closeStore(); err != nil {
			logger.Error("store close error", logx.Err(err))
		}
	}
	if pool != nil {
		pool.Close()
	}
}
