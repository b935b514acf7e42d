package app

import (
	"go.uber.org/dig"

	"delivery-tracking/internal/config"
	"delivery-tracking/internal/gateway/places"
	"delivery-tracking/internal/logx"
	"delivery-tracking/internal/repository"
	"delivery-tracking/internal/service/delivery"
	"delivery-tracking/internal/service/dispatch"
	"delivery-tracking/internal/transport/kafka"
)

func registerWorker(container *dig.Container) error {
	return provideAll(container,
		newDispatchProcessor,
		newDispatchHandler,
		newOrdersConsumer,
	)
}

func newDispatchProcessor(
	repo *repository.OrderRepo,
	store trackerStore,
	pl *places.RetryingGateway,
	del *delivery.Service,
	logger logx.Logger,
	cfg *config.Config,
) *dispatch.Processor {
	return dispatch.NewProcessor(repo, store, pl, del, logger, dispatch.Config{
		SearchRadiusMeters: cfg.Tracking.SearchRadiusMeters,
	})
}

func newDispatchHandler(p *dispatch.Processor) kafka.HandleFunc {
	return p.Handle
}

// newOrdersConsumer returns nil when Kafka is not configured; the worker
// runner treats that as a misconfiguration.
func newOrdersConsumer(cfg *config.Config, h kafka.HandleFunc, logger logx.Logger) (*kafka.Consumer, error) {
	return kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.OrdersTopic, h, logger)
}
