package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/danielcaamal/orders-ms/internal/health"
	"github.com/danielcaamal/orders-ms/internal/messaging/kafka"
	"github.com/danielcaamal/orders-ms/internal/service/orders"
	"github.com/danielcaamal/orders-ms/internal/service/outbox"
	"github.com/danielcaamal/orders-ms/internal/service/reconciler"
	httpapi "github.com/danielcaamal/orders-ms/internal/transport/http"
	"github.com/danielcaamal/orders-ms/internal/version"
)

// Run wires the application together and blocks until ctx is cancelled or
// the API server fails.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	policy, err := cfg.TransitionPolicy()
	if err != nil {
		return err
	}

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	svc := orders.NewService(
		deps.Orders,
		deps.Outbox,
		deps.Products,
		deps.Payments,
		policy,
		cfg.Currency,
		logger.WithField("layer", "service"),
	)

	brokers := cfg.Brokers()
	producer, _ := initKafkaProducer(brokers, logger)

	// The outbox worker only runs with a broker to publish to; without one
	// events stay pending in the outbox until the service is restarted with
	// Kafka configured.
	if producer != nil {
		publisher := kafka.NewOutboxPublisher(producer, kafka.TopicOrderEvents)
		dlqPublisher := kafka.NewOutboxPublisher(producer, kafka.TopicDeadLetterQueue)
		outboxWorker := outbox.NewWorker(
			deps.Outbox,
			publisher,
			outbox.WithLogger(logger.WithField("worker", "outbox")),
			outbox.WithDLQPublisher(dlqPublisher),
		)
		go outboxWorker.Run(ctx)
	}

	reconcilerWorker := reconciler.NewWorker(
		deps.Orders,
		deps.Payments,
		deps.Outbox,
		reconciler.WithLogger(logger.WithField("worker", "reconciler")),
		reconciler.WithProducts(deps.Products),
		reconciler.WithCurrency(cfg.Currency),
	)
	go reconcilerWorker.Run(ctx)

	var consumer *kafka.Consumer
	if len(brokers) > 0 {
		consumer, err = initPaymentConsumer(brokers, cfg.ConsumerGroup, svc, producer, logger.WithField("worker", "payment-consumer"))
		if err != nil {
			logger.WithError(err).Warn("failed to create payment consumer, continuing without it")
		} else if err := consumer.Start(ctx); err != nil {
			logger.WithError(err).Warn("failed to start payment consumer")
			consumer = nil
		} else {
			logger.Info("payment consumer started")
		}
	}

	v, _, _ := version.Info()
	healthHandler := healthcheck.NewHandler(v)
	if deps.Store != nil {
		store := deps.Store
		healthHandler.RegisterChecker("storage", healthcheck.NewSimpleChecker("storage", func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return store.Ping(pingCtx)
		}))
	}

	opsSrv := startOpsServer(ctx, cfg.OpsAddr, logger, healthHandler)

	apiSrv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpapi.NewRouter(httpapi.NewHandler(svc, logger.WithField("layer", "http"))),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("API server listening on %s", cfg.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping servers")
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(opsSrv, logger)
		stopConsumer(consumer, logger)
		closeKafka(producer, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(opsSrv, logger)
		stopConsumer(consumer, logger)
		closeKafka(producer, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startOpsServer serves metrics and health endpoints on a separate port.
func startOpsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("metrics available at %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("ops server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

func stopConsumer(consumer *kafka.Consumer, logger *log.Entry) {
	if consumer == nil {
		return
	}
	if err := consumer.Stop(); err != nil {
		logger.WithError(err).Warn("failed to stop payment consumer")
	}
}

// shutdownHTTP stops an HTTP server with a bounded grace period.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
