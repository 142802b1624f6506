package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"projectsmanager/internal/config"
	"projectsmanager/pkg/circuitbreaker"
	"projectsmanager/pkg/db"
	"projectsmanager/pkg/logger"
	"projectsmanager/pkg/mq"
	"projectsmanager/pkg/outbox"
)

// worker publishes outbox events to RabbitMQ.
func main() {
	replayFailed := flag.Int("replay-failed", 0, "republish up to N failed outbox events and exit")
	replayEvent := flag.Int64("replay-event", 0, "republish the outbox event with this id and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.NewLogger(cfg.Log.Level)
	defer log.Sync()

	if cfg.Storage.Driver != config.StorageDriverPostgres {
		log.Fatal("Outbox worker requires postgres storage", zap.String("storage", cfg.Storage.Driver))
	}

	log.Info("Starting outbox worker...", zap.String("mq_url", cfg.MQ.URL))

	pool, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to init DB", zap.Error(err))
	}
	defer pool.Close()

	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("Failed to init MQ publisher", zap.Error(err))
	}
	defer publisher.Close()

	store := outbox.NewRepository(pool)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *replayEvent > 0 || *replayFailed > 0 {
		n, err := replay(ctx, outbox.NewReplayService(store, publisher), *replayEvent, *replayFailed)
		if err != nil {
			log.Error("Replay finished with errors", zap.Int("replayed", n), zap.Error(err))
			os.Exit(1)
		}
		log.Info("Replay finished", zap.Int("replayed", n))
		return
	}

	breaker := circuitbreaker.NewCircuitBreaker(circuitbreaker.Config{
		FailureThreshold:    5,
		SuccessThreshold:    2,
		Timeout:             circuitbreaker.DefaultConfig().Timeout,
		HalfOpenMaxRequests: 3,
		OnStateChange: func(from, to circuitbreaker.State) {
			log.Warn("Publisher circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	dispatcher := outbox.NewDispatcher(store, publisher, log).
		WithInterval(cfg.Outbox.Interval).
		WithBatchSize(cfg.Outbox.BatchSize).
		WithMaxRetries(cfg.Outbox.MaxRetries).
		WithBreaker(breaker)

	done := make(chan struct{})
	go func() {
		dispatcher.Start(ctx)
		close(done)
	}()
	log.Info("Outbox dispatcher running",
		zap.Duration("interval", cfg.Outbox.Interval),
		zap.Int("batch_size", cfg.Outbox.BatchSize),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down outbox worker...")
	cancel()
	<-done
	log.Info("Outbox worker stopped")
}
