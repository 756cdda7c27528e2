package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Domenick1991/gdsbooking/config"
	"github.com/Domenick1991/gdsbooking/internal/email"
	"github.com/Domenick1991/gdsbooking/internal/kafka"
	"github.com/Domenick1991/gdsbooking/internal/logger"
	"github.com/Domenick1991/gdsbooking/internal/repository"
	"github.com/Domenick1991/gdsbooking/internal/service/booking"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatalf("load env: %v", err)
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if !cfg.Kafka.Enabled() {
		log.Fatalf("worker needs kafka.brokers")
	}
	if cfg.Storage.Bookings != config.DriverPostgres {
		log.Fatalf("worker needs postgres bookings storage")
	}

	zl, err := logger.New(cfg.Log.Level, cfg.Log.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		zl.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers, zl)
	defer producer.Close()

	// Only CompleteCancellation is used here, which needs neither the GDS
	// client nor the priced-offer store.
	bookingService := booking.NewBookingService(
		repository.NewBookingRepository(pool),
		nil,
		nil,
		booking.WithLogger(zl),
		booking.WithEvents(producer, cfg.Kafka.BookingEventsTopic, cfg.Kafka.NotificationsTopic),
	)
	sender := email.NewSender(zl)

	notifications := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, zl)
	defer notifications.Close()
	events := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID+"-reconcile", cfg.Kafka.BookingEventsTopic, zl)
	defer events.Close()

	var wg sync.WaitGroup
	run := func(name string, c *kafka.Consumer, handler kafka.EventHandler) {
		defer wg.Done()
		if err := c.Consume(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
			zl.Error("consumer failed, stopping worker", zap.String("consumer", name), zap.Error(err))
			stop()
			return
		}
		zl.Info("consumer stopped", zap.String("consumer", name))
	}

	wg.Add(2)
	go run("notifications", notifications, notificationHandler(sender, zl))
	go run("reconcile", events, reconcileHandler(bookingService, zl))

	<-ctx.Done()
	zl.Info("shutting down worker")
	wg.Wait()
}
