package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/gdsbooking/api"
	"github.com/Domenick1991/gdsbooking/config"
	"github.com/Domenick1991/gdsbooking/internal/bootstrap"
	"github.com/Domenick1991/gdsbooking/internal/cache"
	"github.com/Domenick1991/gdsbooking/internal/gds"
	"github.com/Domenick1991/gdsbooking/internal/kafka"
	"github.com/Domenick1991/gdsbooking/internal/logger"
	"github.com/Domenick1991/gdsbooking/internal/repository"
	"github.com/Domenick1991/gdsbooking/internal/service/booking"
	"github.com/Domenick1991/gdsbooking/internal/service/flights"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type sessionStore interface {
	repository.OfferRepository
	repository.PricedOfferRepository
}

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

	zl, err := logger.New(cfg.Log.Level, cfg.Log.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if cfg.NeedsPostgres() {
		pool, err = pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			zl.Fatal("connect postgres", zap.Error(err))
		}
		defer pool.Close()

		if err := repository.Migrate(ctx, pool); err != nil {
			zl.Fatal("migrate", zap.Error(err))
		}
	}

	var bookingRepo repository.BookingRepository
	switch cfg.Storage.Bookings {
	case config.DriverPostgres:
		bookingRepo = repository.NewBookingRepository(pool)
	default:
		zl.Warn("bookings are kept in memory and lost on restart")
		bookingRepo = repository.NewMemoryBookingRepository()
	}

	var sessions sessionStore
	switch cfg.Storage.Sessions {
	case config.DriverRedis:
		client := cache.NewRedisClient(cfg.Redis)
		defer client.Close()
		store := cache.NewRedisSessionStore(client, cfg.Redis.SessionTTL())
		if err := store.Ping(ctx); err != nil {
			zl.Fatal("connect redis", zap.Error(err))
		}
		sessions = store
	case config.DriverPostgres:
		sessions = repository.NewOfferRepository(pool)
	default:
		sessions = repository.NewMemoryOfferRepository()
	}

	gdsClient := gds.NewAmadeusClient(cfg.GDS)

	bookingOpts := []booking.BookingServiceOption{booking.WithLogger(zl)}
	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, zl)
		defer producer.Close()
		if err := producer.CheckConnection(ctx); err != nil {
			zl.Warn("kafka unavailable, booking events may be lost", zap.Error(err))
		}
		bookingOpts = append(bookingOpts, booking.WithEvents(producer, cfg.Kafka.BookingEventsTopic, cfg.Kafka.NotificationsTopic))
	}

	flightService := flights.NewFlightService(gdsClient, sessions, sessions, flights.WithLogger(zl))
	bookingService := booking.NewBookingService(bookingRepo, sessions, gdsClient, bookingOpts...)

	if cfg.Log.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.RouterConfig{
		JWTSecret:   []byte(cfg.Auth.JWTSecret),
		CORSOrigins: cfg.HTTP.CORSOrigins,
	}, flightService, bookingService, zl)

	if err := bootstrap.Run(ctx, cfg.HTTP.Address, router, zl); err != nil {
		zl.Fatal("server error", zap.Error(err))
	}
}
