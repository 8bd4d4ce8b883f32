package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/BlackAll2225/ZenoBus-sub000/internal/config"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/postgres"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/queue"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/redis"
	postgresrepo "github.com/BlackAll2225/ZenoBus-sub000/internal/repository/postgres"
	redisrepo "github.com/BlackAll2225/ZenoBus-sub000/internal/repository/redis"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/service"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/service/booking"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/service/cleanup"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/service/payment"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/service/query"
	httpgin "github.com/BlackAll2225/ZenoBus-sub000/internal/transport/http/gin"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	sweeper    *cleanup.Service
	publisher  *queue.Publisher
	consumer   *queue.Consumer
	pubsub     *redisrepo.SchedulesPubSub
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	// Initialize dependencies
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.Name,
		cfg.Postgres.SSLMode,
	)

	pgxPool, err := postgres.New(context.Background(), postgres.Config{DSN: dsn})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	rdb, err := redis.New(context.Background(), redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	// Initialize repositories
	store := postgresrepo.NewStore(pgxPool)
	cache := redisrepo.New(rdb)
	pubsub := redisrepo.NewSchedulesPubSub(rdb)
	limiter := redisrepo.NewSlidingWindowLimiter(rdb, "rl", 10, 1*time.Minute)
	idempotencyStore := redisrepo.NewIdempotencyStore(rdb, 2*time.Hour)

	// The broker is optional infrastructure: without it the API still works,
	// booking events just stop flowing.
	var events booking.EventPublisher
	var publisher *queue.Publisher
	var consumer *queue.Consumer
	if cfg.AMQP.URL != "" {
		publisher, err = queue.NewPublisher(cfg.AMQP.URL)
		if err != nil {
			logger.Warn("booking events disabled: broker unavailable", "error", err)
		} else {
			events = publisher
			consumer = queue.NewConsumer(cfg.AMQP.URL, logger)
		}
	}

	// Initialize services
	services := service.NewServices(store, cache, pubsub, limiter, events, logger, service.Config{
		Payment: payment.Config{ChecksumKey: cfg.Gateway.ChecksumKey},
		Cleanup: cleanup.Config{
			PendingTimeout: cfg.Booking.PendingTimeout,
			SweepInterval:  cfg.Booking.SweepInterval,
		},
		Query: query.Config{},
	})

	// Initialize Gin router
	router := httpgin.NewRouter(services, idempotencyStore, logger, httpgin.Config{
		JWTSecret:        cfg.Auth.JWTSecret,
		PaymentReturnURL: cfg.Gateway.ReturnURL,
		PaymentCancelURL: cfg.Gateway.CancelURL,
	})

	return &App{
		cfg:    cfg,
		logger: logger,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: router,
		},
		sweeper:   services.Cleanup,
		publisher: publisher,
		consumer:  consumer,
		pubsub:    pubsub,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Expiry sweeper
	g.Go(func() error {
		return a.sweeper.Run(gCtx)
	})

	// Booking event consumer
	if a.consumer != nil {
		g.Go(func() error {
			return a.consumer.Run(gCtx)
		})
	}

	// Schedule change feed, for operator visibility across instances
	g.Go(func() error {
		err := a.pubsub.Subscribe(gCtx, func(ctx context.Context, scheduleID int64) {
			a.logger.Info("schedule changed", "schedule_id", scheduleID)
		})
		if err != nil && gCtx.Err() == nil {
			a.logger.Error("schedule change feed stopped", "error", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		if a.publisher != nil {
			_ = a.publisher.Close()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}
