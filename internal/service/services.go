package service

import (
	"log/slog"

	postgres "github.com/BlackAll2225/ZenoBus-sub000/internal/repository/postgres"
	redis "github.com/BlackAll2225/ZenoBus-sub000/internal/repository/redis"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/service/admin"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/service/booking"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/service/cleanup"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/service/payment"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/service/query"
)

type Services struct {
	Booking *booking.Service
	Payment *payment.Service
	Cleanup *cleanup.Service
	Query   *query.Service
	Admin   *admin.Service
}

type Config struct {
	Payment payment.Config
	Cleanup cleanup.Config
	Query   query.Config
}

func NewServices(
	store *postgres.Store,
	cache *redis.Cache,
	pubsub *redis.SchedulesPubSub,
	limiter *redis.SlidingWindowLimiter,
	events booking.EventPublisher,
	logger *slog.Logger,
	cfg Config,
) *Services {
	bookings := booking.New(store, cache, pubsub, limiter, events)

	return &Services{
		Booking: bookings,
		Payment: payment.New(store, bookings, cfg.Payment),
		Cleanup: cleanup.New(store, bookings, logger, cfg.Cleanup),
		Query:   query.New(store, cache, cfg.Query),
		Admin:   admin.New(store, cache, pubsub, bookings),
	}
}
