//go:build wireinject
// +build wireinject

package di

import (
	"serenity/config"
	"serenity/infras/jwt"
	"serenity/infras/kafka"
	"serenity/infras/otel"
	"serenity/infras/postgres"
	"serenity/infras/redis"
	"serenity/infras/s3"
	authHandler "serenity/internal/handlers/auth"
	bookingHandler "serenity/internal/handlers/booking"
	catalogHandler "serenity/internal/handlers/catalog"
	"serenity/shared/cache"
	"serenity/transport/http"
	"serenity/transport/http/middleware"
	"serenity/transport/http/router"

	authService "serenity/internal/domains/auth/service"
	bookingRepository "serenity/internal/domains/booking/repository"
	bookingService "serenity/internal/domains/booking/service"
	catalogRepository "serenity/internal/domains/catalog/repository"
	catalogService "serenity/internal/domains/catalog/service"
	userRepository "serenity/internal/domains/user/repository"

	"github.com/google/wire"
)

var configurations = wire.NewSet(
	config.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	kafka.New,
	s3.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var authDomain = wire.NewSet(
	userRepository.New,
	authService.New,
)

var catalogDomain = wire.NewSet(
	catalogRepository.NewService,
	catalogRepository.NewStaff,
	catalogRepository.NewRoom,
	catalogService.New,
)

var bookingDomain = wire.NewSet(
	bookingRepository.New,
	bookingService.New,
)

var domains = wire.NewSet(
	authDomain,
	catalogDomain,
	bookingDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	authHandler.New,
	catalogHandler.New,
	bookingHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}
}

func InitializeCleanupJob() bookingService.Booking {
	wire.Build(
		configurations,
		postgres.New,
		otel.New,
		redis.New,
		kafka.New,
		sharedHelpers,
		bookingDomain,
		catalogRepository.NewService,
		catalogRepository.NewStaff,
		catalogRepository.NewRoom,
	)

	return nil
}
