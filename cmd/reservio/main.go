package main

import (
	"context"

	"reservio/internal/auth"
	"reservio/internal/bookings/events"
	bookinghandler "reservio/internal/bookings/handler"
	bookingrepo "reservio/internal/bookings/repository"
	bookingsvc "reservio/internal/bookings/service"
	"reservio/internal/health"
	reviewhandler "reservio/internal/reviews/handler"
	reviewrepo "reservio/internal/reviews/repository"
	reviewsvc "reservio/internal/reviews/service"
	servicehandler "reservio/internal/services/handler"
	servicerepo "reservio/internal/services/repository"
	servicesvc "reservio/internal/services/service"
	userhandler "reservio/internal/users/handler"
	userrepo "reservio/internal/users/repository"
	usersvc "reservio/internal/users/service"
	"reservio/pkg/app"
	"reservio/pkg/config"
	"reservio/pkg/db/postgres"
	"reservio/pkg/kafka"
	"reservio/pkg/validation"
)

const serviceName = "reservio"

func main() {
	cfg := config.Load(serviceName)

	pool, err := postgres.Connect(context.Background(), cfg.PostgresDSN, cfg.PostgresConnTimeout)
	if err != nil {
		cfg.Log.Fatal("Failed to connect to postgres", "error", err)
	}

	var publisher events.Publisher
	var producer *kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaWriteTimeout)
		if err != nil {
			cfg.Log.Fatal("Failed to create kafka producer", "error", err)
		}
		publisher = producer
		cfg.Log.Info("Kafka event publishing enabled", "topic", cfg.KafkaTopic)
	} else {
		cfg.Log.Info("Kafka brokers not configured, event publishing disabled")
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	authmw := auth.NewMiddleware(tokens)
	validator := validation.New()
	txManager := postgres.NewTransactionManager(pool, cfg.TxMaxRetries)
	emitter := events.NewEmitter(publisher, cfg.Log)

	userRepo := userrepo.NewUserRepository(pool)
	userService := usersvc.NewUserService(userRepo, tokens, hasher, validator, cfg)

	catalogRepo := servicerepo.NewServiceRepository(pool)
	catalogService := servicesvc.NewCatalogService(catalogRepo, validator, cfg)

	bookingRepo := bookingrepo.NewBookingRepository(pool, txManager)
	bookingService := bookingsvc.NewBookingService(bookingRepo, emitter, validator, cfg)

	reviewRepo := reviewrepo.NewReviewRepository(pool)
	reviewService := reviewsvc.NewReviewService(reviewRepo, bookingRepo, validator, cfg)

	application := app.New(cfg,
		health.NewHandler(pool, cfg.Log),
		userhandler.NewUserHandler(userService, authmw, cfg.Log),
		servicehandler.NewServiceHandler(catalogService, authmw, cfg.Log),
		bookinghandler.NewBookingHandler(bookingService, authmw, cfg.Log),
		reviewhandler.NewReviewHandler(reviewService, authmw, cfg.Log),
	)

	application.OnShutdown(func() {
		if producer != nil {
			if err := producer.Close(); err != nil {
				cfg.Log.Error("Failed to close kafka producer", "error", err)
			}
		}
		pool.Close()
	})

	application.Run()
}
