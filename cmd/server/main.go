package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/room-reservation/internal/config"
	"github.com/iliyamo/room-reservation/internal/database"
	"github.com/iliyamo/room-reservation/internal/handler"
	"github.com/iliyamo/room-reservation/internal/middleware"
	"github.com/iliyamo/room-reservation/internal/queue"
	"github.com/iliyamo/room-reservation/internal/repository"
	"github.com/iliyamo/room-reservation/internal/router"
	"github.com/iliyamo/room-reservation/internal/service"
)

func main() {
	// .env is a development convenience; in production the environment is
	// injected by the platform and the file is absent.
	_ = godotenv.Load()

	cfg := config.Load()

	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "room-reservation").Logger()
	if cfg.Env == "dev" {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	db, err := database.Open(database.Config{
		User: cfg.DBUser, Pass: cfg.DBPass,
		Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	reservationRepo := repository.NewReservationRepo(db)
	roomRepo := repository.NewRoomRepo(db)
	orderRepo := repository.NewOrderRepo(db)

	publisher := queue.NewPublisher(cfg.RabbitURL, log)

	orderSvc := service.NewOrderService(orderRepo, reservationRepo, log)
	reservationSvc := service.NewReservationService(reservationRepo, roomRepo, orderSvc, publisher, service.ReservationConfig{
		MinDuration: time.Duration(cfg.MinDurationHours) * time.Hour,
		MaxDuration: time.Duration(cfg.MaxDurationHours) * time.Hour,
		Granularity: cfg.SlotGranularity,
	}, log)
	roomSvc := service.NewRoomService(roomRepo, reservationRepo, log)
	sweeper := service.NewSweeper(reservationRepo, publisher, cfg.SweepConfirmed, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sweeper.Run(ctx, cfg.SweepInterval)
	go queue.StartEventConsumer(ctx, cfg.RabbitURL, log)

	e := echo.New()
	e.HideBanner = true

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn().Msg("redis unavailable, slot responses will not be cached")
	}
	slotCache := middleware.ResponseCache(config.LoadCacheConfig(), rdb)

	reservationHandler := handler.NewReservationHandler(reservationSvc)
	roomHandler := handler.NewRoomHandler(roomSvc, reservationSvc)
	paymentHandler := handler.NewPaymentHandler(orderSvc, reservationSvc, roomSvc, log)
	adminHandler := handler.NewAdminHandler(reservationSvc, roomSvc, sweeper)

	router.RegisterRoutes(e)
	router.RegisterPublic(e, roomHandler, paymentHandler, slotCache)
	router.RegisterReservations(e, reservationHandler, paymentHandler, cfg.JWTSecret)
	router.RegisterAdmin(e, adminHandler, cfg.JWTSecret)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
	if err := e.Start(addr); err != nil {
		log.Info().Err(err).Msg("server stopped")
	}
}
