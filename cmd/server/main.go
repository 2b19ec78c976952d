package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-ticketing/internal/booking"
	"github.com/iliyamo/bus-ticketing/internal/config"
	"github.com/iliyamo/bus-ticketing/internal/database"
	"github.com/iliyamo/bus-ticketing/internal/handler"
	"github.com/iliyamo/bus-ticketing/internal/middleware"
	"github.com/iliyamo/bus-ticketing/internal/queue"
	"github.com/iliyamo/bus-ticketing/internal/repository"
	"github.com/iliyamo/bus-ticketing/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.InitSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("schema init failed: %v", err)
	}
	cancel()

	// Repositories
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	companyRepo := repository.NewCompanyRepo(db)
	tripRepo := repository.NewTripRepo(db)
	seatRepo := repository.NewSeatRepo(db)
	walletRepo := repository.NewWalletRepo(db)
	couponRepo := repository.NewCouponRepo(db)
	ticketRepo := repository.NewTicketRepo(db)

	// Settlement engine over the SQL store
	store := repository.NewSQLStore(db, tripRepo, seatRepo, walletRepo, couponRepo, ticketRepo)
	engine := booking.NewEngine(store)

	// Handlers
	authHandler := handler.NewAuthHandler(cfg, userRepo, tokenRepo, companyRepo, ticketRepo)
	bookingHandler := handler.NewBookingHandler(engine, ticketRepo, tripRepo)
	walletHandler := handler.NewWalletHandler(walletRepo)
	publicHandler := handler.NewPublicHandler(tripRepo, companyRepo, engine)
	companyHandler := handler.NewCompanyTripHandler(tripRepo)
	adminHandler := handler.NewAdminHandler(companyRepo, couponRepo, ticketRepo)

	e := echo.New()

	// Redis-backed rate limiting and response caching degrade to no-ops
	// when Redis is unreachable.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterPublic(e, publicHandler)
	router.RegisterCustomer(e, bookingHandler, walletHandler, cfg.JWTSecret)
	router.RegisterCompany(e, companyHandler, cfg.JWTSecret)
	router.RegisterAdmin(e, adminHandler, cfg.JWTSecret)

	// Background consumer writes purchase/cancellation events to
	// logs/ticket.log and reconnects on broker failures.
	go func() {
		if err := queue.StartTicketConsumer(); err != nil {
			log.Printf("ticket consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
