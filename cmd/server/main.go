package main // API entry point

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/hostaria/hotel-reservation-api/internal/bookingcode"
	"github.com/hostaria/hotel-reservation-api/internal/config"
	"github.com/hostaria/hotel-reservation-api/internal/database"
	"github.com/hostaria/hotel-reservation-api/internal/handler"
	"github.com/hostaria/hotel-reservation-api/internal/queue"
	"github.com/hostaria/hotel-reservation-api/internal/repository"
	"github.com/hostaria/hotel-reservation-api/internal/router"
	"github.com/hostaria/hotel-reservation-api/internal/service"
)

func main() {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the response cache and the rate limiter.  A nil client
	// turns both middlewares into pass-throughs.
	rdb := config.NewRedisClient()

	// Repositories.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	rooms := repository.NewRoomRepo(db)
	reservations := repository.NewReservationRepo(db)
	invoices := repository.NewInvoiceRepo(db)
	lines := repository.NewInvoiceLineRepo(db)
	services := repository.NewServiceRepo(db)

	// Transactional services.  The tax rate is read from config exactly
	// once and fixed for the process lifetime.
	booking := service.NewBookingService(db, reservations, rooms, invoices, lines, users,
		bookingcode.Random{}, cfg.TaxRate)
	ledger := service.NewLedgerService(db, invoices, lines, services, reservations, users, cfg.TaxRate)

	h := router.Handlers{
		Auth:         handler.NewAuthHandler(cfg, users, tokens),
		Rooms:        handler.NewRoomHandler(rooms),
		Reservations: handler.NewReservationHandler(booking, reservations),
		Invoices:     handler.NewInvoiceHandler(invoices, ledger, users, reservations),
		Services:     handler.NewServiceHandler(services),
		Reports:      handler.NewReportHandler(rooms, reservations, invoices, users),
	}

	// The consumer appends confirmation and void events to the reservation
	// log.  It reconnects on its own and never stops the server.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation-consumer: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.Register(e, cfg, h, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
