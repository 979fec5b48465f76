package router // router wires HTTP routes to handlers and middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/hostaria/hotel-reservation-api/internal/config"
	"github.com/hostaria/hotel-reservation-api/internal/handler"
	"github.com/hostaria/hotel-reservation-api/internal/middleware"
	"github.com/hostaria/hotel-reservation-api/internal/model"
)

// Handlers bundles every handler the router mounts.
type Handlers struct {
	Auth         *handler.AuthHandler
	Rooms        *handler.RoomHandler
	Reservations *handler.ReservationHandler
	Invoices     *handler.InvoiceHandler
	Services     *handler.ServiceHandler
	Reports      *handler.ReportHandler
}

// Register mounts all routes on the Echo instance.
//
// Route map:
//
//	/healthz                          public liveness
//	/v1/auth/*                        register, login, refresh, logout
//	/v1/rooms/available, /v1/services public browse (response-cached)
//	/v1/*                             authenticated, per-role groups
func Register(e *echo.Echo, cfg config.Config, h Handlers, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	// Auth endpoints.  Register/login/refresh need no session; logout
	// accepts either a refresh token in the body or a valid access token.
	auth := e.Group("/v1/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)

	// Public browse endpoints sit behind the Redis response cache: the room
	// and service catalogs change far less often than guests browse them.
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	e.GET("/v1/rooms/available", h.Rooms.ListAvailable, cache)
	e.GET("/v1/services", h.Services.List, cache)
	e.GET("/v1/services/categories", h.Services.ListCategories, cache)

	// Everything below requires a valid access token.  Mutations are also
	// rate limited per client.
	limited := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	v1 := e.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	v1.GET("/me", h.Auth.Me)

	staff := middleware.RequireRole(model.RoleAdmin, model.RoleReceptionist)
	admin := middleware.RequireRole(model.RoleAdmin)
	anyRole := middleware.RequireRole(model.RoleAdmin, model.RoleReceptionist, model.RoleClient)

	// Room inventory.  Reads are staff-wide; CRUD and restore are admin
	// only; the maintenance toggle is open to the reception desk.
	rooms := v1.Group("/rooms")
	rooms.GET("", h.Rooms.List, staff)
	rooms.GET("/:id", h.Rooms.Get, staff)
	rooms.POST("", h.Rooms.Create, admin, limited)
	rooms.PUT("/:id", h.Rooms.Update, admin, limited)
	rooms.PATCH("/:id/state", h.Rooms.SetState, staff, limited)
	rooms.DELETE("/:id", h.Rooms.Deactivate, admin, limited)
	rooms.POST("/:id/restore", h.Rooms.Restore, admin, limited)

	// Reservations.  Clients create and cancel their own; staff run the
	// full lifecycle.
	res := v1.Group("/reservations", anyRole)
	res.POST("", h.Reservations.Create, limited)
	res.GET("", h.Reservations.List)
	res.GET("/:id", h.Reservations.Get)
	res.PUT("/:id", h.Reservations.Update, staff, limited)
	res.PATCH("/:id/status", h.Reservations.ChangeStatus, staff, limited)
	res.POST("/:id/cancel", h.Reservations.Cancel, limited)
	res.DELETE("/:id", h.Reservations.Cancel, limited)

	// Invoices.  Clients read their own; creation, the ledger and the
	// payment surface are staff only.
	inv := v1.Group("/invoices", anyRole)
	inv.GET("", h.Invoices.List)
	inv.GET("/:id", h.Invoices.Get)
	inv.GET("/:id/document", h.Invoices.Document)
	inv.POST("", h.Invoices.Create, staff, limited)
	inv.POST("/:id/lines", h.Invoices.AddLine, staff, limited)
	inv.DELETE("/:id/lines/:line_id", h.Invoices.RemoveLine, staff, limited)
	inv.POST("/:id/void", h.Invoices.Void, staff, limited)
	inv.POST("/:id/pay", h.Invoices.Pay, staff, limited)

	// Service catalog management (admin).
	svc := v1.Group("/services", admin)
	svc.POST("", h.Services.Create, limited)
	svc.GET("/:id", h.Services.Get)
	svc.PUT("/:id", h.Services.Update, limited)
	svc.DELETE("/:id", h.Services.Deactivate, limited)
	svc.POST("/categories", h.Services.CreateCategory, limited)

	// Management reports (staff).
	rep := v1.Group("/reports", staff)
	rep.GET("/occupancy", h.Reports.Occupancy)
	rep.GET("/revenue", h.Reports.Revenue)
	rep.GET("/clients", h.Reports.Clients)
}
