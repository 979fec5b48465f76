package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hostaria/hotel-reservation-api/internal/billing"
	"github.com/hostaria/hotel-reservation-api/internal/repository"
)

// ReportHandler serves the management reports: occupancy, revenue and the
// client roster.
type ReportHandler struct {
	Rooms        *repository.RoomRepo
	Reservations *repository.ReservationRepo
	Invoices     *repository.InvoiceRepo
	Users        *repository.UserRepo
}

func NewReportHandler(rooms *repository.RoomRepo, reservations *repository.ReservationRepo,
	invoices *repository.InvoiceRepo, users *repository.UserRepo) *ReportHandler {
	return &ReportHandler{Rooms: rooms, Reservations: reservations, Invoices: invoices, Users: users}
}

type occupancyResp struct {
	TotalRooms       int64   `json:"total_rooms"`
	Available        int64   `json:"available"`
	Occupied         int64   `json:"occupied"`
	Maintenance      int64   `json:"maintenance"`
	OccupancyPercent float64 `json:"occupancy_percent"`
	Reservations     int64   `json:"reservations"` // non-cancelled check-ins in range
}

// Occupancy reports the room inventory split by state plus the number of
// non-cancelled reservations checking in inside the optional from/to range.
func (h *ReportHandler) Occupancy(c echo.Context) error {
	from, ok := queryDate(c, "from")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be YYYY-MM-DD"})
	}
	to, ok := queryDate(c, "to")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be YYYY-MM-DD"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	states, err := h.Rooms.CountByState(ctx)
	if err != nil {
		return fail(c, err)
	}
	count, err := h.Reservations.CountInRange(ctx, from, to)
	if err != nil {
		return fail(c, err)
	}

	resp := occupancyResp{
		Available:    states[string(billing.RoomAvailable)],
		Occupied:     states[string(billing.RoomOccupied)],
		Maintenance:  states[string(billing.RoomMaintenance)],
		Reservations: count,
	}
	resp.TotalRooms = resp.Available + resp.Occupied + resp.Maintenance
	if resp.TotalRooms > 0 {
		resp.OccupancyPercent = 100 * float64(resp.Occupied) / float64(resp.TotalRooms)
	}
	return c.JSON(http.StatusOK, resp)
}

type revenueResp struct {
	Revenue  float64 `json:"revenue"`
	Invoices int64   `json:"invoices"`
}

// Revenue sums non-voided invoice totals issued inside the optional
// from/to range.
func (h *ReportHandler) Revenue(c echo.Context) error {
	from, ok := queryDate(c, "from")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be YYYY-MM-DD"})
	}
	to, ok := queryDate(c, "to")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be YYYY-MM-DD"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	revenue, count, err := h.Invoices.RevenueBetween(ctx, from, to)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, revenueResp{Revenue: revenue, Invoices: count})
}

type clientResp struct {
	ID           uint64 `json:"id"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Active       bool   `json:"active"`
	Reservations int64  `json:"reservations"`
}

// Clients lists guest accounts with their reservation counts, optionally
// filtered by name or email.
func (h *ReportHandler) Clients(c echo.Context) error {
	f := repository.UserFilter{
		Query:           c.QueryParam("q"),
		IncludeInactive: c.QueryParam("include_inactive") == "true",
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	users, err := h.Users.ListClients(ctx, f)
	if err != nil {
		return fail(c, err)
	}
	counts, err := h.Reservations.CountByClient(ctx)
	if err != nil {
		return fail(c, err)
	}
	out := make([]clientResp, 0, len(users))
	for _, u := range users {
		out = append(out, clientResp{
			ID:           u.ID,
			Email:        u.Email,
			FirstName:    u.FirstName,
			LastName:     u.LastName,
			Active:       u.DeactivatedAt == nil,
			Reservations: counts[u.ID],
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"clients": out})
}
