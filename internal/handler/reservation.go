package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hostaria/hotel-reservation-api/internal/billing"
	"github.com/hostaria/hotel-reservation-api/internal/model"
	"github.com/hostaria/hotel-reservation-api/internal/repository"
	"github.com/hostaria/hotel-reservation-api/internal/service"
)

// ReservationHandler exposes the booking lifecycle.  Staff operate on any
// reservation; clients only see and cancel their own.
type ReservationHandler struct {
	Booking      *service.BookingService
	Reservations *repository.ReservationRepo
}

func NewReservationHandler(b *service.BookingService, r *repository.ReservationRepo) *ReservationHandler {
	return &ReservationHandler{Booking: b, Reservations: r}
}

type reservationReq struct {
	UserID   uint64  `json:"user_id"` // staff only; clients book for themselves
	RoomID   uint64  `json:"room_id"`
	CheckIn  string  `json:"check_in"`
	CheckOut string  `json:"check_out"`
	Status   string  `json:"status"` // staff only; Pending or Confirmed
	Note     *string `json:"note"`
}

type reservationResp struct {
	ID          uint64   `json:"id"`
	BookingCode string   `json:"booking_code"`
	UserID      uint64   `json:"user_id"`
	RoomID      uint64   `json:"room_id"`
	CheckIn     string   `json:"check_in"`
	CheckOut    string   `json:"check_out"`
	Status      string   `json:"status"`
	Note        *string  `json:"note,omitempty"`
}

type bookingResp struct {
	Reservation reservationResp `json:"reservation"`
	Invoice     invoiceResp     `json:"invoice"`
}

func toReservationResp(r *model.Reservation) reservationResp {
	return reservationResp{
		ID:          r.ID,
		BookingCode: r.BookingCode,
		UserID:      r.UserID,
		RoomID:      r.RoomID,
		CheckIn:     r.CheckIn.Format("2006-01-02"),
		CheckOut:    r.CheckOut.Format("2006-01-02"),
		Status:      r.Status,
		Note:        r.Note,
	}
}

func toBookingResp(res *service.BookingResult) bookingResp {
	return bookingResp{
		Reservation: toReservationResp(res.Reservation),
		Invoice:     toInvoiceResp(res.Invoice, res.Lines),
	}
}

func parseStayDates(checkIn, checkOut string) (time.Time, time.Time, bool) {
	in, err := time.Parse("2006-01-02", checkIn)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	out, err := time.Parse("2006-01-02", checkOut)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return in, out, true
}

// isStaff reports whether the request carries an ADMIN or RECEPTIONIST role.
func isStaff(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == model.RoleAdmin || role == model.RoleReceptionist
}

// Create opens a stay and issues its invoice.  Clients always book for
// themselves with Pending status; staff can name the guest and confirm
// immediately.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req reservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	in, out, ok := parseStayDates(req.CheckIn, req.CheckOut)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "check_in/check_out must be YYYY-MM-DD"})
	}
	if req.RoomID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room_id required"})
	}

	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	input := service.CreateBookingInput{
		UserID:   uid,
		RoomID:   req.RoomID,
		CheckIn:  in,
		CheckOut: out,
		Note:     req.Note,
	}
	if isStaff(c) {
		if req.UserID != 0 {
			input.UserID = req.UserID
		}
		input.Status = req.Status
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	result, err := h.Booking.Create(ctx, input)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, toBookingResp(result))
}

// Get returns a reservation joined with its room, guest and invoice.
// Clients can only read their own.
func (h *ReservationHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	detail, err := h.Reservations.GetDetail(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	if !isStaff(c) {
		uid, err := getUserID(c)
		if err != nil || detail.Client.ID != uid {
			return fail(c, repository.ErrForbidden)
		}
	}
	return c.JSON(http.StatusOK, detail)
}

// List returns reservations matching the filters.  Clients are always
// scoped to their own bookings.
func (h *ReservationHandler) List(c echo.Context) error {
	from, ok := queryDate(c, "from")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be YYYY-MM-DD"})
	}
	to, ok := queryDate(c, "to")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be YYYY-MM-DD"})
	}
	f := repository.ReservationFilter{
		Query:  c.QueryParam("q"),
		Status: c.QueryParam("status"),
		From:   from,
		To:     to,
	}
	if f.Status != "" && !billing.ValidStatus(billing.Status(f.Status)) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}
	if !isStaff(c) {
		uid, err := getUserID(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		f.UserID = uid
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	list, err := h.Reservations.List(ctx, f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": list})
}

type reservationUpdateReq struct {
	RoomID   uint64  `json:"room_id"`
	CheckIn  string  `json:"check_in"`
	CheckOut string  `json:"check_out"`
	Note     *string `json:"note"`
}

// Update moves a stay to a different room or date range and reprices its
// lodging line.  Staff only.
func (h *ReservationHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req reservationUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	in, out, ok := parseStayDates(req.CheckIn, req.CheckOut)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "check_in/check_out must be YYYY-MM-DD"})
	}
	if req.RoomID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	result, err := h.Booking.Update(ctx, id, service.UpdateBookingInput{
		RoomID:   req.RoomID,
		CheckIn:  in,
		CheckOut: out,
		Note:     req.Note,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toBookingResp(result))
}

type statusReq struct {
	Status string `json:"status"`
}

// ChangeStatus drives the reservation lifecycle.  Staff only; guests go
// through Cancel.
func (h *ReservationHandler) ChangeStatus(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	to := billing.Status(req.Status)
	if !billing.ValidStatus(to) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	res, err := h.Booking.ChangeStatus(ctx, id, to)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResp(res))
}

// Cancel cancels a stay and voids its invoice.  Clients may cancel their
// own reservations; staff any.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if !isStaff(c) {
		uid, err := getUserID(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		res, err := h.Reservations.GetByID(ctx, id)
		if err != nil {
			return fail(c, err)
		}
		if res.UserID != uid {
			return fail(c, repository.ErrForbidden)
		}
	}

	res, err := h.Booking.Cancel(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResp(res))
}
