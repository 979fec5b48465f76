package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hostaria/hotel-reservation-api/internal/billing"
	"github.com/hostaria/hotel-reservation-api/internal/model"
	"github.com/hostaria/hotel-reservation-api/internal/repository"
)

// RoomHandler exposes the room inventory: admin CRUD with soft delete and
// restore, the receptionist maintenance toggle, and the public
// availability listing.
type RoomHandler struct {
	Rooms *repository.RoomRepo
}

func NewRoomHandler(rooms *repository.RoomRepo) *RoomHandler {
	return &RoomHandler{Rooms: rooms}
}

type roomReq struct {
	RoomNumber   string  `json:"room_number"`
	RoomType     string  `json:"room_type"`
	Capacity     uint32  `json:"capacity"`
	Description  *string `json:"description"`
	NightlyPrice float64 `json:"nightly_price"`
	PhotoPath    *string `json:"photo_path"`
}

type roomResp struct {
	ID           uint64  `json:"id"`
	RoomNumber   string  `json:"room_number"`
	RoomType     string  `json:"room_type"`
	Capacity     uint32  `json:"capacity"`
	Description  *string `json:"description,omitempty"`
	NightlyPrice float64 `json:"nightly_price"`
	State        string  `json:"state"`
	PhotoPath    *string `json:"photo_path,omitempty"`
	Active       bool    `json:"active"`
}

func toRoomResp(r *model.Room) roomResp {
	return roomResp{
		ID:           r.ID,
		RoomNumber:   r.RoomNumber,
		RoomType:     r.RoomType,
		Capacity:     r.Capacity,
		Description:  r.Description,
		NightlyPrice: r.NightlyPrice,
		State:        r.State,
		PhotoPath:    r.PhotoPath,
		Active:       r.Active(),
	}
}

func (req *roomReq) validate() (string, bool) {
	if strings.TrimSpace(req.RoomNumber) == "" {
		return "room_number required", false
	}
	if !billing.ValidRoomType(billing.RoomType(req.RoomType)) {
		return "invalid room_type", false
	}
	if req.Capacity == 0 {
		return "capacity must be positive", false
	}
	if req.NightlyPrice < 0 {
		return "nightly_price must not be negative", false
	}
	return "", true
}

// Create registers a new room.  New rooms start Available.
func (h *RoomHandler) Create(c echo.Context) error {
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg, ok := req.validate(); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	room := &model.Room{
		RoomNumber:   strings.TrimSpace(req.RoomNumber),
		RoomType:     req.RoomType,
		Capacity:     req.Capacity,
		Description:  req.Description,
		NightlyPrice: req.NightlyPrice,
		State:        string(billing.RoomAvailable),
		PhotoPath:    req.PhotoPath,
	}
	if err := h.Rooms.Create(ctx, room); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, toRoomResp(room))
}

// Get returns one room, including deactivated ones so admins can inspect
// history.
func (h *RoomHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	room, err := h.Rooms.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toRoomResp(room))
}

// Update rewrites a room's descriptive attributes.  State is not editable
// here; it moves with reservation transitions or the maintenance toggle.
func (h *RoomHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg, ok := req.validate(); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	room, err := h.Rooms.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	room.RoomNumber = strings.TrimSpace(req.RoomNumber)
	room.RoomType = req.RoomType
	room.Capacity = req.Capacity
	room.Description = req.Description
	room.NightlyPrice = req.NightlyPrice
	room.PhotoPath = req.PhotoPath
	if err := h.Rooms.Update(ctx, room); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toRoomResp(room))
}

type roomStateReq struct {
	State string `json:"state"`
}

// SetState toggles a room in or out of Maintenance.  Occupancy moves only
// with reservation transitions, so the only states accepted here are
// Maintenance and Available.
func (h *RoomHandler) SetState(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req roomStateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	state := billing.RoomState(req.State)
	if state != billing.RoomMaintenance && state != billing.RoomAvailable {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "state must be Maintenance or Available"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	room, err := h.Rooms.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	if room.State == string(billing.RoomOccupied) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "room is occupied"})
	}
	if err := h.Rooms.SetState(ctx, id, string(state)); err != nil {
		return fail(c, err)
	}
	room.State = string(state)
	return c.JSON(http.StatusOK, toRoomResp(room))
}

// Deactivate soft-deletes a room; its number becomes reusable while
// reservation history keeps pointing at it.
func (h *RoomHandler) Deactivate(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Rooms.Deactivate(ctx, id); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "room deactivated"})
}

// Restore reactivates a soft-deleted room unless its number has been
// reused in the meantime.
func (h *RoomHandler) Restore(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Rooms.Restore(ctx, id); err != nil {
		return fail(c, err)
	}
	room, err := h.Rooms.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toRoomResp(room))
}

// List returns rooms matching the query filters.  Staff can include
// deactivated rooms with include_inactive=true.
func (h *RoomHandler) List(c echo.Context) error {
	f := repository.RoomFilter{
		Query:           c.QueryParam("q"),
		RoomType:        c.QueryParam("room_type"),
		State:           c.QueryParam("state"),
		IncludeInactive: c.QueryParam("include_inactive") == "true",
	}
	if f.RoomType != "" && !billing.ValidRoomType(billing.RoomType(f.RoomType)) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room_type"})
	}
	if f.State != "" && !billing.ValidRoomState(billing.RoomState(f.State)) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid state"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	rooms, err := h.Rooms.List(ctx, f)
	if err != nil {
		return fail(c, err)
	}
	out := make([]roomResp, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, toRoomResp(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": out})
}

// ListAvailable is the public listing of bookable rooms.  It sits behind
// the response cache.
func (h *RoomHandler) ListAvailable(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	rooms, err := h.Rooms.ListAvailable(ctx)
	if err != nil {
		return fail(c, err)
	}
	out := make([]roomResp, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, toRoomResp(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": out})
}
