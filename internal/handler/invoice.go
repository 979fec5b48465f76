package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hostaria/hotel-reservation-api/internal/model"
	"github.com/hostaria/hotel-reservation-api/internal/repository"
	"github.com/hostaria/hotel-reservation-api/internal/service"
)

// InvoiceHandler exposes invoice reads, standalone creation, voiding,
// payment recording, and the line ledger mutations.
type InvoiceHandler struct {
	Invoices     *repository.InvoiceRepo
	Ledger       *service.LedgerService
	Users        *repository.UserRepo
	Reservations *repository.ReservationRepo
}

func NewInvoiceHandler(i *repository.InvoiceRepo, l *service.LedgerService,
	u *repository.UserRepo, r *repository.ReservationRepo) *InvoiceHandler {
	return &InvoiceHandler{Invoices: i, Ledger: l, Users: u, Reservations: r}
}

type lineResp struct {
	ID          uint64  `json:"id"`
	ServiceID   *uint64 `json:"service_id,omitempty"`
	Description string  `json:"description"`
	Quantity    uint32  `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Subtotal    float64 `json:"subtotal"`
	Tax         float64 `json:"tax"`
	Total       float64 `json:"total"`
	Lodging     bool    `json:"lodging"`
}

type invoiceResp struct {
	ID            uint64     `json:"id"`
	Number        string     `json:"number"`
	ReservationID *uint64    `json:"reservation_id,omitempty"`
	ClientID      uint64     `json:"client_id"`
	IssuedAt      time.Time  `json:"issued_at"`
	PaymentMethod string     `json:"payment_method"`
	Status        string     `json:"status"`
	Subtotal      float64    `json:"subtotal"`
	Tax           float64    `json:"tax"`
	Total         float64    `json:"total"`
	Notes         *string    `json:"notes,omitempty"`
	Lines         []lineResp `json:"lines"`
}

func toInvoiceResp(inv *model.Invoice, lines []*model.InvoiceLine) invoiceResp {
	out := invoiceResp{
		ID:            inv.ID,
		Number:        inv.Prefix + strconv.FormatUint(inv.Number, 10),
		ReservationID: inv.ReservationID,
		ClientID:      inv.ClientID,
		IssuedAt:      inv.IssuedAt,
		PaymentMethod: inv.PaymentMethod,
		Status:        inv.Status,
		Subtotal:      inv.Subtotal,
		Tax:           inv.Tax,
		Total:         inv.Total,
		Notes:         inv.Notes,
		Lines:         make([]lineResp, 0, len(lines)),
	}
	for _, l := range lines {
		out.Lines = append(out.Lines, lineResp{
			ID:          l.ID,
			ServiceID:   l.ServiceID,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Subtotal:    l.Subtotal,
			Tax:         l.Tax,
			Total:       l.Total,
			Lodging:     l.Lodging(),
		})
	}
	return out
}

// Get returns an invoice with its lines.  Clients only read their own.
func (h *InvoiceHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	snap, err := h.Ledger.Snapshot(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	if !isStaff(c) {
		uid, err := getUserID(c)
		if err != nil || snap.Invoice.ClientID != uid {
			return fail(c, repository.ErrForbidden)
		}
	}
	return c.JSON(http.StatusOK, toInvoiceResp(snap.Invoice, snap.Lines))
}

type documentResp struct {
	Invoice invoiceResp `json:"invoice"`
	Client  struct {
		ID        uint64 `json:"id"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
	} `json:"client"`
	Stay *struct {
		BookingCode string `json:"booking_code"`
		RoomNumber  string `json:"room_number"`
		RoomType    string `json:"room_type"`
		CheckIn     string `json:"check_in"`
		CheckOut    string `json:"check_out"`
	} `json:"stay,omitempty"`
}

// Document returns everything a renderer needs to produce the printable
// invoice: the invoice with its lines, the billed client, and the stay
// data when the invoice is reservation-backed.
func (h *InvoiceHandler) Document(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	snap, err := h.Ledger.Snapshot(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	if !isStaff(c) {
		uid, err := getUserID(c)
		if err != nil || snap.Invoice.ClientID != uid {
			return fail(c, repository.ErrForbidden)
		}
	}

	client, err := h.Users.GetByID(ctx, snap.Invoice.ClientID)
	if err != nil {
		return fail(c, err)
	}
	doc := documentResp{Invoice: toInvoiceResp(snap.Invoice, snap.Lines)}
	doc.Client.ID = client.ID
	doc.Client.FirstName = client.FirstName
	doc.Client.LastName = client.LastName
	doc.Client.Email = client.Email

	if snap.Invoice.ReservationID != nil {
		detail, err := h.Reservations.GetDetail(ctx, *snap.Invoice.ReservationID)
		if err != nil {
			return fail(c, err)
		}
		stay := struct {
			BookingCode string `json:"booking_code"`
			RoomNumber  string `json:"room_number"`
			RoomType    string `json:"room_type"`
			CheckIn     string `json:"check_in"`
			CheckOut    string `json:"check_out"`
		}{
			BookingCode: detail.BookingCode,
			RoomNumber:  detail.Room.RoomNumber,
			RoomType:    detail.Room.RoomType,
			CheckIn:     detail.CheckIn,
			CheckOut:    detail.CheckOut,
		}
		doc.Stay = &stay
	}
	return c.JSON(http.StatusOK, doc)
}

// List returns invoice summaries.  Clients are always scoped to their own.
func (h *InvoiceHandler) List(c echo.Context) error {
	from, ok := queryDate(c, "from")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be YYYY-MM-DD"})
	}
	to, ok := queryDate(c, "to")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be YYYY-MM-DD"})
	}
	f := repository.InvoiceFilter{
		Query:         c.QueryParam("q"),
		Status:        c.QueryParam("status"),
		PaymentMethod: c.QueryParam("method"),
		From:          from,
		To:            to,
	}
	if f.Status != "" && f.Status != model.InvoiceStatusPending &&
		f.Status != model.InvoiceStatusPaid && f.Status != model.InvoiceStatusVoided {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}
	if !isStaff(c) {
		uid, err := getUserID(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		f.ClientID = uid
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	list, err := h.Invoices.List(ctx, f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"invoices": list})
}

type createInvoiceReq struct {
	ClientID      uint64  `json:"client_id"`
	ReservationID *uint64 `json:"reservation_id"`
	Notes         *string `json:"notes"`
}

// Create issues a standalone invoice with no lines yet.  Staff only.
func (h *InvoiceHandler) Create(c echo.Context) error {
	var req createInvoiceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ClientID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "client_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	snap, err := h.Ledger.CreateInvoice(ctx, service.CreateInvoiceInput{
		ClientID:      req.ClientID,
		ReservationID: req.ReservationID,
		Notes:         req.Notes,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, toInvoiceResp(snap.Invoice, snap.Lines))
}

type addLineReq struct {
	ServiceID   uint64   `json:"service_id"`
	Quantity    int      `json:"quantity"`
	Description string   `json:"description"`
	UnitPrice   *float64 `json:"unit_price"`
}

// AddLine bills a catalog service onto the invoice.  Description and unit
// price default to the service's own when omitted.  Staff only.
func (h *InvoiceHandler) AddLine(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req addLineReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ServiceID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "service_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	snap, err := h.Ledger.AddServiceLine(ctx, id, service.AddLineInput{
		ServiceID:   req.ServiceID,
		Quantity:    req.Quantity,
		Description: strings.TrimSpace(req.Description),
		UnitPrice:   req.UnitPrice,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, toInvoiceResp(snap.Invoice, snap.Lines))
}

// RemoveLine deletes one line and returns the recomputed invoice.  Staff
// only.
func (h *InvoiceHandler) RemoveLine(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	lineID, ok := pathID(c, "line_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid line_id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	snap, err := h.Ledger.RemoveLine(ctx, id, lineID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toInvoiceResp(snap.Invoice, snap.Lines))
}

// Void marks the invoice Voided and clears its payment method.  Staff
// only.
func (h *InvoiceHandler) Void(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	snap, err := h.Ledger.Void(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toInvoiceResp(snap.Invoice, snap.Lines))
}

type payReq struct {
	PaymentMethod string `json:"payment_method"`
}

// Pay records payment of an invoice with the given method.  Staff only.
func (h *InvoiceHandler) Pay(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req payReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.PaymentMethod) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment_method required"})
	}
	method := strings.TrimSpace(req.PaymentMethod)
	if strings.EqualFold(method, model.PaymentMethodPending) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment_method must name a real method"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	inv, err := h.Invoices.MarkPaid(ctx, id, method)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toInvoiceResp(inv, nil))
}
