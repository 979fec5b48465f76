package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hostaria/hotel-reservation-api/internal/model"
	"github.com/hostaria/hotel-reservation-api/internal/repository"
)

// ServiceHandler manages the catalog of billable extras.
type ServiceHandler struct {
	Services *repository.ServiceRepo
}

func NewServiceHandler(s *repository.ServiceRepo) *ServiceHandler {
	return &ServiceHandler{Services: s}
}

type serviceReq struct {
	CategoryID  *uint64 `json:"category_id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Price       float64 `json:"price"`
	Active      *bool   `json:"active"`
}

type serviceResp struct {
	ID          uint64  `json:"id"`
	CategoryID  *uint64 `json:"category_id,omitempty"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Active      bool    `json:"active"`
}

func toServiceResp(s *model.Service) serviceResp {
	return serviceResp{
		ID:          s.ID,
		CategoryID:  s.CategoryID,
		Name:        s.Name,
		Description: s.Description,
		Price:       s.Price,
		Active:      s.Active,
	}
}

func (req *serviceReq) validate() (string, bool) {
	if strings.TrimSpace(req.Name) == "" {
		return "name required", false
	}
	if req.Price < 0 {
		return "price must not be negative", false
	}
	return "", true
}

// Create adds a service to the catalog.  New services are active unless
// the body says otherwise.
func (h *ServiceHandler) Create(c echo.Context) error {
	var req serviceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg, ok := req.validate(); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	svc := &model.Service{
		CategoryID:  req.CategoryID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		Active:      active,
	}
	if err := h.Services.Create(ctx, svc); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, toServiceResp(svc))
}

// Get returns a single catalog service.
func (h *ServiceHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	svc, err := h.Services.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toServiceResp(svc))
}

// Update rewrites a catalog service, including its active flag.
func (h *ServiceHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req serviceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg, ok := req.validate(); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	svc, err := h.Services.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	svc.CategoryID = req.CategoryID
	svc.Name = strings.TrimSpace(req.Name)
	svc.Description = req.Description
	svc.Price = req.Price
	if req.Active != nil {
		svc.Active = *req.Active
	}
	if err := h.Services.Update(ctx, svc); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toServiceResp(svc))
}

// Deactivate pulls a service out of the bookable catalog; already billed
// lines keep their copied price and description.
func (h *ServiceHandler) Deactivate(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Services.SetActive(ctx, id, false); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "service deactivated"})
}

// List returns catalog services.  The public listing only sees active
// ones; staff can pass active=all.
func (h *ServiceHandler) List(c echo.Context) error {
	f := repository.ServiceFilter{
		Query:      c.QueryParam("q"),
		ActiveOnly: c.QueryParam("active") != "all" || !isStaff(c),
	}
	if v := c.QueryParam("category_id"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category_id"})
		}
		f.CategoryID = n
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	list, err := h.Services.List(ctx, f)
	if err != nil {
		return fail(c, err)
	}
	out := make([]serviceResp, 0, len(list))
	for _, s := range list {
		out = append(out, toServiceResp(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"services": out})
}

type categoryResp struct {
	ID     uint64 `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// ListCategories returns the active service categories.
func (h *ServiceHandler) ListCategories(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	cats, err := h.Services.ListCategories(ctx)
	if err != nil {
		return fail(c, err)
	}
	out := make([]categoryResp, 0, len(cats))
	for _, cat := range cats {
		out = append(out, categoryResp{ID: cat.ID, Name: cat.Name, Active: cat.Active})
	}
	return c.JSON(http.StatusOK, echo.Map{"categories": out})
}

type categoryReq struct {
	Name string `json:"name"`
}

// CreateCategory adds a service category.
func (h *ServiceHandler) CreateCategory(c echo.Context) error {
	var req categoryReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	cat := &model.ServiceCategory{Name: strings.TrimSpace(req.Name)}
	if err := h.Services.CreateCategory(ctx, cat); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, categoryResp{ID: cat.ID, Name: cat.Name, Active: cat.Active})
}
