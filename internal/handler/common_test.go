package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/hostaria/hotel-reservation-api/internal/billing"
	"github.com/hostaria/hotel-reservation-api/internal/repository"
	"github.com/hostaria/hotel-reservation-api/internal/service"
)

func newTestContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestFailStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", fmt.Errorf("nights: %w", billing.ErrInvalidInput), http.StatusBadRequest},
		{"invalid transition", &billing.InvalidTransitionError{From: billing.StatusCompleted, To: billing.StatusConfirmed}, http.StatusConflict},
		{"room unavailable", service.ErrRoomUnavailable, http.StatusConflict},
		{"room number taken", repository.ErrRoomNumberTaken, http.StatusConflict},
		{"room not found", repository.ErrRoomNotFound, http.StatusNotFound},
		{"reservation not found", repository.ErrReservationNotFound, http.StatusNotFound},
		{"invoice not found", repository.ErrInvoiceNotFound, http.StatusNotFound},
		{"forbidden", repository.ErrForbidden, http.StatusForbidden},
		{"conflict", fmt.Errorf("invoice is Voided: %w", repository.ErrConflict), http.StatusConflict},
		{"consistency", &billing.ConsistencyError{Op: "occupy room", Err: fmt.Errorf("gone")}, http.StatusInternalServerError},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newTestContext(t)
			if err := fail(c, tc.err); err != nil {
				t.Fatalf("fail returned error: %v", err)
			}
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestGetUserID(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  uint64
		ok    bool
	}{
		{"float64 from jwt", float64(42), 42, true},
		{"uint64", uint64(7), 7, true},
		{"string", "19", 19, true},
		{"garbage string", "abc", 0, false},
		{"missing", nil, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestContext(t)
			if tc.value != nil {
				c.Set("user_id", tc.value)
			}
			got, err := getUserID(c)
			if tc.ok && (err != nil || got != tc.want) {
				t.Errorf("getUserID = (%d, %v), want (%d, nil)", got, err, tc.want)
			}
			if !tc.ok && err == nil {
				t.Errorf("getUserID = (%d, nil), want error", got)
			}
		})
	}
}

func TestPathID(t *testing.T) {
	c, _ := newTestContext(t)
	c.SetParamNames("id")
	c.SetParamValues("15")
	if id, ok := pathID(c, "id"); !ok || id != 15 {
		t.Errorf("pathID = (%d, %v), want (15, true)", id, ok)
	}

	c.SetParamValues("0")
	if _, ok := pathID(c, "id"); ok {
		t.Error("zero id accepted")
	}
	c.SetParamValues("x")
	if _, ok := pathID(c, "id"); ok {
		t.Error("non-numeric id accepted")
	}
}

func TestParseStayDates(t *testing.T) {
	in, out, ok := parseStayDates("2024-01-10", "2024-01-13")
	if !ok {
		t.Fatal("valid dates rejected")
	}
	if got := out.Sub(in).Hours() / 24; got != 3 {
		t.Errorf("stay length = %v days, want 3", got)
	}
	if _, _, ok := parseStayDates("2024-01-10", "13/01/2024"); ok {
		t.Error("malformed check_out accepted")
	}
	if _, _, ok := parseStayDates("", "2024-01-13"); ok {
		t.Error("empty check_in accepted")
	}
}

func TestIsStaff(t *testing.T) {
	for role, want := range map[string]bool{
		"ADMIN":        true,
		"RECEPTIONIST": true,
		"CLIENT":       false,
		"":             false,
	} {
		c, _ := newTestContext(t)
		if role != "" {
			c.Set("role", role)
		}
		if got := isStaff(c); got != want {
			t.Errorf("isStaff(%q) = %v, want %v", role, got, want)
		}
	}
}
