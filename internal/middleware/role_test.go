package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func roleRequest(t *testing.T, role any, allowed ...string) int {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != nil {
		c.Set("role", role)
	}
	handler := RequireRole(allowed...)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec.Code
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name    string
		role    any
		allowed []string
		want    int
	}{
		{"allowed single", "ADMIN", []string{"ADMIN"}, http.StatusOK},
		{"allowed among several", "RECEPTIONIST", []string{"ADMIN", "RECEPTIONIST"}, http.StatusOK},
		{"wrong role", "CLIENT", []string{"ADMIN"}, http.StatusForbidden},
		{"missing role", nil, []string{"ADMIN"}, http.StatusForbidden},
		{"non-string role", 7, []string{"ADMIN"}, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := roleRequest(t, tc.role, tc.allowed...); got != tc.want {
				t.Errorf("status = %d, want %d", got, tc.want)
			}
		})
	}
}
