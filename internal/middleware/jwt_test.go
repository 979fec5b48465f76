package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/hostaria/hotel-reservation-api/internal/utils"
)

const testSecret = "test-secret"

func doRequest(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec, c
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	access, err := utils.NewAccessToken(testSecret, 42, "RECEPTIONIST", 5)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	rec, c := doRequest(t, JWTAuth(testSecret), "Bearer "+access.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if role, _ := c.Get("role").(string); role != "RECEPTIONIST" {
		t.Errorf("role claim = %q, want RECEPTIONIST", role)
	}
	if sub, _ := c.Get("user_id").(float64); uint64(sub) != 42 {
		t.Errorf("user_id claim = %v, want 42", c.Get("user_id"))
	}
}

func TestJWTAuthRejectsMissingHeader(t *testing.T) {
	rec, _ := doRequest(t, JWTAuth(testSecret), "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestJWTAuthRejectsWrongSecret(t *testing.T) {
	access, err := utils.NewAccessToken("other-secret", 1, "CLIENT", 5)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	rec, _ := doRequest(t, JWTAuth(testSecret), "Bearer "+access.Token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestJWTAuthRejectsExpiredToken(t *testing.T) {
	access, err := utils.NewAccessToken(testSecret, 1, "CLIENT", -5)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	rec, _ := doRequest(t, JWTAuth(testSecret), "Bearer "+access.Token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestJWTAuthRejectsMalformedToken(t *testing.T) {
	rec, _ := doRequest(t, JWTAuth(testSecret), "Bearer not.a.jwt")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
