package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// TestAccessTokenRoundTrip проверяет, что токен несет пользователя и компанию.
func TestAccessTokenRoundTrip(t *testing.T) {
	manager := NewTokenManager("secret", "cashflow-forecast", time.Hour)
	userID := uuid.New()
	companyID := uuid.New()

	token, err := manager.NewAccessToken(userID, companyID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	gotUser, gotCompany, err := manager.ParseAccessToken(token.Token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotUser != userID || gotCompany != companyID {
		t.Fatalf("expected %s/%s, got %s/%s", userID, companyID, gotUser, gotCompany)
	}
}

// TestAccessTokenRejected проверяет отказ для чужого секрета и истекшего токена.
func TestAccessTokenRejected(t *testing.T) {
	issuer := NewTokenManager("secret", "cashflow-forecast", time.Minute)
	token, err := issuer.NewAccessToken(uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	other := NewTokenManager("other-secret", "cashflow-forecast", time.Minute)
	if _, _, err := other.ParseAccessToken(token.Token); err == nil {
		t.Fatal("expected signature error")
	}

	later := NewTokenManager("secret", "cashflow-forecast", time.Minute)
	later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, _, err := later.ParseAccessToken(token.Token); err == nil {
		t.Fatal("expected expiry error")
	}
}

// TestJWTMiddlewareSetsCompany проверяет заполнение контекста из заголовка.
func TestJWTMiddlewareSetsCompany(t *testing.T) {
	manager := NewTokenManager("secret", "cashflow-forecast", time.Hour)
	companyID := uuid.New()
	token, err := manager.NewAccessToken(uuid.New(), companyID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	handler := JWTMiddleware(manager)(func(c echo.Context) error {
		got, ok := CompanyIDFromContext(c)
		if !ok || got != companyID {
			t.Fatalf("expected company %s, got %s", companyID, got)
		}
		return c.NoContent(http.StatusNoContent)
	})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/forecast", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token.Token)
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

// TestQueryTokenOnlyForStream проверяет, что токен из query принимается только SSE-мидлварой.
func TestQueryTokenOnlyForStream(t *testing.T) {
	manager := NewTokenManager("secret", "cashflow-forecast", time.Hour)
	companyID := uuid.New()
	token, err := manager.NewAccessToken(uuid.New(), companyID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	next := func(c echo.Context) error {
		got, ok := CompanyIDFromContext(c)
		if !ok || got != companyID {
			t.Fatalf("expected company %s, got %s", companyID, got)
		}
		return c.NoContent(http.StatusNoContent)
	}

	e := echo.New()
	target := "/notifications/stream?" + QueryTokenParam + "=" + token.Token

	rec := httptest.NewRecorder()
	if err := StreamJWTMiddleware(manager)(next)(e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	err = JWTMiddleware(manager)(next)(e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder()))
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for query token on regular route, got %v", err)
	}
}

func TestJWTMiddlewareMissingHeader(t *testing.T) {
	manager := NewTokenManager("secret", "cashflow-forecast", time.Hour)
	handler := JWTMiddleware(manager)(func(c echo.Context) error {
		t.Fatal("handler must not be called")
		return nil
	})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/forecast", nil)
	err := handler(e.NewContext(req, httptest.NewRecorder()))

	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestComparePassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := ComparePassword(hash, "correct horse"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if err := ComparePassword(hash, "battery staple"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}
