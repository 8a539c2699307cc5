package server

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"

	"example.com/cashflow-forecast/internal/handlers"
)

// TestValidatorUsesTagNames проверяет имена полей в ошибках валидации.
func TestValidatorUsesTagNames(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&handlers.ForecastQuery{Horizon: -1})
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		t.Fatalf("expected validation errors, got %v", err)
	}
	if field := validationErrors[0].Field(); field != "horizon" {
		t.Fatalf("expected field horizon, got %s", field)
	}

	err = v.Validate(&handlers.RegisterRequest{Email: "owner@example.com", Password: "secret123"})
	if !errors.As(err, &validationErrors) {
		t.Fatalf("expected validation errors, got %v", err)
	}
	if field := validationErrors[0].Field(); field != "company_name" {
		t.Fatalf("expected field company_name, got %s", field)
	}
}

func TestValidatorAcceptsValidQuery(t *testing.T) {
	if err := NewValidator().Validate(&handlers.ForecastQuery{Horizon: 0}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
