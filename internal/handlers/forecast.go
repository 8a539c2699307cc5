package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"example.com/cashflow-forecast/internal/auth"
	"example.com/cashflow-forecast/internal/forecast"
	"example.com/cashflow-forecast/internal/models"
)

type Forecaster interface {
	Forecast(ctx context.Context, companyID uuid.UUID, horizon int) (forecast.Result, error)
	Lateness(ctx context.Context, companyID uuid.UUID) (forecast.LatenessProfile, error)
	FallbackDaysLate() int
}

type CustomerDirectory interface {
	Customers(ctx context.Context, companyID uuid.UUID) ([]models.Customer, error)
}

type ForecastHandler struct {
	Forecasts Forecaster
	Customers CustomerDirectory
}

// NewForecastHandler создает обработчик прогноза денежного потока.
func NewForecastHandler(forecasts Forecaster, customers CustomerDirectory) *ForecastHandler {
	return &ForecastHandler{Forecasts: forecasts, Customers: customers}
}

type ForecastQuery struct {
	Horizon int `query:"horizon" validate:"gte=0"`
}

type ForecastPointResponse struct {
	Date                 string          `json:"date"`
	InflowBalance        decimal.Decimal `json:"inflow_balance"`
	OutflowBalance       decimal.Decimal `json:"outflow_balance"`
	NetOptimisticBalance decimal.Decimal `json:"net_optimistic_balance"`
	NetRealisticBalance  decimal.Decimal `json:"net_realistic_balance"`
}

type ForecastSummaryResponse struct {
	HorizonDays            int             `json:"horizon_days"`
	CurrentBalance         decimal.Decimal `json:"current_balance"`
	TotalInflow            decimal.Decimal `json:"total_inflow"`
	TotalOutflow           decimal.Decimal `json:"total_outflow"`
	NetOptimisticAtHorizon decimal.Decimal `json:"net_optimistic_at_horizon"`
	NetRealisticAtHorizon  decimal.Decimal `json:"net_realistic_at_horizon"`
	Gap                    decimal.Decimal `json:"gap"`
	ReceivableCount        int             `json:"receivable_count"`
	PayableCount           int             `json:"payable_count"`
	AtRisk                 bool            `json:"at_risk"`
}

type ForecastResponse struct {
	Series  []ForecastPointResponse `json:"series"`
	Summary ForecastSummaryResponse `json:"summary"`
	AtRisk  bool                    `json:"at_risk"`
}

type CustomerLatenessResponse struct {
	CustomerID      uuid.UUID `json:"customer_id"`
	Name            string    `json:"name"`
	AverageDaysLate int       `json:"average_days_late"`
	HasHistory      bool      `json:"has_history"`
}

type LatenessResponse struct {
	FallbackDaysLate int                        `json:"fallback_days_late"`
	Customers        []CustomerLatenessResponse `json:"customers"`
}

// Get возвращает дневной ряд и сводку прогноза компании.
func (h *ForecastHandler) Get(c echo.Context) error {
	result, err := h.forecastFromQuery(c)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}

	return c.JSON(http.StatusOK, toForecastResponse(*result))
}

// Summary возвращает только итоговые показатели прогноза.
func (h *ForecastHandler) Summary(c echo.Context) error {
	result, err := h.forecastFromQuery(c)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}

	return c.JSON(http.StatusOK, toSummaryResponse(*result))
}

// Lateness возвращает среднюю задержку оплаты по каждому клиенту компании.
func (h *ForecastHandler) Lateness(c echo.Context) error {
	companyID, ok := auth.CompanyIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	ctx := c.Request().Context()
	profile, err := h.Forecasts.Lateness(ctx, companyID)
	if err != nil {
		return forecastError(c, err)
	}

	customers, err := h.Customers.Customers(ctx, companyID)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, toLatenessResponse(profile, customers, h.Forecasts.FallbackDaysLate()))
}

// forecastFromQuery разбирает горизонт и считает прогноз. При ошибке ответ
// уже записан и возвращается nil-результат.
func (h *ForecastHandler) forecastFromQuery(c echo.Context) (*forecast.Result, error) {
	companyID, ok := auth.CompanyIDFromContext(c)
	if !ok {
		return nil, unauthorized(c)
	}

	var query ForecastQuery
	if err := c.Bind(&query); err != nil {
		return nil, badRequest(c, "invalid horizon")
	}
	if err := c.Validate(&query); err != nil {
		return nil, badRequest(c, "invalid horizon")
	}

	result, err := h.Forecasts.Forecast(c.Request().Context(), companyID, query.Horizon)
	if err != nil {
		return nil, forecastError(c, err)
	}

	return &result, nil
}

func forecastError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, forecast.ErrInvalidHorizon):
		return badRequest(c, "invalid horizon")
	case errors.Is(err, context.DeadlineExceeded):
		return gatewayTimeout(c)
	default:
		return serverError(c)
	}
}

func toForecastResponse(result forecast.Result) ForecastResponse {
	series := make([]ForecastPointResponse, 0, len(result.Series))
	for _, point := range result.Series {
		series = append(series, ForecastPointResponse{
			Date:                 point.Date.String(),
			InflowBalance:        point.InflowBalance,
			OutflowBalance:       point.OutflowBalance,
			NetOptimisticBalance: point.NetOptimisticBalance,
			NetRealisticBalance:  point.NetRealisticBalance,
		})
	}

	summary := toSummaryResponse(result)
	return ForecastResponse{
		Series:  series,
		Summary: summary,
		AtRisk:  summary.AtRisk,
	}
}

func toSummaryResponse(result forecast.Result) ForecastSummaryResponse {
	summary := result.Summary
	horizon := 0
	if len(result.Series) > 0 {
		horizon = len(result.Series) - 1
	}

	return ForecastSummaryResponse{
		HorizonDays:            horizon,
		CurrentBalance:         summary.CurrentBalance,
		TotalInflow:            summary.TotalInflow,
		TotalOutflow:           summary.TotalOutflow,
		NetOptimisticAtHorizon: summary.NetOptimisticAtHorizon,
		NetRealisticAtHorizon:  summary.NetRealisticAtHorizon,
		Gap:                    summary.Gap,
		ReceivableCount:        summary.ReceivableCount,
		PayableCount:           summary.PayableCount,
		AtRisk:                 summary.AtRisk(),
	}
}

func toLatenessResponse(profile forecast.LatenessProfile, customers []models.Customer, fallback int) LatenessResponse {
	items := make([]CustomerLatenessResponse, 0, len(customers))
	for _, customer := range customers {
		_, hasHistory := profile[customer.ID]
		items = append(items, CustomerLatenessResponse{
			CustomerID:      customer.ID,
			Name:            customer.Name,
			AverageDaysLate: profile.DaysLate(customer.ID, fallback),
			HasHistory:      hasHistory,
		})
	}

	return LatenessResponse{
		FallbackDaysLate: fallback,
		Customers:        items,
	}
}
