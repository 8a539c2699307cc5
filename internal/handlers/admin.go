package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"example.com/cashflow-forecast/internal/auth"
	"example.com/cashflow-forecast/internal/models"
	"example.com/cashflow-forecast/internal/monitor"
	"example.com/cashflow-forecast/internal/repository"
)

type CompanyDirectory interface {
	ListCompanies(ctx context.Context, limit, offset int) ([]models.CompanyOverview, error)
	CountCompanies(ctx context.Context) (int, error)
}

type RiskEvaluator interface {
	Evaluate(ctx context.Context, horizon int) ([]monitor.Assessment, error)
}

type AdminHandler struct {
	Companies CompanyDirectory
	Evaluator RiskEvaluator
}

// NewAdminHandler создает обработчик админских эндпоинтов.
func NewAdminHandler(companies CompanyDirectory, risks RiskEvaluator) *AdminHandler {
	return &AdminHandler{Companies: companies, Evaluator: risks}
}

type AdminCompaniesResponse struct {
	Total     int                      `json:"total"`
	Companies []models.CompanyOverview `json:"companies"`
}

type AdminRiskResponse struct {
	CompanyID             uuid.UUID        `json:"company_id"`
	HorizonDays           int              `json:"horizon_days"`
	CurrentBalance        *decimal.Decimal `json:"current_balance,omitempty"`
	NetRealisticAtHorizon *decimal.Decimal `json:"net_realistic_at_horizon,omitempty"`
	Gap                   *decimal.Decimal `json:"gap,omitempty"`
	AtRisk                bool             `json:"at_risk"`
	Error                 string           `json:"error,omitempty"`
}

type AdminRisksResponse struct {
	Checked int                 `json:"checked"`
	AtRisk  int                 `json:"at_risk"`
	Failed  int                 `json:"failed"`
	Items   []AdminRiskResponse `json:"items"`
}

// ListCompanies возвращает список компаний для админки.
func (h *AdminHandler) ListCompanies(c echo.Context) error {
	limit, offset, err := parsePagination(c, 50, 200)
	if err != nil {
		return badRequest(c, err.Error())
	}

	companies, err := h.Companies.ListCompanies(c.Request().Context(), limit, offset)
	if err != nil {
		return serverError(c)
	}

	total, err := h.Companies.CountCompanies(c.Request().Context())
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, AdminCompaniesResponse{
		Total:     total,
		Companies: companies,
	})
}

// Risks пересчитывает прогноз всех компаний и возвращает оценку риска.
// Параметр only_at_risk оставляет только компании в зоне риска.
func (h *AdminHandler) Risks(c echo.Context) error {
	var query ForecastQuery
	if err := c.Bind(&query); err != nil {
		return badRequest(c, "invalid horizon")
	}
	if err := c.Validate(&query); err != nil {
		return badRequest(c, "invalid horizon")
	}

	onlyAtRisk := false
	if raw := strings.TrimSpace(c.QueryParam("only_at_risk")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return badRequest(c, "invalid only_at_risk")
		}
		onlyAtRisk = parsed
	}

	assessments, err := h.Evaluator.Evaluate(c.Request().Context(), query.Horizon)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, toRisksResponse(assessments, onlyAtRisk))
}

func toRisksResponse(assessments []monitor.Assessment, onlyAtRisk bool) AdminRisksResponse {
	response := AdminRisksResponse{
		Checked: len(assessments),
		Items:   make([]AdminRiskResponse, 0, len(assessments)),
	}

	for _, assessment := range assessments {
		item := AdminRiskResponse{
			CompanyID:   assessment.CompanyID,
			HorizonDays: assessment.Horizon,
			AtRisk:      assessment.AtRisk,
		}

		if assessment.Err != nil {
			response.Failed++
			item.Error = "forecast unavailable"
			if errors.Is(assessment.Err, context.DeadlineExceeded) {
				item.Error = "data source timed out"
			}
		} else {
			summary := assessment.Summary
			item.CurrentBalance = &summary.CurrentBalance
			item.NetRealisticAtHorizon = &summary.NetRealisticAtHorizon
			item.Gap = &summary.Gap
		}

		if assessment.AtRisk {
			response.AtRisk++
		}
		if onlyAtRisk && !assessment.AtRisk {
			continue
		}
		response.Items = append(response.Items, item)
	}

	return response
}

// AdminMiddleware ограничивает доступ к админским роутам по email.
func AdminMiddleware(users *repository.UserRepository, emails []string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		trimmed := strings.ToLower(strings.TrimSpace(email))
		if trimmed == "" {
			continue
		}
		allowed[trimmed] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok := auth.UserIDFromContext(c)
			if !ok {
				return unauthorized(c)
			}

			if len(allowed) == 0 {
				return forbidden(c)
			}

			user, err := users.GetByID(c.Request().Context(), userID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return forbidden(c)
				}
				return serverError(c)
			}

			email := strings.ToLower(strings.TrimSpace(user.Email))
			if _, ok := allowed[email]; !ok {
				return forbidden(c)
			}

			return next(c)
		}
	}
}

func parsePagination(c echo.Context, defaultLimit, maxLimit int) (int, int, error) {
	limit := defaultLimit
	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return 0, 0, errors.New("invalid limit")
		}
		if parsed > maxLimit {
			parsed = maxLimit
		}
		limit = parsed
	}

	offset := 0
	if raw := strings.TrimSpace(c.QueryParam("offset")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return 0, 0, errors.New("invalid offset")
		}
		offset = parsed
	}

	return limit, offset, nil
}
