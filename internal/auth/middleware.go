package auth

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	ContextUserIDKey    = "user_id"
	ContextCompanyIDKey = "company_id"
	QueryTokenParam     = "access_token"
)

// JWTMiddleware проверяет access-токен из заголовка Authorization и сохраняет
// user_id и company_id в контексте.
func JWTMiddleware(manager *TokenManager) echo.MiddlewareFunc {
	return tokenMiddleware(manager, false)
}

// StreamJWTMiddleware для SSE-роутов: EventSource не передает заголовки,
// поэтому токен принимается и из query-параметра access_token.
func StreamJWTMiddleware(manager *TokenManager) echo.MiddlewareFunc {
	return tokenMiddleware(manager, true)
}

func tokenMiddleware(manager *TokenManager, allowQuery bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := bearerToken(c, allowQuery)
			if err != nil {
				return err
			}

			userID, companyID, err := manager.ParseAccessToken(tokenString)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(ContextUserIDKey, userID)
			c.Set(ContextCompanyIDKey, companyID)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context, allowQuery bool) (string, error) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		if allowQuery {
			if token := strings.TrimSpace(c.QueryParam(QueryTokenParam)); token != "" {
				return token, nil
			}
		}
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}

	return token, nil
}

// UserIDFromContext извлекает идентификатор пользователя из контекста.
func UserIDFromContext(c echo.Context) (uuid.UUID, bool) {
	userID, ok := c.Get(ContextUserIDKey).(uuid.UUID)
	return userID, ok
}

// CompanyIDFromContext извлекает идентификатор компании из контекста.
func CompanyIDFromContext(c echo.Context) (uuid.UUID, bool) {
	companyID, ok := c.Get(ContextCompanyIDKey).(uuid.UUID)
	return companyID, ok && companyID != uuid.Nil
}
