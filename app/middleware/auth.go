package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/ms-go-todo/app/entity"
	"github.com/vibast-solutions/ms-go-todo/app/service"
)

type tokenVerifier interface {
	Verify(tokenString string) (*service.Claims, error)
}

type subjectStore interface {
	FindActiveByID(ctx context.Context, id string) (*entity.User, error)
}

// AuthMiddleware verifies the bearer token and then re-checks the
// subject against the store. The extra lookup lets a deactivated
// account lose access immediately, before its signed tokens expire.
type AuthMiddleware struct {
	issuer tokenVerifier
	users  subjectStore
}

func NewAuthMiddleware(issuer tokenVerifier, users subjectStore) *AuthMiddleware {
	return &AuthMiddleware{issuer: issuer, users: users}
}

// RequireRole returns 401 for a malformed, unsigned or expired token
// and 403 when the token is well-formed but carries the wrong role or
// its subject is gone or soft-deleted.
func (m *AuthMiddleware) RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				logrus.Debug("Missing authorization header")
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "missing authorization header",
				})
			}

			parts := strings.Fields(authHeader)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				logrus.Debug("Invalid authorization header format")
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "invalid authorization header format",
				})
			}

			claims, err := m.issuer.Verify(parts[1])
			if err != nil {
				logrus.Debug("Invalid or expired access token")
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "invalid or expired token",
				})
			}

			if claims.Role != role {
				logrus.WithField("role", claims.Role).Debug("Role mismatch")
				return c.JSON(http.StatusForbidden, map[string]string{
					"error": "insufficient role",
				})
			}

			user, err := m.users.FindActiveByID(c.Request().Context(), claims.UserID)
			if err != nil {
				logrus.WithError(err).Error("Failed to look up token subject")
				return c.JSON(http.StatusInternalServerError, map[string]string{
					"error": "internal server error",
				})
			}
			if user == nil {
				logrus.WithField("user_id", claims.UserID).Debug("Token subject inactive or unknown")
				return c.JSON(http.StatusForbidden, map[string]string{
					"error": "account is not active",
				})
			}

			c.Set("user_id", claims.UserID)
			c.Set("user_email", claims.Email)
			c.Set("user_role", claims.Role)

			return next(c)
		}
	}
}
