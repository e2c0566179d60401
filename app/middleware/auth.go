package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	httpdto "github.com/vibast-solutions/ms-go-academy/app/dto/http"
	"github.com/vibast-solutions/ms-go-academy/app/security"
)

// UserIDKey is the echo context key holding the authenticated user id.
const UserIDKey = "user_id"

type accessTokenValidator interface {
	ValidateAccessToken(tokenString string) (*security.Claims, error)
}

type AuthMiddleware struct {
	authService accessTokenValidator
}

func NewAuthMiddleware(authService accessTokenValidator) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			logrus.Debug("Missing authorization header")
			return c.JSON(http.StatusUnauthorized, httpdto.Fail("Unauthorized"))
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			logrus.Debug("Invalid authorization header format")
			return c.JSON(http.StatusUnauthorized, httpdto.Fail("Invalid authorization header format"))
		}

		claims, err := m.authService.ValidateAccessToken(parts[1])
		if err != nil {
			logrus.WithError(err).Debug("Invalid or expired access token")
			return c.JSON(http.StatusUnauthorized, httpdto.Fail("Invalid or expired token"))
		}

		c.Set(UserIDKey, claims.Subject)

		return next(c)
	}
}

// UserID returns the id stored by RequireAuth, or "" outside protected routes.
func UserID(c echo.Context) string {
	id, _ := c.Get(UserIDKey).(string)
	return id
}
