package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/topeberti/Polilingo/pkg/auth"
)

// TokenParser проверяет access-токен и возвращает его claims
type TokenParser interface {
	ParseToken(tokenString string) (*auth.SupabaseClaims, error)
}

// AuthMiddleware обеспечивает аутентификацию по токенам Supabase для защищенных маршрутов
type AuthMiddleware struct {
	parser TokenParser
	logger logrus.FieldLogger
}

// NewAuthMiddleware создает новый middleware
func NewAuthMiddleware(parser TokenParser, logger logrus.FieldLogger) *AuthMiddleware {
	return &AuthMiddleware{
		parser: parser,
		logger: logger.WithField("component", "AuthMiddleware"),
	}
}

// RequireAuth проверяет, аутентифицирован ли пользователь
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required", "error_type": "token_missing"})
			return
		}

		// Проверяем формат заголовка Bearer {token}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}", "error_type": "token_format"})
			return
		}

		claims, err := m.parser.ParseToken(strings.TrimSpace(parts[1]))
		if err != nil {
			errorType := "token_invalid"
			if errors.Is(err, auth.ErrTokenExpired) {
				errorType = "token_expired"
			}
			m.logger.WithError(err).Debug("Токен отклонён")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "error_type": errorType})
			return
		}

		// Устанавливаем ID пользователя в контекст
		c.Set("user_id", claims.UserID())
		c.Set("email", claims.Email)

		c.Next()
	}
}
