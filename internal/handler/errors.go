package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	apperrors "github.com/topeberti/Polilingo/internal/pkg/errors"
)

// handleError переводит ошибки сервисов в HTTP-ответы
func handleError(c *gin.Context, log logrus.FieldLogger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "conflict"})
	case errors.Is(err, apperrors.ErrNoLivesLeft):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "error_type": "no_lives_left"})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		log.WithError(err).WithField("path", c.FullPath()).Error("Internal server error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// currentUserID возвращает ID пользователя, установленный AuthMiddleware
func currentUserID(c *gin.Context) string {
	return c.MustGet("user_id").(string)
}
