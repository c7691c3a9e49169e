package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ExtractUUIDParam создает middleware для извлечения и валидации UUID-параметра URL.
// paramName - имя параметра в URL (например, "id").
// contextKey - ключ, под которым значение будет сохранено в контексте Gin.
func ExtractUUIDParam(paramName, contextKey string) gin.HandlerFunc {
	return extractUUID(paramName, contextKey, func(c *gin.Context) string { return c.Param(paramName) })
}

// ExtractUUIDQuery делает то же для query-параметра (например, ?session_id=...)
func ExtractUUIDQuery(queryName, contextKey string) gin.HandlerFunc {
	return extractUUID(queryName, contextKey, func(c *gin.Context) string { return c.Query(queryName) })
}

func extractUUID(name, contextKey string, value func(c *gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := value(c)
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid %s", name)})
			c.Abort()
			return
		}
		// Сохраняем в каноническом виде
		c.Set(contextKey, id.String())
		c.Next()
	}
}
