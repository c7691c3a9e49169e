package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// RateLimitConfig содержит настройки rate limiting
type RateLimitConfig struct {
	// MaxRequests — максимальное количество запросов за Window
	MaxRequests int
	// Window — временное окно для подсчёта запросов
	Window time.Duration
	// KeyPrefix — префикс для ключей в Redis
	KeyPrefix string
}

// AnswerRateLimitConfig возвращает конфигурацию для приёма ответов
func AnswerRateLimitConfig(maxRequests int, window time.Duration) RateLimitConfig {
	return RateLimitConfig{
		MaxRequests: maxRequests,
		Window:      window,
		KeyPrefix:   "rl:answer",
	}
}

// RateLimiter создаёт middleware для rate limiting на основе Redis
type RateLimiter struct {
	redisClient redis.UniversalClient
	logger      logrus.FieldLogger
}

// NewRateLimiter создает новый RateLimiter
func NewRateLimiter(redisClient redis.UniversalClient, logger logrus.FieldLogger) *RateLimiter {
	return &RateLimiter{
		redisClient: redisClient,
		logger:      logger.WithField("component", "RateLimiter"),
	}
}

// limitKey строит ключ счётчика: по пользователю, если он аутентифицирован, иначе по IP
func limitKey(c *gin.Context, prefix string) string {
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	if userID, ok := c.Get("user_id"); ok {
		if id, ok := userID.(string); ok && id != "" {
			return fmt.Sprintf("%s:user:%s:%s", prefix, id, path)
		}
	}
	return fmt.Sprintf("%s:ip:%s:%s", prefix, c.ClientIP(), path)
}

// Limit возвращает Gin middleware с заданной конфигурацией.
// При недоступности Redis запрос пропускается (fail-open).
func (rl *RateLimiter) Limit(cfg RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := limitKey(c, cfg.KeyPrefix)
		log := rl.logger.WithField("key", key)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		// Инкрементируем счётчик
		count, err := rl.redisClient.Incr(ctx, key).Result()
		if err != nil {
			log.WithError(err).Warn("Ошибка Redis, запрос пропущен (fail-open)")
			c.Next()
			return
		}

		// Если это первый запрос в окне — устанавливаем TTL
		if count == 1 {
			if err := rl.redisClient.Expire(ctx, key, cfg.Window).Err(); err != nil {
				log.WithError(err).Warn("Не удалось установить TTL счётчика")
			}
		}

		remaining := cfg.MaxRequests - int(count)
		if remaining < 0 {
			remaining = 0
		}

		ttl, _ := rl.redisClient.TTL(ctx, key).Result()
		retryAfter := int(ttl.Seconds())
		if retryAfter < 0 {
			retryAfter = int(cfg.Window.Seconds())
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(retryAfter))

		if int(count) > cfg.MaxRequests {
			log.WithFields(logrus.Fields{"count": count, "limit": cfg.MaxRequests}).Warn("Превышен лимит запросов")

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests. Please try again later.",
				"error_type":  "rate_limited",
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}
