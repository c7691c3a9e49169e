package lives

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/topeberti/Polilingo/internal/domain/entity"
	"github.com/topeberti/Polilingo/internal/domain/repository"
)

// DefaultConfigTTL — время жизни закэшированной конфигурации жизней
const DefaultConfigTTL = 60 * time.Minute

type cachedConfig struct {
	value     entity.LivesConfig
	fetchedAt time.Time
}

// ConfigCache хранит пару (max_lives, life_refill_interval_minutes) с TTL.
// Инвалидация только по времени. Одновременные обновления после истечения TTL
// перезаписывают значение эквивалентными данными, блокировка не нужна.
type ConfigCache struct {
	repo   repository.AppConfigRepository
	ttl    time.Duration
	now    func() time.Time
	logger logrus.FieldLogger

	current atomic.Pointer[cachedConfig]
}

// NewConfigCache создает кэш конфигурации. ttl <= 0 означает DefaultConfigTTL.
func NewConfigCache(repo repository.AppConfigRepository, ttl time.Duration, logger logrus.FieldLogger) *ConfigCache {
	if ttl <= 0 {
		ttl = DefaultConfigTTL
	}
	return &ConfigCache{
		repo:   repo,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.WithField("component", "LivesConfigCache"),
	}
}

// Get возвращает конфигурацию из кэша или загружает её заново.
// Ошибка загрузки не пробрасывается: возвращаются значения по умолчанию,
// и они не кэшируются, чтобы следующий вызов повторил загрузку.
func (c *ConfigCache) Get(ctx context.Context) entity.LivesConfig {
	now := c.now()
	if cached := c.current.Load(); cached != nil && now.Sub(cached.fetchedAt) < c.ttl {
		return cached.value
	}

	values, err := c.repo.GetValues(ctx, []string{
		entity.ConfigKeyMaxLives,
		entity.ConfigKeyRefillIntervalMinutes,
	})
	if err != nil {
		c.logger.WithError(err).Warn("Не удалось загрузить конфигурацию жизней, используются значения по умолчанию")
		return entity.DefaultLivesConfig()
	}

	cfg := entity.LivesConfig{
		MaxLives:              c.positiveInt(values, entity.ConfigKeyMaxLives, entity.DefaultMaxLives),
		RefillIntervalMinutes: c.positiveInt(values, entity.ConfigKeyRefillIntervalMinutes, entity.DefaultRefillIntervalMinutes),
	}
	c.current.Store(&cachedConfig{value: cfg, fetchedAt: now})

	c.logger.WithFields(logrus.Fields{
		"max_lives":                    cfg.MaxLives,
		"life_refill_interval_minutes": cfg.RefillIntervalMinutes,
	}).Debug("Конфигурация жизней обновлена")

	return cfg
}

func (c *ConfigCache) positiveInt(values map[string]string, key string, fallback int) int {
	raw, ok := values[key]
	if !ok {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		c.logger.WithFields(logrus.Fields{"key": key, "value": raw}).
			Warn("Некорректное значение конфигурации жизней, используется значение по умолчанию")
		return fallback
	}
	return v
}
