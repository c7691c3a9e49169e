package lives

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/topeberti/Polilingo/internal/domain/entity"
	"github.com/topeberti/Polilingo/internal/domain/repository"
	apperrors "github.com/topeberti/Polilingo/internal/pkg/errors"
)

// DefaultMaxConsumeAttempts — число попыток условной записи в Consume
const DefaultMaxConsumeAttempts = 3

// Service вычисляет текущие жизни пользователя из сохранённой точки отсчёта
// и прошедшего времени. Фоновых задач нет: жизни пересчитываются при каждом чтении,
// а хранимое состояние меняет только Consume (и административный Reset).
type Service struct {
	repo        repository.GamificationRepository
	configCache *ConfigCache
	logger      logrus.FieldLogger
	now         func() time.Time
	maxAttempts int
}

// NewService создает сервис жизней
func NewService(repo repository.GamificationRepository, configCache *ConfigCache, maxAttempts int, logger logrus.FieldLogger) *Service {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxConsumeAttempts
	}
	return &Service{
		repo:        repo,
		configCache: configCache,
		logger:      logger.WithField("component", "LivesService"),
		now:         time.Now,
		maxAttempts: maxAttempts,
	}
}

// SetClock подменяет источник времени (используется в тестах и CLI)
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

// GetLivesConfig возвращает (max_lives, refill_interval_minutes), обычно из кэша
func (s *Service) GetLivesConfig(ctx context.Context) entity.LivesConfig {
	return s.configCache.Get(ctx)
}

// GetCurrentLives вычисляет снимок жизней. Если state == nil, состояние читается
// из репозитория; отсутствие строки означает полный запас жизней (строка не создаётся).
func (s *Service) GetCurrentLives(ctx context.Context, userID string, state *entity.LivesState) (*entity.LivesSnapshot, error) {
	cfg := s.GetLivesConfig(ctx)

	if state == nil {
		stored, err := s.repo.GetLivesState(ctx, userID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return fullSnapshot(cfg), nil
			}
			return nil, fmt.Errorf("failed to load lives state: %w", err)
		}
		state = stored
	}

	return computeSnapshot(cfg, *state, s.clock())
}

// Consume списывает одну жизнь. При нуле жизней возвращает снимок без изменений:
// отказ в действии остаётся на вызывающей стороне.
// Запись условная (compare-and-swap по прочитанному состоянию); при конкурентном
// изменении цикл чтение-вычисление-запись повторяется, после исчерпания
// попыток возвращается apperrors.ErrConflict.
func (s *Service) Consume(ctx context.Context, userID string) (*entity.LivesSnapshot, error) {
	log := s.logger.WithField("user_id", userID)

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		cfg := s.GetLivesConfig(ctx)
		now := s.clock()

		state, err := s.repo.GetLivesState(ctx, userID)
		if errors.Is(err, apperrors.ErrNotFound) {
			// Первое списание: строки ещё нет, пользователь был на максимуме
			next := entity.LivesState{Lives: cfg.MaxLives - 1, LastLifeLostAt: &now}
			created, err := s.repo.CreateLivesState(ctx, userID, next)
			if err != nil {
				return nil, fmt.Errorf("failed to create lives state: %w", err)
			}
			if created {
				log.WithField("lives", next.Lives).Info("Жизнь списана (первое списание)")
				return computeSnapshot(cfg, next, now)
			}
			// Строку успели создать параллельно, пробуем снова по общему пути
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load lives state: %w", err)
		}

		snapshot, err := computeSnapshot(cfg, *state, now)
		if err != nil {
			return nil, err
		}
		if snapshot.CurrentLives <= 0 {
			log.Debug("Жизней нет, списание пропущено")
			return snapshot, nil
		}

		next := nextState(cfg, snapshot, now)
		swapped, err := s.repo.CompareAndSwapLives(ctx, userID, *state, next)
		if err != nil {
			return nil, fmt.Errorf("failed to store lives state: %w", err)
		}
		if swapped {
			log.WithFields(logrus.Fields{
				"lives":             next.Lives,
				"last_life_lost_at": entity.FormatTimestamp(*next.LastLifeLostAt),
			}).Info("Жизнь списана")
			return computeSnapshot(cfg, next, now)
		}

		log.WithField("attempt", attempt).Warn("Конкурентное изменение жизней, повтор")
	}

	return nil, fmt.Errorf("lives consume for user %s: %w", userID, apperrors.ErrConflict)
}

// Reset восстанавливает полный запас жизней и сбрасывает отсчёт на текущий момент
func (s *Service) Reset(ctx context.Context, userID string) (*entity.LivesSnapshot, error) {
	cfg := s.GetLivesConfig(ctx)
	now := s.clock()
	state := entity.LivesState{Lives: cfg.MaxLives, LastLifeLostAt: &now}

	if err := s.repo.SetLivesState(ctx, userID, state); err != nil {
		return nil, fmt.Errorf("failed to reset lives: %w", err)
	}
	s.logger.WithField("user_id", userID).Info("Жизни сброшены до максимума")

	return computeSnapshot(cfg, state, now)
}

// nextState вычисляет состояние после списания одной жизни.
// С полного запаса отсчёт начинается с now; иначе точка отсчёта сдвигается
// ровно на уже прошедшие целые интервалы, и накопленная доля следующего
// интервала сохраняется.
func nextState(cfg entity.LivesConfig, snapshot *entity.LivesSnapshot, now time.Time) entity.LivesState {
	newStored := max(0, snapshot.StoredLives+snapshot.RefilledLives-1)
	newStored = min(newStored, cfg.MaxLives-1)

	baseline := now
	if !snapshot.IsFull() && snapshot.LastLifeLostAt != nil {
		baseline = snapshot.LastLifeLostAt.Add(time.Duration(snapshot.RefilledLives) * cfg.RefillInterval())
	}

	return entity.LivesState{Lives: newStored, LastLifeLostAt: &baseline}
}

// computeSnapshot — чистая функция: состояние + конфигурация + время → снимок
func computeSnapshot(cfg entity.LivesConfig, state entity.LivesState, now time.Time) (*entity.LivesSnapshot, error) {
	stored := min(max(state.Lives, 0), cfg.MaxLives)

	snapshot := &entity.LivesSnapshot{
		MaxLives:    cfg.MaxLives,
		StoredLives: stored,
	}
	if state.LastLifeLostAt != nil {
		last := state.LastLifeLostAt.UTC()
		snapshot.LastLifeLostAt = &last
	}

	if stored >= cfg.MaxLives {
		snapshot.CurrentLives = cfg.MaxLives
		return snapshot, nil
	}
	if snapshot.LastLifeLostAt == nil {
		return nil, fmt.Errorf("lives=%d below max without last_life_lost_at: %w", stored, apperrors.ErrCorruptData)
	}

	interval := cfg.RefillInterval()
	last := *snapshot.LastLifeLostAt
	refilled := 0
	if elapsed := now.Sub(last); elapsed > 0 {
		refilled = int(elapsed / interval)
	}

	snapshot.RefilledLives = refilled
	snapshot.CurrentLives = min(cfg.MaxLives, stored+refilled)

	if snapshot.CurrentLives < cfg.MaxLives {
		nextAt := last.Add(time.Duration(refilled+1) * interval)
		seconds := max(int64(0), int64(nextAt.Sub(now)/time.Second))
		snapshot.NextLifeAt = &nextAt
		snapshot.SecondsToNextLife = &seconds
	}

	return snapshot, nil
}

func fullSnapshot(cfg entity.LivesConfig) *entity.LivesSnapshot {
	return &entity.LivesSnapshot{
		CurrentLives: cfg.MaxLives,
		MaxLives:     cfg.MaxLives,
		StoredLives:  cfg.MaxLives,
	}
}
