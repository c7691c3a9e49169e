package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/topeberti/Polilingo/internal/domain/entity"
)

// GamificationRepo реализует repository.GamificationRepository
type GamificationRepo struct {
	db *gorm.DB
}

// NewGamificationRepo создает новый репозиторий игровой статистики
func NewGamificationRepo(db *gorm.DB) *GamificationRepo {
	return &GamificationRepo{db: db}
}

// GetLivesState возвращает сохранённое состояние жизней пользователя.
// Битая метка времени возвращается как apperrors.ErrCorruptData (см. entity.UTCTime).
func (r *GamificationRepo) GetLivesState(ctx context.Context, userID string) (*entity.LivesState, error) {
	var stats entity.GamificationStats
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&stats).Error; err != nil {
		return nil, mapError(err)
	}
	state := stats.LivesState()
	return &state, nil
}

// CreateLivesState вставляет строку, если её ещё нет
func (r *GamificationRepo) CreateLivesState(ctx context.Context, userID string, state entity.LivesState) (bool, error) {
	stats := toStats(userID, state)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&stats)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return false, nil
		}
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CompareAndSwapLives обновляет строку, только если в ней всё ещё ожидаемое состояние
func (r *GamificationRepo) CompareAndSwapLives(ctx context.Context, userID string, expected, next entity.LivesState) (bool, error) {
	q := r.db.WithContext(ctx).
		Model(&entity.GamificationStats{}).
		Where("user_id = ? AND lives = ?", userID, expected.Lives)
	if expected.LastLifeLostAt == nil {
		q = q.Where("last_life_lost_at IS NULL")
	} else {
		q = q.Where("last_life_lost_at = ?", expected.LastLifeLostAt.UTC())
	}

	result := q.Updates(map[string]interface{}{
		"lives":             next.Lives,
		"last_life_lost_at": toStats(userID, next).LastLifeLostAt,
	})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// SetLivesState безусловно записывает состояние (insert или update)
func (r *GamificationRepo) SetLivesState(ctx context.Context, userID string, state entity.LivesState) error {
	stats := toStats(userID, state)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"lives", "last_life_lost_at"}),
		}).
		Create(&stats).Error
}

func toStats(userID string, state entity.LivesState) entity.GamificationStats {
	stats := entity.GamificationStats{UserID: userID, Lives: state.Lives}
	if state.LastLifeLostAt != nil {
		stats.LastLifeLostAt = entity.NewUTCTime(*state.LastLifeLostAt)
	}
	return stats
}
