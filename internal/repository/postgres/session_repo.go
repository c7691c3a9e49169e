package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/topeberti/Polilingo/internal/domain/entity"
)

// SessionRepo реализует repository.SessionRepository
type SessionRepo struct {
	db *gorm.DB
}

// NewSessionRepo создает новый репозиторий сессий
func NewSessionRepo(db *gorm.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// GetByID возвращает сессию по ID
func (r *SessionRepo) GetByID(ctx context.Context, id string) (*entity.Session, error) {
	var session entity.Session
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		return nil, mapError(err)
	}
	return &session, nil
}
