package repository

import (
	"context"

	"github.com/topeberti/Polilingo/internal/domain/entity"
)

// SessionRepository определяет методы для работы с сессиями уроков
type SessionRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Session, error)
}
