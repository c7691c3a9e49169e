package repository

import (
	"context"

	"github.com/topeberti/Polilingo/internal/domain/entity"
)

// GamificationRepository хранит базовую точку жизней пользователя
type GamificationRepository interface {
	// GetLivesState возвращает сохранённое состояние (apperrors.ErrNotFound, если строки нет)
	GetLivesState(ctx context.Context, userID string) (*entity.LivesState, error)
	// CreateLivesState создаёт строку, если её ещё нет. Возвращает false, если строка уже была.
	CreateLivesState(ctx context.Context, userID string, state entity.LivesState) (bool, error)
	// CompareAndSwapLives записывает next только если в БД всё ещё лежит expected.
	// Возвращает false при расхождении (конкурентное изменение).
	CompareAndSwapLives(ctx context.Context, userID string, expected, next entity.LivesState) (bool, error)
	// SetLivesState безусловно перезаписывает состояние (административный сброс)
	SetLivesState(ctx context.Context, userID string, state entity.LivesState) error
}
