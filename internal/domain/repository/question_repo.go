package repository

import (
	"context"

	"github.com/topeberti/Polilingo/internal/domain/entity"
)

// QuestionRepository определяет методы для работы с вопросами
type QuestionRepository interface {
	// GetByID возвращает вопрос по ID (apperrors.ErrNotFound, если нет)
	GetByID(ctx context.Context, id string) (*entity.Question, error)
	// GetByIDs возвращает вопросы по списку ID в произвольном порядке
	GetByIDs(ctx context.Context, ids []string) ([]entity.Question, error)
	// FindPoolIDs разворачивает иерархию block -> topic -> heading -> concept
	// и возвращает ID вопросов, подходящих под фильтр
	FindPoolIDs(ctx context.Context, filter entity.PoolFilter) ([]string, error)
}
