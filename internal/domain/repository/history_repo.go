package repository

import (
	"context"

	"github.com/topeberti/Polilingo/internal/domain/entity"
)

// HistoryRepository определяет методы для работы с историей ответов и сессий пользователя
type HistoryRepository interface {
	// CreateSessionHistory создаёт запись о начале сессии
	CreateSessionHistory(ctx context.Context, history *entity.UserSessionHistory) error
	// GetSessionHistory возвращает запись прохождения сессии пользователя
	GetSessionHistory(ctx context.Context, userID, id string) (*entity.UserSessionHistory, error)
	// RecordAnswer добавляет ответ в журнал
	RecordAnswer(ctx context.Context, answer *entity.UserQuestionHistory) error
	// GetAnsweredQuestionIDs возвращает ID всех вопросов, на которые отвечал пользователь
	GetAnsweredQuestionIDs(ctx context.Context, userID string) ([]string, error)
	// GetAnswerCounts возвращает количество правильных/неправильных ответов по вопросам
	GetAnswerCounts(ctx context.Context, userID string, questionIDs []string) (map[string]entity.AnswerCounts, error)
}
