package postgres

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/topeberti/Polilingo/internal/domain/entity"
)

// HistoryRepo реализует repository.HistoryRepository
type HistoryRepo struct {
	db *gorm.DB
}

// NewHistoryRepo создает новый репозиторий истории
func NewHistoryRepo(db *gorm.DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

// CreateSessionHistory создаёт запись о начале сессии
func (r *HistoryRepo) CreateSessionHistory(ctx context.Context, history *entity.UserSessionHistory) error {
	return mapError(r.db.WithContext(ctx).Create(history).Error)
}

// GetSessionHistory возвращает запись прохождения сессии, принадлежащую пользователю
func (r *HistoryRepo) GetSessionHistory(ctx context.Context, userID, id string) (*entity.UserSessionHistory, error) {
	var history entity.UserSessionHistory
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&history).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &history, nil
}

// RecordAnswer добавляет ответ в журнал
func (r *HistoryRepo) RecordAnswer(ctx context.Context, answer *entity.UserQuestionHistory) error {
	return mapError(r.db.WithContext(ctx).Create(answer).Error)
}

// GetAnsweredQuestionIDs возвращает уникальные ID вопросов, на которые отвечал пользователь
func (r *HistoryRepo) GetAnsweredQuestionIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&entity.UserQuestionHistory{}).
		Where("user_id = ?", userID).
		Distinct().
		Pluck("question_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// GetAnswerCounts агрегирует правильные и неправильные ответы пользователя по вопросам.
// Вопросы без ответов в результат не попадают.
func (r *HistoryRepo) GetAnswerCounts(ctx context.Context, userID string, questionIDs []string) (map[string]entity.AnswerCounts, error) {
	counts := make(map[string]entity.AnswerCounts, len(questionIDs))
	if len(questionIDs) == 0 {
		return counts, nil
	}

	var rows []entity.QuestionCountsRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT question_id,
		       SUM(CASE WHEN correct THEN 1 ELSE 0 END) AS correct,
		       SUM(CASE WHEN correct THEN 0 ELSE 1 END) AS wrong
		FROM user_questions_history
		WHERE user_id = ? AND question_id = ANY(?::uuid[])
		GROUP BY question_id`, userID, pq.Array(questionIDs)).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate answer counts: %w", err)
	}

	for _, row := range rows {
		counts[row.QuestionID] = entity.AnswerCounts{Correct: row.Correct, Wrong: row.Wrong}
	}
	return counts, nil
}
