package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/topeberti/Polilingo/internal/domain/entity"
)

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// GetByID возвращает вопрос по ID
func (r *QuestionRepo) GetByID(ctx context.Context, id string) (*entity.Question, error) {
	var question entity.Question
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&question).Error; err != nil {
		return nil, mapError(err)
	}
	return &question, nil
}

// GetByIDs возвращает вопросы по списку ID. Порядок не гарантируется.
func (r *QuestionRepo) GetByIDs(ctx context.Context, ids []string) ([]entity.Question, error) {
	if len(ids) == 0 {
		return []entity.Question{}, nil
	}
	var questions []entity.Question
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

// FindPoolIDs возвращает ID вопросов, попадающих под фильтр сессии.
// Иерархия concept -> heading -> topic -> block разворачивается подзапросами,
// все заданные фильтры применяются одновременно.
func (r *QuestionRepo) FindPoolIDs(ctx context.Context, filter entity.PoolFilter) ([]string, error) {
	var ids []string
	if err := poolQuery(r.db.WithContext(ctx), filter).Pluck("questions.id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func poolQuery(db *gorm.DB, filter entity.PoolFilter) *gorm.DB {
	q := db.Model(&entity.Question{})

	if filter.ConceptID != nil {
		q = q.Where("questions.concept_id = ?", *filter.ConceptID)
	}
	if filter.HeadingID != nil {
		q = q.Where("questions.concept_id IN (SELECT c.id FROM concepts c WHERE c.heading_id = ?)", *filter.HeadingID)
	}
	if filter.TopicID != nil {
		q = q.Where(`questions.concept_id IN (
			SELECT c.id FROM concepts c
			JOIN headings h ON h.id = c.heading_id
			WHERE h.topic_id = ?)`, *filter.TopicID)
	}
	if filter.BlockID != nil {
		q = q.Where(`questions.concept_id IN (
			SELECT c.id FROM concepts c
			JOIN headings h ON h.id = c.heading_id
			JOIN topics t ON t.id = h.topic_id
			WHERE t.block_id = ?)`, *filter.BlockID)
	}

	if filter.MinDifficulty != nil {
		q = q.Where("questions.difficulty >= ?", *filter.MinDifficulty)
	}
	if filter.MaxDifficulty != nil {
		q = q.Where("questions.difficulty <= ?", *filter.MaxDifficulty)
	}

	return q.Order("questions.id")
}
