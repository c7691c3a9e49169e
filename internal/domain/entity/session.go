package entity

// Стратегии выбора вопросов сессии
const (
	StrategyRandom            = "random"
	StrategyRandomNotRepeated = "random_not_repeated"
	StrategyErrorReview       = "error_review"
)

// DefaultNumberOfQuestions используется, если в сессии не задано количество вопросов
const DefaultNumberOfQuestions = 10

// Session представляет сессию урока: фильтр пула вопросов + стратегия выбора.
// Фильтры по иерархии (block -> topic -> heading -> concept) взаимоисключающие
// по смыслу, но применяются все заданные.
type Session struct {
	ID                        string  `gorm:"type:uuid;primaryKey" json:"id"`
	Name                      string  `gorm:"not null" json:"name"`
	LessonID                  string  `gorm:"type:uuid;not null;index" json:"lesson_id"`
	NumberOfQuestions         int     `gorm:"not null;default:10" json:"number_of_questions"`
	Order                     int     `gorm:"column:order;not null" json:"order"`
	QuestionSelectionStrategy string  `gorm:"not null;default:'random'" json:"question_selection_strategy"`
	ConceptID                 *string `gorm:"type:uuid" json:"concept_id,omitempty"`
	HeadingID                 *string `gorm:"type:uuid" json:"heading_id,omitempty"`
	TopicID                   *string `gorm:"type:uuid" json:"topic_id,omitempty"`
	BlockID                   *string `gorm:"type:uuid" json:"block_id,omitempty"`
	MinDifficulty             *int    `json:"min_difficulty,omitempty"`
	MaxDifficulty             *int    `json:"max_difficulty,omitempty"`
}

// TableName определяет имя таблицы для GORM
func (Session) TableName() string {
	return "sessions"
}

// QuestionCount возвращает запрошенное количество вопросов с учётом значения по умолчанию
func (s *Session) QuestionCount() int {
	if s.NumberOfQuestions <= 0 {
		return DefaultNumberOfQuestions
	}
	return s.NumberOfQuestions
}

// PoolFilter — параметры отбора кандидатов в пул вопросов сессии
type PoolFilter struct {
	ConceptID     *string
	HeadingID     *string
	TopicID       *string
	BlockID       *string
	MinDifficulty *int
	MaxDifficulty *int
}

// PoolFilter возвращает фильтр пула для сессии
func (s *Session) PoolFilter() PoolFilter {
	return PoolFilter{
		ConceptID:     s.ConceptID,
		HeadingID:     s.HeadingID,
		TopicID:       s.TopicID,
		BlockID:       s.BlockID,
		MinDifficulty: s.MinDifficulty,
		MaxDifficulty: s.MaxDifficulty,
	}
}
