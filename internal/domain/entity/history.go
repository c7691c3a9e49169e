package entity

import "time"

// Статусы прохождения сессии
const (
	SessionHistoryStarted   = "started"
	SessionHistoryCompleted = "completed"
)

// UserSessionHistory хранит факт начала (и завершения) сессии пользователем.
type UserSessionHistory struct {
	ID          string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID      string     `gorm:"type:uuid;not null;index" json:"user_id"`
	SessionID   string     `gorm:"type:uuid;not null;index" json:"session_id"`
	Status      string     `gorm:"not null;default:'started'" json:"status"`
	StartedAt   time.Time  `gorm:"not null" json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TableName задает имя таблицы для GORM.
func (UserSessionHistory) TableName() string {
	return "user_session_history"
}

// UserQuestionHistory — журнал ответов пользователя на вопросы.
type UserQuestionHistory struct {
	ID                   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID               string    `gorm:"type:uuid;not null;index:idx_user_questions_history_user_question,priority:1" json:"user_id"`
	QuestionID           string    `gorm:"type:uuid;not null;index:idx_user_questions_history_user_question,priority:2" json:"question_id"`
	UserSessionHistoryID string    `gorm:"type:uuid;not null;index" json:"user_session_history_id"`
	Answer               string    `gorm:"size:1;not null" json:"answer"`
	Correct              bool      `gorm:"not null" json:"correct"`
	AskedForExplanation  bool      `gorm:"not null;default:false" json:"asked_for_explanation"`
	StartedAt            time.Time `gorm:"not null" json:"started_at"`
	AnsweredAt           time.Time `gorm:"not null" json:"answered_at"`
}

// TableName задает имя таблицы для GORM.
func (UserQuestionHistory) TableName() string {
	return "user_questions_history"
}
