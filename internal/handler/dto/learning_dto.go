package dto

import (
	"time"

	"github.com/samber/lo"

	"github.com/topeberti/Polilingo/internal/domain/entity"
)

// QuestionOption — вариант ответа для клиента
type QuestionOption struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// LearningQuestionResponse — вопрос сессии без правильного ответа
type LearningQuestionResponse struct {
	ID         string           `json:"id"`
	ConceptID  string           `json:"concept_id"`
	Text       string           `json:"text"`
	Options    []QuestionOption `json:"options"`
	Difficulty int              `json:"difficulty"`
	Source     *string          `json:"source,omitempty"`
}

// SessionQuestionsResponse — вопросы сессии в порядке выбора
type SessionQuestionsResponse struct {
	SessionID string                     `json:"session_id"`
	Strategy  string                     `json:"strategy"`
	Questions []LearningQuestionResponse `json:"questions"`
}

// StartSessionRequest — запрос на начало сессии
type StartSessionRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// StartSessionResponse — идентификатор прохождения сессии
type StartSessionResponse struct {
	UserSessionHistoryID string `json:"user_session_history_id"`
	SessionID            string `json:"session_id"`
	StartedAt            string `json:"started_at"`
}

// AnswerQuestionRequest — ответ на вопрос
type AnswerQuestionRequest struct {
	UserSessionHistoryID string     `json:"user_session_history_id" binding:"required"`
	QuestionID           string     `json:"question_id" binding:"required"`
	Answer               string     `json:"answer" binding:"required"`
	AskedForExplanation  bool       `json:"asked_for_explanation"`
	StartedAt            *time.Time `json:"started_at,omitempty"`
}

// AnswerQuestionResponse — результат проверки ответа
type AnswerQuestionResponse struct {
	Correct       bool          `json:"correct"`
	CorrectOption string        `json:"correct_option"`
	Explanation   *string       `json:"explanation,omitempty"`
	Lives         LivesResponse `json:"lives"`
}

// LivesResponse — текущее состояние жизней. Метки времени в RFC 3339 UTC.
type LivesResponse struct {
	CurrentLives      int     `json:"current_lives"`
	MaxLives          int     `json:"max_lives"`
	NextLifeAt        *string `json:"next_life_at"`
	SecondsToNextLife *int64  `json:"seconds_to_next_life"`
	LastLifeLostAt    *string `json:"last_life_lost_at,omitempty"`
}

func formatOptional(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := entity.FormatTimestamp(*t)
	return &s
}

// NewLearningQuestionResponse создает DTO вопроса
func NewLearningQuestionResponse(q entity.Question) LearningQuestionResponse {
	return LearningQuestionResponse{
		ID:        q.ID,
		ConceptID: q.ConceptID,
		Text:      q.Text,
		Options: []QuestionOption{
			{Key: entity.OptionA, Text: q.OptionA},
			{Key: entity.OptionB, Text: q.OptionB},
			{Key: entity.OptionC, Text: q.OptionC},
		},
		Difficulty: q.Difficulty,
		Source:     q.Source,
	}
}

// NewSessionQuestionsResponse создает DTO списка вопросов сессии
func NewSessionQuestionsResponse(sessionID, strategy string, questions []entity.Question) *SessionQuestionsResponse {
	return &SessionQuestionsResponse{
		SessionID: sessionID,
		Strategy:  strategy,
		Questions: lo.Map(questions, func(q entity.Question, _ int) LearningQuestionResponse {
			return NewLearningQuestionResponse(q)
		}),
	}
}

// NewStartSessionResponse создает DTO начала сессии
func NewStartSessionResponse(h *entity.UserSessionHistory) *StartSessionResponse {
	return &StartSessionResponse{
		UserSessionHistoryID: h.ID,
		SessionID:            h.SessionID,
		StartedAt:            entity.FormatTimestamp(h.StartedAt),
	}
}

// NewLivesResponse создает DTO жизней
func NewLivesResponse(s *entity.LivesSnapshot) LivesResponse {
	return LivesResponse{
		CurrentLives:      s.CurrentLives,
		MaxLives:          s.MaxLives,
		NextLifeAt:        formatOptional(s.NextLifeAt),
		SecondsToNextLife: s.SecondsToNextLife,
		LastLifeLostAt:    formatOptional(s.LastLifeLostAt),
	}
}
