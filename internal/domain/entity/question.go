package entity

import (
	"strings"
)

// Варианты ответа на вопрос
const (
	OptionA = "a"
	OptionB = "b"
	OptionC = "c"
)

// Question представляет вопрос из силлабуса (concept -> question)
type Question struct {
	ID            string  `gorm:"type:uuid;primaryKey" json:"id"`
	ConceptID     string  `gorm:"type:uuid;not null;index" json:"concept_id"`
	Text          string  `gorm:"not null" json:"text"`
	OptionA       string  `gorm:"column:option_a;not null" json:"option_a"`
	OptionB       string  `gorm:"column:option_b;not null" json:"option_b"`
	OptionC       string  `gorm:"column:option_c;not null" json:"option_c"`
	CorrectOption string  `gorm:"size:1;not null" json:"-"` // Скрыто от клиента
	Explanation   *string `json:"explanation,omitempty"`
	Difficulty    int     `gorm:"not null;default:1" json:"difficulty"`
	Source        *string `json:"source,omitempty"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// NormalizeOption приводит выбранный вариант к виду "a" / "b" / "c"
func NormalizeOption(option string) string {
	return strings.ToLower(strings.TrimSpace(option))
}

// IsValidOption проверяет, является ли выбранный вариант допустимым
func IsValidOption(option string) bool {
	switch NormalizeOption(option) {
	case OptionA, OptionB, OptionC:
		return true
	}
	return false
}

// IsCorrect проверяет, является ли выбранный вариант правильным
func (q *Question) IsCorrect(option string) bool {
	return NormalizeOption(option) == NormalizeOption(q.CorrectOption)
}

// AnswerCounts — количество правильных и неправильных ответов пользователя на вопрос
type AnswerCounts struct {
	Correct int `json:"correct"`
	Wrong   int `json:"wrong"`
}

// UnansweredPrior — приоритет по умолчанию для ни разу не отвеченных вопросов
// в стратегии error_review: (0 правильных, 1 неправильный), т.е. максимальный.
var UnansweredPrior = AnswerCounts{Correct: 0, Wrong: 1}

// QuestionStat — статистика ответов по одному вопросу пула
type QuestionStat struct {
	ID      string
	Correct int
	Wrong   int
}

// QuestionCountsRow — агрегированная строка истории ответов (для GORM Scan)
type QuestionCountsRow struct {
	QuestionID string
	Correct    int
	Wrong      int
}
