package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuestion_IsCorrect_CorrectAnswer(t *testing.T) {
	// Arrange
	question := &Question{
		ID:            "6f1c2d1e-6a0b-4f5c-9d0e-1a2b3c4d5e6f",
		Text:          "¿Cuál es el órgano supremo de la Policía Nacional?",
		OptionA:       "Dirección General",
		OptionB:       "Ministerio del Interior",
		OptionC:       "Subdelegación",
		CorrectOption: "a",
	}

	// Act & Assert
	assert.True(t, question.IsCorrect("a"), "IsCorrect должен вернуть true для правильного ответа")
	assert.True(t, question.IsCorrect(" A "), "Регистр и пробелы не должны влиять на проверку")
}

func TestQuestion_IsCorrect_IncorrectAnswer(t *testing.T) {
	question := &Question{CorrectOption: "c"}

	assert.False(t, question.IsCorrect("a"), "IsCorrect должен вернуть false для неправильного ответа")
	assert.False(t, question.IsCorrect("b"), "IsCorrect должен вернуть false для неправильного ответа")
	assert.False(t, question.IsCorrect(""), "Пустой ответ не может быть правильным")
}

func TestIsValidOption(t *testing.T) {
	assert.True(t, IsValidOption("a"))
	assert.True(t, IsValidOption("B"))
	assert.True(t, IsValidOption("c"))

	assert.False(t, IsValidOption("d"), "Вариант вне a/b/c должен быть невалидным")
	assert.False(t, IsValidOption(""), "Пустой вариант должен быть невалидным")
	assert.False(t, IsValidOption("ab"))
}

func TestSession_QuestionCount_Default(t *testing.T) {
	assert.Equal(t, DefaultNumberOfQuestions, (&Session{}).QuestionCount())
	assert.Equal(t, 7, (&Session{NumberOfQuestions: 7}).QuestionCount())
}
