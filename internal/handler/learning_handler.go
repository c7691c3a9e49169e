package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/topeberti/Polilingo/internal/domain/entity"
	"github.com/topeberti/Polilingo/internal/handler/dto"
	"github.com/topeberti/Polilingo/internal/service"
)

// LearningUseCase — операции учебного процесса, доступные по HTTP
type LearningUseCase interface {
	GetSessionQuestions(ctx context.Context, userID, sessionID string) (*service.SessionQuestions, error)
	StartSession(ctx context.Context, userID, sessionID string) (*entity.UserSessionHistory, error)
	AnswerQuestion(ctx context.Context, userID string, in service.AnswerInput) (*service.AnswerResult, error)
	GetLives(ctx context.Context, userID string) (*entity.LivesSnapshot, error)
}

// LearningHandler обрабатывает запросы, связанные с сессиями обучения
type LearningHandler struct {
	learning LearningUseCase
	logger   logrus.FieldLogger
}

// NewLearningHandler создает новый обработчик сессий обучения
func NewLearningHandler(learning LearningUseCase, logger logrus.FieldLogger) *LearningHandler {
	return &LearningHandler{
		learning: learning,
		logger:   logger.WithField("component", "LearningHandler"),
	}
}

// GetSessionQuestions возвращает вопросы сессии в порядке, выбранном стратегией
func (h *LearningHandler) GetSessionQuestions(c *gin.Context) {
	sessionID := c.MustGet("sessionID").(string)

	result, err := h.learning.GetSessionQuestions(c.Request.Context(), currentUserID(c), sessionID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSessionQuestionsResponse(result.SessionID, string(result.Strategy), result.Questions))
}

// StartSession фиксирует начало прохождения сессии
func (h *LearningHandler) StartSession(c *gin.Context) {
	var req dto.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	history, err := h.learning.StartSession(c.Request.Context(), currentUserID(c), req.SessionID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewStartSessionResponse(history))
}

// AnswerQuestion принимает ответ на вопрос сессии
func (h *LearningHandler) AnswerQuestion(c *gin.Context) {
	var req dto.AnswerQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	result, err := h.learning.AnswerQuestion(c.Request.Context(), currentUserID(c), service.AnswerInput{
		UserSessionHistoryID: req.UserSessionHistoryID,
		QuestionID:           req.QuestionID,
		Answer:               req.Answer,
		AskedForExplanation:  req.AskedForExplanation,
		StartedAt:            req.StartedAt,
	})
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.AnswerQuestionResponse{
		Correct:       result.Correct,
		CorrectOption: result.CorrectOption,
		Explanation:   result.Explanation,
		Lives:         dto.NewLivesResponse(result.Lives),
	})
}

// GetLives возвращает текущее состояние жизней пользователя
func (h *LearningHandler) GetLives(c *gin.Context) {
	snapshot, err := h.learning.GetLives(c.Request.Context(), currentUserID(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewLivesResponse(snapshot))
}
