package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/topeberti/Polilingo/internal/domain/entity"
	"github.com/topeberti/Polilingo/internal/domain/repository"
	apperrors "github.com/topeberti/Polilingo/internal/pkg/errors"
	"github.com/topeberti/Polilingo/internal/service/selection"
)

// LivesLedger — операции над жизнями, которые нужны учебному процессу
type LivesLedger interface {
	GetCurrentLives(ctx context.Context, userID string, state *entity.LivesState) (*entity.LivesSnapshot, error)
	Consume(ctx context.Context, userID string) (*entity.LivesSnapshot, error)
}

// LearningConfig — параметры выбора вопросов
type LearningConfig struct {
	PoolCacheTTL    time.Duration
	UnansweredPrior entity.AnswerCounts
}

// SessionQuestions — выбранные вопросы сессии в порядке выбора
type SessionQuestions struct {
	SessionID string
	Strategy  selection.Strategy
	Questions []entity.Question
}

// AnswerInput — ответ пользователя на вопрос
type AnswerInput struct {
	UserSessionHistoryID string
	QuestionID           string
	Answer               string
	AskedForExplanation  bool
	StartedAt            *time.Time
}

// AnswerResult — результат проверки ответа
type AnswerResult struct {
	Correct       bool
	CorrectOption string
	Explanation   *string
	Lives         *entity.LivesSnapshot
}

// LearningService оркестрирует сессии: пул вопросов, стратегия выбора, журнал ответов и жизни
type LearningService struct {
	sessionRepo  repository.SessionRepository
	questionRepo repository.QuestionRepository
	historyRepo  repository.HistoryRepository
	cacheRepo    repository.CacheRepository
	lives        LivesLedger
	engine       *selection.Engine
	config       LearningConfig
	logger       logrus.FieldLogger
	now          func() time.Time
}

// NewLearningService создает сервис обучения. cacheRepo может быть nil (кеш пула выключен).
func NewLearningService(
	sessionRepo repository.SessionRepository,
	questionRepo repository.QuestionRepository,
	historyRepo repository.HistoryRepository,
	cacheRepo repository.CacheRepository,
	lives LivesLedger,
	engine *selection.Engine,
	config LearningConfig,
	logger logrus.FieldLogger,
) *LearningService {
	return &LearningService{
		sessionRepo:  sessionRepo,
		questionRepo: questionRepo,
		historyRepo:  historyRepo,
		cacheRepo:    cacheRepo,
		lives:        lives,
		engine:       engine,
		config:       config,
		logger:       logger.WithField("component", "LearningService"),
		now:          time.Now,
	}
}

func validateUUID(value, field string) error {
	if _, err := uuid.Parse(value); err != nil {
		return fmt.Errorf("%w: %s must be a valid UUID", apperrors.ErrValidation, field)
	}
	return nil
}

func poolCacheKey(sessionID string) string {
	return "learning:pool:" + sessionID
}

// GetSessionQuestions выбирает вопросы сессии по её стратегии
func (s *LearningService) GetSessionQuestions(ctx context.Context, userID, sessionID string) (*SessionQuestions, error) {
	if err := validateUUID(sessionID, "session_id"); err != nil {
		return nil, err
	}

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	log := s.logger.WithFields(logrus.Fields{"session_id": sessionID, "user_id": userID})

	strategy, known := selection.ParseStrategy(session.QuestionSelectionStrategy)
	if !known {
		log.WithField("strategy", session.QuestionSelectionStrategy).Warn("Неизвестная стратегия, используется random")
	}

	pool, err := s.loadPool(ctx, session)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		log.Info("Пул вопросов сессии пуст")
		return &SessionQuestions{SessionID: sessionID, Strategy: strategy, Questions: []entity.Question{}}, nil
	}

	input := selection.Input{Pool: pool}
	switch strategy {
	case selection.StrategyRandomNotRepeated:
		answered, err := s.historyRepo.GetAnsweredQuestionIDs(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load answered questions: %w", err)
		}
		input.Answered = answered
	case selection.StrategyErrorReview:
		counts, err := s.historyRepo.GetAnswerCounts(ctx, userID, pool)
		if err != nil {
			return nil, fmt.Errorf("failed to load answer counts: %w", err)
		}
		input.Stats = selection.BuildReviewStats(pool, counts, s.config.UnansweredPrior)
	}

	selected := s.engine.Select(strategy, session.QuestionCount(), input)
	log.WithFields(logrus.Fields{
		"strategy":  strategy,
		"pool_size": len(pool),
		"selected":  len(selected),
	}).Info("Вопросы сессии выбраны")

	questions, err := s.questionRepo.GetByIDs(ctx, selected)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}

	byID := lo.KeyBy(questions, func(q entity.Question) string { return q.ID })
	ordered := make([]entity.Question, 0, len(selected))
	for _, id := range selected {
		if q, ok := byID[id]; ok {
			ordered = append(ordered, q)
		}
	}

	return &SessionQuestions{SessionID: sessionID, Strategy: strategy, Questions: ordered}, nil
}

// loadPool возвращает ID вопросов-кандидатов сессии, по возможности из кеша.
// Ошибки кеша не прерывают запрос.
func (s *LearningService) loadPool(ctx context.Context, session *entity.Session) ([]string, error) {
	key := poolCacheKey(session.ID)

	if s.cacheRepo != nil && s.config.PoolCacheTTL > 0 {
		var cached []string
		err := s.cacheRepo.GetJSON(ctx, key, &cached)
		switch {
		case err == nil:
			return cached, nil
		case !errors.Is(err, apperrors.ErrNotFound):
			s.logger.WithError(err).WithField("key", key).Warn("Ошибка чтения пула из кеша")
		}
	}

	pool, err := s.questionRepo.FindPoolIDs(ctx, session.PoolFilter())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve question pool: %w", err)
	}

	if s.cacheRepo != nil && s.config.PoolCacheTTL > 0 {
		if err := s.cacheRepo.SetJSON(ctx, key, pool, s.config.PoolCacheTTL); err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("Ошибка записи пула в кеш")
		}
	}
	return pool, nil
}

// StartSession фиксирует начало прохождения сессии пользователем
func (s *LearningService) StartSession(ctx context.Context, userID, sessionID string) (*entity.UserSessionHistory, error) {
	if err := validateUUID(sessionID, "session_id"); err != nil {
		return nil, err
	}
	if _, err := s.sessionRepo.GetByID(ctx, sessionID); err != nil {
		return nil, err
	}

	history := &entity.UserSessionHistory{
		UserID:    userID,
		SessionID: sessionID,
		Status:    entity.SessionHistoryStarted,
		StartedAt: s.now().UTC(),
	}
	if err := s.historyRepo.CreateSessionHistory(ctx, history); err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":                 userID,
		"session_id":              sessionID,
		"user_session_history_id": history.ID,
	}).Info("Сессия начата")
	return history, nil
}

// AnswerQuestion проверяет ответ, пишет его в журнал и списывает жизнь за ошибку.
// Без жизней ответ не принимается (apperrors.ErrNoLivesLeft).
func (s *LearningService) AnswerQuestion(ctx context.Context, userID string, in AnswerInput) (*AnswerResult, error) {
	if err := validateUUID(in.UserSessionHistoryID, "user_session_history_id"); err != nil {
		return nil, err
	}
	if err := validateUUID(in.QuestionID, "question_id"); err != nil {
		return nil, err
	}
	if !entity.IsValidOption(in.Answer) {
		return nil, fmt.Errorf("%w: answer must be one of a, b, c", apperrors.ErrValidation)
	}

	if _, err := s.historyRepo.GetSessionHistory(ctx, userID, in.UserSessionHistoryID); err != nil {
		return nil, err
	}

	snapshot, err := s.lives.GetCurrentLives(ctx, userID, nil)
	if err != nil {
		return nil, err
	}
	if snapshot.CurrentLives <= 0 {
		return nil, apperrors.ErrNoLivesLeft
	}

	question, err := s.questionRepo.GetByID(ctx, in.QuestionID)
	if err != nil {
		return nil, err
	}

	answer := entity.NormalizeOption(in.Answer)
	correct := question.IsCorrect(answer)
	now := s.now().UTC()
	startedAt := now
	if in.StartedAt != nil {
		startedAt = in.StartedAt.UTC()
	}

	record := &entity.UserQuestionHistory{
		UserID:               userID,
		QuestionID:           question.ID,
		UserSessionHistoryID: in.UserSessionHistoryID,
		Answer:               answer,
		Correct:              correct,
		AskedForExplanation:  in.AskedForExplanation,
		StartedAt:            startedAt,
		AnsweredAt:           now,
	}
	if err := s.historyRepo.RecordAnswer(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record answer: %w", err)
	}

	if !correct {
		snapshot, err = s.lives.Consume(ctx, userID)
		if err != nil {
			return nil, err
		}
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":     userID,
		"question_id": question.ID,
		"correct":     correct,
		"lives":       snapshot.CurrentLives,
	}).Debug("Ответ обработан")

	return &AnswerResult{
		Correct:       correct,
		CorrectOption: entity.NormalizeOption(question.CorrectOption),
		Explanation:   question.Explanation,
		Lives:         snapshot,
	}, nil
}

// GetLives возвращает текущее состояние жизней пользователя
func (s *LearningService) GetLives(ctx context.Context, userID string) (*entity.LivesSnapshot, error) {
	return s.lives.GetCurrentLives(ctx, userID, nil)
}
