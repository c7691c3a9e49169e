package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/topeberti/Polilingo/internal/domain/entity"
	apperrors "github.com/topeberti/Polilingo/internal/pkg/errors"
	"github.com/topeberti/Polilingo/internal/service/selection"
)

// ============================================================================
// Моки для LearningService
// ============================================================================

type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) GetByID(ctx context.Context, id string) (*entity.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Session), args.Error(1)
}

type MockQuestionRepository struct {
	mock.Mock
}

func (m *MockQuestionRepository) GetByID(ctx context.Context, id string) (*entity.Question, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Question), args.Error(1)
}

func (m *MockQuestionRepository) GetByIDs(ctx context.Context, ids []string) ([]entity.Question, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

func (m *MockQuestionRepository) FindPoolIDs(ctx context.Context, filter entity.PoolFilter) ([]string, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) CreateSessionHistory(ctx context.Context, history *entity.UserSessionHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockHistoryRepository) GetSessionHistory(ctx context.Context, userID, id string) (*entity.UserSessionHistory, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.UserSessionHistory), args.Error(1)
}

func (m *MockHistoryRepository) RecordAnswer(ctx context.Context, answer *entity.UserQuestionHistory) error {
	args := m.Called(ctx, answer)
	return args.Error(0)
}

func (m *MockHistoryRepository) GetAnsweredQuestionIDs(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockHistoryRepository) GetAnswerCounts(ctx context.Context, userID string, questionIDs []string) (map[string]entity.AnswerCounts, error) {
	args := m.Called(ctx, userID, questionIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]entity.AnswerCounts), args.Error(1)
}

type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheRepository) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepository) GetJSON(ctx context.Context, key string, dest interface{}) error {
	args := m.Called(ctx, key, dest)
	if fill, ok := args.Get(1).(func(dest interface{})); ok && args.Error(0) == nil {
		fill(dest)
	}
	return args.Error(0)
}

type MockLivesLedger struct {
	mock.Mock
}

func (m *MockLivesLedger) GetCurrentLives(ctx context.Context, userID string, state *entity.LivesState) (*entity.LivesSnapshot, error) {
	args := m.Called(ctx, userID, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.LivesSnapshot), args.Error(1)
}

func (m *MockLivesLedger) Consume(ctx context.Context, userID string) (*entity.LivesSnapshot, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.LivesSnapshot), args.Error(1)
}

// ============================================================================
// Helpers
// ============================================================================

const (
	testUserID        = "7d3c1b2a-0f9e-4d8c-b7a6-5e4d3c2b1a09"
	testSessionID     = "11111111-2222-4333-8444-555555555555"
	testHistoryID     = "99999999-8888-4777-8666-555555555555"
	testQuestionID    = "aaaaaaaa-bbbb-4ccc-8ddd-eeeeeeeeeeee"
	testCacheTTL      = 5 * time.Minute
	testPoolCacheKey  = "learning:pool:" + testSessionID
	testSessionLength = 3
)

type learningMocks struct {
	sessions  *MockSessionRepository
	questions *MockQuestionRepository
	history   *MockHistoryRepository
	cache     *MockCacheRepository
	lives     *MockLivesLedger
}

func newLearningService(t *testing.T) (*LearningService, *learningMocks) {
	t.Helper()
	m := &learningMocks{
		sessions:  new(MockSessionRepository),
		questions: new(MockQuestionRepository),
		history:   new(MockHistoryRepository),
		cache:     new(MockCacheRepository),
		lives:     new(MockLivesLedger),
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	svc := NewLearningService(
		m.sessions, m.questions, m.history, m.cache, m.lives,
		selection.NewSeededEngine(1),
		LearningConfig{PoolCacheTTL: testCacheTTL, UnansweredPrior: entity.UnansweredPrior},
		logger,
	)
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc, m
}

func questionsFor(ids []string) []entity.Question {
	questions := make([]entity.Question, 0, len(ids))
	for _, id := range ids {
		questions = append(questions, entity.Question{ID: id, Text: "Pregunta " + id, CorrectOption: "a"})
	}
	return questions
}

func cacheMiss(m *learningMocks) {
	m.cache.On("GetJSON", mock.Anything, testPoolCacheKey, mock.Anything).Return(apperrors.ErrNotFound, nil).Once()
}

// ============================================================================
// GetSessionQuestions
// ============================================================================

func TestGetSessionQuestions_InvalidSessionID(t *testing.T) {
	svc, m := newLearningService(t)

	_, err := svc.GetSessionQuestions(context.Background(), testUserID, "not-a-uuid")

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	m.sessions.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestGetSessionQuestions_SessionNotFound(t *testing.T) {
	svc, m := newLearningService(t)
	m.sessions.On("GetByID", mock.Anything, testSessionID).Return(nil, apperrors.ErrNotFound)

	_, err := svc.GetSessionQuestions(context.Background(), testUserID, testSessionID)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGetSessionQuestions_RandomKeepsSelectionOrder(t *testing.T) {
	svc, m := newLearningService(t)
	pool := []string{"q1", "q2", "q3", "q4", "q5"}
	session := &entity.Session{ID: testSessionID, NumberOfQuestions: testSessionLength, QuestionSelectionStrategy: "random"}

	m.sessions.On("GetByID", mock.Anything, testSessionID).Return(session, nil)
	cacheMiss(m)
	m.questions.On("FindPoolIDs", mock.Anything, session.PoolFilter()).Return(pool, nil)
	m.cache.On("SetJSON", mock.Anything, testPoolCacheKey, pool, testCacheTTL).Return(nil)

	var selected []string
	m.questions.On("GetByIDs", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { selected = args.Get(1).([]string) }).
		Return(func() []entity.Question {
			// Репозиторий возвращает вопросы в произвольном порядке
			qs := questionsFor(pool)
			for i, j := 0, len(qs)-1; i < j; i, j = i+1, j-1 {
				qs[i], qs[j] = qs[j], qs[i]
			}
			return qs
		}(), nil)

	result, err := svc.GetSessionQuestions(context.Background(), testUserID, testSessionID)

	require.NoError(t, err)
	require.Len(t, result.Questions, testSessionLength)
	assert.Equal(t, selection.StrategyRandom, result.Strategy)
	for i, q := range result.Questions {
		assert.Equal(t, selected[i], q.ID, "порядок должен совпадать с порядком выбора")
	}
	m.cache.AssertExpectations(t)
}

func TestGetSessionQuestions_PoolFromCache(t *testing.T) {
	svc, m := newLearningService(t)
	session := &entity.Session{ID: testSessionID, NumberOfQuestions: 2, QuestionSelectionStrategy: "random"}

	m.sessions.On("GetByID", mock.Anything, testSessionID).Return(session, nil)
	m.cache.On("GetJSON", mock.Anything, testPoolCacheKey, mock.Anything).
		Return(nil, func(dest interface{}) { *dest.(*[]string) = []string{"q1", "q2"} })
	m.questions.On("GetByIDs", mock.Anything, mock.Anything).Return(questionsFor([]string{"q1", "q2"}), nil)

	result, err := svc.GetSessionQuestions(context.Background(), testUserID, testSessionID)

	require.NoError(t, err)
	assert.Len(t, result.Questions, 2)
	m.questions.AssertNotCalled(t, "FindPoolIDs", mock.Anything, mock.Anything)
}

func TestGetSessionQuestions_CacheErrorsIgnored(t *testing.T) {
	svc, m := newLearningService(t)
	session := &entity.Session{ID: testSessionID, NumberOfQuestions: 1, QuestionSelectionStrategy: "random"}

	m.sessions.On("GetByID", mock.Anything, testSessionID).Return(session, nil)
	m.cache.On("GetJSON", mock.Anything, testPoolCacheKey, mock.Anything).Return(errors.New("redis down"), nil)
	m.questions.On("FindPoolIDs", mock.Anything, mock.Anything).Return([]string{"q1"}, nil)
	m.cache.On("SetJSON", mock.Anything, testPoolCacheKey, mock.Anything, testCacheTTL).Return(errors.New("redis down"))
	m.questions.On("GetByIDs", mock.Anything, []string{"q1"}).Return(questionsFor([]string{"q1"}), nil)

	result, err := svc.GetSessionQuestions(context.Background(), testUserID, testSessionID)

	require.NoError(t, err)
	assert.Len(t, result.Questions, 1)
}

func TestGetSessionQuestions_RandomNotRepeated(t *testing.T) {
	svc, m := newLearningService(t)
	pool := []string{"q0", "q1", "q2", "q3", "q4"}
	session := &entity.Session{ID: testSessionID, NumberOfQuestions: 2, QuestionSelectionStrategy: "random_not_repeated"}

	m.sessions.On("GetByID", mock.Anything, testSessionID).Return(session, nil)
	cacheMiss(m)
	m.questions.On("FindPoolIDs", mock.Anything, mock.Anything).Return(pool, nil)
	m.cache.On("SetJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	m.history.On("GetAnsweredQuestionIDs", mock.Anything, testUserID).Return([]string{"q0", "q1", "q2"}, nil)
	m.questions.On("GetByIDs", mock.Anything, mock.MatchedBy(func(ids []string) bool {
		return assert.ElementsMatch(t, []string{"q3", "q4"}, ids)
	})).Return(questionsFor([]string{"q3", "q4"}), nil)

	result, err := svc.GetSessionQuestions(context.Background(), testUserID, testSessionID)

	require.NoError(t, err)
	assert.Len(t, result.Questions, 2)
	m.history.AssertNotCalled(t, "GetAnswerCounts", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetSessionQuestions_ErrorReviewUsesCountsAndPrior(t *testing.T) {
	svc, m := newLearningService(t)
	pool := []string{"q0", "q1"}
	session := &entity.Session{ID: testSessionID, NumberOfQuestions: 2, QuestionSelectionStrategy: "error_review"}

	m.sessions.On("GetByID", mock.Anything, testSessionID).Return(session, nil)
	cacheMiss(m)
	m.questions.On("FindPoolIDs", mock.Anything, mock.Anything).Return(pool, nil)
	m.cache.On("SetJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	m.history.On("GetAnswerCounts", mock.Anything, testUserID, pool).
		Return(map[string]entity.AnswerCounts{"q0": {Correct: 3, Wrong: 0}}, nil)
	m.questions.On("GetByIDs", mock.Anything, mock.Anything).Return(questionsFor(pool), nil)

	result, err := svc.GetSessionQuestions(context.Background(), testUserID, testSessionID)

	require.NoError(t, err)
	assert.Equal(t, selection.StrategyErrorReview, result.Strategy)
	assert.Len(t, result.Questions, 2)
	m.history.AssertExpectations(t)
	m.history.AssertNotCalled(t, "GetAnsweredQuestionIDs", mock.Anything, mock.Anything)
}

func TestGetSessionQuestions_UnknownStrategyFallsBackToRandom(t *testing.T) {
	svc, m := newLearningService(t)
	session := &entity.Session{ID: testSessionID, NumberOfQuestions: 1, QuestionSelectionStrategy: "spaced_repetition"}

	m.sessions.On("GetByID", mock.Anything, testSessionID).Return(session, nil)
	cacheMiss(m)
	m.questions.On("FindPoolIDs", mock.Anything, mock.Anything).Return([]string{"q1"}, nil)
	m.cache.On("SetJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	m.questions.On("GetByIDs", mock.Anything, []string{"q1"}).Return(questionsFor([]string{"q1"}), nil)

	result, err := svc.GetSessionQuestions(context.Background(), testUserID, testSessionID)

	require.NoError(t, err)
	assert.Equal(t, selection.StrategyRandom, result.Strategy)
	assert.Len(t, result.Questions, 1)
}

func TestGetSessionQuestions_EmptyPool(t *testing.T) {
	svc, m := newLearningService(t)
	session := &entity.Session{ID: testSessionID, QuestionSelectionStrategy: "random"}

	m.sessions.On("GetByID", mock.Anything, testSessionID).Return(session, nil)
	cacheMiss(m)
	m.questions.On("FindPoolIDs", mock.Anything, mock.Anything).Return([]string{}, nil)
	m.cache.On("SetJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	result, err := svc.GetSessionQuestions(context.Background(), testUserID, testSessionID)

	require.NoError(t, err)
	assert.Empty(t, result.Questions)
	m.questions.AssertNotCalled(t, "GetByIDs", mock.Anything, mock.Anything)
}

func TestGetSessionQuestions_MissingQuestionsSkipped(t *testing.T) {
	svc, m := newLearningService(t)
	session := &entity.Session{ID: testSessionID, NumberOfQuestions: 3, QuestionSelectionStrategy: "random"}

	m.sessions.On("GetByID", mock.Anything, testSessionID).Return(session, nil)
	cacheMiss(m)
	m.questions.On("FindPoolIDs", mock.Anything, mock.Anything).Return([]string{"q1", "q2", "q3"}, nil)
	m.cache.On("SetJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	m.questions.On("GetByIDs", mock.Anything, mock.Anything).Return(questionsFor([]string{"q2"}), nil)

	result, err := svc.GetSessionQuestions(context.Background(), testUserID, testSessionID)

	require.NoError(t, err)
	require.Len(t, result.Questions, 1)
	assert.Equal(t, "q2", result.Questions[0].ID)
}

// ============================================================================
// StartSession
// ============================================================================

func TestStartSession(t *testing.T) {
	svc, m := newLearningService(t)
	m.sessions.On("GetByID", mock.Anything, testSessionID).Return(&entity.Session{ID: testSessionID}, nil)
	m.history.On("CreateSessionHistory", mock.Anything, mock.MatchedBy(func(h *entity.UserSessionHistory) bool {
		return h.UserID == testUserID && h.SessionID == testSessionID && h.Status == entity.SessionHistoryStarted
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*entity.UserSessionHistory).ID = testHistoryID
	}).Return(nil)

	history, err := svc.StartSession(context.Background(), testUserID, testSessionID)

	require.NoError(t, err)
	assert.Equal(t, testHistoryID, history.ID)
	assert.Equal(t, time.UTC, history.StartedAt.Location())
}

func TestStartSession_Errors(t *testing.T) {
	svc, m := newLearningService(t)

	_, err := svc.StartSession(context.Background(), testUserID, "bad")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	m.sessions.On("GetByID", mock.Anything, testSessionID).Return(nil, apperrors.ErrNotFound)
	_, err = svc.StartSession(context.Background(), testUserID, testSessionID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	m.history.AssertNotCalled(t, "CreateSessionHistory", mock.Anything, mock.Anything)
}

// ============================================================================
// AnswerQuestion
// ============================================================================

func validAnswer(answer string) AnswerInput {
	return AnswerInput{UserSessionHistoryID: testHistoryID, QuestionID: testQuestionID, Answer: answer}
}

func prepareAnswer(m *learningMocks, lives int) {
	explanation := "Artículo 104 de la Constitución"
	m.history.On("GetSessionHistory", mock.Anything, testUserID, testHistoryID).
		Return(&entity.UserSessionHistory{ID: testHistoryID, UserID: testUserID}, nil)
	m.lives.On("GetCurrentLives", mock.Anything, testUserID, (*entity.LivesState)(nil)).
		Return(&entity.LivesSnapshot{CurrentLives: lives, MaxLives: 5, StoredLives: lives}, nil)
	m.questions.On("GetByID", mock.Anything, testQuestionID).
		Return(&entity.Question{ID: testQuestionID, CorrectOption: "b", Explanation: &explanation}, nil)
}

func TestAnswerQuestion_Correct(t *testing.T) {
	svc, m := newLearningService(t)
	prepareAnswer(m, 3)
	m.history.On("RecordAnswer", mock.Anything, mock.MatchedBy(func(a *entity.UserQuestionHistory) bool {
		return a.Correct && a.Answer == "b" && a.UserID == testUserID && a.UserSessionHistoryID == testHistoryID
	})).Return(nil)

	result, err := svc.AnswerQuestion(context.Background(), testUserID, validAnswer(" B "))

	require.NoError(t, err)
	assert.True(t, result.Correct)
	assert.Equal(t, "b", result.CorrectOption)
	assert.Equal(t, 3, result.Lives.CurrentLives)
	m.lives.AssertNotCalled(t, "Consume", mock.Anything, mock.Anything)
}

func TestAnswerQuestion_WrongConsumesLife(t *testing.T) {
	svc, m := newLearningService(t)
	prepareAnswer(m, 3)
	m.history.On("RecordAnswer", mock.Anything, mock.MatchedBy(func(a *entity.UserQuestionHistory) bool {
		return !a.Correct && a.Answer == "a"
	})).Return(nil)
	m.lives.On("Consume", mock.Anything, testUserID).Return(&entity.LivesSnapshot{CurrentLives: 2, MaxLives: 5}, nil).Once()

	result, err := svc.AnswerQuestion(context.Background(), testUserID, validAnswer("a"))

	require.NoError(t, err)
	assert.False(t, result.Correct)
	assert.Equal(t, 2, result.Lives.CurrentLives)
	require.NotNil(t, result.Explanation)
	m.lives.AssertExpectations(t)
}

func TestAnswerQuestion_NoLivesLeft(t *testing.T) {
	svc, m := newLearningService(t)
	prepareAnswer(m, 0)

	_, err := svc.AnswerQuestion(context.Background(), testUserID, validAnswer("b"))

	assert.ErrorIs(t, err, apperrors.ErrNoLivesLeft)
	m.history.AssertNotCalled(t, "RecordAnswer", mock.Anything, mock.Anything)
	m.lives.AssertNotCalled(t, "Consume", mock.Anything, mock.Anything)
}

func TestAnswerQuestion_Validation(t *testing.T) {
	svc, _ := newLearningService(t)

	tests := []struct {
		name  string
		input AnswerInput
	}{
		{name: "плохой history id", input: AnswerInput{UserSessionHistoryID: "x", QuestionID: testQuestionID, Answer: "a"}},
		{name: "плохой question id", input: AnswerInput{UserSessionHistoryID: testHistoryID, QuestionID: "x", Answer: "a"}},
		{name: "недопустимый вариант", input: AnswerInput{UserSessionHistoryID: testHistoryID, QuestionID: testQuestionID, Answer: "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AnswerQuestion(context.Background(), testUserID, tt.input)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestAnswerQuestion_ForeignSessionHistory(t *testing.T) {
	svc, m := newLearningService(t)
	m.history.On("GetSessionHistory", mock.Anything, testUserID, testHistoryID).Return(nil, apperrors.ErrNotFound)

	_, err := svc.AnswerQuestion(context.Background(), testUserID, validAnswer("a"))

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	m.lives.AssertNotCalled(t, "GetCurrentLives", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnswerQuestion_ConsumeConflictPropagates(t *testing.T) {
	svc, m := newLearningService(t)
	prepareAnswer(m, 1)
	m.history.On("RecordAnswer", mock.Anything, mock.Anything).Return(nil)
	m.lives.On("Consume", mock.Anything, testUserID).Return(nil, apperrors.ErrConflict)

	_, err := svc.AnswerQuestion(context.Background(), testUserID, validAnswer("c"))

	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestGetLives(t *testing.T) {
	svc, m := newLearningService(t)
	m.lives.On("GetCurrentLives", mock.Anything, testUserID, (*entity.LivesState)(nil)).
		Return(&entity.LivesSnapshot{CurrentLives: 5, MaxLives: 5}, nil)

	snapshot, err := svc.GetLives(context.Background(), testUserID)

	require.NoError(t, err)
	assert.True(t, snapshot.IsFull())
}
