package lives

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"github.com/topeberti/Polilingo/internal/domain/entity"
)

// ============================================================================
// Моки репозиториев
// ============================================================================

// MockGamificationRepository реализует repository.GamificationRepository
type MockGamificationRepository struct {
	mock.Mock
}

func (m *MockGamificationRepository) GetLivesState(ctx context.Context, userID string) (*entity.LivesState, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.LivesState), args.Error(1)
}

func (m *MockGamificationRepository) CreateLivesState(ctx context.Context, userID string, state entity.LivesState) (bool, error) {
	args := m.Called(ctx, userID, state)
	return args.Bool(0), args.Error(1)
}

func (m *MockGamificationRepository) CompareAndSwapLives(ctx context.Context, userID string, expected, next entity.LivesState) (bool, error) {
	args := m.Called(ctx, userID, expected, next)
	return args.Bool(0), args.Error(1)
}

func (m *MockGamificationRepository) SetLivesState(ctx context.Context, userID string, state entity.LivesState) error {
	args := m.Called(ctx, userID, state)
	return args.Error(0)
}

// MockAppConfigRepository реализует repository.AppConfigRepository
type MockAppConfigRepository struct {
	mock.Mock
}

func (m *MockAppConfigRepository) GetValues(ctx context.Context, keys []string) (map[string]string, error) {
	args := m.Called(ctx, keys)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

// ============================================================================
// Helpers
// ============================================================================

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func timePtr(t time.Time) *time.Time { return &t }

// newTestService собирает сервис с фиксированным временем и конфигурацией (5, 240)
func newTestService(repo *MockGamificationRepository) (*Service, *MockAppConfigRepository) {
	cfgRepo := new(MockAppConfigRepository)
	cfgRepo.On("GetValues", mock.Anything, mock.Anything).Return(map[string]string{
		entity.ConfigKeyMaxLives:              "5",
		entity.ConfigKeyRefillIntervalMinutes: "240",
	}, nil).Maybe()

	cache := NewConfigCache(cfgRepo, time.Hour, quietLogger())
	cache.now = func() time.Time { return testNow }

	svc := NewService(repo, cache, 3, quietLogger())
	svc.SetClock(func() time.Time { return testNow })
	return svc, cfgRepo
}

func stateMatches(lives int, last time.Time) interface{} {
	return mock.MatchedBy(func(s entity.LivesState) bool {
		return s.Lives == lives && s.LastLifeLostAt != nil && s.LastLifeLostAt.Equal(last)
	})
}
