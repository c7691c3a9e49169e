package selection

import (
	"strings"

	"github.com/topeberti/Polilingo/internal/domain/entity"
)

// Strategy — название политики выбора вопросов, заданное в сессии
type Strategy string

const (
	StrategyRandom            Strategy = entity.StrategyRandom
	StrategyRandomNotRepeated Strategy = entity.StrategyRandomNotRepeated
	StrategyErrorReview       Strategy = entity.StrategyErrorReview
)

// ParseStrategy разбирает название стратегии. Второе значение false,
// если стратегия неизвестна (вызывающий код откатывается на random).
func ParseStrategy(name string) (Strategy, bool) {
	switch s := Strategy(strings.ToLower(strings.TrimSpace(name))); s {
	case StrategyRandom, StrategyRandomNotRepeated, StrategyErrorReview:
		return s, true
	}
	return StrategyRandom, false
}

// Input — данные, которые нужны стратегиям. Answered используется только
// random_not_repeated, Stats — только error_review.
type Input struct {
	Pool     []string
	Answered []string
	Stats    []entity.QuestionStat
}

// Select применяет стратегию к входным данным. Неизвестная стратегия
// обрабатывается как random.
func (e *Engine) Select(strategy Strategy, n int, in Input) []string {
	switch strategy {
	case StrategyRandomNotRepeated:
		return e.RandomNotRepeated(n, in.Pool, in.Answered)
	case StrategyErrorReview:
		return e.ErrorReview(n, in.Stats)
	default:
		return e.Random(n, in.Pool)
	}
}
