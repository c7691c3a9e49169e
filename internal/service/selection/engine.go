package selection

import (
	"math"
	"math/rand/v2"
	"slices"
	"sync/atomic"

	"github.com/samber/lo"

	"github.com/topeberti/Polilingo/internal/domain/entity"
)

// Epsilon защищает от деления на ноль в отношении wrong/correct и служит
// минимальным весом, чтобы вопрос без ошибок всё равно мог быть выбран.
const Epsilon = 1e-6

// Engine выбирает упорядоченное подмножество вопросов из пула.
// Не хранит изменяемого состояния: каждый вызов использует свой источник случайности.
type Engine struct {
	seed    uint64
	seeded  bool
	counter atomic.Uint64
}

// NewEngine создаёт движок с недетерминированными источниками случайности
func NewEngine() *Engine {
	return &Engine{}
}

// NewSeededEngine создаёт движок с воспроизводимой последовательностью источников
func NewSeededEngine(seed uint64) *Engine {
	return &Engine{seed: seed, seeded: true}
}

// newRand возвращает новый локальный генератор для одного вызова
func (e *Engine) newRand() *rand.Rand {
	if e.seeded {
		return rand.New(rand.NewPCG(e.seed, e.counter.Add(1)))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Random выбирает min(n, len(pool)) различных элементов равновероятно без возвращения.
// Порядок результата — порядок извлечения.
func (e *Engine) Random(n int, pool []string) []string {
	return sample(e.newRand(), n, pool)
}

// RandomNotRepeated сначала выбирает из ещё не отвеченных вопросов пула и только
// при их нехватке добирает из уже отвеченных.
func (e *Engine) RandomNotRepeated(n int, pool []string, answered []string) []string {
	if n <= 0 || len(pool) == 0 {
		return []string{}
	}
	n = min(n, len(pool))

	answeredSet := lo.Associate(answered, func(id string) (string, struct{}) {
		return id, struct{}{}
	})
	isAnswered := func(id string, _ int) bool {
		_, ok := answeredSet[id]
		return ok
	}
	unanswered := lo.Filter(pool, func(id string, i int) bool { return !isAnswered(id, i) })
	seen := lo.Filter(pool, isAnswered)

	r := e.newRand()
	selected := sample(r, n, unanswered)
	if remaining := n - len(selected); remaining > 0 {
		selected = append(selected, sample(r, remaining, seen)...)
	}
	return selected
}

// ErrorReview выполняет взвешенную выборку без возвращения (Efraimidis–Spirakis):
// вес вопроса — wrong / (correct + ε), но не меньше ε. Результат упорядочен
// по убыванию ключа, т.е. самые «ошибочные» вопросы чаще оказываются первыми.
func (e *Engine) ErrorReview(n int, stats []entity.QuestionStat) []string {
	if n <= 0 || len(stats) == 0 {
		return []string{}
	}
	n = min(n, len(stats))

	type keyed struct {
		id  string
		key float64
	}

	r := e.newRand()
	keys := make([]keyed, len(stats))
	for i, s := range stats {
		// u^(1/w) сравниваем в логарифмах: ln(u)/w монотонен по тому же порядку,
		// а при w = ε ключ не схлопывается в 0.
		keys[i] = keyed{id: s.ID, key: math.Log(openUnit(r)) / Weight(s)}
	}

	slices.SortStableFunc(keys, func(a, b keyed) int {
		switch {
		case a.key > b.key:
			return -1
		case a.key < b.key:
			return 1
		}
		return 0
	})

	return lo.Map(keys[:n], func(k keyed, _ int) string { return k.id })
}

// Weight возвращает вес вопроса для стратегии error_review
func Weight(s entity.QuestionStat) float64 {
	ratio := float64(s.Wrong) / (float64(s.Correct) + Epsilon)
	return math.Max(ratio, Epsilon)
}

// BuildReviewStats строит по одной записи статистики на каждый вопрос пула.
// Вопросы без истории ответов получают prior (обычно entity.UnansweredPrior).
func BuildReviewStats(pool []string, counts map[string]entity.AnswerCounts, prior entity.AnswerCounts) []entity.QuestionStat {
	return lo.Map(pool, func(id string, _ int) entity.QuestionStat {
		c, ok := counts[id]
		if !ok {
			c = prior
		}
		return entity.QuestionStat{ID: id, Correct: c.Correct, Wrong: c.Wrong}
	})
}

// sample — частичная перетасовка Фишера–Йетса копии пула
func sample(r *rand.Rand, n int, pool []string) []string {
	if n <= 0 || len(pool) == 0 {
		return []string{}
	}
	n = min(n, len(pool))

	shuffled := slices.Clone(pool)
	for i := 0; i < n; i++ {
		j := i + r.IntN(len(shuffled)-i)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled[:n]
}

// openUnit возвращает равномерное число из открытого интервала (0, 1)
func openUnit(r *rand.Rand) float64 {
	for {
		if u := r.Float64(); u > 0 {
			return u
		}
	}
}
