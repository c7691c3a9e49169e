package entity

import (
	"time"
)

// Значения конфигурации жизней по умолчанию
const (
	DefaultMaxLives              = 5
	DefaultRefillIntervalMinutes = 240
)

// Ключи конфигурации жизней в таблице learning_path_config
const (
	ConfigKeyMaxLives              = "max_lives"
	ConfigKeyRefillIntervalMinutes = "life_refill_interval_minutes"
)

// LearningPathConfig — строка key/value конфигурации учебного пути
type LearningPathConfig struct {
	ConfigKey   string `gorm:"primaryKey" json:"config_key"`
	ConfigValue string `gorm:"not null" json:"config_value"`
}

// TableName определяет имя таблицы для GORM
func (LearningPathConfig) TableName() string {
	return "learning_path_config"
}

// GamificationStats — строка user_gamification_stats (только поля жизней)
type GamificationStats struct {
	UserID         string  `gorm:"type:uuid;primaryKey" json:"user_id"`
	Lives          int     `gorm:"not null" json:"lives"`
	LastLifeLostAt UTCTime `gorm:"type:timestamptz" json:"last_life_lost_at"`
}

// TableName определяет имя таблицы для GORM
func (GamificationStats) TableName() string {
	return "user_gamification_stats"
}

// LivesState возвращает сохранённую точку отсчёта жизней
func (g *GamificationStats) LivesState() LivesState {
	return LivesState{Lives: g.Lives, LastLifeLostAt: g.LastLifeLostAt.Ptr()}
}

// LivesState — сохранённое состояние: количество жизней на момент последнего
// изменения и момент, от которого отсчитывается восстановление.
type LivesState struct {
	Lives          int
	LastLifeLostAt *time.Time
}

// LivesConfig — максимум жизней и интервал восстановления одной жизни
type LivesConfig struct {
	MaxLives              int `json:"max_lives"`
	RefillIntervalMinutes int `json:"life_refill_interval_minutes"`
}

// DefaultLivesConfig возвращает жёсткие значения по умолчанию (5, 240)
func DefaultLivesConfig() LivesConfig {
	return LivesConfig{
		MaxLives:              DefaultMaxLives,
		RefillIntervalMinutes: DefaultRefillIntervalMinutes,
	}
}

// RefillInterval возвращает интервал восстановления как time.Duration
func (c LivesConfig) RefillInterval() time.Duration {
	return time.Duration(c.RefillIntervalMinutes) * time.Minute
}

// LivesSnapshot — вычисленное на момент чтения состояние жизней.
// Не сохраняется, выводится из LivesState и текущего времени.
type LivesSnapshot struct {
	CurrentLives      int
	MaxLives          int
	StoredLives       int
	RefilledLives     int
	NextLifeAt        *time.Time
	SecondsToNextLife *int64
	LastLifeLostAt    *time.Time
}

// IsFull возвращает true, если жизни на максимуме
func (s *LivesSnapshot) IsFull() bool {
	return s.CurrentLives >= s.MaxLives
}
