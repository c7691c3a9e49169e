package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/topeberti/Polilingo/internal/domain/entity"
)

// AppConfigRepo реализует repository.AppConfigRepository поверх learning_path_config
type AppConfigRepo struct {
	db *gorm.DB
}

// NewAppConfigRepo создает новый репозиторий конфигурации
func NewAppConfigRepo(db *gorm.DB) *AppConfigRepo {
	return &AppConfigRepo{db: db}
}

// GetValues возвращает значения для запрошенных ключей. Отсутствующие ключи пропускаются.
func (r *AppConfigRepo) GetValues(ctx context.Context, keys []string) (map[string]string, error) {
	var rows []entity.LearningPathConfig
	if err := r.db.WithContext(ctx).Where("config_key IN ?", keys).Find(&rows).Error; err != nil {
		return nil, err
	}

	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.ConfigKey] = row.ConfigValue
	}
	return values, nil
}
