package repository

import "context"

// AppConfigRepository читает key/value конфигурацию учебного пути
type AppConfigRepository interface {
	GetValues(ctx context.Context, keys []string) (map[string]string, error)
}
