package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок авторизации (неверный токен, нет прав).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у пользователя недостаточно прав для действия.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов состояния: уникальные ключи,
	// исчерпанные попытки условного обновления жизней.
	ErrConflict = errors.New("resource state conflict")

	// ErrNoLivesLeft возвращается, когда у пользователя не осталось жизней для ответа.
	ErrNoLivesLeft = errors.New("no lives left")

	// ErrCorruptData означает нарушение целостности сохранённых данных
	// (например, битая метка времени). Восстановлению не подлежит.
	ErrCorruptData = errors.New("corrupt stored data")
)
