package entity

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/topeberti/Polilingo/internal/pkg/errors"
)

// Форматы, в которых метки времени приходят из хранилища и от клиентов.
// Метки без часового пояса трактуются как UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp разбирает строковую метку времени и нормализует её к UTC.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// FormatTimestamp сериализует метку времени в сортируемую строку RFC 3339 (UTC).
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// UTCTime — nullable метка времени, нормализуемая к UTC при чтении и записи.
// Нечитаемое значение в БД — это повреждение данных (apperrors.ErrCorruptData).
type UTCTime struct {
	Time  time.Time
	Valid bool
}

// NewUTCTime создаёт валидную метку
func NewUTCTime(t time.Time) UTCTime {
	return UTCTime{Time: t.UTC(), Valid: true}
}

// Ptr возвращает указатель на время или nil
func (t UTCTime) Ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// Scan реализует интерфейс sql.Scanner
func (t *UTCTime) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*t = UTCTime{}
		return nil
	case time.Time:
		*t = NewUTCTime(v)
		return nil
	case []byte:
		return t.scanString(string(v))
	case string:
		return t.scanString(v)
	default:
		return fmt.Errorf("%w: unsupported timestamp type %T", apperrors.ErrCorruptData, value)
	}
}

func (t *UTCTime) scanString(value string) error {
	parsed, err := ParseTimestamp(value)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrCorruptData, err)
	}
	*t = NewUTCTime(parsed)
	return nil
}

// Value реализует интерфейс driver.Valuer
func (t UTCTime) Value() (driver.Value, error) {
	if !t.Valid {
		return nil, nil
	}
	return t.Time.UTC(), nil
}
