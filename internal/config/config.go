package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Lives     LivesConfig     `mapstructure:"lives"`
	Learning  LearningConfig  `mapstructure:"learning"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig содержит настройки подключения к PostgreSQL (Supabase).
// Если задан URL, он имеет приоритет над отдельными полями.
type DatabaseConfig struct {
	URL            string `mapstructure:"url"`
	Host           string `mapstructure:"host"`
	Port           string `mapstructure:"port"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	DBName         string `mapstructure:"dbname"`
	SSLMode        string `mapstructure:"sslmode"`
	MigrationsPath string `mapstructure:"migrations_path"`
	AutoMigrate    bool   `mapstructure:"auto_migrate"`
	MaxOpenConns   int    `mapstructure:"max_open_conns"`
	MaxIdleConns   int    `mapstructure:"max_idle_conns"`
	LogSQL         bool   `mapstructure:"log_sql"`
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт). Используется для всех режимов.
	Addrs []string `mapstructure:"addrs"`

	// Addr: Альтернативный адрес для режима 'single'.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"`

	// KeyPrefix добавляется ко всем ключам кеша
	KeyPrefix string `mapstructure:"key_prefix"`
}

// AuthConfig содержит настройки проверки токенов Supabase
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Audience  string `mapstructure:"audience"`
	Issuer    string `mapstructure:"issuer"`
}

// CORSConfig содержит разрешённые источники для веб- и мобильных клиентов
type CORSConfig struct {
	Origins []string `mapstructure:"origins"`
}

// LivesConfig содержит настройки сервиса жизней
type LivesConfig struct {
	ConfigTTL          time.Duration `mapstructure:"config_ttl"`
	MaxConsumeAttempts int           `mapstructure:"max_consume_attempts"`
}

// LearningConfig содержит настройки выбора вопросов
type LearningConfig struct {
	PoolCacheTTL    time.Duration `mapstructure:"pool_cache_ttl"`
	UnansweredPrior PriorConfig   `mapstructure:"unanswered_prior"`
	// Seed > 0 делает выбор вопросов воспроизводимым (только для отладки)
	Seed uint64 `mapstructure:"seed"`
}

// PriorConfig — счётчики, которые получает вопрос без истории ответов в error_review
type PriorConfig struct {
	Correct int `mapstructure:"correct"`
	Wrong   int `mapstructure:"wrong"`
}

// RateLimitConfig содержит настройки ограничения частоты ответов
type RateLimitConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Limit   int           `mapstructure:"limit"`
	Window  time.Duration `mapstructure:"window"`
}

// LogConfig содержит настройки логирования
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.mode", "debug")
	vip.SetDefault("server.read_timeout", 15*time.Second)
	vip.SetDefault("server.write_timeout", 15*time.Second)
	vip.SetDefault("server.shutdown_timeout", 10*time.Second)

	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "require")
	vip.SetDefault("database.migrations_path", "migrations")
	vip.SetDefault("database.max_open_conns", 25)
	vip.SetDefault("database.max_idle_conns", 10)

	vip.SetDefault("redis.mode", "single")
	vip.SetDefault("redis.key_prefix", "polilingo:")

	vip.SetDefault("auth.audience", "authenticated")

	vip.SetDefault("lives.config_ttl", 60*time.Minute)
	vip.SetDefault("lives.max_consume_attempts", 3)

	vip.SetDefault("learning.pool_cache_ttl", 5*time.Minute)
	vip.SetDefault("learning.unanswered_prior.correct", 0)
	vip.SetDefault("learning.unanswered_prior.wrong", 1)

	vip.SetDefault("ratelimit.enabled", true)
	vip.SetDefault("ratelimit.limit", 60)
	vip.SetDefault("ratelimit.window", time.Minute)

	vip.SetDefault("log.level", "info")
	vip.SetDefault("log.format", "text")
}

// Load загружает конфигурацию из файла и переменных окружения
func Load(configPath string, logger logrus.FieldLogger) (*Config, error) {
	vip := viper.New() // Используем новый экземпляр Viper, чтобы избежать глобального состояния

	setDefaults(vip)

	// Привязываем переменные окружения ЯВНО
	vip.BindEnv("server.port", "PORT")
	vip.BindEnv("server.mode", "GIN_MODE")

	vip.BindEnv("database.url", "DATABASE_URL")
	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")
	vip.BindEnv("database.auto_migrate", "DATABASE_AUTO_MIGRATE")

	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	vip.BindEnv("auth.jwt_secret", "SUPABASE_JWT_SECRET")
	vip.BindEnv("auth.issuer", "SUPABASE_JWT_ISSUER")

	vip.BindEnv("log.level", "LOG_LEVEL")
	vip.BindEnv("log.format", "LOG_FORMAT")

	if configPath != "" {
		vip.SetConfigFile(configPath)
		// Файла может не быть: остаются переменные окружения и умолчания
		if err := vip.ReadInConfig(); err != nil {
			logger.WithError(err).Warnf("Не удалось прочитать файл конфигурации '%s', используются переменные окружения/умолчания", configPath)
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// REDIS_ADDRS приходит строкой через запятую
	if len(cfg.Redis.Addrs) == 1 && strings.Contains(cfg.Redis.Addrs[0], ",") {
		cfg.Redis.Addrs = strings.Split(cfg.Redis.Addrs[0], ",")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"server_port":      cfg.Server.Port,
		"server_mode":      cfg.Server.Mode,
		"database_host":    cfg.Database.Host,
		"database_url_set": cfg.Database.URL != "",
		"redis_mode":       cfg.Redis.Mode,
		"jwt_secret_set":   cfg.Auth.JWTSecret != "",
		"lives_config_ttl": cfg.Lives.ConfigTTL,
	}).Debug("Конфигурация загружена")

	return &cfg, nil
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	switch c.Server.Mode {
	case "", "debug", "release", "test":
	default:
		return fmt.Errorf("unsupported server mode %q (expected debug, release or test)", c.Server.Mode)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("supabase JWT secret is required (check SUPABASE_JWT_SECRET env var)")
	}
	if c.Database.URL == "" && (c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "") {
		return fmt.Errorf("database configuration (url or host, dbname, user) is incomplete (check DATABASE_URL or DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if c.Server.Mode == "release" && c.Database.URL == "" && c.Database.Password == "" {
		return fmt.Errorf("database password is required in release mode (check DATABASE_PASSWORD env var)")
	}
	if c.Learning.UnansweredPrior.Correct < 0 || c.Learning.UnansweredPrior.Wrong < 0 {
		return fmt.Errorf("learning.unanswered_prior counts must not be negative")
	}
	if c.RateLimit.Enabled && (c.RateLimit.Limit <= 0 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("ratelimit.limit and ratelimit.window must be positive when rate limiting is enabled")
	}
	return nil
}
