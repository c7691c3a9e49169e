package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/topeberti/Polilingo/internal/config"
	"github.com/topeberti/Polilingo/pkg/database"
	"github.com/topeberti/Polilingo/pkg/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "polilingo",
	Short: "Polilingo learning backend",
	Long: `Polilingo отдаёт вопросы сессий обучения, принимает ответы
и ведёт учёт жизней пользователей.`,
	SilenceUsage: true,
}

func init() {
	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = "config/config.yaml"
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfig, "путь к файлу конфигурации")

	rootCmd.AddCommand(serveCmd, migrateCmd, livesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app — общие зависимости подкоманд
type app struct {
	cfg *config.Config
	log *logrus.Logger
	db  *gorm.DB
}

// newApp загружает конфигурацию, создает логгер и подключается к PostgreSQL
func newApp() (*app, error) {
	// До загрузки конфигурации пишем в логгер по умолчанию
	bootLog := logrus.New()
	bootLog.WithField("path", configPath).Info("Загрузка конфигурации")

	cfg, err := config.Load(configPath, bootLog)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	db, err := database.NewPostgresDB(cfg.Database, log)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, log: log, db: db}, nil
}

func (a *app) close() {
	if sqlDB, err := database.GetSQLDB(a.db); err == nil {
		sqlDB.Close()
	}
}
