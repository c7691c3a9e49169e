package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/topeberti/Polilingo/internal/config"
	"github.com/topeberti/Polilingo/internal/domain/entity"
	"github.com/topeberti/Polilingo/internal/domain/repository"
	"github.com/topeberti/Polilingo/internal/handler"
	"github.com/topeberti/Polilingo/internal/middleware"
	pgRepo "github.com/topeberti/Polilingo/internal/repository/postgres"
	redisRepo "github.com/topeberti/Polilingo/internal/repository/redis"
	"github.com/topeberti/Polilingo/internal/service"
	"github.com/topeberti/Polilingo/internal/service/lives"
	"github.com/topeberti/Polilingo/internal/service/selection"
	"github.com/topeberti/Polilingo/pkg/auth"
	"github.com/topeberti/Polilingo/pkg/database"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Запустить HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		return serve(cmd.Context(), a)
	},
}

// newLivesService собирает сервис жизней поверх PostgreSQL
func newLivesService(a *app) *lives.Service {
	configCache := lives.NewConfigCache(pgRepo.NewAppConfigRepo(a.db), a.cfg.Lives.ConfigTTL, a.log)
	return lives.NewService(pgRepo.NewGamificationRepo(a.db), configCache, a.cfg.Lives.MaxConsumeAttempts, a.log)
}

func serve(ctx context.Context, a *app) error {
	cfg, log := a.cfg, a.log
	gin.SetMode(cfg.Server.Mode)

	if cfg.Database.AutoMigrate {
		if err := database.MigrateDB(a.db, cfg.Database.MigrationsPath, log); err != nil {
			return err
		}
	}

	// Redis необязателен: без него нет кеша пулов и ограничения частоты
	var redisClient redis.UniversalClient
	var cacheRepo repository.CacheRepository
	client, err := database.NewUniversalRedisClient(ctx, cfg.Redis)
	switch {
	case errors.Is(err, database.ErrRedisNotConfigured):
		log.Warn("Redis не настроен: кеш пулов вопросов и rate limiting отключены")
	case err != nil:
		return err
	default:
		log.Info("Successfully connected to Redis")
		redisClient = client
		defer redisClient.Close()
		repo, err := redisRepo.NewCacheRepo(redisClient, cfg.Redis.KeyPrefix)
		if err != nil {
			return err
		}
		cacheRepo = repo
	}

	engine := selection.NewEngine()
	if cfg.Learning.Seed > 0 {
		log.WithField("seed", cfg.Learning.Seed).Warn("Выбор вопросов детерминирован (seed задан)")
		engine = selection.NewSeededEngine(cfg.Learning.Seed)
	}

	learningService := service.NewLearningService(
		pgRepo.NewSessionRepo(a.db),
		pgRepo.NewQuestionRepo(a.db),
		pgRepo.NewHistoryRepo(a.db),
		cacheRepo,
		newLivesService(a),
		engine,
		service.LearningConfig{
			PoolCacheTTL: cfg.Learning.PoolCacheTTL,
			UnansweredPrior: entity.AnswerCounts{
				Correct: cfg.Learning.UnansweredPrior.Correct,
				Wrong:   cfg.Learning.UnansweredPrior.Wrong,
			},
		},
		log,
	)

	verifier, err := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Audience, cfg.Auth.Issuer)
	if err != nil {
		return err
	}

	router := newRouter(cfg, log, routerDeps{
		learning:    handler.NewLearningHandler(learningService, log),
		auth:        middleware.NewAuthMiddleware(verifier, log),
		redisClient: redisClient,
	})

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Infof("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info("Server exited properly")
	return nil
}

type routerDeps struct {
	learning    *handler.LearningHandler
	auth        *middleware.AuthMiddleware
	redisClient redis.UniversalClient
}

// newRouter настраивает маршруты API
func newRouter(cfg *config.Config, log *logrus.Logger, deps routerDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log))

	// В production не доверяем прокси-заголовкам, локально доверяем localhost
	var trusted []string
	if cfg.Server.Mode != gin.ReleaseMode {
		trusted = []string{"127.0.0.1", "::1"}
	}
	if err := router.SetTrustedProxies(trusted); err != nil {
		log.WithError(err).Warn("Failed to set trusted proxies")
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.Origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	answerLimit := func(c *gin.Context) { c.Next() }
	if cfg.RateLimit.Enabled && deps.redisClient != nil {
		limiter := middleware.NewRateLimiter(deps.redisClient, log)
		answerLimit = limiter.Limit(middleware.AnswerRateLimitConfig(cfg.RateLimit.Limit, cfg.RateLimit.Window))
	}

	authed := router.Group("/")
	authed.Use(deps.auth.RequireAuth())
	{
		learning := authed.Group("/learning")
		{
			learning.GET("/session/questions", middleware.ExtractUUIDQuery("session_id", "sessionID"), deps.learning.GetSessionQuestions)
			learning.POST("/session/start", deps.learning.StartSession)
			learning.POST("/question/answer", answerLimit, deps.learning.AnswerQuestion)
		}

		gamification := authed.Group("/gamification")
		{
			gamification.GET("/lives", deps.learning.GetLives)
		}
	}

	return router
}
