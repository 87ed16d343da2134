package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/examlet/examlet-backend/internal/config"
	"github.com/examlet/examlet-backend/internal/database"
	"github.com/examlet/examlet-backend/internal/handler"
	"github.com/examlet/examlet-backend/internal/logger"
	"github.com/examlet/examlet-backend/internal/repository"
	"github.com/examlet/examlet-backend/internal/router"
	"github.com/examlet/examlet-backend/internal/service"
	"github.com/examlet/examlet-backend/internal/validator"
	"github.com/examlet/examlet-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Examlet Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	studentRepo := repository.NewStudentRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)
	testRepo := repository.NewTestRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	resultRepo := repository.NewResultRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	leaderboardRepo := repository.NewLeaderboardRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb)
	studentService := service.NewStudentService(studentRepo, resultRepo, authService, log)
	adminService := service.NewAdminService(adminRepo, authService)
	testService := service.NewTestService(testRepo, questionRepo, rdb, log)
	questionService := service.NewQuestionService(questionRepo, testService, log)
	resultService := service.NewResultService(resultRepo, testRepo, questionRepo, log)
	leaderboardQueue := service.NewLeaderboardQueue(rdb)
	submissionService := service.NewSubmissionService(
		testService, questionRepo, resultRepo, notificationRepo, leaderboardQueue, log)
	leaderboardService := service.NewLeaderboardService(leaderboardRepo, studentRepo, rdb, log)
	notificationService := service.NewNotificationService(notificationRepo)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:         handler.NewAuthHandler(authService, studentService, adminService),
		Exam:         handler.NewExamHandler(testService, submissionService, resultService),
		Test:         handler.NewTestHandler(testService, resultService),
		Question:     handler.NewQuestionHandler(questionService),
		Leaderboard:  handler.NewLeaderboardHandler(leaderboardService),
		Notification: handler.NewNotificationHandler(notificationService),
		StudentMgmt:  handler.NewStudentManagementHandler(studentService),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	leaderboardWorker := worker.NewLeaderboardWorker(pool, rdb, log)
	go leaderboardWorker.Start(workerCtx)

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Load all active tests into Redis BEFORE accepting traffic.
	// This avoids race conditions from lazy loading under thundering herd.
	if err := testService.PrewarmAllCaches(ctx); err != nil {
		log.Warn().Err(err).Msg("Cache prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
