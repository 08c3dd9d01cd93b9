package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/rollbook/internal/config"
	"github.com/stemsi/rollbook/internal/docstore"
	"github.com/stemsi/rollbook/internal/handler"
	"github.com/stemsi/rollbook/internal/identity"
	"github.com/stemsi/rollbook/internal/logger"
	"github.com/stemsi/rollbook/internal/metrics"
	"github.com/stemsi/rollbook/internal/middleware"
	"github.com/stemsi/rollbook/internal/repository"
	"github.com/stemsi/rollbook/internal/roster"
	"github.com/stemsi/rollbook/internal/router"
	"github.com/stemsi/rollbook/internal/service"
	"github.com/stemsi/rollbook/internal/session"
	"github.com/stemsi/rollbook/internal/validator"
	"github.com/stemsi/rollbook/internal/worker"
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
		Str("store", cfg.StoreURL).
		Msg("Starting Rollbook")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()

	// ─── Document Store ────────────────────────────────────────────────
	opts := []docstore.Option{docstore.WithObserver(m.ObserveStore)}
	if cfg.StoreAuthToken != "" {
		opts = append(opts, docstore.WithAuthToken(cfg.StoreAuthToken))
	}
	if cfg.StoreTimeout > 0 {
		opts = append(opts, docstore.WithTimeout(cfg.StoreTimeout))
	}
	store := docstore.New(cfg.StoreURL, opts...)

	// ─── Session Store ─────────────────────────────────────────────────
	var sessions session.Store
	switch cfg.SessionBackend {
	case config.SessionBackendMemory:
		log.Warn().Msg("Using in-memory sessions; sessions are lost on restart")
		sessions = session.NewMemoryStore()
	default:
		rdb, err := session.Dial(ctx, cfg.RedisURL, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		sessions = session.NewRedisStore(rdb)
	}

	// ─── Identity Provider ─────────────────────────────────────────────
	var verifier identity.TokenVerifier
	if cfg.FirebaseProjectID != "" {
		v, err := identity.NewVerifier(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Firebase Auth")
		}
		verifier = v
	} else {
		log.Warn().Msg("FIREBASE_PROJECT_ID not set; Google sign-in is disabled")
	}
	idp := identity.New(cfg.FirebaseAPIKey, verifier)

	// ─── Initialize Repositories ───────────────────────────────────────
	studentRepo := repository.NewStudentRepository(store)
	attendanceRepo := repository.NewAttendanceRepository(store)

	// ─── Roster Store ──────────────────────────────────────────────────
	rosterStore := roster.NewStore(studentRepo, log)
	rosterStore.Subscribe(m.ObserveRoster)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, idp, sessions)
	studentService := service.NewStudentService(rosterStore, attendanceRepo, log)
	attendanceService := service.NewAttendanceService(studentRepo, attendanceRepo, log)
	dashboardService := service.NewDashboardService(studentRepo, attendanceRepo)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:       handler.NewAuthHandler(authService, log),
		Student:    handler.NewStudentHandler(studentService, log),
		Attendance: handler.NewAttendanceHandler(attendanceService, log),
		Dashboard:  handler.NewDashboardHandler(dashboardService),
		WS:         handler.NewWSHandler(authService, rosterStore, attendanceService, log, cfg.AllowedOrigins),
		System:     handler.NewSystemHandler(studentService),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	// Rate limiter for auth routes (10 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(10, time.Minute)
	go authLimiter.Run(workerCtx)

	if cfg.RosterRefresh > 0 {
		go worker.NewRosterRefreshWorker(rosterStore, cfg.RosterRefresh, log).Start(workerCtx)
	} else if _, err := rosterStore.FetchAll(ctx).Wait(ctx); err != nil {
		// Load the cache once so the first roster stream has data.
		log.Warn().Err(err).Msg("Initial roster load failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, m, authLimiter, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
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

	// 2. Stop background workers.
	workerCancel()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
