package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studycore/internal/achievements"
	"studycore/internal/api"
	"studycore/internal/config"
	"studycore/internal/errors"
	"studycore/internal/logger"
	"studycore/internal/remote"
	"studycore/internal/repository/sqlite"
	"studycore/internal/services"
	"studycore/internal/store"
	"studycore/internal/streak"
	"studycore/internal/syncqueue"
)

func main() {
	cfg := config.Load()

	log := logger.New(logger.WithLevel(logger.ParseLevel(cfg.LogLevel)))
	logger.SetDefault(log)

	log.Info("studycore starting")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("exam_autosave_interval=%s", cfg.ExamAutosaveInterval)
	log.Debug("study_autosave_interval=%s", cfg.StudyAutosaveInterval)
	log.Debug("sync_retry_attempts=%d", cfg.SyncRetryAttempts)

	// Open the local store; when persistent storage is unavailable, warn once
	// and degrade to memory-only operation rather than refusing to start.
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		if !errors.HasCode(err, errors.ErrCodeStorageUnavailable) {
			log.Error("failed to open store: %v", err)
			os.Exit(1)
		}
		log.Warn("persistent storage unavailable, running memory-only: progress will not survive restart")
		db, err = store.OpenMemory()
		if err != nil {
			log.Error("failed to open in-memory store: %v", err)
			os.Exit(1)
		}
	}
	defer db.Close()

	// Repositories
	sessionRepo := sqlite.NewSessionRepository(db)
	studyRepo := sqlite.NewStudyRepository(db)
	pointsRepo := sqlite.NewPointsRepository(db)
	streakRepo := sqlite.NewStreakRepository(db)
	achievementRepo := sqlite.NewAchievementRepository(db)
	statsRepo := sqlite.NewStatsRepository(db)
	gamificationRepo := sqlite.NewGamificationRepository(db)

	// Core engines
	tracker := streak.NewTracker(streakRepo)
	engine := achievements.NewEngine(achievements.DefaultCatalog(), achievementRepo)

	push := remote.NewNoopPusher()
	if cfg.SyncEndpoint != "" {
		push = remote.NewHTTPPusher(cfg.SyncEndpoint)
	}
	queue := syncqueue.New(sessionRepo, push, cfg.SyncQueueSize,
		syncqueue.WithAttempts(cfg.SyncRetryAttempts))

	// Services
	progressionService := services.NewProgressionService(
		pointsRepo, sessionRepo, studyRepo, statsRepo, gamificationRepo, tracker, engine)
	sessionService := services.NewSessionService(
		sessionRepo, studyRepo, progressionService,
		cfg.ExamAutosaveInterval, cfg.StudyAutosaveInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue.Start(ctx)
	// Startup sweep: records left unsynced by a previous run are retried
	// without user action.
	if _, err := queue.DrainUnsynced(ctx); err != nil {
		log.Warn("startup drain failed: %v", err)
	}

	srv := &api.Server{
		Sessions:    sessionService,
		Progression: progressionService,
		SyncQueue:   queue,
		MemoryOnly:  db.Memory(),
	}

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Routes(),
	}

	go func() {
		log.Info("listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server failed: %v", err)
			cancel()
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-stop:
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown: %v", err)
	}
	// Flush live sessions before the store closes so they recover next start.
	sessionService.Shutdown(shutdownCtx)
	queue.Stop()
	log.Info("bye")
}
