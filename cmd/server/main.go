package main

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"studytimer/backend/internal/announce"
	"studytimer/backend/internal/config"
	"studytimer/backend/internal/db"
	"studytimer/backend/internal/handler"
	"studytimer/backend/internal/repository"
	"studytimer/backend/internal/router"
	"studytimer/backend/internal/scheduler"
	"studytimer/backend/internal/service"
)

func main() {
	_ = godotenv.Load()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})

	cfg := config.Load()
	location := cfg.Location()
	modes := cfg.Modes()

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Fatal("open database", "err", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
		logger.Fatal("run migrations", "err", err)
	}

	participantRepo := repository.NewParticipantRepository(database)
	ledgerRepo := repository.NewLedgerRepository(database)
	streakRepo := repository.NewStreakRepository(database)
	communityRepo := repository.NewCommunityRepository(database)
	adminRepo := repository.NewAdminRepository(database)

	sessionService := service.NewSessionService(participantRepo, ledgerRepo, communityRepo, modes, location)
	statsService := service.NewStatsService(ledgerRepo, streakRepo)
	authService := service.NewAuthService(adminRepo, cfg.JWTSecret, cfg.TokenTTL)

	var announcer announce.Announcer
	if cfg.DiscordToken != "" && cfg.DiscordChannelID != "" {
		discordAnnouncer, err := announce.NewDiscordAnnouncer(cfg.DiscordToken, cfg.DiscordChannelID)
		if err != nil {
			logger.Fatal("create discord announcer", "err", err)
		}
		defer discordAnnouncer.Close()
		announcer = discordAnnouncer
		logger.Info("announcing transitions to discord", "channel", cfg.DiscordChannelID)
	} else {
		announcer = announce.NewLogAnnouncer(logger)
	}

	sched := scheduler.New(
		participantRepo,
		ledgerRepo,
		streakRepo,
		communityRepo,
		announcer,
		logger.With("component", "scheduler"),
		modes,
		location,
		cfg.CreditBreaks,
	)
	if err := sched.Rebuild(context.Background(), time.Now()); err != nil {
		logger.Fatal("rebuild scheduler state", "err", err)
	}
	if err := sched.Start(); err != nil {
		logger.Fatal("start scheduler", "err", err)
	}
	defer sched.Stop()

	authHandler := handler.NewAuthHandler(authService)
	sessionHandler := handler.NewSessionHandler(sessionService)
	statsHandler := handler.NewStatsHandler(statsService)
	adminHandler := handler.NewAdminHandler(sessionService, statsService)

	engine := router.New(authService, authHandler, sessionHandler, statsHandler, adminHandler, cfg.CORSOrigins)
	logger.Info("backend listening", "port", cfg.Port, "timezone", cfg.Timezone)
	if err := engine.Run(":" + cfg.Port); err != nil {
		logger.Fatal("run server", "err", err)
	}
}
