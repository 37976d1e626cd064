package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/omarshaarawi/legacybot/internal/api/fantasy"
	"github.com/omarshaarawi/legacybot/internal/api/fantasycalc"
	"github.com/omarshaarawi/legacybot/internal/api/sleeper"
	"github.com/omarshaarawi/legacybot/internal/bot"
	"github.com/omarshaarawi/legacybot/internal/config"
	"github.com/omarshaarawi/legacybot/internal/repository/memory"
	"github.com/omarshaarawi/legacybot/internal/scheduler"
	"github.com/omarshaarawi/legacybot/internal/server"
	"github.com/omarshaarawi/legacybot/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Error running application", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		slog.Error("Error loading .env file", "error", err)
	}

	cfg, err := config.New()
	if err != nil {
		return err
	}

	sleeperClient := sleeper.NewClient(cfg.Sleeper)
	sleeperAPI := sleeper.NewAPI(sleeperClient)
	calc := fantasycalc.NewClient(cfg.Valuation)
	fantasyAPI := fantasy.NewAPI(sleeperAPI, calc)

	opts, err := service.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	repo := memory.NewRepository()
	historyService := service.NewHistoryService(fantasyAPI, repo, opts)

	handler := bot.NewHandler(historyService, repo, cfg.Sleeper)
	telegramBot, err := bot.NewTelegramBot(cfg.TelegramBot.Token, cfg.TelegramBot.ChatID, handler)
	if err != nil {
		return err
	}

	sched, err := scheduler.NewScheduler(cfg.Schedule, cfg.Sleeper, historyService, telegramBot.SendMessage)
	if err != nil {
		return err
	}

	if err := sched.Start(); err != nil {
		return err
	}
	defer func() {
		err := sched.Stop()
		if err != nil {
			slog.Error("Error stopping scheduler", "error", err)
		}
	}()

	srv := server.New(cfg.Server, historyService)
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("Error starting HTTP server", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := telegramBot.Start(ctx); err != nil {
			slog.Error("Error running telegram bot", "error", err)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Error stopping HTTP server", "error", err)
	}

	return nil
}
