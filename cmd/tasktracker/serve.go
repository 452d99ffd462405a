package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/spf13/cobra"

	"task-tracker/internal/bot"
	"task-tracker/internal/config"
	"task-tracker/internal/httpapi"
	"task-tracker/internal/repository"
	"task-tracker/internal/service"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the Telegram bot and the digest scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			return serve(cfg)
		},
	}
}

func serve(cfg config.Config) error {
	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}

	userRepo := repository.NewUserRepository(db)
	listRepo := repository.NewListRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	opts := service.Options{
		Clock:           service.SystemClock,
		Timeout:         cfg.StoreTimeout,
		DefaultPageSize: cfg.DefaultPageSize,
		MaxPageSize:     cfg.MaxPageSize,
	}
	policy, err := service.ParseDeletePolicy(cfg.ListDeletePolicy)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	listSvc := service.NewListService(listRepo, opts)
	taskSvc := service.NewTaskService(taskRepo, opts)
	statsSvc := service.NewStatsService(taskRepo, opts)
	reminderSvc := service.NewReminderService(taskSvc, statsSvc)

	server := httpapi.New(httpapi.Deps{
		Lists:        listSvc,
		Tasks:        taskSvc,
		Stats:        statsSvc,
		Tokens:       httpapi.NewTokens(cfg.JWTSecret, cfg.TokenTTL),
		Clock:        opts.Clock,
		DeletePolicy: policy,
		AccessLog:    true,
	})

	go func() {
		log.Printf("[info] http api listening on %s", cfg.HTTPAddr)
		if err := server.Listen(cfg.HTTPAddr); err != nil {
			log.Printf("http api stopped: %v", err)
		}
	}()

	operations := map[string]gfshutdown.Operation{
		"http-api": func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	}

	if cfg.BotEnabled() {
		telegramBot, err := bot.New(cfg.TelegramToken, bot.Deps{
			Users:        userRepo,
			Lists:        listSvc,
			Tasks:        taskSvc,
			Stats:        statsSvc,
			Reminders:    reminderSvc,
			Clock:        opts.Clock,
			DeletePolicy: policy,
		})
		if err != nil {
			return fmt.Errorf("bot: %w", err)
		}

		scheduler := service.NewSchedulerService(time.Local, 30*time.Second)
		if _, err := scheduler.ScheduleDaily("daily-digest", cfg.DigestTime, telegramBot.SendDailyReports); err != nil {
			return fmt.Errorf("schedule digest: %w", err)
		}
		if cfg.ReportInterval > 0 {
			if _, err := scheduler.ScheduleInterval("periodic-report", cfg.ReportInterval, telegramBot.SendDailyReports); err != nil {
				return fmt.Errorf("schedule reports: %w", err)
			}
		}
		scheduler.Start()
		log.Printf("[info] scheduler started with %d job(s), digest at %s", scheduler.Len(), cfg.DigestTime)

		botCtx, stopBot := context.WithCancel(context.Background())
		go func() {
			if err := telegramBot.Start(botCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("bot stopped with error: %v", err)
			}
		}()

		operations["telegram-bot"] = func(ctx context.Context) error {
			stopBot()
			return nil
		}
		operations["scheduler"] = func(ctx context.Context) error {
			return scheduler.Stop(ctx)
		}
	} else {
		log.Println("[info] TELEGRAM_TOKEN is not set, bot and digests are disabled")
	}

	log.Println("Task tracker started. Press Ctrl+C to shutdown gracefully.")

	wait := gfshutdown.GracefulShutdown(context.Background(), cfg.ShutdownTimeout, operations)
	exitCode := <-wait

	if err := repository.Close(db); err != nil {
		log.Printf("close db: %v", err)
	}
	log.Printf("Shutdown complete with exit code %d.", exitCode)
	if exitCode != 0 {
		os.Exit(exitCode)
	}
	return nil
}
