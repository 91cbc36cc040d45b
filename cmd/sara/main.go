package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	goredis "github.com/redis/go-redis/v9"

	"github.com/esc4n0rx/sara/internal/bot"
	"github.com/esc4n0rx/sara/internal/config"
	"github.com/esc4n0rx/sara/internal/delivery/telegram"
	"github.com/esc4n0rx/sara/internal/llm"
	"github.com/esc4n0rx/sara/internal/logger"
	"github.com/esc4n0rx/sara/internal/repository/postgres"
	redisrepo "github.com/esc4n0rx/sara/internal/repository/redis"
	"github.com/esc4n0rx/sara/internal/scheduler"
	"github.com/esc4n0rx/sara/internal/service"
	storage "github.com/esc4n0rx/sara/internal/storage/minio"
	"github.com/esc4n0rx/sara/internal/timeparse"
	"github.com/esc4n0rx/sara/internal/transcribe"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	reminderRepo := postgres.NewReminderRepository(db)

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	conversationRepo := redisrepo.NewConversationRepository(rdb, cfg.Redis.HistoryLimit, cfg.Redis.HistoryTTL)

	minioClient, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		logger.Fatal("failed to create minio client", "error", err)
	}
	storageClient, err := storage.NewClient(ctx, minioClient, cfg.Storage.Bucket)
	if err != nil {
		logger.Fatal("failed to initialize storage client", "error", err)
	}

	sender := telegram.NewSender(cfg.Telegram.Token, cfg.Telegram.APIBaseURL)
	client := telegram.NewClient(cfg.Telegram.Token, cfg.Telegram.APIBaseURL, cfg.Telegram.PollTimeout)

	reminderScheduler := scheduler.New(reminderRepo, sender, cfg.Scheduler.FloorDelay, logger)
	sweeper := scheduler.NewSweeper(
		reminderRepo,
		reminderScheduler,
		sender,
		cfg.Scheduler.SweepInterval,
		cfg.Scheduler.SweepInitialDelay,
		cfg.Scheduler.RearmHorizon,
		logger,
	)

	if err := sweeper.Rearm(ctx); err != nil {
		logger.Error("failed to rearm scheduled reminders", "error", err)
	}
	logger.Info("scheduler ready", "armed_timers", reminderScheduler.CountActive())

	resolver := timeparse.NewResolver(cfg.Bot.DefaultTimezone)
	userService := service.NewUser(userRepo, cfg.Bot.DefaultTimezone, logger)
	reminderService := service.NewReminder(reminderRepo, userRepo, reminderScheduler, resolver, cfg.Bot.ShortcutName, logger)

	interpreter, err := llm.NewInterpreter(cfg.DeepSeek.APIKey, cfg.DeepSeek.Model, cfg.DeepSeek.MaxTokens, cfg.DeepSeek.Temperature, logger)
	if err != nil {
		logger.Fatal("failed to create interpreter", "error", err)
	}
	transcriber := transcribe.NewGroqTranscriber(cfg.Groq.APIKey, cfg.Groq.BaseURL, cfg.Groq.WhisperModel)

	assistant := bot.New(
		client,
		sender,
		userService,
		reminderService,
		conversationRepo,
		interpreter,
		transcriber,
		storageClient,
		cfg.Telegram.PollTimeout,
		logger,
	)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		sweeper.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("starting bot", "name", cfg.Bot.Name)
		if err := assistant.Run(ctx); err != nil {
			logger.Error("bot stopped with error", "error", err)
		}
	}()

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
