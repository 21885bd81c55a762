package main

import (
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"proptrack/server/config"
	"proptrack/server/internal/api"
	"proptrack/server/internal/database"
	"proptrack/server/internal/metrics"
	"proptrack/server/internal/models"
	"proptrack/server/internal/processor"
	"proptrack/server/internal/queue"
	"proptrack/server/internal/scheduler"
	"proptrack/server/internal/telegram"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	// Optional .env for local development
	if err := godotenv.Load(); err == nil {
		logger.Info("Loaded environment from .env")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	registry, err := config.LoadSegments(cfg.Segments.Path)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load segment definitions")
	}
	logger.WithField("segments", len(registry.Codes())).Info("Loaded segment definitions")

	logger.Infof("Using database at: %s", cfg.Database.Path)
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	logger.Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	// Separate GORM handle on the same file for the batch write path
	gormDB, err := gorm.Open(sqlite.Open(cfg.Database.Path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to open batch database connection")
	}

	saleQueue := queue.NewSaleQueue(cfg.BatchProcessing.MaxBatchSize, logger)
	batchProcessor := processor.NewBatchProcessor(gormDB, saleQueue, cfg, logger)
	batchProcessor.Start()
	saleQueue.Start()
	defer func() {
		saleQueue.Close()
		batchProcessor.Stop()
	}()

	thresholds := metrics.Thresholds{
		Monthly:   cfg.Thresholds.Monthly,
		Quarterly: cfg.Thresholds.Quarterly,
		SixMonth:  cfg.Thresholds.SixMonth,
	}
	rates := metrics.GrowthRates{
		Default:            cfg.TimeAdjustment.DefaultGrowthRate,
		ConservativeOffset: cfg.TimeAdjustment.ConservativeOffset,
		OptimisticOffset:   cfg.TimeAdjustment.OptimisticOffset,
	}
	engine := metrics.NewEngine(db, registry, thresholds, rates, logger)

	telegramService := telegram.NewService(&models.TelegramConfig{
		IsEnabled: cfg.Telegram.IsEnabled,
		BotToken:  cfg.Telegram.BotToken,
		ChatID:    cfg.Telegram.ChatID,
	}, logger)

	reportScheduler := scheduler.NewScheduler(engine, registry, telegramService, cfg, logger)
	if err := reportScheduler.Start(); err != nil {
		logger.WithError(err).Fatal("Failed to start report scheduler")
	}
	defer reportScheduler.Stop()

	handler := api.NewHandler(db, engine, registry, saleQueue, telegramService, cfg, logger)

	router := gin.Default()
	router.Use(cors.Default())
	api.SetupRoutes(router, handler)

	logger.Infof("Starting server on port %s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
	}
}
