package main

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"leadstream/config"
	"leadstream/discovery"
	"leadstream/llm"
	"leadstream/middleware"
	"leadstream/routes"
	"leadstream/search"
	"leadstream/utils"
	"leadstream/worker"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	if err := config.LoadConfig(); err != nil {
		logger.WithError(err).Fatal("failed to load configuration")
	}

	if dsn := config.AppConfig.SentryDSN; dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         dsn,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			logger.WithError(err).Warn("sentry init failed")
		}
		defer sentry.Flush(2 * time.Second)
	}

	if err := config.ConnectDB(); err != nil {
		logger.WithError(err).Fatal("failed to connect to database")
	}

	engine, err := buildEngine(logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to build discovery engine")
	}

	research := llm.NewPerplexityClient(config.AppConfig.PerplexityAPIKey, config.AppConfig.PerplexityModel, logger)
	googleSearch := search.NewGoogleClient(config.AppConfig.GoogleCSEKey, config.AppConfig.GoogleCSEID, logger)
	mailer := utils.NewMailer(config.AppConfig.SMTP, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var drafter *llm.Drafter
	if config.AppConfig.GeminiAPIKey != "" {
		drafter, err = llm.NewDrafter(ctx, config.AppConfig.GeminiAPIKey, config.AppConfig.GeminiModel, logger)
		if err != nil {
			logger.WithError(err).Fatal("failed to build drafter")
		}
	} else {
		logger.Warn("GEMINI_API_KEY not set, drafting endpoints disabled")
	}

	followupWorker := worker.NewFollowupWorker(config.DB, logger, drafter, mailer,
		config.AppConfig.TrackingBaseURL, config.AppConfig.FollowupAfter)
	go followupWorker.Start(ctx)

	replyWorker := worker.NewReplyWorker(config.DB, logger, config.AppConfig.IMAP, config.AppConfig.ReplyPoll)
	go replyWorker.Start(ctx)

	app := fiber.New()
	app.Use(recover.New())
	app.Use(middleware.CORS())

	routes.SetupRoutes(app, routes.Deps{
		DB:       config.DB,
		Logger:   logger,
		Engine:   engine,
		Research: research,
		Drafter:  drafter,
		Search:   googleSearch,
		Mailer:   mailer,
		BaseURL:  config.AppConfig.TrackingBaseURL,
	})

	logger.WithField("port", config.AppConfig.ServerPort).Info("server starting")
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.WithError(err).Fatal("failed to start server")
	}
}

func buildEngine(logger *logrus.Logger) (*discovery.Engine, error) {
	dc := config.AppConfig.Discovery
	engine, err := discovery.NewEngine(discovery.Config{
		Backend:        dc.Backend,
		HeloDomain:     dc.HeloDomain,
		MailFrom:       dc.MailFrom,
		Resolvers:      dc.Resolvers,
		PoolSize:       dc.PoolSize,
		ProbeRetries:   dc.ProbeRetries,
		ProbePerSecond: dc.ProbePerSecond,
		PatternHints:   dc.PatternHints,
		WhoisLookup:    dc.WhoisLookup,
		APIKey:         dc.APIKey,
		APITokenURL:    dc.APITokenURL,
		APIVerifyURL:   dc.APIVerifyURL,
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}

	if config.AppConfig.Redis.Enabled {
		cache := discovery.NewRedisCache(
			config.AppConfig.Redis.Address,
			config.AppConfig.Redis.Password,
			config.AppConfig.Redis.DB,
			dc.CacheTTL,
			logger,
		)
		engine.WithCache(cache)
	}
	return engine, nil
}
