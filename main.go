package main

import (
	"os"
	"os/signal"
	"syscall"

	"interview-scheduler/agent"
	"interview-scheduler/config"
	"interview-scheduler/controllers"
	"interview-scheduler/database"
	"interview-scheduler/logging"
	"interview-scheduler/middlewares"
	"interview-scheduler/routes"
	"interview-scheduler/scheduling"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	cfg := config.Load()
	lg := logging.New(cfg.LogLevel, cfg.LogFormat)

	// ---- Database
	db, err := database.Open(cfg.DBDriver, cfg.DatabaseURL, lg)
	if err != nil {
		lg.Fatal().Err(err).Msg("database connection failed")
	}
	if err := database.AutoMigrate(db); err != nil {
		lg.Fatal().Err(err).Msg("migration failed")
	}
	store := database.NewStore(db)

	// ---- Domain services
	sched := scheduling.NewService(store,
		scheduling.WithConflictWindow(cfg.ConflictWindow),
		scheduling.WithLogger(logging.Component(lg, "scheduling")),
	)

	var confirmations agent.ConfirmationStore = agent.NewMemoryConfirmationStore()
	if cfg.ConfirmationStore == "database" {
		confirmations = database.NewConfirmationStore(db)
	}
	gate := agent.NewGate(confirmations, agent.WithTTL(cfg.ConfirmationTTL))
	if cfg.LLMAPIKey == "" {
		lg.Warn().Msg("LLM_API_KEY not set; the assistant will answer with an apology")
	}
	llm := agent.NewOpenAIClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout)
	tools, err := agent.NewToolset(sched, store)
	if err != nil {
		lg.Fatal().Err(err).Msg("tool catalog invalid")
	}
	assistant := agent.NewService(llm, tools, gate,
		agent.WithServiceLogger(logging.Component(lg, "agent")),
	)

	if cfg.JWTSecret == "" {
		lg.Warn().Msg("JWT secret not configured; protected routes will fail")
	}
	api := &controllers.API{
		DB:         db,
		Scheduling: sched,
		Agent:      assistant,
		JWTSecret:  []byte(cfg.JWTSecret),
		Log:        logging.Component(lg, "http"),
	}

	// ---- Fiber app with global error handler + body limit
	app := fiber.New(fiber.Config{
		ErrorHandler: middlewares.ErrorHandler(api.Log),
		BodyLimit:    cfg.BodyLimitBytes,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
		Output: api.Log,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: false, // using Bearer tokens, not cookies
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: cfg.RateLimitWin,
	}))

	routes.Register(app, api, db)

	// ---- Start
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		lg.Info().Msg("shutting down")
		if err := app.Shutdown(); err != nil {
			lg.Error().Err(err).Msg("shutdown failed")
		}
	}()

	lg.Info().Str("port", cfg.Port).Msg("API server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		lg.Fatal().Err(err).Msg("server stopped")
	}
}
