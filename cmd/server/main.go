package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"strive/internal/config"
	"strive/internal/database"
	"strive/internal/handlers"
	"strive/internal/jobs"
	"strive/internal/logging"
	"strive/internal/middleware"
	"strive/internal/services"
	"strive/pkg/auth"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	// Structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting Strive Server...")

	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s, Environment: %s, Quest timezone: %s)",
		cfg.Port, cfg.Environment, cfg.Location())

	// Storage: MongoDB when configured, otherwise in-memory stores
	var (
		mongoDB   *database.MongoDB
		questRepo services.QuestRepository
		workouts  services.WorkoutRepository
		userRepo  services.UserRepository
	)
	if cfg.MongoURI != "" {
		log.Println("🔗 Connecting to MongoDB...")
		var err error
		mongoDB, err = database.NewMongoDB(cfg.MongoURI)
		if err != nil {
			log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
		}
		defer mongoDB.Close(context.Background())

		initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := mongoDB.Initialize(initCtx); err != nil {
			cancel()
			log.Fatalf("❌ Failed to initialize MongoDB: %v", err)
		}
		questRepo = services.NewQuestStore(initCtx, mongoDB)
		cancel()

		workouts = services.NewWorkoutStore(mongoDB)
		userRepo = services.NewUserStore(mongoDB)
	} else {
		if cfg.IsProduction() {
			log.Fatal("❌ MONGODB_URI is required in production")
		}
		log.Println("⚠️  MONGODB_URI not set - using in-memory stores (data is lost on restart)")
		questRepo = services.NewMemoryQuestStore()
		workouts = services.NewMemoryWorkoutStore()
		userRepo = services.NewMemoryUserStore()
	}
	userService := services.NewUserService(userRepo)

	// Redis shares quest locks and generation rate limits across instances
	var redisService *services.RedisService
	var locker services.SlotLocker
	if cfg.RedisURL != "" {
		var err error
		redisService, err = services.NewRedisService(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️  Failed to connect to Redis: %v (falling back to in-process locks)", err)
		} else {
			defer redisService.Close()
			locker = services.NewRedisSlotLocker(redisService, 2*cfg.LLMTimeout)
			log.Println("🔒 Quest slot locks shared through Redis")
		}
	}
	if locker == nil {
		locker = services.NewLocalSlotLocker()
	}

	// Text generator
	var generator services.TextGenerator
	if cfg.UseMockAI {
		log.Println("🤖 USE_MOCK_AI set - quests come from the deterministic mock generator")
		generator = services.NewMockTextGenerator()
	} else {
		if cfg.LLMAPIKey == "" {
			log.Println("⚠️  LLM_API_KEY not set - generation requests will likely be rejected by the provider")
		}
		chat, err := services.NewChatCompletionGenerator(services.ChatCompletionConfig{
			BaseURL:           cfg.LLMBaseURL,
			APIKey:            cfg.LLMAPIKey,
			Model:             cfg.LLMModel,
			Temperature:       cfg.LLMTemperature,
			MaxTokens:         cfg.LLMMaxTokens,
			Timeout:           cfg.LLMTimeout,
			RequestsPerMinute: cfg.LLMRequestsPerMinute,
		})
		if err != nil {
			log.Fatalf("❌ Failed to configure text generator: %v", err)
		}
		generator = chat
		log.Printf("🤖 Text generator: %s (%s)", cfg.LLMModel, cfg.LLMBaseURL)
	}

	// Difficulty directives, hot-reloaded when a file is configured
	prompts, err := config.NewQuestPrompts(cfg.QuestPromptsFile, services.DefaultDifficultyDirectives)
	if err != nil {
		log.Fatalf("❌ Failed to load quest prompts: %v", err)
	}
	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go prompts.Watch(watchCtx)

	metrics := services.InitMetrics()

	questService := services.NewQuestService(questRepo, workouts, userService, generator, locker, services.QuestServiceConfig{
		HistoryLimit:   cfg.QuestHistoryLimit,
		MaxRetries:     cfg.QuestGenerationRetries,
		AttemptTimeout: cfg.LLMTimeout,
		Location:       cfg.Location(),
		Directives:     prompts,
	})
	questService.SetMetrics(metrics)

	workoutService := services.NewWorkoutService(workouts, questService)
	workoutService.SetMetrics(metrics)

	// JWT auth (dev bypass when JWT_SECRET is unset outside production)
	var jwtAuth *auth.LocalJWTAuth
	if cfg.JWTSecret != "" {
		jwtAuth, err = auth.NewLocalJWTAuth(cfg.JWTSecret, 0)
		if err != nil {
			log.Fatalf("❌ Failed to initialize JWT auth: %v", err)
		}
		log.Println("✅ JWT authentication enabled")
	} else {
		if cfg.IsProduction() {
			log.Fatal("❌ JWT_SECRET is required in production")
		}
		log.Printf("⚠️  JWT_SECRET not set - all requests run as dev user %s", middleware.DevUserID)
	}

	// Background jobs
	jobScheduler, err := jobs.NewJobScheduler(cfg.Location())
	if err != nil {
		log.Fatalf("❌ Failed to create job scheduler: %v", err)
	}
	sweepJob, err := jobs.NewQuestExpirySweepJob(questService, cfg.QuestSweepCron, cfg.Location())
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	if err := jobScheduler.Register("quest_expiry_sweep", sweepJob); err != nil {
		log.Fatalf("❌ %v", err)
	}
	jobScheduler.Start()

	app := fiber.New(fiber.Config{
		AppName:      "Strive v1.0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // forced generation may retry the generator
		IdleTimeout:  2 * time.Minute,
		BodyLimit:    1 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	prometheus := fiberprometheus.New("strive")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	rateLimitConfig := middleware.LoadRateLimitConfig()
	log.Printf("🛡️  [RATE-LIMIT] Loaded config: Global=%d/min, Auth=%d/min, QuestGenerate=%d/min",
		rateLimitConfig.GlobalAPIMax,
		rateLimitConfig.AuthenticatedMax,
		rateLimitConfig.QuestGenerateMax,
	)

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: cfg.AllowedOrigins != "*",
	}))
	log.Printf("🔒 [SECURITY] CORS allowed origins: %s", cfg.AllowedOrigins)

	app.Use("/api", middleware.GlobalAPIRateLimiter(rateLimitConfig))

	// Health reports on the optional backends; pass untyped nils when absent
	var mongoPinger, redisPinger handlers.Pinger
	if mongoDB != nil {
		mongoPinger = mongoDB
	}
	if redisService != nil {
		redisPinger = redisService
	}
	app.Get("/health", handlers.NewHealthHandler(mongoPinger, redisPinger).Handle)

	devHandler := handlers.NewDevHandler(workoutService, userService, jwtAuth)
	if !cfg.IsProduction() {
		// Registered ahead of the authenticated group so it is reachable without a token
		app.Post("/api/dev/token", devHandler.IssueToken)
	}

	api := app.Group("/api", middleware.LocalAuthMiddleware(jwtAuth), middleware.AuthenticatedRateLimiter(rateLimitConfig))

	handlers.RegisterQuestRoutes(api, handlers.NewQuestHandler(questService),
		middleware.QuestGenerateRateLimiter(rateLimitConfig, redisService))
	handlers.RegisterWorkoutRoutes(api, handlers.NewWorkoutHandler(workoutService, userService))
	handlers.RegisterUserRoutes(api, handlers.NewUserHandler(userService))

	if !cfg.IsProduction() {
		api.Post("/dev/populate-workouts", devHandler.PopulateWorkouts)
		log.Println("🧪 Dev routes enabled: POST /api/dev/token, POST /api/dev/populate-workouts")
	}

	log.Printf("✅ Server ready on port %s", cfg.Port)
	log.Printf("📡 Health check: http://localhost:%s/health", cfg.Port)
	log.Printf("🕐 Background jobs: quest expiry sweep (%s)", cfg.QuestSweepCron)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		jobScheduler.Stop()
		stopWatch()

		if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
