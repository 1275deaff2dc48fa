package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/think2win/quiz-platform/internal/config"
	"github.com/think2win/quiz-platform/internal/handler"
	"github.com/think2win/quiz-platform/internal/middleware"
	pgRepo "github.com/think2win/quiz-platform/internal/repository/postgres"
	redisRepo "github.com/think2win/quiz-platform/internal/repository/redis"
	"github.com/think2win/quiz-platform/internal/service"
	ws "github.com/think2win/quiz-platform/internal/websocket"
	"github.com/think2win/quiz-platform/pkg/auth"
	"github.com/think2win/quiz-platform/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	userRepo := pgRepo.NewUserRepo(db)
	quizRepo := pgRepo.NewQuizRepo(db)
	questionRepo := pgRepo.NewQuestionRepo(db)
	attemptRepo := pgRepo.NewAttemptRepo(db)
	ledgerRepo := pgRepo.NewLedgerRepo(db)
	grantRepo := pgRepo.NewAccessGrantRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Проверка access-токенов внешнего IdP
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	// WebSocket-хаб для уведомлений о результатах
	hub := ws.NewHub()
	go hub.Run()

	// Инициализируем сервисы
	walletService := service.NewWalletService(userRepo, ledgerRepo, grantRepo, quizRepo, cacheRepo, db, cfg.Wallet.AccessWindow())
	evaluationService := service.NewEvaluationService(quizRepo, questionRepo, attemptRepo, userRepo, db, hub)
	quizService := service.NewQuizService(quizRepo, cacheRepo, cfg.Cache.QuizListTTL())
	attemptService := service.NewAttemptService(attemptRepo, quizRepo, questionRepo, walletService)

	// Инициализируем обработчики
	walletHandler := handler.NewWalletHandler(walletService)
	evaluationHandler := handler.NewEvaluationHandler(evaluationService)
	quizHandler := handler.NewQuizHandler(quizService, attemptService, walletService)
	wsHandler := handler.NewWSHandler(hub, jwtService)

	// Инициализируем middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService)

	// Инициализируем роутер Gin
	router := gin.Default()

	isProduction := gin.Mode() == gin.ReleaseMode
	if isProduction {
		// Production: не доверять прокси-заголовкам
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		// Development: доверяем localhost
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Настраиваем маршруты API
	api := router.Group("/api")
	{
		// Кошелек
		wallet := api.Group("/wallet")
		wallet.Use(authMiddleware.RequireAuth())
		{
			wallet.POST("/deduct", walletHandler.Deduct)
			wallet.GET("/balance", walletHandler.GetBalance)
			wallet.GET("/ledger", walletHandler.GetLedger)
		}

		// Викторины
		quizzes := api.Group("/quizzes")
		{
			quizzes.GET("", quizHandler.ListQuizzes)

			quizWithID := quizzes.Group("/:id")
			quizWithID.Use(middleware.ExtractUintParam("id", "quizID"))
			{
				quizWithID.GET("", quizHandler.GetQuiz)

				authedQuizzes := quizWithID.Group("")
				authedQuizzes.Use(authMiddleware.RequireAuth())
				{
					authedQuizzes.GET("/with-questions", quizHandler.GetQuizWithQuestions)
					authedQuizzes.POST("/attempts", quizHandler.SubmitAttempt)
					authedQuizzes.GET("/my-result", quizHandler.GetMyResult)
				}
			}
		}

		// Административные маршруты
		admin := api.Group("/admin")
		admin.Use(authMiddleware.RequireAuth(), authMiddleware.AdminOnly())
		{
			admin.POST("/quiz-evaluation", evaluationHandler.Evaluate)

			adminQuiz := admin.Group("/quizzes/:id")
			adminQuiz.Use(middleware.ExtractUintParam("id", "quizID"))
			{
				adminQuiz.GET("/evaluation-report", evaluationHandler.ExportReport)
			}
		}
	}

	// WebSocket маршрут
	router.GET("/ws", wsHandler.HandleConnection)

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	// Ждем сигнал остановки
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited properly")
}
