package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/coursebuilder/backend/docs"
	"github.com/coursebuilder/backend/internal/config"
	"github.com/coursebuilder/backend/internal/database"
	"github.com/coursebuilder/backend/internal/handlers"
	"github.com/coursebuilder/backend/internal/jobs"
	"github.com/coursebuilder/backend/internal/logger"
	"github.com/coursebuilder/backend/internal/middleware"
	"github.com/coursebuilder/backend/internal/repositories"
	"github.com/coursebuilder/backend/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// @title Course Builder API
// @version 1.0
// @description API for authoring e-learning courses from reusable content blocks

// @contact.name API Support

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting Course Builder Service")

	// Connect to database
	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := database.Connect(connectCtx, cfg.DSN())
	cancelConnect()
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := database.Migrate(db, cfg.Migrations.Path, cfg.Migrations.Table); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	logger.Logger.Info("Migrations applied", zap.String("path", cfg.Migrations.Path))

	// Initialize repositories
	blockRepo := repositories.NewBlockRepository(db)
	universeRepo := repositories.NewUniverseRepository(db)
	assignmentRepo := repositories.NewAssignmentRepository(db)
	courseRepo := repositories.NewCourseRepository(db, assignmentRepo)

	// Initialize services
	blockService := services.NewBlockService(blockRepo, logger.Logger)
	universeService := services.NewUniverseService(universeRepo, logger.Logger)
	courseService := services.NewCourseService(courseRepo, assignmentRepo, universeRepo, logger.Logger)

	// Schedule background jobs
	if spec := cfg.Jobs.UnusedBlockReportSchedule; spec != "" {
		scheduler, err := jobs.Schedule(spec, jobs.NewUnusedBlockReport(blockService, logger.Logger))
		if err != nil {
			logger.Logger.Fatal("Failed to schedule unused block report", zap.Error(err))
		}
		scheduler.Start()
		defer scheduler.Stop()
		logger.Logger.Info("Unused block report scheduled", zap.String("schedule", spec))
	}

	// Initialize handlers
	courseHandler := handlers.NewCourseHandler(courseService, logger.Logger)
	blockHandler := handlers.NewBlockHandler(blockService, logger.Logger)
	universeHandler := handlers.NewUniverseHandler(universeService, logger.Logger)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggerMiddleware(logger.Logger))
	r.Use(middleware.RecoveryMiddleware(logger.Logger))
	r.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(cfg.Server.RateLimitPerMinute, time.Minute))
	r.Use(middleware.RequestSizeLimitMiddleware(cfg.Server.MaxRequestSize))

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	r.Route("/api/v1", func(r chi.Router) {
		courseHandler.RegisterRoutes(r)
		blockHandler.RegisterRoutes(r)
		universeHandler.RegisterRoutes(r)
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}
