package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stoa/internal/cache"
	"stoa/internal/config"
	"stoa/internal/database"
	"stoa/internal/handler"
	"stoa/internal/queue"
	"stoa/internal/ratelimit"
	appredis "stoa/internal/redis"
	"stoa/internal/repository"
	"stoa/internal/service"
	"stoa/internal/worker"
)

func Run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Connect to Database
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// 3. Connect to Redis
	redisClient, err := appredis.NewClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	// 4. Repositories
	userRepo := repository.NewUserRepository(db)
	bookRepo := repository.NewBookRepository(db)
	chapterRepo := repository.NewChapterRepository(db)
	discussionRepo := repository.NewDiscussionRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	// 5. Redis-backed infrastructure
	threadCache := cache.NewDiscussionCache(redisClient.Client)
	searchCache := cache.NewSearchCache(redisClient.Client)
	publisher := queue.NewPublisher(redisClient.Client)
	consumer := queue.NewConsumer(redisClient.Client)
	summaryLimiter := ratelimit.NewRedisLimiter(
		redisClient.Client,
		"ratelimit:summary",
		cfg.SummaryRateLimit,
		time.Duration(cfg.SummaryRateWindow)*time.Second,
	)

	// 6. Services
	userService := service.NewUserService(userRepo, cfg)
	libraryService := service.NewLibraryService(bookRepo, chapterRepo, activityRepo, publisher)
	discussionService := service.NewDiscussionService(discussionRepo, bookRepo, chapterRepo, threadCache)
	summaryService := service.NewSummaryService(cfg)
	searchService := service.NewSearchService(searchCache)

	// Cover uploads are optional; without R2 credentials the endpoint is
	// simply not mounted.
	var coverHandler *handler.CoverHandler
	coverService, err := service.NewCoverService(context.Background(), cfg)
	if err != nil {
		log.Printf("Cover uploads disabled: %v", err)
	} else {
		coverHandler = handler.NewCoverHandler(coverService)
	}

	// 7. Activity worker
	workerManager := worker.NewManager(consumer, worker.NewHandler(activityRepo), worker.DefaultManagerConfig())
	if err := workerManager.Start(context.Background()); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}
	defer workerManager.Stop()

	// 8. Router + server
	router := NewRouter(RouterConfig{
		AuthHandler:       handler.NewAuthHandler(userService),
		LibraryHandler:    handler.NewLibraryHandler(libraryService),
		DiscussionHandler: handler.NewDiscussionHandler(discussionService),
		SummaryHandler:    handler.NewSummaryHandler(summaryService, summaryLimiter),
		SearchHandler:     handler.NewSearchHandler(searchService),
		CoverHandler:      coverHandler,
		JWTSecret:         cfg.JWTSecret,
	})

	server := &stdhttp.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on :%s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		log.Printf("Received %v, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Println("Server stopped")
	return nil
}
