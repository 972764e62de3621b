package http

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"videotube_backend/internal/cache"
	"videotube_backend/internal/config"
	"videotube_backend/internal/database"
	"videotube_backend/internal/handler"
	"videotube_backend/internal/logger"
	"videotube_backend/internal/queue"
	rediscli "videotube_backend/internal/redis"
	"videotube_backend/internal/repository"
	"videotube_backend/internal/service"
	"videotube_backend/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func Run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.IsProduction())
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Connect to Database
	userRepo, closeDB, err := openUserRepository(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeDB()

	// 3. Wire services and handlers
	creds, err := service.NewCredentialService(service.CredentialOptionsFromConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to init credentials: %w", err)
	}
	media, err := service.NewMediaService(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to init media service: %w", err)
	}
	userService := service.NewUserService(userRepo, creds, media, log)

	// 4. Optional Redis: profile cache and async media cleanup
	if cfg.RedisEnabled() {
		redisClient, err := rediscli.Connect(ctx, cfg.RedisURL, log)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()

		userService.SetUserCache(cache.NewUserCache(redisClient.Client, time.Duration(cfg.UserCacheTTL)*time.Second))
		userService.SetMediaCleaner(queue.NewMediaCleaner(queue.NewPublisher(redisClient.Client, log)))

		workerCfg := worker.DefaultManagerConfig()
		workerCfg.WorkerCount = cfg.CleanupWorkers
		cleanup := worker.NewManager(
			queue.NewConsumer(redisClient.Client, log),
			worker.NewHandler(media, log),
			log,
			workerCfg,
		)
		if err := cleanup.Start(ctx); err != nil {
			return fmt.Errorf("failed to start cleanup workers: %w", err)
		}
		defer cleanup.Stop()
	} else {
		log.Info("REDIS_URL not set, profile cache disabled and media cleanup runs inline")
	}

	router := NewRouter(RouterConfig{
		AuthHandler: handler.NewAuthHandler(userService, creds, cfg),
		UserHandler: handler.NewUserHandler(userService, cfg),
		Tokens:      creds,
		Users:       userService,
		Logger:      log,
	})

	// 5. Setup Server
	srv := &stdhttp.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv), zap.String("db_driver", cfg.DBDriver))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, stdhttp.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		log.Info("server stopped gracefully")
	}

	return nil
}

// openUserRepository connects the store selected by DB_DRIVER and returns
// the repository together with a function that releases the connection.
func openUserRepository(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.UserRepository, func(), error) {
	switch cfg.DBDriver {
	case config.DriverMongo:
		client, db, err := database.ConnectMongo(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				log.Warn("failed to disconnect mongo", zap.Error(err))
			}
		}
		return repository.NewMongoUserRepository(db.Collection(database.UsersCollection)), closeFn, nil

	default:
		db, err := database.Connect(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := db.Close(); err != nil {
				log.Warn("failed to close database", zap.Error(err))
			}
		}
		return repository.NewUserRepository(db), closeFn, nil
	}
}
