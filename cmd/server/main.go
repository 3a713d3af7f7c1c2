package main

import (
	"context"
	"log"
	"os"

	"github.com/valyala/fasthttp"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/taskboard/api/handler"
	"github.com/fastygo/taskboard/internal/config"
	"github.com/fastygo/taskboard/internal/infrastructure/boltdb"
	"github.com/fastygo/taskboard/internal/infrastructure/buffer"
	"github.com/fastygo/taskboard/internal/infrastructure/monitor"
	natsInfra "github.com/fastygo/taskboard/internal/infrastructure/nats"
	pgInfra "github.com/fastygo/taskboard/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/taskboard/internal/infrastructure/redis"
	"github.com/fastygo/taskboard/internal/middleware"
	"github.com/fastygo/taskboard/internal/router"
	"github.com/fastygo/taskboard/internal/services"
	"github.com/fastygo/taskboard/internal/services/lifecycle"
	"github.com/fastygo/taskboard/pkg/httpcontext"
	"github.com/fastygo/taskboard/pkg/logger"
	"github.com/fastygo/taskboard/repository"
	boltRepo "github.com/fastygo/taskboard/repository/bolt"
	"github.com/fastygo/taskboard/repository/postgres"
	redisRepo "github.com/fastygo/taskboard/repository/redis"
	"github.com/fastygo/taskboard/usecase"
	taskUC "github.com/fastygo/taskboard/usecase/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Service:  cfg.AppName,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	mon := monitor.New(cfg.Health.Schedule, 0, zapLogger)

	var taskRepo repository.TaskRepository
	switch cfg.Storage.Driver {
	case config.StorageBolt:
		db, err := boltdb.Open(cfg.Bolt.Path, boltRepo.TasksBucket)
		if err != nil {
			zapLogger.Fatal("failed to open bolt store", zap.Error(err))
		}
		manager.Register("bolt", func(ctx context.Context) error {
			return db.Close()
		})
		mon.Register("bolt", func(ctx context.Context) error { return boltdb.Ping(db) })
		taskRepo = boltRepo.NewTaskRepository(db)
		zapLogger.Info("using bolt task store", zap.String("path", cfg.Bolt.Path), zap.Int("tasks", boltSize(db)))

	default:
		if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
			zapLogger.Fatal("migrations failed", zap.Error(err))
		}
		pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
		if err != nil {
			zapLogger.Fatal("postgres connection failed", zap.Error(err))
		}
		manager.Register("postgres", func(ctx context.Context) error {
			pool.Close()
			return nil
		})
		mon.Register("postgres", pgInfra.Ping(pool))
		taskRepo = postgres.NewTaskRepository(pool)
	}

	if cfg.Redis.URL != "" {
		redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis, zapLogger)
		if err != nil {
			zapLogger.Fatal("redis connection failed", zap.Error(err))
		}
		manager.Register("redis", func(ctx context.Context) error {
			return redisClient.Close()
		})
		mon.Register("redis", redisInfra.Ping(redisClient))
		taskRepo = redisRepo.NewCachedTaskRepository(taskRepo, redisClient, cfg.Redis.CacheTTL, zapLogger)
	}

	var events usecase.EventPublisher
	if cfg.NATS.URL != "" {
		nc, err := natsInfra.Connect(cfg.NATS, cfg.AppName, zapLogger)
		if err != nil {
			zapLogger.Fatal("nats connection failed", zap.Error(err))
		}
		manager.Register("nats", func(ctx context.Context) error {
			return nc.Drain()
		})
		mon.Register("nats", natsInfra.Ping(nc))
		events = natsInfra.NewPublisher(nc, cfg.NATS.SubjectPrefix)

		if cfg.Outbox.Enabled {
			store, err := buffer.Open(cfg.Outbox.Path, buffer.DefaultBucket)
			if err != nil {
				zapLogger.Fatal("failed to open event outbox", zap.Error(err))
			}
			manager.Register("outbox_store", func(ctx context.Context) error {
				return store.Close()
			})
			mon.Register("outbox", func(ctx context.Context) error { return store.Ping() })

			outbox := services.NewOutbox(events, store, func() bool {
				return mon.ServiceOnline("nats")
			}, zapLogger, services.OutboxConfig{
				Interval:   cfg.Outbox.Interval,
				BatchSize:  cfg.Outbox.BatchSize,
				MaxRetries: cfg.Outbox.MaxRetries,
				MaxAge:     cfg.Outbox.MaxAge,
			})
			outbox.Start()
			manager.Register("outbox", func(ctx context.Context) error {
				outbox.Stop(ctx)
				return nil
			})
			events = outbox
		}
	}

	if err := mon.Start(); err != nil {
		zapLogger.Fatal("health monitor failed to start", zap.Error(err))
	}
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop(ctx)
		return nil
	})

	taskUseCase := taskUC.New(taskRepo, events, zapLogger)
	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	var metrics *middleware.Metrics
	if cfg.HTTP.EnableMetrics {
		metrics = middleware.NewMetrics("taskboard")
	}

	handler := router.New(router.Handlers{
		Task:   apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}, router.Options{
		Metrics:     metrics,
		EnablePprof: cfg.HTTP.EnablePprof,
		Logger:      zapLogger,
	})

	server := &fasthttp.Server{
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	zapLogger.Info("server started",
		zap.String("address", cfg.Address()),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("env", cfg.Environment))
	manager.Run("http_server", func() error {
		return server.ListenAndServe(cfg.Address())
	})

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
	if err := manager.Err(); err != nil {
		zapLogger.Error("server exited with error", zap.Error(err))
		_ = zapLogger.Sync()
		os.Exit(1)
	}
}

func boltSize(db *bolt.DB) int {
	n, err := boltdb.Size(db, boltRepo.TasksBucket)
	if err != nil {
		return 0
	}
	return n
}
