package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	myPostgresRepo "github.com/Miraines/MoonyAndStarry/taskchat-service/internal/adapters/db/postgres"
	myRedisRepo "github.com/Miraines/MoonyAndStarry/taskchat-service/internal/adapters/db/redis"
	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/adapters/transport/http/handler"
	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/app/auth/jwt"
	authsvc "github.com/Miraines/MoonyAndStarry/taskchat-service/internal/app/auth/service"
	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/app/chat/registry"
	chatsvc "github.com/Miraines/MoonyAndStarry/taskchat-service/internal/app/chat/service"
	tasksvc "github.com/Miraines/MoonyAndStarry/taskchat-service/internal/app/task/service"
	authrepo "github.com/Miraines/MoonyAndStarry/taskchat-service/internal/domain/auth/repo"
	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/infra/config"
	lg "github.com/Miraines/MoonyAndStarry/taskchat-service/internal/infra/log"
	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/infra/metrics"
	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/infra/migrate"
	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/infra/server"
	"golang.org/x/sync/errgroup"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		lg.Must("").Fatal("failed to load config", zap.Error(err))
	}

	zapLog := lg.Must(cfg.LogLevel)
	defer zapLog.Sync()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		zapLog.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		zapLog.Fatal("db handle", zap.Error(err))
	}
	defer sqlDB.Close()
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := migrate.Up(sqlDB); err != nil {
		zapLog.Fatal("run migrations", zap.Error(err))
	}

	var attempts authrepo.LoginAttemptRepo
	if cfg.RedisAddress != "" {
		redisCli := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisCli.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisCli.Ping(pingCtx).Err(); err != nil {
			// logins fail closed until redis is reachable
			zapLog.Warn("redis unreachable", zap.String("addr", cfg.RedisAddress), zap.Error(err))
		}
		cancel()
		attempts = myRedisRepo.NewRedisLoginAttemptRepo(redisCli)
	} else {
		zapLog.Info("REDIS_ADDRESS empty, login throttling disabled")
	}

	jwtUtil, err := jwt.NewJWTUtil(cfg)
	if err != nil {
		zapLog.Fatal("failed to init JWT util", zap.Error(err))
	}

	validate := validator.New()
	m := metrics.New()
	reg := registry.New()

	accountRepo := myPostgresRepo.NewPostgresAccountRepo(db)
	authService := authsvc.New(accountRepo, attempts, jwtUtil, reg, cfg, validate, zapLog)
	taskService := tasksvc.New(myPostgresRepo.NewPostgresTaskRepo(db), validate)
	chatService := chatsvc.New(reg, myPostgresRepo.NewPostgresMessageRepo(db), accountRepo, m, zapLog)

	router := handler.New(authService, taskService, chatService, cfg, m, zapLog).Router()

	rootCtx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		return server.StartHTTPServer(ctx, cfg, router, zapLog)
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case <-quit:
			zapLog.Info("shutdown signal received")
			cancel()
		case <-ctx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		zapLog.Error("server terminated", zap.Error(err))
	}
	cancel()
}
