package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/heybearc/quantshift-sub001/config"
	"github.com/heybearc/quantshift-sub001/db"
	"github.com/heybearc/quantshift-sub001/internal/auth/handler"
	"github.com/heybearc/quantshift-sub001/internal/auth/ratelimit"
	repo "github.com/heybearc/quantshift-sub001/internal/auth/repository/postgres"
	"github.com/heybearc/quantshift-sub001/internal/auth/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()

	dbPool, err := db.NewPostgresPool(ctx, cfg.DBURL)
	if err != nil {
		logger.Fatal("postgres connection failed", zap.Error(err))
	}
	defer dbPool.Close()

	redisClient, err := db.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		logger.Fatal("redis connection failed", zap.Error(err))
	}
	defer redisClient.Close()

	userRepo := repo.NewPostgresUserRepository(dbPool)
	sessionRepo := repo.NewPostgresSessionRepository(dbPool)
	auditRepo := repo.NewPostgresAuditRepository(dbPool)
	limiter := ratelimit.NewRedisLimiter(redisClient)
	tokenService := service.NewTokenService(cfg.AccessTokenSecret, cfg.AccessExpiryMin, cfg.RefreshExpiryMin)
	loginService := service.NewLoginService(userRepo, sessionRepo, auditRepo, tokenService, limiter, cfg, logger)
	authHandler := handler.NewAuthHandler(loginService, tokenService, cfg, logger)

	go sweepExpiredSessions(ctx, sessionRepo, logger)

	app := fiber.New()
	handler.RegisterRoutes(app, authHandler)

	logger.Info("starting auth service", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

// sweepExpiredSessions clears expired refresh tokens once an hour. Revocation
// checks never match them anyway; this keeps the table from growing unbounded.
func sweepExpiredSessions(ctx context.Context, sessions *repo.PostgresSessionRepository, logger *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := sessions.DeleteExpired(ctx)
			if err != nil {
				logger.Warn("session sweep failed", zap.Error(err))
				continue
			}
			if deleted > 0 {
				logger.Info("swept expired sessions", zap.Int64("deleted", deleted))
			}
		}
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
