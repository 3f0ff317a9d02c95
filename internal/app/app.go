package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/vitalpoint/wellness-backend/internal/config"
	"github.com/vitalpoint/wellness-backend/internal/db"
	"github.com/vitalpoint/wellness-backend/internal/http/api"
	"github.com/vitalpoint/wellness-backend/internal/ratelimit"
	log "github.com/sirupsen/logrus"
)

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	return db.Migrate(conn)
}

// RunServer boots the API server with database-backed components.
func RunServer(ctx context.Context, cfg config.AppConfig, port int) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	jwtConfig, _ := config.LoadJWTConfig(configPath)
	if jwtConfig.Secret == "" {
		log.Warn("jwt secret not configured, all API requests will be rejected")
	}

	rlConfig := config.LoadRateLimitConfig(configPath)
	limiter := ratelimit.NewManager(func() ratelimit.Settings {
		return ratelimit.Settings{
			PerSecond:     rlConfig.PerSecond,
			RedisEnabled:  rlConfig.RedisAddr != "",
			RedisAddr:     rlConfig.RedisAddr,
			RedisPassword: rlConfig.RedisPassword,
			RedisDB:       rlConfig.RedisDB,
			RedisPrefix:   rlConfig.RedisPrefix,
		}
	}, nil, nil)

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	api.RegisterRoutes(r, conn, jwtConfig, rlConfig, limiter)

	addr := fmt.Sprintf(":%d", port)
	log.WithField("addr", addr).Info("starting server")
	return r.Run(addr)
}
