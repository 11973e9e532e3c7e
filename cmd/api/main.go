package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"contacts-api/internal/config"
	"contacts-api/internal/db"
	"contacts-api/internal/email"
	apihttp "contacts-api/internal/http"
	"contacts-api/internal/repository"
	"contacts-api/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if err := db.RunMigrations(ctx, cfg.DatabaseURL); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	userRepo := repository.NewPgUserRepository(pool)
	contactRepo := repository.NewPgContactRepository(pool)

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	var resendLimiter service.ResendRateLimiter
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			resendLimiter = service.NewRedisResendLimiter(redisClient, 10*time.Minute, 3)
		}
		cancel()
	}

	jwtSvc := service.NewJWTService(cfg.JWTSecret, time.Duration(cfg.JWTTTLMinutes)*time.Minute)

	userSvc := service.NewUserService(logger, userRepo, emailSender, jwtSvc, resendLimiter, cfg.BaseURL)
	avatarSvc, err := service.NewAvatarService(logger, userRepo, cfg.AvatarDir, cfg.UploadTmpDir)
	if err != nil {
		logger.Fatal("avatar dirs", zap.Error(err))
	}
	contactSvc := service.NewContactService(logger, contactRepo)

	userHandler := apihttp.NewUserHandler(logger, userSvc, avatarSvc)
	contactHandler := apihttp.NewContactHandler(logger, contactSvc)
	authMW := apihttp.AuthMiddleware(jwtSvc, userRepo)
	router := apihttp.NewRouter(logger, userHandler, contactHandler, authMW, cfg.AvatarDir)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
