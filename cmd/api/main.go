package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"phone-otp/internal/config"
	"phone-otp/internal/firestore"
	"phone-otp/internal/gauth"
	apihttp "phone-otp/internal/http"
	"phone-otp/internal/repository"
	"phone-otp/internal/service"
	"phone-otp/internal/sms"

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

	// Una clave malformada es error de configuracion: abortar, no reintentar.
	signer, err := gauth.NewSigner(cfg.FirebaseClientEmail, cfg.FirebasePrivateKey)
	if err != nil {
		logger.Fatal("service account key", zap.Error(err))
	}
	tokens := gauth.NewTokenSource(signer)

	storeClient := firestore.NewClient("", cfg.FirebaseProjectID, tokens)
	userRepo := repository.NewFirestoreUserRepository(storeClient)

	smsSender := sms.NewDisabledSender("sms sender not configured")
	if cfg.TwilioAccountSID != "" {
		sender, err := sms.NewTwilioSender("", cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber)
		if err != nil {
			logger.Warn("twilio sender init failed", zap.Error(err))
		} else {
			smsSender = sender
		}
	}

	otpLimiter := service.NewOTPRateLimiter(cfg.OTPSendWindow, cfg.OTPSendMax)
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
			otpLimiter = service.NewRedisOTPRateLimiter(redisClient, logger, cfg.OTPSendWindow, cfg.OTPSendMax)
		}
		cancel()
	}

	otpSvc := service.NewOTPService(logger, userRepo, smsSender, otpLimiter)
	otpHandler := apihttp.NewOTPHandler(logger, otpSvc)
	router := apihttp.NewRouter(logger, otpHandler)

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
