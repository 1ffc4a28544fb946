package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gymgo/internal/api"
	"gymgo/internal/auth"
	"gymgo/internal/checkout"
	"gymgo/internal/classes"
	"gymgo/internal/config"
	dto "gymgo/internal/entity"
	"gymgo/internal/members"
	"gymgo/internal/payment"
	"gymgo/internal/token"
	log "gymgo/utils/logger"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Errorf("Failed to load config: %v", err))
	}

	logger := log.NewLogger(cfg)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var tokens token.Store
	if cfg.Redis.URL != "" {
		rdb := token.InitRedis(cfg, logger)
		defer rdb.Close()
		tokens = token.NewRedisStore(rdb, cfg.Business.ID)
	} else {
		tokens = token.NewMemoryStore()
	}

	apiClient := api.New(cfg.API.BaseURL, tokens, logger)
	paymentClient := payment.New(apiClient, tokens, logger, time.Duration(cfg.API.TimeoutMS)*time.Millisecond)
	session := checkout.NewSession(paymentClient)

	authService := auth.NewService(apiClient, tokens, logger)
	memberService := members.NewService(apiClient, logger)

	email := os.Getenv("GYMGO_EMAIL")
	password := os.Getenv("GYMGO_PASSWORD")
	if email != "" {
		if _, err := authService.Login(ctx, email, password); err != nil {
			logger.Fatal("Login failed", zap.Error(err))
		}

		todays, err := memberService.Classes(ctx, time.Now().Format("2006-01-02"))
		if err != nil {
			logger.Error("Failed to list classes", zap.Error(err))
		} else {
			for _, class := range todays {
				logger.Info("Class",
					zap.String("id", class.ID),
					zap.String("name", class.Name),
					zap.Int("spots_left", class.SpotsLeft))
			}
		}
	}

	// Demo checkout: pay for a class with a pre-tokenized card.
	if classID := os.Getenv("GYMGO_PAY_CLASS"); classID != "" {
		amount, err := payment.ParseAmount(os.Getenv("GYMGO_PAY_AMOUNT"))
		if err != nil {
			logger.Fatal("Invalid GYMGO_PAY_AMOUNT", zap.Error(err))
		}
		resp, err := session.Process(ctx, &dto.PaymentRequest{
			Amount:      amount,
			Currency:    "EUR",
			Description: "Class booking",
			Method:      dto.MethodStripe,
			BusinessID:  cfg.Business.ID,
			ClassID:     classID,
			StripeToken: os.Getenv("GYMGO_PAY_TOKEN"),
		}, nil)
		if err != nil {
			logger.Fatal("Payment failed", zap.Error(err))
		}
		logger.Info("Payment succeeded",
			zap.String("transaction_id", resp.TransactionID),
			zap.String("amount", payment.FormatAmount(amount, "EUR")))
	}

	if cfg.API.LiveURL != "" {
		updates, err := classes.NewLiveFeed(cfg.API.LiveURL, tokens, logger).Subscribe(ctx)
		if err != nil {
			logger.Fatal("Failed to subscribe to live feed", zap.Error(err))
		}
		for update := range updates {
			logger.Info("Availability changed",
				zap.String("class_id", update.ClassID),
				zap.Int("spots_left", update.SpotsLeft))
		}
	}

	<-ctx.Done()
	logger.Info("Shutting down")
}
