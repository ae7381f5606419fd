package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/mux"
	"github.com/zjoart/go-sms-pay/cmd/routes"
	"github.com/zjoart/go-sms-pay/internal/company"
	"github.com/zjoart/go-sms-pay/internal/notify"
	"github.com/zjoart/go-sms-pay/pkg/config"
	"github.com/zjoart/go-sms-pay/pkg/database"
	"github.com/zjoart/go-sms-pay/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	database.Connect(cfg.DBUrl)

	redisClient := notify.NewRedisClient(cfg)

	// notification worker is optional: without a bot token events stay on
	// the queue and ingestion is unaffected
	if cfg.TelegramBotToken != "" {
		sender, err := notify.NewTelegramSender(cfg.TelegramBotToken)
		if err != nil {
			logger.Error("Failed to start telegram sender", logger.Fields{"error": err.Error()})
		} else {
			worker := notify.NewWorker(cfg, company.NewRepository(database.DB), redisClient, sender)
			worker.Start()
		}
	}

	r := mux.NewRouter()
	handler := routes.RegisterRoutes(r, cfg, redisClient)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("Server starting", logger.Fields{"port": cfg.Port, "env": cfg.Env})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Could not listen", logger.Fields{"port": cfg.Port, "error": err.Error()})
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	server.Shutdown(ctx)
	logger.Info("Server gracefully shut down")
}
