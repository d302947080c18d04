package main

import (
	"net/http"

	"saturn-chat/internal/api"
	"saturn-chat/internal/chat"
	"saturn-chat/internal/config"
	"saturn-chat/internal/db"
	"saturn-chat/internal/llm"

	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Load()

	database, err := db.New(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to initialize database",
			zap.Error(err),
			zap.String("dbPath", cfg.DBPath))
	}
	defer database.Close()

	llmClient, err := llm.New(
		cfg.LLMBaseURL,
		cfg.LLMAPIKey,
		cfg.LLMModel,
		cfg.MaxPromptTokens,
		logger,
	)
	if err != nil {
		logger.Fatal("failed to initialize LLM client", zap.Error(err))
	}

	chatService := chat.NewService(database, llmClient, logger)
	handler := api.NewHandler(database, chatService, logger)

	addr := ":" + cfg.Port
	logger.Info("starting server", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, handler.Routes()); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
