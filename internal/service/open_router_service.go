package service

import (
	"github.com/fadilmartias/assessment-proctor/internal/config"
	"go.uber.org/zap"
)

const openRouterTitle = "Assessment Proctor"

type OpenRouterService struct {
	*chatCompletionProvider
}

func NewOpenRouterService(cfg *config.OpenRouterConfig, creds *config.ProviderCredentials, log *zap.Logger) *OpenRouterService {
	headers := map[string]string{"X-Title": openRouterTitle}
	if cfg.Referer != "" {
		headers["HTTP-Referer"] = cfg.Referer
	}
	return &OpenRouterService{
		chatCompletionProvider: newChatCompletionProvider(config.ProviderOpenRouter, cfg.Model, cfg.BaseURL, headers, creds, log),
	}
}
