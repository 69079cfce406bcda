package service

import (
	"github.com/fadilmartias/assessment-proctor/internal/config"
	"go.uber.org/zap"
)

// NvidiaService uses the NVIDIA NIM OpenAI-compatible endpoint.
type NvidiaService struct {
	*chatCompletionProvider
}

func NewNvidiaService(cfg *config.NvidiaConfig, creds *config.ProviderCredentials, log *zap.Logger) *NvidiaService {
	return &NvidiaService{
		chatCompletionProvider: newChatCompletionProvider(config.ProviderNvidia, cfg.Model, cfg.BaseURL, nil, creds, log),
	}
}
