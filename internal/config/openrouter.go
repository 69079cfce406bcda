package config

import "sync"

type OpenRouterConfig struct {
	APIKey  string `env:"OPENROUTER_API_KEY"`
	Model   string `env:"OPENROUTER_MODEL" envDefault:"meta-llama/llama-3.1-70b-instruct:free"`
	BaseURL string `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	Enabled bool   `env:"OPENROUTER_ENABLED" envDefault:"false"`
	Referer string `env:"OPENROUTER_REFERER"`
}

var (
	openRouterConfig *OpenRouterConfig
	openRouterOnce   sync.Once
)

func LoadOpenRouterConfig() *OpenRouterConfig {
	openRouterOnce.Do(func() {
		openRouterConfig = &OpenRouterConfig{}
		mustParse(openRouterConfig)
	})
	return openRouterConfig
}
