package config

import (
	"sync"
	"time"
)

type AIConfig struct {
	// AttemptTimeout bounds one provider attempt before the chain falls through.
	AttemptTimeout time.Duration `env:"AI_ATTEMPT_TIMEOUT" envDefault:"20s"`
	Temperature    float64       `env:"AI_TEMPERATURE" envDefault:"0.3"`
	// CredentialsRefresh re-reads provider keys from system_settings; zero disables it.
	CredentialsRefresh time.Duration `env:"AI_CREDENTIALS_REFRESH" envDefault:"0s"`
}

var (
	aiConfig *AIConfig
	aiOnce   sync.Once
)

func LoadAIConfig() *AIConfig {
	aiOnce.Do(func() {
		aiConfig = &AIConfig{}
		mustParse(aiConfig)
	})
	return aiConfig
}
