package config

import (
	"sync"
	"time"
)

type GeminiConfig struct {
	APIKey         string        `env:"GEMINI_API_KEY"`
	Model          string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	Enabled        bool          `env:"GEMINI_ENABLED" envDefault:"true"`
	MaxRetries     int           `env:"GEMINI_MAX_RETRIES" envDefault:"2"`
	RequestTimeout time.Duration `env:"GEMINI_REQUEST_TIMEOUT" envDefault:"30s"`
	CircuitMax     int           `env:"GEMINI_CIRCUIT_MAX" envDefault:"5"`
}

var (
	geminiConfig *GeminiConfig
	geminiOnce   sync.Once
)

func LoadGeminiConfig() *GeminiConfig {
	geminiOnce.Do(func() {
		geminiConfig = &GeminiConfig{}
		mustParse(geminiConfig)
	})
	return geminiConfig
}
