package config

import "sync"

type NvidiaConfig struct {
	APIKey  string `env:"NVIDIA_API_KEY"`
	Model   string `env:"NVIDIA_MODEL" envDefault:"meta/llama-3.1-70b-instruct"`
	BaseURL string `env:"NVIDIA_BASE_URL" envDefault:"https://integrate.api.nvidia.com/v1"`
	Enabled bool   `env:"NVIDIA_ENABLED" envDefault:"false"`
}

var (
	nvidiaConfig *NvidiaConfig
	nvidiaOnce   sync.Once
)

func LoadNvidiaConfig() *NvidiaConfig {
	nvidiaOnce.Do(func() {
		nvidiaConfig = &NvidiaConfig{}
		mustParse(nvidiaConfig)
	})
	return nvidiaConfig
}
