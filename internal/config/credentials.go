package config

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderNvidia     = "nvidia"
)

// SettingKey is the system_settings key holding a provider's API key.
func SettingKey(provider string) string {
	return provider + "_api_key"
}

// SettingsSource reads a single value from the settings store. found is false when the
// key does not exist.
type SettingsSource interface {
	GetValue(ctx context.Context, key string) (value string, found bool, err error)
}

// ProviderCredentials holds the API keys used by the AI providers. Keys are seeded from
// the environment and overlaid from the settings store on every Refresh. Nothing is
// fetched lazily.
type ProviderCredentials struct {
	mu          sync.RWMutex
	seeds       map[string]string
	keys        map[string]string
	source      SettingsSource
	refreshedAt time.Time
}

func NewProviderCredentials(source SettingsSource, seeds map[string]string) *ProviderCredentials {
	c := &ProviderCredentials{
		seeds:  make(map[string]string, len(seeds)),
		keys:   make(map[string]string, len(seeds)),
		source: source,
	}
	for p, k := range seeds {
		c.seeds[p] = k
		c.keys[p] = k
	}
	return c
}

// CredentialsFromEnv seeds credentials from the provider env configs.
func CredentialsFromEnv(source SettingsSource) *ProviderCredentials {
	return NewProviderCredentials(source, map[string]string{
		ProviderGemini:     LoadGeminiConfig().APIKey,
		ProviderOpenRouter: LoadOpenRouterConfig().APIKey,
		ProviderNvidia:     LoadNvidiaConfig().APIKey,
	})
}

func (c *ProviderCredentials) Get(provider string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keys[provider]
}

func (c *ProviderCredentials) RefreshedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshedAt
}

// Refresh re-reads every provider key from the settings store. A stored non-empty value
// wins over the env seed. On a read error the previous key for that provider is kept.
func (c *ProviderCredentials) Refresh(ctx context.Context) error {
	if c.source == nil {
		return nil
	}
	c.mu.RLock()
	providers := make([]string, 0, len(c.seeds))
	for p := range c.seeds {
		providers = append(providers, p)
	}
	c.mu.RUnlock()

	next := make(map[string]string, len(providers))
	var errs []error
	for _, p := range providers {
		value, found, err := c.source.GetValue(ctx, SettingKey(p))
		if err != nil {
			errs = append(errs, fmt.Errorf("read %s: %w", SettingKey(p), err))
			continue
		}
		if found && value != "" {
			next[p] = value
		} else {
			next[p] = c.seeds[p]
		}
	}

	c.mu.Lock()
	for p, k := range next {
		c.keys[p] = k
	}
	c.refreshedAt = time.Now()
	c.mu.Unlock()

	return errors.Join(errs...)
}

// Watch refreshes on an interval until ctx is done.
func (c *ProviderCredentials) Watch(ctx context.Context, interval time.Duration, onErr func(error)) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := c.Refresh(ctx); err != nil && onErr != nil {
					onErr(err)
				}
			}
		}
	}()
}
