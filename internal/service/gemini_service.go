package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/fadilmartias/assessment-proctor/internal/assessment"
	"github.com/fadilmartias/assessment-proctor/internal/config"
	"github.com/fadilmartias/assessment-proctor/internal/logger"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// contentGenerator is the part of genai.Models the service uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type generatorFactory func(ctx context.Context, apiKey string) (contentGenerator, error)

func newGenaiGenerator(ctx context.Context, apiKey string) (contentGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return client.Models, nil
}

type GeminiService struct {
	Model           string
	MaxRetries      int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	RequestTimeout  time.Duration
	CircuitCooldown time.Duration
	Temperature     float32

	creds        *config.ProviderCredentials
	newGenerator generatorFactory
	log          *zap.Logger

	mu                sync.Mutex
	generator         contentGenerator
	generatorKey      string
	consecutiveErrors int
	circuitBreakerMax int
	circuitOpenedAt   time.Time
}

func NewGeminiService(cfg *config.GeminiConfig, creds *config.ProviderCredentials, log *zap.Logger) *GeminiService {
	return newGeminiService(cfg, creds, log, newGenaiGenerator)
}

func newGeminiService(cfg *config.GeminiConfig, creds *config.ProviderCredentials, log *zap.Logger, factory generatorFactory) *GeminiService {
	return &GeminiService{
		Model:             cfg.Model,
		MaxRetries:        cfg.MaxRetries,
		BaseDelay:         time.Second,
		MaxDelay:          10 * time.Second,
		RequestTimeout:    cfg.RequestTimeout,
		CircuitCooldown:   30 * time.Second,
		Temperature:       0.3,
		creds:             creds,
		newGenerator:      factory,
		log:               logger.WithProvider(log, config.ProviderGemini, cfg.Model),
		circuitBreakerMax: cfg.CircuitMax,
	}
}

func (s *GeminiService) Name() string { return config.ProviderGemini }

func (s *GeminiService) Converse(ctx context.Context, req ConverseRequest) (ConverseResult, error) {
	if strings.TrimSpace(req.Latest) == "" {
		return ConverseResult{}, fmt.Errorf("message cannot be empty")
	}

	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, m := range req.History {
		var role genai.Role = genai.RoleModel
		if m.Speaker == assessment.SpeakerCandidate {
			role = genai.RoleUser
		}
		contents = append(contents, genai.NewContentFromText(m.Text, role))
	}
	contents = append(contents, genai.NewContentFromText(req.Latest, genai.RoleUser))

	genConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(s.Temperature),
	}
	if req.Instructions != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(req.Instructions, genai.RoleUser)
	}

	text, err := s.generateContent(ctx, contents, genConfig)
	if err != nil {
		return ConverseResult{}, err
	}
	clean, analysis := ExtractAnalysis(text)
	return ConverseResult{Text: clean, Analysis: analysis, Provider: s.Name()}, nil
}

func (s *GeminiService) SynthesizeReport(ctx context.Context, in ReportInput) (FinalReport, error) {
	genConfig := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(s.Temperature),
		ResponseMIMEType: "application/json",
	}
	text, err := s.generateContent(ctx, genai.Text(buildReportPrompt(in)), genConfig)
	if err != nil {
		return FinalReport{}, err
	}
	report, err := parseReport(text)
	if err != nil {
		s.log.Warn("unusable report payload", zap.String("response_preview", logger.TruncateForLog(text, 200)))
		return FinalReport{}, err
	}
	report.Source = s.Name()
	return report, nil
}

func (s *GeminiService) client(ctx context.Context) (contentGenerator, error) {
	key := s.creds.Get(config.ProviderGemini)
	if key == "" {
		return nil, ErrMissingCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generator != nil && s.generatorKey == key {
		return s.generator, nil
	}
	gen, err := s.newGenerator(ctx, key)
	if err != nil {
		return nil, err
	}
	s.generator, s.generatorKey = gen, key
	return gen, nil
}

func (s *GeminiService) generateContent(ctx context.Context, contents []*genai.Content, genConfig *genai.GenerateContentConfig) (string, error) {
	if s.circuitOpen() {
		errs, _ := s.GetCircuitBreakerStatus()
		return "", fmt.Errorf("circuit breaker open: too many consecutive errors (%d)", errs)
	}

	gen, err := s.client(ctx)
	if err != nil {
		return "", err
	}

	timeoutCtx := ctx
	if s.RequestTimeout > 0 {
		var cancel context.CancelFunc
		timeoutCtx, cancel = context.WithTimeout(ctx, s.RequestTimeout)
		defer cancel()
	}

	var lastErr error
	for attempt := 0; attempt <= s.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := s.calculateBackoff(attempt)
			s.log.Debug("retrying generate content",
				zap.Int("attempt", attempt), zap.Int("max_retries", s.MaxRetries), zap.Duration("delay", delay))

			select {
			case <-time.After(delay):
			case <-timeoutCtx.Done():
				return "", fmt.Errorf("context timeout during retry: %w", timeoutCtx.Err())
			}
		}

		result, err := gen.GenerateContent(timeoutCtx, s.Model, contents, genConfig)
		if err == nil {
			if err := s.validateGenerateResponse(result); err != nil {
				s.recordFailure()
				return "", fmt.Errorf("invalid response: %w", err)
			}
			s.recordSuccess()
			return result.Text(), nil
		}

		lastErr = err

		if !s.isRetryableError(err) {
			s.log.Warn("non-retryable error", zap.Error(err))
			s.recordFailure()
			return "", fmt.Errorf("generate content failed: %w", err)
		}

		s.log.Warn("retryable error", zap.Int("attempt", attempt+1), zap.Error(err))
	}

	s.recordFailure()
	return "", fmt.Errorf("max retries (%d) exceeded for GenerateContent: %w", s.MaxRetries, lastErr)
}

func (s *GeminiService) calculateBackoff(attempt int) time.Duration {
	delay := s.BaseDelay * time.Duration(math.Pow(2, float64(attempt-1)))

	if delay > s.MaxDelay {
		delay = s.MaxDelay
	}

	jitter := time.Duration(float64(delay) * 0.25)
	delay = delay - jitter/2 + time.Duration(float64(jitter)*0.5)

	return delay
}

func (s *GeminiService) isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.Code)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return retryableStatus(apiErrPtr.Code)
	}

	errMsg := err.Error()
	return strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "connection reset") ||
		strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "temporary failure") ||
		strings.Contains(errMsg, "EOF")
}

func retryableStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	}
	return false
}

func (s *GeminiService) validateGenerateResponse(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return fmt.Errorf("response is nil")
	}
	if len(resp.Candidates) == 0 {
		return fmt.Errorf("no candidates in response")
	}
	if resp.Candidates[0].Content == nil {
		return fmt.Errorf("candidate content is nil")
	}
	if len(resp.Candidates[0].Content.Parts) == 0 {
		return fmt.Errorf("no parts in content")
	}
	if strings.TrimSpace(resp.Text()) == "" {
		return ErrEmptyResponse
	}
	return nil
}

// circuitOpen lets one probe through once the cooldown has passed.
func (s *GeminiService) circuitOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.circuitBreakerMax <= 0 || s.consecutiveErrors < s.circuitBreakerMax {
		return false
	}
	return time.Since(s.circuitOpenedAt) < s.CircuitCooldown
}

func (s *GeminiService) recordSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consecutiveErrors = 0
}

func (s *GeminiService) recordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consecutiveErrors++
	if s.circuitBreakerMax > 0 && s.consecutiveErrors >= s.circuitBreakerMax {
		s.circuitOpenedAt = time.Now()
	}
}

func (s *GeminiService) ResetCircuitBreaker() {
	s.mu.Lock()
	s.consecutiveErrors = 0
	s.mu.Unlock()
	s.log.Info("circuit breaker reset")
}

func (s *GeminiService) GetCircuitBreakerStatus() (consecutiveErrors int, isOpen bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consecutiveErrors, s.circuitBreakerMax > 0 && s.consecutiveErrors >= s.circuitBreakerMax
}
