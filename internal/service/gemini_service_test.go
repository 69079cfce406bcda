package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/fadilmartias/assessment-proctor/internal/assessment"
	"github.com/fadilmartias/assessment-proctor/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeGenerateResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type fakeGenerator struct {
	mu       sync.Mutex
	queue    []fakeGenerateResponse
	contents [][]*genai.Content
	configs  []*genai.GenerateContentConfig
}

func (f *fakeGenerator) enqueue(resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, fakeGenerateResponse{resp: resp, err: err})
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contents = append(f.contents, contents)
	f.configs = append(f.configs, cfg)
	if len(f.queue) == 0 {
		return nil, errors.New("unexpected call")
	}
	next := f.queue[0]
	f.queue = f.queue[1:]
	return next.resp, next.err
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.contents)
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func newTestGemini(t *testing.T, key string, gen *fakeGenerator) *GeminiService {
	t.Helper()
	creds := config.NewProviderCredentials(nil, map[string]string{config.ProviderGemini: key})
	cfg := &config.GeminiConfig{Model: "gemini-test", MaxRetries: 2, CircuitMax: 3}
	s := newGeminiService(cfg, creds, zap.NewNop(), func(ctx context.Context, apiKey string) (contentGenerator, error) {
		return gen, nil
	})
	s.BaseDelay = time.Millisecond
	s.MaxDelay = time.Millisecond
	return s
}

func TestGeminiConverseRetriesOnTemporaryError(t *testing.T) {
	gen := &fakeGenerator{}
	gen.enqueue(nil, genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"})
	gen.enqueue(textResponse("Good answer.\n```json\n{\"scores\":{\"sales\":8,\"leadership\":7,\"operations\":6,\"cx\":9},\"feedback\":\"solid\",\"isInterviewOver\":false}\n```"), nil)

	s := newTestGemini(t, "key", gen)
	history := []assessment.Message{
		{Speaker: assessment.SpeakerSystem, Text: "Scenario"},
		{Speaker: assessment.SpeakerCandidate, Text: "First reply"},
	}
	res, err := s.Converse(context.Background(), ConverseRequest{History: history, Latest: "Second reply", Instructions: "be an interviewer"})
	require.NoError(t, err)

	assert.Equal(t, "Good answer.", res.Text)
	require.NotNil(t, res.Analysis)
	assert.Equal(t, 8.0, res.Analysis.Scores.Sales)
	assert.Equal(t, 9.0, res.Analysis.Scores.CustomerExperience)
	assert.Equal(t, config.ProviderGemini, res.Provider)
	assert.Equal(t, 2, gen.calls())

	contents := gen.contents[1]
	require.Len(t, contents, 3)
	assert.Equal(t, string(genai.RoleModel), contents[0].Role)
	assert.Equal(t, string(genai.RoleUser), contents[1].Role)
	assert.Equal(t, "Second reply", contents[2].Parts[0].Text)
	require.NotNil(t, gen.configs[1].SystemInstruction)
	assert.Equal(t, "be an interviewer", gen.configs[1].SystemInstruction.Parts[0].Text)
}

func TestGeminiDoesNotRetryClientErrors(t *testing.T) {
	gen := &fakeGenerator{}
	gen.enqueue(nil, genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"})

	s := newTestGemini(t, "key", gen)
	_, err := s.Converse(context.Background(), ConverseRequest{Latest: "hi"})
	require.Error(t, err)
	assert.Equal(t, 1, gen.calls())
}

func TestGeminiStopsAfterRetriesExhausted(t *testing.T) {
	gen := &fakeGenerator{}
	for i := 0; i < 3; i++ {
		gen.enqueue(nil, genai.APIError{Code: http.StatusServiceUnavailable})
	}

	s := newTestGemini(t, "key", gen)
	_, err := s.Converse(context.Background(), ConverseRequest{Latest: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries")
	assert.Equal(t, 3, gen.calls())
}

func TestGeminiMissingCredentials(t *testing.T) {
	gen := &fakeGenerator{}
	s := newTestGemini(t, "", gen)
	_, err := s.SynthesizeReport(context.Background(), ReportInput{})
	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.Zero(t, gen.calls())
}

func TestGeminiCircuitBreakerOpens(t *testing.T) {
	gen := &fakeGenerator{}
	for i := 0; i < 3; i++ {
		gen.enqueue(nil, genai.APIError{Code: http.StatusBadRequest})
	}

	s := newTestGemini(t, "key", gen)
	for i := 0; i < 3; i++ {
		_, err := s.Converse(context.Background(), ConverseRequest{Latest: "hi"})
		require.Error(t, err)
	}
	errs, open := s.GetCircuitBreakerStatus()
	assert.Equal(t, 3, errs)
	assert.True(t, open)

	_, err := s.Converse(context.Background(), ConverseRequest{Latest: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
	assert.Equal(t, 3, gen.calls())

	s.ResetCircuitBreaker()
	_, open = s.GetCircuitBreakerStatus()
	assert.False(t, open)
}

func TestGeminiSynthesizeReport(t *testing.T) {
	gen := &fakeGenerator{}
	gen.enqueue(textResponse(`{"summary":"Strong candidate","psychometrics":{"openness":70,"conscientiousness":120,"extraversion":60,"agreeableness":55,"emotionalStability":65},"cultureFitScore":88,"starMethodScore":7.5}`), nil)

	s := newTestGemini(t, "key", gen)
	report, err := s.SynthesizeReport(context.Background(), ReportInput{RoleLabel: "Store Leader", LogicScore: 7})
	require.NoError(t, err)

	assert.Equal(t, "Strong candidate", report.Summary)
	assert.Equal(t, 100, report.Traits.Conscientiousness)
	assert.Equal(t, 65, report.Traits.EmotionalStability)
	assert.Equal(t, 88, report.CultureFitScore)
	assert.Equal(t, 7.5, report.StructuredAnswerScore)
	assert.Equal(t, config.ProviderGemini, report.Source)
	assert.Equal(t, "application/json", gen.configs[0].ResponseMIMEType)
}

func TestGeminiRebuildsClientWhenKeyChanges(t *testing.T) {
	gen := &fakeGenerator{}
	gen.enqueue(textResponse("one"), nil)
	gen.enqueue(textResponse("two"), nil)

	store := map[string]string{}
	creds := config.NewProviderCredentials(sourceFunc(func(key string) (string, bool) {
		v, ok := store[key]
		return v, ok
	}), map[string]string{config.ProviderGemini: "old"})

	var keys []string
	s := newGeminiService(&config.GeminiConfig{Model: "m"}, creds, zap.NewNop(), func(ctx context.Context, apiKey string) (contentGenerator, error) {
		keys = append(keys, apiKey)
		return gen, nil
	})

	_, err := s.Converse(context.Background(), ConverseRequest{Latest: "a"})
	require.NoError(t, err)

	store[config.SettingKey(config.ProviderGemini)] = "new"
	require.NoError(t, creds.Refresh(context.Background()))
	_, err = s.Converse(context.Background(), ConverseRequest{Latest: "b"})
	require.NoError(t, err)

	assert.Equal(t, []string{"old", "new"}, keys)
}

type sourceFunc func(key string) (string, bool)

func (f sourceFunc) GetValue(ctx context.Context, key string) (string, bool, error) {
	v, ok := f(key)
	return v, ok, nil
}
