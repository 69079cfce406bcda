package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fadilmartias/assessment-proctor/internal/assessment"
	"github.com/fadilmartias/assessment-proctor/internal/config"
	"github.com/fadilmartias/assessment-proctor/internal/invite"
	"github.com/fadilmartias/assessment-proctor/internal/model"
	"github.com/fadilmartias/assessment-proctor/internal/observability"
	"github.com/fadilmartias/assessment-proctor/internal/repository"
	"github.com/fadilmartias/assessment-proctor/internal/service"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type memorySubmissions struct {
	mu      sync.Mutex
	rows    map[string]model.Submission
	failing error
}

func newMemorySubmissions() *memorySubmissions {
	return &memorySubmissions{rows: make(map[string]model.Submission)}
}

func (m *memorySubmissions) Create(ctx context.Context, s *model.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing != nil {
		return m.failing
	}
	m.rows[s.ID.String()] = *s
	return nil
}

func (m *memorySubmissions) FindByID(ctx context.Context, id string) (*model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (m *memorySubmissions) List(ctx context.Context, page, pageSize int) ([]model.Submission, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]model.Submission, 0, len(m.rows))
	for _, s := range m.rows {
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	start := (page - 1) * pageSize
	if start > len(all) {
		start = len(all)
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (m *memorySubmissions) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memorySubmissions) only() model.Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.rows {
		return s
	}
	return model.Submission{}
}

type memoryLedger struct {
	mu        sync.Mutex
	redeemed  map[string]bool
	redeemErr error
	calls     int
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{redeemed: make(map[string]bool)}
}

func (l *memoryLedger) IsRedeemed(ctx context.Context, tokenID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.redeemed[tokenID], nil
}

func (l *memoryLedger) Redeem(ctx context.Context, tokenID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.redeemErr != nil {
		return false, l.redeemErr
	}
	if l.redeemed[tokenID] {
		return false, nil
	}
	l.redeemed[tokenID] = true
	return true, nil
}

type memorySettings struct {
	mu     sync.Mutex
	values map[string]string
	err    error
}

func newMemorySettings() *memorySettings {
	return &memorySettings{values: make(map[string]string)}
}

func (s *memorySettings) GetValue(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", false, s.err
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *memorySettings) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.values[key] = value
	return nil
}

func (s *memorySettings) All(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out, nil
}

// scriptedConversation replies with queued results, then errors.
type scriptedConversation struct {
	mu      sync.Mutex
	replies []service.ConverseResult
	prompts []string
}

func (c *scriptedConversation) push(r service.ConverseResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, r)
}

func (c *scriptedConversation) Converse(ctx context.Context, history []assessment.Message, latest, instructions string) (service.ConverseResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, latest)
	if len(c.replies) == 0 {
		return service.ConverseResult{}, service.ErrAIUnavailable
	}
	next := c.replies[0]
	c.replies = c.replies[1:]
	return next, nil
}

type harness struct {
	uc          *AssessmentUsecase
	submissions *memorySubmissions
	ledger      *memoryLedger
	settings    *memorySettings
	chat        *scriptedConversation
	metrics     *observability.Metrics
	redis       *miniredis.Miniredis
	creds       *config.ProviderCredentials
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := &harness{
		submissions: newMemorySubmissions(),
		ledger:      newMemoryLedger(),
		settings:    newMemorySettings(),
		chat:        &scriptedConversation{},
		metrics:     observability.NewMetrics("test"),
		redis:       mr,
	}
	catalog := assessment.DefaultCatalog()
	h.creds = config.NewProviderCredentials(h.settings, map[string]string{config.ProviderGemini: ""})
	settings := NewSettingsUsecase(h.settings, catalog, h.creds, zap.NewNop())
	subs := NewSubmissionUsecase(SubmissionDeps{
		Submissions: h.submissions,
		Tokens:      h.ledger,
		Guard:       repository.NewRedisRedemptionGuard(client, time.Hour),
		Reports:     service.NewAIOrchestrator(service.OrchestratorOptions{}, zap.NewNop()),
		Metrics:     h.metrics,
		Company:     "Mobeng",
	}, zap.NewNop())

	h.uc = NewAssessmentUsecase(AssessmentDeps{
		Manager:      assessment.NewManager(time.Hour),
		Catalog:      catalog,
		Codec:        invite.NewCodec(),
		Conversation: h.chat,
		Submissions:  subs,
		Settings:     settings,
		Metrics:      h.metrics,
	}, AssessmentConfig{
		RecruiterPasscode: "letmein",
		BaseURL:           "https://assess.example.com/",
		Company:           "Mobeng",
	}, zap.NewNop())
	return h
}

var errStoreDown = errors.New("store down")
