package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fadilmartias/assessment-proctor/internal/observability"
	"github.com/fadilmartias/assessment-proctor/internal/scoring"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubProvider struct {
	name   string
	reply  ConverseResult
	report FinalReport
	err    error
	block  bool
	calls  int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Converse(ctx context.Context, req ConverseRequest) (ConverseResult, error) {
	s.calls++
	if s.block {
		<-ctx.Done()
		return ConverseResult{}, ctx.Err()
	}
	return s.reply, s.err
}

func (s *stubProvider) SynthesizeReport(ctx context.Context, in ReportInput) (FinalReport, error) {
	s.calls++
	if s.block {
		<-ctx.Done()
		return FinalReport{}, ctx.Err()
	}
	return s.report, s.err
}

func TestOrchestratorConverseFallsThrough(t *testing.T) {
	primary := &stubProvider{name: "gemini", err: errors.New("boom")}
	secondary := &stubProvider{name: "openrouter", reply: ConverseResult{Text: "hello", Provider: "openrouter"}}
	metrics := observability.NewMetrics("test")

	o := NewAIOrchestrator(OrchestratorOptions{
		Conversation: []ConversationProvider{primary, secondary},
		Metrics:      metrics,
	}, zap.NewNop())

	res, err := o.Converse(context.Background(), nil, "hi", "")
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Text)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ProviderAttempts.WithLabelValues(capabilityConverse, "gemini", outcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ProviderAttempts.WithLabelValues(capabilityConverse, "openrouter", outcomeSuccess)))
}

func TestOrchestratorConverseExhausted(t *testing.T) {
	o := NewAIOrchestrator(OrchestratorOptions{
		Conversation: []ConversationProvider{
			&stubProvider{name: "a", err: errors.New("down")},
			&stubProvider{name: "b", err: errors.New("down")},
		},
	}, zap.NewNop())

	_, err := o.Converse(context.Background(), nil, "hi", "")
	assert.ErrorIs(t, err, ErrAIUnavailable)
}

func TestOrchestratorAttemptTimeout(t *testing.T) {
	slow := &stubProvider{name: "slow", block: true}
	fast := &stubProvider{name: "fast", reply: ConverseResult{Text: "ok"}}

	o := NewAIOrchestrator(OrchestratorOptions{
		Conversation:   []ConversationProvider{slow, fast},
		AttemptTimeout: 10 * time.Millisecond,
	}, zap.NewNop())

	res, err := o.Converse(context.Background(), nil, "hi", "")
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Text)
}

func TestOrchestratorReportUsesFirstSuccess(t *testing.T) {
	primary := &stubProvider{name: "gemini", report: FinalReport{Summary: "ai", Source: "gemini"}}
	secondary := &stubProvider{name: "nvidia"}

	o := NewAIOrchestrator(OrchestratorOptions{Reports: []ReportProvider{primary, secondary}}, zap.NewNop())

	report := o.SynthesizeReport(context.Background(), ReportInput{})
	assert.Equal(t, "gemini", report.Source)
	assert.Zero(t, secondary.calls)
}

func TestOrchestratorReportFallsBackToRules(t *testing.T) {
	metrics := observability.NewMetrics("test")
	o := NewAIOrchestrator(OrchestratorOptions{
		Reports: []ReportProvider{
			&stubProvider{name: "gemini", err: ErrInvalidReport},
			&stubProvider{name: "openrouter", err: errors.New("timeout")},
		},
		Metrics: metrics,
	}, zap.NewNop())

	in := ReportInput{
		RoleLabel:  "Store Leader",
		LogicScore: 7,
		Scores:     scoring.SimulationScores{Sales: 8, Leadership: 8, Operations: 7, CustomerExperience: 9},
	}
	report := o.SynthesizeReport(context.Background(), in)

	assert.Equal(t, RuleBasedProvider, report.Source)
	assert.NotEmpty(t, report.Summary)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ProviderAttempts.WithLabelValues(capabilityReport, RuleBasedProvider, outcomeSuccess)))
}

func TestOrchestratorWithoutProviders(t *testing.T) {
	o := NewAIOrchestrator(OrchestratorOptions{}, nil)

	_, err := o.Converse(context.Background(), nil, "hi", "")
	assert.ErrorIs(t, err, ErrAIUnavailable)
	assert.Equal(t, RuleBasedProvider, o.SynthesizeReport(context.Background(), ReportInput{}).Source)
}
