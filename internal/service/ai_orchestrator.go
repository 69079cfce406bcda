package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fadilmartias/assessment-proctor/internal/assessment"
	"github.com/fadilmartias/assessment-proctor/internal/observability"
	"go.uber.org/zap"
)

const (
	capabilityConverse = "converse"
	capabilityReport   = "report"

	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

type OrchestratorOptions struct {
	Conversation []ConversationProvider
	Reports      []ReportProvider
	// AttemptTimeout bounds each provider attempt. Defaults to 20s.
	AttemptTimeout time.Duration
	Metrics        *observability.Metrics
}

// AIOrchestrator tries providers strictly in order and moves on when one fails.
// Reports always end with the rule-based generator, so SynthesizeReport cannot fail.
type AIOrchestrator struct {
	conversation   []ConversationProvider
	reports        []ReportProvider
	fallback       *RuleBasedReportService
	attemptTimeout time.Duration
	metrics        *observability.Metrics
	log            *zap.Logger
}

func NewAIOrchestrator(opts OrchestratorOptions, log *zap.Logger) *AIOrchestrator {
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = 20 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AIOrchestrator{
		conversation:   opts.Conversation,
		reports:        opts.Reports,
		fallback:       NewRuleBasedReportService(),
		attemptTimeout: opts.AttemptTimeout,
		metrics:        opts.Metrics,
		log:            log,
	}
}

// Converse returns ErrAIUnavailable once every conversation provider has failed.
func (o *AIOrchestrator) Converse(ctx context.Context, history []assessment.Message, latest, instructions string) (ConverseResult, error) {
	req := ConverseRequest{History: history, Latest: latest, Instructions: instructions}

	var errs []error
	for _, p := range o.conversation {
		var result ConverseResult
		err := o.attempt(ctx, capabilityConverse, p.Name(), func(ctx context.Context) error {
			var err error
			result, err = p.Converse(ctx, req)
			return err
		})
		if err == nil {
			return result, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}

	o.log.Error("all conversation providers failed",
		zap.Int("providers", len(o.conversation)), zap.Error(errors.Join(errs...)))
	return ConverseResult{}, ErrAIUnavailable
}

func (o *AIOrchestrator) SynthesizeReport(ctx context.Context, in ReportInput) FinalReport {
	for _, p := range o.reports {
		var report FinalReport
		err := o.attempt(ctx, capabilityReport, p.Name(), func(ctx context.Context) error {
			var err error
			report, err = p.SynthesizeReport(ctx, in)
			return err
		})
		if err == nil {
			return report
		}
		if ctx.Err() != nil {
			break
		}
	}

	start := time.Now()
	report := o.fallback.Generate(in)
	o.observe(capabilityReport, RuleBasedProvider, outcomeSuccess, time.Since(start))
	o.log.Info("report generated by rule-based fallback")
	return report
}

func (o *AIOrchestrator) attempt(ctx context.Context, capability, provider string, fn func(context.Context) error) error {
	attemptCtx, cancel := context.WithTimeout(ctx, o.attemptTimeout)
	defer cancel()

	start := time.Now()
	err := fn(attemptCtx)
	elapsed := time.Since(start)

	if err != nil {
		o.observe(capability, provider, outcomeFailure, elapsed)
		o.log.Warn("provider attempt failed",
			zap.String("capability", capability),
			zap.String("provider", provider),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return err
	}
	o.observe(capability, provider, outcomeSuccess, elapsed)
	o.log.Debug("provider attempt succeeded",
		zap.String("capability", capability),
		zap.String("provider", provider),
		zap.Duration("elapsed", elapsed))
	return nil
}

func (o *AIOrchestrator) observe(capability, provider, outcome string, d time.Duration) {
	if o.metrics != nil {
		o.metrics.ObserveProvider(capability, provider, outcome, d)
	}
}
