package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/fadilmartias/assessment-proctor/internal/assessment"
	"github.com/fadilmartias/assessment-proctor/internal/config"
	"github.com/fadilmartias/assessment-proctor/internal/logger"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionProvider talks to any OpenAI-compatible /chat/completions endpoint.
type chatCompletionProvider struct {
	Temperature float64

	name    string
	model   string
	baseURL string
	headers map[string]string

	creds  *config.ProviderCredentials
	client *resty.Client
	log    *zap.Logger
}

func newChatCompletionProvider(name, model, baseURL string, headers map[string]string, creds *config.ProviderCredentials, log *zap.Logger) *chatCompletionProvider {
	return &chatCompletionProvider{
		Temperature: 0.3,
		name:        name,
		model:       model,
		baseURL:     strings.TrimRight(baseURL, "/"),
		headers:     headers,
		creds:       creds,
		client:      resty.New(),
		log:         logger.WithProvider(log, name, model),
	}
}

func (p *chatCompletionProvider) Name() string { return p.name }

func (p *chatCompletionProvider) Converse(ctx context.Context, req ConverseRequest) (ConverseResult, error) {
	if strings.TrimSpace(req.Latest) == "" {
		return ConverseResult{}, fmt.Errorf("message cannot be empty")
	}

	messages := make([]chatMessage, 0, len(req.History)+2)
	if req.Instructions != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.Instructions})
	}
	for _, m := range req.History {
		role := "assistant"
		if m.Speaker == assessment.SpeakerCandidate {
			role = "user"
		}
		messages = append(messages, chatMessage{Role: role, Content: m.Text})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Latest})

	text, err := p.complete(ctx, messages)
	if err != nil {
		return ConverseResult{}, err
	}
	clean, analysis := ExtractAnalysis(text)
	return ConverseResult{Text: clean, Analysis: analysis, Provider: p.name}, nil
}

func (p *chatCompletionProvider) SynthesizeReport(ctx context.Context, in ReportInput) (FinalReport, error) {
	messages := []chatMessage{
		{Role: "system", Content: "You are an HR analyst. Reply with JSON only."},
		{Role: "user", Content: buildReportPrompt(in)},
	}
	text, err := p.complete(ctx, messages)
	if err != nil {
		return FinalReport{}, err
	}
	report, err := parseReport(text)
	if err != nil {
		p.log.Warn("unusable report payload", zap.String("response_preview", logger.TruncateForLog(text, 200)))
		return FinalReport{}, err
	}
	report.Source = p.name
	return report, nil
}

func (p *chatCompletionProvider) complete(ctx context.Context, messages []chatMessage) (string, error) {
	key := p.creds.Get(p.name)
	if key == "" {
		return "", ErrMissingCredentials
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(key).
		SetHeader("Content-Type", "application/json").
		SetHeaders(p.headers).
		SetBody(map[string]any{
			"model":       p.model,
			"messages":    messages,
			"temperature": p.Temperature,
		}).
		Post(p.baseURL + "/chat/completions")
	if err != nil {
		return "", fmt.Errorf("%s request: %w", p.name, err)
	}
	if resp.IsError() {
		p.log.Warn("provider returned error status",
			zap.Int("status", resp.StatusCode()),
			zap.String("body_preview", logger.TruncateForLog(resp.String(), 200)))
		return "", fmt.Errorf("%s returned status %d", p.name, resp.StatusCode())
	}

	content := gjson.Get(resp.String(), "choices.0.message.content").String()
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}
