package service

import (
	"context"
	"errors"

	"github.com/fadilmartias/assessment-proctor/internal/assessment"
	"github.com/fadilmartias/assessment-proctor/internal/scoring"
)

var (
	ErrAIUnavailable      = errors.New("AI is unavailable right now, please try again")
	ErrMissingCredentials = errors.New("provider API key is not configured")
	ErrEmptyResponse      = errors.New("provider returned an empty response")
	ErrInvalidReport      = errors.New("provider returned an unusable report")
)

type ConverseRequest struct {
	// History is the transcript before Latest, oldest first.
	History      []assessment.Message
	Latest       string
	Instructions string
}

type ConverseResult struct {
	Text     string
	Analysis *assessment.Analysis
	Provider string
}

type ReportInput struct {
	Profile    assessment.Profile
	RoleLabel  string
	Scores     scoring.SimulationScores
	Feedback   string
	LogicScore float64
}

type Traits struct {
	Openness           int `json:"openness"`
	Conscientiousness  int `json:"conscientiousness"`
	Extraversion       int `json:"extraversion"`
	Agreeableness      int `json:"agreeableness"`
	EmotionalStability int `json:"emotional_stability"`
}

type FinalReport struct {
	Summary               string  `json:"summary"`
	Traits                Traits  `json:"traits"`
	CultureFitScore       int     `json:"culture_fit_score"`
	StructuredAnswerScore float64 `json:"structured_answer_score"`
	Source                string  `json:"source"`
}

type ConversationProvider interface {
	Name() string
	Converse(ctx context.Context, req ConverseRequest) (ConverseResult, error)
}

type ReportProvider interface {
	Name() string
	SynthesizeReport(ctx context.Context, in ReportInput) (FinalReport, error)
}
