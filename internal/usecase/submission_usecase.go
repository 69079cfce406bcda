package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fadilmartias/assessment-proctor/internal/assessment"
	"github.com/fadilmartias/assessment-proctor/internal/logger"
	"github.com/fadilmartias/assessment-proctor/internal/model"
	"github.com/fadilmartias/assessment-proctor/internal/notify"
	"github.com/fadilmartias/assessment-proctor/internal/observability"
	"github.com/fadilmartias/assessment-proctor/internal/response"
	"github.com/fadilmartias/assessment-proctor/internal/scoring"
	"github.com/fadilmartias/assessment-proctor/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	submissionSaved    = "saved"
	submissionNotSaved = "not_saved"

	redemptionRedeemed = "redeemed"
	redemptionLostRace = "lost_race"
	redemptionError    = "error"
)

type SubmitResult struct {
	SubmissionID  string              `json:"submission_id"`
	Decision      scoring.Decision    `json:"decision"`
	WeightedScore float64             `json:"weighted_score"`
	Report        service.FinalReport `json:"report"`
	// ClearInvitation tells the client to drop the invitation query parameter.
	ClearInvitation bool `json:"clear_invitation"`
}

type SubmissionUsecase struct {
	submissions SubmissionStore
	tokens      TokenLedger
	guard       RedemptionGuard
	reports     ReportSynthesizer
	metrics     *observability.Metrics
	company     string
	log         *zap.Logger
	now         func() time.Time
}

type SubmissionDeps struct {
	Submissions SubmissionStore
	Tokens      TokenLedger
	// Guard is optional.
	Guard   RedemptionGuard
	Reports ReportSynthesizer
	Metrics *observability.Metrics
	Company string
}

func NewSubmissionUsecase(deps SubmissionDeps, log *zap.Logger) *SubmissionUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &SubmissionUsecase{
		submissions: deps.Submissions,
		tokens:      deps.Tokens,
		guard:       deps.Guard,
		reports:     deps.Reports,
		metrics:     deps.Metrics,
		company:     deps.Company,
		log:         log,
		now:         time.Now,
	}
}

// Submit runs the pipeline: report, decision, persist, redeem, reset. A persist failure
// leaves the candidate in the simulation with the invitation still unredeemed.
func (uc *SubmissionUsecase) Submit(ctx context.Context, sess *assessment.Session) (*SubmitResult, error) {
	snap, err := sess.BeginSubmission()
	if err != nil {
		return nil, err
	}
	log := logger.WithSession(uc.log, snap.SessionID)

	report := uc.reports.SynthesizeReport(ctx, service.ReportInput{
		Profile:    snap.Profile,
		RoleLabel:  snap.Role.Label,
		Scores:     snap.Scores,
		Feedback:   snap.Feedback,
		LogicScore: snap.LogicScore,
	})
	decision := scoring.Decide(snap.Scores, snap.LogicScore)
	record := uc.buildRecord(snap, report, decision)

	if err := uc.submissions.Create(ctx, record); err != nil {
		sess.AbortSubmission()
		uc.countSubmission(submissionNotSaved)
		log.Error("failed to persist submission", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrSubmissionNotSaved, err)
	}
	uc.countSubmission(submissionSaved)
	if uc.metrics != nil {
		uc.metrics.Decisions.WithLabelValues(string(decision)).Inc()
	}

	if snap.TokenID != "" {
		uc.redeem(ctx, log, snap.TokenID)
	}

	if err := sess.CompleteSubmission(ctx); err != nil {
		// the record is already stored; report success regardless
		log.Warn("session reset after submission failed", zap.Error(err))
	}

	log.Info("submission saved",
		zap.String("submission_id", record.ID.String()),
		zap.String("decision", string(decision)),
		zap.String("report_source", report.Source),
		zap.Int("cheat_count", snap.SuspicionCount))

	return &SubmitResult{
		SubmissionID:    record.ID.String(),
		Decision:        decision,
		WeightedScore:   scoring.Weighted(snap.Scores, snap.LogicScore),
		Report:          report,
		ClearInvitation: snap.TokenID != "",
	}, nil
}

// redeem marks the invitation used. Losing a race to a concurrent submission is logged
// and counted; the submission that was just stored is kept either way.
func (uc *SubmissionUsecase) redeem(ctx context.Context, log *zap.Logger, tokenID string) {
	log = log.With(zap.String("token_id", tokenID))

	claimed := false
	if uc.guard != nil {
		ok, err := uc.guard.Claim(ctx, tokenID)
		switch {
		case err != nil:
			log.Warn("redemption claim unavailable, using database only", zap.Error(err))
		case !ok:
			log.Warn("invitation already claimed by another submission")
			uc.countRedemption(redemptionLostRace)
			return
		default:
			claimed = true
		}
	}

	inserted, err := uc.tokens.Redeem(ctx, tokenID)
	if err != nil {
		log.Error("failed to redeem invitation", zap.Error(err))
		uc.countRedemption(redemptionError)
		if claimed {
			if err := uc.guard.Release(ctx, tokenID); err != nil {
				log.Warn("failed to release redemption claim", zap.Error(err))
			}
		}
		return
	}
	if !inserted {
		log.Warn("invitation already redeemed by another submission")
		uc.countRedemption(redemptionLostRace)
		return
	}
	uc.countRedemption(redemptionRedeemed)
}

// IsRedeemed checks the fast claim first, then the ledger. Lookup errors count as not
// redeemed so a flaky store does not lock a candidate out.
func (uc *SubmissionUsecase) IsRedeemed(ctx context.Context, tokenID string) bool {
	if uc.guard != nil {
		claimed, err := uc.guard.IsClaimed(ctx, tokenID)
		if err != nil {
			uc.log.Warn("redemption claim lookup failed", zap.String("token_id", tokenID), zap.Error(err))
		} else if claimed {
			return true
		}
	}
	redeemed, err := uc.tokens.IsRedeemed(ctx, tokenID)
	if err != nil {
		uc.log.Warn("redemption lookup failed", zap.String("token_id", tokenID), zap.Error(err))
		return false
	}
	return redeemed
}

func (uc *SubmissionUsecase) buildRecord(snap assessment.Snapshot, report service.FinalReport, decision scoring.Decision) *model.Submission {
	history := make([]model.ChatMessage, 0, len(snap.Transcript))
	for _, m := range snap.Transcript {
		history = append(history, model.ChatMessage{
			ID:        m.ID,
			Speaker:   string(m.Speaker),
			Text:      m.Text,
			Timestamp: m.Timestamp,
		})
	}
	p := snap.Profile
	return &model.Submission{
		ID:                    uuid.New(),
		CandidateName:         p.Name,
		CandidatePhone:        p.Phone,
		RoleID:                snap.Role.ID,
		Role:                  snap.Role.Label,
		QuestionSetID:         snap.QuestionSetID,
		LogicScore:            snap.LogicScore,
		CultureFitScore:       report.CultureFitScore,
		StructuredAnswerScore: report.StructuredAnswerScore,
		Status:                string(decision),
		ProfileData: model.CandidateProfile{
			Name:            p.Name,
			Phone:           p.Phone,
			Education:       p.Education,
			Major:           p.Major,
			LastPosition:    p.LastPosition,
			LastCompany:     p.LastCompany,
			ExperienceYears: p.ExperienceYears,
		},
		SimulationScores: model.SimulationScores{
			Sales:              snap.Scores.Sales,
			Leadership:         snap.Scores.Leadership,
			Operations:         snap.Scores.Operations,
			CustomerExperience: snap.Scores.CustomerExperience,
		},
		SimulationFeedback: snap.Feedback,
		Psychometrics: model.Psychometrics{
			Openness:           report.Traits.Openness,
			Conscientiousness:  report.Traits.Conscientiousness,
			Extraversion:       report.Traits.Extraversion,
			Agreeableness:      report.Traits.Agreeableness,
			EmotionalStability: report.Traits.EmotionalStability,
		},
		FinalSummary: report.Summary,
		ReportSource: report.Source,
		CheatCount:   snap.SuspicionCount,
		ChatHistory:  history,
		TokenID:      snap.TokenID,
		CreatedAt:    uc.now(),
	}
}

func (uc *SubmissionUsecase) List(ctx context.Context, page, pageSize int) ([]model.Submission, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	rows, total, err := uc.submissions.List(ctx, page, pageSize)
	if err != nil {
		return nil, nil, err
	}
	return rows, response.NewPagination(page, pageSize, len(rows), total), nil
}

func (uc *SubmissionUsecase) Get(ctx context.Context, id string) (*model.Submission, error) {
	return uc.submissions.FindByID(ctx, id)
}

func (uc *SubmissionUsecase) Delete(ctx context.Context, id string) error {
	if err := uc.submissions.Delete(ctx, id); err != nil {
		return err
	}
	uc.log.Info("submission deleted", zap.String("submission_id", id))
	return nil
}

// NotifyLink builds the WhatsApp link a recruiter uses to send the result to the candidate.
func (uc *SubmissionUsecase) NotifyLink(ctx context.Context, id string) (string, error) {
	sub, err := uc.submissions.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return notify.ResultLink(uc.company, notify.Result{
		Name:            sub.CandidateName,
		Phone:           sub.CandidatePhone,
		Role:            sub.Role,
		LogicScore:      sub.LogicScore,
		CultureFitScore: sub.CultureFitScore,
		Status:          sub.Status,
		Summary:         sub.FinalSummary,
	}), nil
}

func (uc *SubmissionUsecase) countSubmission(result string) {
	if uc.metrics != nil {
		uc.metrics.Submissions.WithLabelValues(result).Inc()
	}
}

func (uc *SubmissionUsecase) countRedemption(result string) {
	if uc.metrics != nil {
		uc.metrics.Redemptions.WithLabelValues(result).Inc()
	}
}
