package dto

import (
	"time"

	"github.com/fadilmartias/assessment-proctor/internal/model"
	"github.com/google/uuid"
)

// SubmissionSummaryDTO is one row of the recruiter dashboard list.
type SubmissionSummaryDTO struct {
	ID              uuid.UUID `json:"id"`
	CandidateName   string    `json:"candidate_name"`
	CandidatePhone  string    `json:"candidate_phone"`
	Role            string    `json:"role"`
	Status          string    `json:"status"` // Recommended, Consider or Reject
	LogicScore      float64   `json:"logic_score"`
	CultureFitScore int       `json:"culture_fit_score"`
	CheatCount      int       `json:"cheat_count"`
	CreatedAt       time.Time `json:"created_at"`
}

func NewSubmissionSummary(s model.Submission) SubmissionSummaryDTO {
	return SubmissionSummaryDTO{
		ID:              s.ID,
		CandidateName:   s.CandidateName,
		CandidatePhone:  s.CandidatePhone,
		Role:            s.Role,
		Status:          s.Status,
		LogicScore:      s.LogicScore,
		CultureFitScore: s.CultureFitScore,
		CheatCount:      s.CheatCount,
		CreatedAt:       s.CreatedAt,
	}
}

type NotifyLinkDTO struct {
	SubmissionID string `json:"submission_id"`
	WhatsAppURL  string `json:"whatsapp_url"`
}
