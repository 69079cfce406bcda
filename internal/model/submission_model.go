package model

import (
	"time"

	"github.com/google/uuid"
)

type CandidateProfile struct {
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	Education       string `json:"education"`
	Major           string `json:"major"`
	LastPosition    string `json:"last_position"`
	LastCompany     string `json:"last_company"`
	ExperienceYears string `json:"experience_years"`
}

type SimulationScores struct {
	Sales              float64 `json:"sales"`
	Leadership         float64 `json:"leadership"`
	Operations         float64 `json:"operations"`
	CustomerExperience float64 `json:"cx"`
}

// Psychometrics are the five trait axes of the final report, each 0-100.
type Psychometrics struct {
	Openness           int `json:"openness"`
	Conscientiousness  int `json:"conscientiousness"`
	Extraversion       int `json:"extraversion"`
	Agreeableness      int `json:"agreeableness"`
	EmotionalStability int `json:"emotional_stability"`
}

type ChatMessage struct {
	ID        string    `json:"id"`
	Speaker   string    `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Submission is written once at the end of an assessment and never updated.
type Submission struct {
	ID                    uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	CandidateName         string           `gorm:"type:varchar(255);not null" json:"candidate_name"`
	CandidatePhone        string           `gorm:"type:varchar(50);not null" json:"candidate_phone"`
	RoleID                string           `gorm:"type:varchar(50);index" json:"role_id"`
	Role                  string           `gorm:"type:varchar(100)" json:"role"`
	QuestionSetID         string           `gorm:"type:varchar(50)" json:"question_set_id"`
	LogicScore            float64          `gorm:"type:float" json:"logic_score"`
	CultureFitScore       int              `json:"culture_fit_score"`
	StructuredAnswerScore float64          `gorm:"type:float" json:"structured_answer_score"`
	Status                string           `gorm:"type:varchar(20);index" json:"status"`
	ProfileData           CandidateProfile `gorm:"type:jsonb;serializer:json" json:"profile_data"`
	SimulationScores      SimulationScores `gorm:"type:jsonb;serializer:json" json:"simulation_scores"`
	SimulationFeedback    string           `gorm:"type:text" json:"simulation_feedback"`
	Psychometrics         Psychometrics    `gorm:"type:jsonb;serializer:json" json:"psychometrics"`
	FinalSummary          string           `gorm:"type:text" json:"final_summary"`
	ReportSource          string           `gorm:"type:varchar(50)" json:"report_source"`
	CheatCount            int              `json:"cheat_count"`
	ChatHistory           []ChatMessage    `gorm:"type:jsonb;serializer:json" json:"chat_history"`
	TokenID               string           `gorm:"type:varchar(64);index" json:"token_id,omitempty"`
	CreatedAt             time.Time        `gorm:"index" json:"created_at"`
}

func (s *Submission) TableName() string {
	return "submissions"
}
