package assessment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fadilmartias/assessment-proctor/internal/scoring"
)

type Stage string

const (
	StageRoleSelection      Stage = "role_selection"
	StageCandidateIntro     Stage = "candidate_intro"
	StageIntegrityBriefing  Stage = "integrity_briefing"
	StageLogicTestIntro     Stage = "logic_test_intro"
	StageLogicTest          Stage = "logic_test"
	StageSimulationIntro    Stage = "simulation_intro"
	StageSimulation         Stage = "simulation"
	StageSubmitted          Stage = "submitted"
	StageRecruiterLogin     Stage = "recruiter_login"
	StageRecruiterDashboard Stage = "recruiter_dashboard"
	StageLinkExpired        Stage = "link_expired"
)

// Monitored reports whether integrity signals count in this stage.
func (s Stage) Monitored() bool {
	return s == StageLogicTest || s == StageSimulation
}

var (
	ErrInvalidTransition    = errors.New("transition not allowed from current stage")
	ErrProfileIncomplete    = errors.New("name, phone and major are required")
	ErrProfileLocked        = errors.New("name and phone are fixed by the invitation")
	ErrUnknownRole          = errors.New("unknown role")
	ErrUnknownQuestionSet   = errors.New("unknown question set")
	ErrInvalidScore         = errors.New("score must be between 0 and 10")
	ErrEmptyMessage         = errors.New("message must not be empty")
	ErrSubmissionInProgress = errors.New("submission already in progress")
	ErrLogicScoreMissing    = errors.New("logic test has not been completed")
	ErrNotFound             = errors.New("session not found")
)

// TransitionError carries the stage an illegal action was attempted from.
type TransitionError struct {
	From   Stage
	Action string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: cannot %s from %s", ErrInvalidTransition.Error(), e.Action, e.From)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

type Profile struct {
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	Education       string `json:"education"`
	Major           string `json:"major"`
	LastPosition    string `json:"last_position"`
	LastCompany     string `json:"last_company"`
	ExperienceYears string `json:"experience_years"`
}

func (p Profile) Complete() bool {
	return strings.TrimSpace(p.Name) != "" &&
		strings.TrimSpace(p.Phone) != "" &&
		strings.TrimSpace(p.Major) != ""
}

func defaultProfile() Profile {
	return Profile{Education: "SMA/SMK"}
}

type Speaker string

const (
	SpeakerCandidate Speaker = "candidate"
	SpeakerSystem    Speaker = "system"
)

type Message struct {
	ID        string    `json:"id"`
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Analysis is the live interview assessment surfaced after each AI reply.
type Analysis struct {
	Scores        scoring.SimulationScores `json:"scores"`
	Feedback      string                   `json:"feedback"`
	InterviewOver bool                     `json:"is_interview_over"`
}

const initialFeedback = "Start the simulation to receive an assessment."

func initialAnalysis() Analysis {
	return Analysis{Feedback: initialFeedback}
}

// Snapshot is the frozen session state handed to the submission pipeline.
type Snapshot struct {
	SessionID      string
	Profile        Profile
	Role           Role
	QuestionSetID  string
	LogicScore     float64
	Scores         scoring.SimulationScores
	Feedback       string
	Transcript     []Message
	SuspicionCount int
	TokenID        string
}
