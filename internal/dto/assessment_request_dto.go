package dto

import (
	"strings"
	"time"

	"github.com/fadilmartias/assessment-proctor/internal/assessment"
	"github.com/fadilmartias/assessment-proctor/internal/proctoring"
)

type CreateSessionRequest struct {
	Invitation string `json:"invitation"`
}

type SelectRoleRequest struct {
	RoleID string `json:"role_id"`
}

func (r SelectRoleRequest) Validate() map[string]string {
	if strings.TrimSpace(r.RoleID) == "" {
		return map[string]string{"role_id": "role_id is required"}
	}
	return nil
}

type QuestionSetRequest struct {
	QuestionSetID string `json:"question_set_id"`
}

func (r QuestionSetRequest) Validate() map[string]string {
	if strings.TrimSpace(r.QuestionSetID) == "" {
		return map[string]string{"question_set_id": "question_set_id is required"}
	}
	return nil
}

type ProfileRequest struct {
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	Education       string `json:"education"`
	Major           string `json:"major"`
	LastPosition    string `json:"last_position"`
	LastCompany     string `json:"last_company"`
	ExperienceYears string `json:"experience_years"`
}

func (r ProfileRequest) ToProfile() assessment.Profile {
	return assessment.Profile{
		Name:            r.Name,
		Phone:           r.Phone,
		Education:       r.Education,
		Major:           r.Major,
		LastPosition:    r.LastPosition,
		LastCompany:     r.LastCompany,
		ExperienceYears: r.ExperienceYears,
	}
}

type LogicScoreRequest struct {
	Score *float64 `json:"score"`
}

func (r LogicScoreRequest) Validate() map[string]string {
	if r.Score == nil {
		return map[string]string{"score": "score is required"}
	}
	return nil
}

type MessageRequest struct {
	Text string `json:"text"`
}

// FrameRequest carries the landmarks of one camera frame. A missing landmarks object means
// the extractor found no face.
type FrameRequest struct {
	Landmarks *proctoring.Landmarks `json:"landmarks"`
	// CapturedAt is unix milliseconds; zero means now.
	CapturedAt int64 `json:"captured_at"`
}

func (r FrameRequest) ToFrame() proctoring.Frame {
	f := proctoring.Frame{Landmarks: r.Landmarks}
	if r.CapturedAt > 0 {
		f.CapturedAt = time.UnixMilli(r.CapturedAt)
	}
	return f
}

type VisibilityRequest struct {
	Hidden bool `json:"hidden"`
}

type RestrictedActionRequest struct {
	Action string `json:"action"`
}

func (r RestrictedActionRequest) Validate() map[string]string {
	switch proctoring.ParseRestrictedAction(r.Action) {
	case proctoring.ActionCopy, proctoring.ActionCut, proctoring.ActionContextMenu, proctoring.ActionPaste:
		return nil
	}
	return map[string]string{"action": "action must be one of copy, cut, contextmenu, paste"}
}

type CaptureRequest struct {
	Device  string `json:"device"`
	Granted bool   `json:"granted"`
}

func (r CaptureRequest) Validate() map[string]string {
	switch assessment.Device(r.Device) {
	case assessment.DeviceCamera, assessment.DeviceMicrophone:
		return nil
	}
	return map[string]string{"device": "device must be camera or microphone"}
}

type RecruiterLoginRequest struct {
	Passcode string `json:"passcode"`
}

type InvitationRequest struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	RoleID string `json:"role_id"`
}

func (r InvitationRequest) Validate() map[string]string {
	errs := make(map[string]string)
	if strings.TrimSpace(r.Name) == "" {
		errs["name"] = "name is required"
	}
	if strings.TrimSpace(r.Phone) == "" {
		errs["phone"] = "phone is required"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// SettingsRequest is a partial update; omitted fields keep their value.
type SettingsRequest struct {
	ActiveRole              *string           `json:"active_role"`
	ActiveLogicSetID        *string           `json:"active_logic_set_id"`
	AllowCandidateViewScore *bool             `json:"allow_candidate_view_score"`
	APIKeys                 map[string]string `json:"api_keys"`
}
