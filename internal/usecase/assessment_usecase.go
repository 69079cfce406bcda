package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/fadilmartias/assessment-proctor/internal/assessment"
	"github.com/fadilmartias/assessment-proctor/internal/invite"
	"github.com/fadilmartias/assessment-proctor/internal/logger"
	"github.com/fadilmartias/assessment-proctor/internal/notify"
	"github.com/fadilmartias/assessment-proctor/internal/observability"
	"github.com/fadilmartias/assessment-proctor/internal/proctoring"
	"github.com/fadilmartias/assessment-proctor/internal/service"
	"go.uber.org/zap"
)

type AssessmentConfig struct {
	Thresholds        proctoring.Thresholds
	Capabilities      proctoring.Capabilities
	RecruiterPasscode string
	// BaseURL is the candidate app address used in invitation links.
	BaseURL string
	Company string
}

type AssessmentDeps struct {
	Manager      *assessment.Manager
	Catalog      *assessment.Catalog
	Codec        *invite.Codec
	Conversation Conversation
	Submissions  *SubmissionUsecase
	Settings     *SettingsUsecase
	Metrics      *observability.Metrics
}

// MessageOutcome is what the candidate sees after sending a chat turn. Submission is set
// when the interviewer concluded the session and the pipeline ran.
type MessageOutcome struct {
	Candidate  assessment.Message   `json:"candidate"`
	Reply      assessment.Message   `json:"reply"`
	Analysis   *assessment.Analysis `json:"analysis,omitempty"`
	Provider   string               `json:"provider,omitempty"`
	Submission *SubmitResult        `json:"submission,omitempty"`
}

type Invitation struct {
	Token       invite.Token `json:"token"`
	Encoded     string       `json:"encoded"`
	URL         string       `json:"url"`
	WhatsAppURL string       `json:"whatsapp_url"`
}

type AssessmentUsecase struct {
	manager      *assessment.Manager
	catalog      *assessment.Catalog
	codec        *invite.Codec
	conversation Conversation
	submissions  *SubmissionUsecase
	settings     *SettingsUsecase
	metrics      *observability.Metrics
	cfg          AssessmentConfig
	log          *zap.Logger
	now          func() time.Time
}

func NewAssessmentUsecase(deps AssessmentDeps, cfg AssessmentConfig, log *zap.Logger) *AssessmentUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	if deps.Catalog == nil {
		deps.Catalog = assessment.DefaultCatalog()
	}
	if deps.Codec == nil {
		deps.Codec = invite.NewCodec()
	}
	uc := &AssessmentUsecase{
		manager:      deps.Manager,
		catalog:      deps.Catalog,
		codec:        deps.Codec,
		conversation: deps.Conversation,
		submissions:  deps.Submissions,
		settings:     deps.Settings,
		metrics:      deps.Metrics,
		cfg:          cfg,
		log:          log,
		now:          time.Now,
	}
	uc.manager.SetExpireHook(func(s *assessment.Session) {
		uc.log.Info("session expired", zap.String(logger.FieldSession, s.ID()), zap.String(logger.FieldStage, string(s.Stage())))
		uc.sessionEvent("expired")
	})
	return uc
}

// StartSession opens a session and applies the invitation, if any. A token that does not
// decode is ignored; an expired or redeemed one lands on link_expired.
func (uc *AssessmentUsecase) StartSession(ctx context.Context, invitation string) (*assessment.Session, error) {
	defaults := uc.settings.Defaults(ctx)
	sess := uc.manager.Create(assessment.Options{
		Catalog:       uc.catalog,
		RoleID:        defaults.ActiveRole,
		QuestionSetID: defaults.ActiveLogicSetID,
		Thresholds:    uc.cfg.Thresholds,
		Capabilities:  uc.cfg.Capabilities,
		Hooks:         uc.hooks(),
	})
	uc.sessionEvent("created")
	log := logger.WithSession(uc.log, sess.ID())

	if invitation == "" {
		return sess, nil
	}

	tok, err := uc.codec.Decode(invitation)
	if err != nil {
		log.Warn("ignoring undecodable invitation", zap.Error(err))
		return sess, nil
	}
	log = log.With(zap.String("token_id", tok.ID))

	if tok.IsExpired(uc.now()) || uc.submissions.IsRedeemed(ctx, tok.ID) {
		log.Info("invitation no longer valid", zap.Time("expires_at", tok.ExpiresAt))
		uc.sessionEvent("link_expired")
		return sess, sess.MarkLinkExpired(ctx)
	}

	if err := sess.BindInvitation(ctx, tok); err != nil {
		if errors.Is(err, assessment.ErrUnknownRole) {
			log.Warn("invitation names an unknown role", zap.String("role_id", tok.RoleID))
			return sess, nil
		}
		return sess, err
	}
	uc.sessionEvent("invitation_bound")
	return sess, nil
}

func (uc *AssessmentUsecase) Session(id string) (*assessment.Session, error) {
	return uc.manager.Get(id)
}

func (uc *AssessmentUsecase) EndSession(ctx context.Context, id string) error {
	if err := uc.manager.Remove(ctx, id); err != nil {
		return err
	}
	uc.sessionEvent("ended")
	return nil
}

// Do runs fn against a live session and returns its view afterwards.
func (uc *AssessmentUsecase) Do(id string, fn func(*assessment.Session) error) (assessment.View, error) {
	sess, err := uc.manager.Get(id)
	if err != nil {
		return assessment.View{}, err
	}
	if err := fn(sess); err != nil {
		return sess.View(), err
	}
	return sess.View(), nil
}

// SendMessage records the candidate turn and asks the AI for the interviewer reply. When
// every provider is down the apology becomes the reply. A concluded interview submits.
func (uc *AssessmentUsecase) SendMessage(ctx context.Context, id, text string) (*MessageOutcome, error) {
	sess, err := uc.manager.Get(id)
	if err != nil {
		return nil, err
	}
	candidate, history, err := sess.AppendCandidateMessage(text)
	if err != nil {
		return nil, err
	}

	res, err := uc.conversation.Converse(ctx, history, candidate.Text, sess.Role().SystemInstructions)
	if err != nil {
		logger.WithSession(uc.log, id).Warn("interviewer reply unavailable", zap.Error(err))
		res = service.ConverseResult{Text: service.ErrAIUnavailable.Error()}
	}

	reply, err := sess.AppendSystemMessage(res.Text, res.Analysis)
	if err != nil {
		return nil, err
	}
	out := &MessageOutcome{
		Candidate: candidate,
		Reply:     reply,
		Analysis:  res.Analysis,
		Provider:  res.Provider,
	}

	if res.Analysis != nil && res.Analysis.InterviewOver {
		result, err := uc.Submit(ctx, id)
		if err != nil {
			return out, err
		}
		out.Submission = result
	}
	return out, nil
}

// Submit runs the submission pipeline. Scores are withheld from the candidate unless the
// recruiter allowed it.
func (uc *AssessmentUsecase) Submit(ctx context.Context, id string) (*SubmitResult, error) {
	sess, err := uc.manager.Get(id)
	if err != nil {
		return nil, err
	}
	result, err := uc.submissions.Submit(ctx, sess)
	if err != nil {
		return nil, err
	}
	uc.sessionEvent("submitted")
	if !uc.settings.Defaults(ctx).AllowCandidateViewScore {
		return &SubmitResult{SubmissionID: result.SubmissionID, ClearInvitation: result.ClearInvitation}, nil
	}
	return result, nil
}

func (uc *AssessmentUsecase) ProcessFrame(id string, frame proctoring.Frame) (proctoring.FrameResult, bool, error) {
	sess, err := uc.manager.Get(id)
	if err != nil {
		return proctoring.FrameResult{}, false, err
	}
	res, processed := sess.ProcessFrame(frame)
	return res, processed, nil
}

func (uc *AssessmentUsecase) VisibilityChanged(id string, hidden bool) (string, bool, error) {
	sess, err := uc.manager.Get(id)
	if err != nil {
		return "", false, err
	}
	warning, counted := sess.VisibilityChanged(hidden)
	return warning, counted, nil
}

func (uc *AssessmentUsecase) RestrictedAction(id string, action proctoring.RestrictedAction) (proctoring.RestrictedOutcome, error) {
	sess, err := uc.manager.Get(id)
	if err != nil {
		return proctoring.RestrictedOutcome{}, err
	}
	return sess.RestrictedAction(action), nil
}

func (uc *AssessmentUsecase) MediaPermission(ctx context.Context, id string, device assessment.Device, granted bool) (assessment.View, error) {
	return uc.Do(id, func(s *assessment.Session) error {
		mode := s.MediaPermission(ctx, device, granted)
		if !granted {
			logger.WithSession(uc.log, id).Info("media permission denied",
				zap.String("device", string(device)), zap.String("mode", string(mode)))
		}
		return nil
	})
}

// RecruiterLogin moves the session through recruiter_login and, when the passcode
// matches, on to the dashboard.
func (uc *AssessmentUsecase) RecruiterLogin(ctx context.Context, id, passcode string) (assessment.View, error) {
	return uc.Do(id, func(s *assessment.Session) error {
		if s.Stage() == assessment.StageRoleSelection {
			if err := s.EnterRecruiterLogin(ctx); err != nil {
				return err
			}
		}
		if !uc.VerifyPasscode(passcode) {
			uc.log.Warn("recruiter login rejected", zap.String(logger.FieldSession, id))
			return ErrInvalidPasscode
		}
		return s.AuthenticateRecruiter(ctx)
	})
}

// VerifyPasscode fails closed when no passcode is configured.
func (uc *AssessmentUsecase) VerifyPasscode(passcode string) bool {
	if uc.cfg.RecruiterPasscode == "" || passcode == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(passcode), []byte(uc.cfg.RecruiterPasscode)) == 1
}

// IssueInvitation creates a single-use link for a candidate. An empty role uses the
// active role from settings.
func (uc *AssessmentUsecase) IssueInvitation(ctx context.Context, name, phone, roleID string) (*Invitation, error) {
	if roleID == "" {
		roleID = uc.settings.Defaults(ctx).ActiveRole
	}
	role, ok := uc.catalog.Role(roleID)
	if !ok {
		return nil, ErrInvalidInvitation
	}
	tok, encoded, err := uc.codec.Issue(name, phone, role.ID, invite.DefaultTTL)
	if err != nil {
		return nil, ErrInvalidInvitation
	}
	link := invite.URL(uc.cfg.BaseURL, encoded)
	uc.log.Info("invitation issued", zap.String("token_id", tok.ID), zap.String("role_id", role.ID))
	return &Invitation{
		Token:       tok,
		Encoded:     encoded,
		URL:         link,
		WhatsAppURL: notify.InvitationLink(uc.cfg.Company, tok.Phone, tok.Name, role.Label, link),
	}, nil
}

func (uc *AssessmentUsecase) Catalog() *assessment.Catalog {
	return uc.catalog
}

func (uc *AssessmentUsecase) hooks() assessment.Hooks {
	return assessment.Hooks{
		OnViolation: func(ev proctoring.ViolationEvent) {
			if uc.metrics != nil {
				uc.metrics.Violations.WithLabelValues(string(ev.Kind)).Inc()
			}
		},
		OnBlocked: func(action proctoring.RestrictedAction) {
			if uc.metrics != nil {
				uc.metrics.BlockedActions.WithLabelValues(string(action)).Inc()
			}
		},
		OnCaptureError: func(err error) {
			uc.log.Warn("capture could not start, camera unmonitored", zap.Error(err))
		},
	}
}

func (uc *AssessmentUsecase) sessionEvent(event string) {
	if uc.metrics == nil {
		return
	}
	uc.metrics.SessionEvents.WithLabelValues(event).Inc()
	uc.metrics.ActiveSessions.Set(float64(uc.manager.ActiveCount()))
}
