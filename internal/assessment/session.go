package assessment

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fadilmartias/assessment-proctor/internal/invite"
	"github.com/fadilmartias/assessment-proctor/internal/proctoring"
	"github.com/google/uuid"
)

const DefaultRoleID = "store_leader"

// Hooks observe what happens inside a session. All fields are optional.
type Hooks struct {
	OnViolation    func(proctoring.ViolationEvent)
	OnBlocked      func(proctoring.RestrictedAction)
	OnCaptureError func(err error)
}

type Options struct {
	Catalog       *Catalog
	RoleID        string
	QuestionSetID string
	Thresholds    proctoring.Thresholds
	Capabilities  proctoring.Capabilities
	Capture       proctoring.CaptureDriver
	Hooks         Hooks
	Now           func() time.Time
}

// Session is one candidate's assessment. Every method is safe for concurrent use; frames
// are processed one at a time.
type Session struct {
	mu sync.Mutex

	id            string
	opts          Options
	stage         Stage
	moved         bool
	profile       Profile
	profileLocked bool
	roleID        string
	questionSetID string
	logicScore    *float64
	analysis      Analysis
	transcript    []Message
	tokenID       string

	cameraMode     proctoring.ChannelMode
	microphoneMode proctoring.ChannelMode
	aggregator     *proctoring.Aggregator
	detector       *proctoring.GazeDetector
	captureOn      bool
	submitting     bool

	createdAt    time.Time
	lastActivity time.Time
}

func NewSession(opts Options) *Session {
	if opts.Catalog == nil {
		opts.Catalog = DefaultCatalog()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Capture == nil {
		opts.Capture = proctoring.NewRemoteCaptureDriver()
	}
	if _, ok := opts.Catalog.Role(opts.RoleID); !ok {
		opts.RoleID = DefaultRoleID
	}
	if opts.QuestionSetID == "" {
		opts.QuestionSetID = "set_a"
	}

	agg := proctoring.NewAggregator()
	if opts.Hooks.OnViolation != nil {
		agg.OnViolation(opts.Hooks.OnViolation)
	}
	if opts.Hooks.OnBlocked != nil {
		agg.OnBlocked(opts.Hooks.OnBlocked)
	}

	now := opts.Now()
	s := &Session{
		id:           uuid.NewString(),
		opts:         opts,
		aggregator:   agg,
		detector:     proctoring.NewGazeDetector(opts.Thresholds, agg),
		createdAt:    now,
		lastActivity: now,
	}
	s.clear()
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// LastActivity is used by the manager to expire abandoned sessions.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

func (s *Session) clear() {
	s.stage = StageRoleSelection
	s.profile = defaultProfile()
	s.profileLocked = false
	s.roleID = s.opts.RoleID
	s.questionSetID = s.opts.QuestionSetID
	s.logicScore = nil
	s.analysis = initialAnalysis()
	s.transcript = nil
	s.tokenID = ""
	s.submitting = false
	s.cameraMode = channelMode(s.opts.Capabilities.CameraRequired)
	s.microphoneMode = channelMode(s.opts.Capabilities.MicrophoneRequired)
}

func channelMode(required bool) proctoring.ChannelMode {
	if required {
		return proctoring.ModeMonitored
	}
	return proctoring.ModeDisabled
}

func (s *Session) touch() {
	s.lastActivity = s.opts.Now()
}

func (s *Session) denied(action string) error {
	return &TransitionError{From: s.stage, Action: action}
}

// moveTo switches stage and flips monitoring on the boundary of logic_test/simulation.
func (s *Session) moveTo(ctx context.Context, next Stage) {
	prev := s.stage
	s.stage = next
	s.moved = true
	s.touch()

	switch {
	case !prev.Monitored() && next.Monitored():
		s.detector.Reset()
		s.aggregator.SetActive(true)
		s.startCapture(ctx)
	case prev.Monitored() && !next.Monitored():
		s.aggregator.SetActive(false)
		s.stopCapture(ctx)
	}
}

func (s *Session) startCapture(ctx context.Context) {
	if s.captureOn || s.cameraMode != proctoring.ModeMonitored {
		return
	}
	if err := s.opts.Capture.Start(ctx); err != nil {
		// monitoring degrades, the candidate keeps going
		s.cameraMode = proctoring.ModeUnmonitored
		s.captureFailed(err)
		return
	}
	s.captureOn = true
}

func (s *Session) stopCapture(ctx context.Context) {
	if !s.captureOn {
		return
	}
	s.captureOn = false
	if err := s.opts.Capture.Stop(ctx); err != nil {
		s.captureFailed(err)
	}
}

func (s *Session) captureFailed(err error) {
	if s.opts.Hooks.OnCaptureError != nil {
		s.opts.Hooks.OnCaptureError(err)
	}
}

// BindInvitation seeds the session from a validated invitation and jumps to candidate_intro
// with name and phone locked.
func (s *Session) BindInvitation(ctx context.Context, tok invite.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageRoleSelection || s.moved {
		return s.denied("bind invitation")
	}
	if _, ok := s.opts.Catalog.Role(tok.RoleID); !ok {
		return ErrUnknownRole
	}
	s.profile.Name = tok.Name
	s.profile.Phone = tok.Phone
	s.profileLocked = true
	s.roleID = tok.RoleID
	s.tokenID = tok.ID
	s.moveTo(ctx, StageCandidateIntro)
	return nil
}

// MarkLinkExpired is only valid as the very first transition of a session.
func (s *Session) MarkLinkExpired(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageRoleSelection || s.moved {
		return s.denied("expire link")
	}
	s.moveTo(ctx, StageLinkExpired)
	return nil
}

func (s *Session) ClearInvitation(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageLinkExpired {
		return s.denied("clear invitation")
	}
	s.tokenID = ""
	s.moveTo(ctx, StageRoleSelection)
	return nil
}

func (s *Session) SelectRole(ctx context.Context, roleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageRoleSelection {
		return s.denied("select role")
	}
	role, ok := s.opts.Catalog.Role(roleID)
	if !ok {
		return ErrUnknownRole
	}
	s.roleID = role.ID
	s.moveTo(ctx, StageCandidateIntro)
	return nil
}

// SetQuestionSet picks the logic-test paper; it can change until the test starts.
func (s *Session) SetQuestionSet(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.opts.Catalog.QuestionSet(id); !ok {
		return ErrUnknownQuestionSet
	}
	switch s.stage {
	case StageLogicTest, StageSimulationIntro, StageSimulation, StageSubmitted:
		return s.denied("change question set")
	}
	s.questionSetID = strings.TrimSpace(id)
	s.touch()
	return nil
}

// UpdateProfile replaces the editable profile. Name and phone may not change once an
// invitation locked them.
func (s *Session) UpdateProfile(p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageCandidateIntro {
		return s.denied("edit profile")
	}
	if s.profileLocked {
		if strings.TrimSpace(p.Name) != s.profile.Name || strings.TrimSpace(p.Phone) != s.profile.Phone {
			return ErrProfileLocked
		}
	}
	s.profile = Profile{
		Name:            strings.TrimSpace(p.Name),
		Phone:           strings.TrimSpace(p.Phone),
		Education:       strings.TrimSpace(p.Education),
		Major:           strings.TrimSpace(p.Major),
		LastPosition:    strings.TrimSpace(p.LastPosition),
		LastCompany:     strings.TrimSpace(p.LastCompany),
		ExperienceYears: strings.TrimSpace(p.ExperienceYears),
	}
	s.touch()
	return nil
}

func (s *Session) SubmitProfile(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageCandidateIntro {
		return s.denied("submit profile")
	}
	if !s.profile.Complete() {
		return ErrProfileIncomplete
	}
	s.moveTo(ctx, StageIntegrityBriefing)
	return nil
}

func (s *Session) AcknowledgeBriefing(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageIntegrityBriefing {
		return s.denied("acknowledge briefing")
	}
	s.moveTo(ctx, StageLogicTestIntro)
	return nil
}

func (s *Session) StartLogicTest(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageLogicTestIntro {
		return s.denied("start logic test")
	}
	s.moveTo(ctx, StageLogicTest)
	return nil
}

// CompleteLogicTest is the only way out of logic_test.
func (s *Session) CompleteLogicTest(ctx context.Context, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageLogicTest {
		return s.denied("complete logic test")
	}
	if score < 0 || score > 10 {
		return ErrInvalidScore
	}
	s.logicScore = &score
	s.moveTo(ctx, StageSimulationIntro)
	return nil
}

// StartSimulation seeds the transcript with the role's opening scenario. The suspicion
// count carries over from the logic test.
func (s *Session) StartSimulation(ctx context.Context) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageSimulationIntro {
		return Message{}, s.denied("start simulation")
	}
	role := s.role()
	opening := s.newMessage(SpeakerSystem, role.OpeningScenario)
	s.transcript = []Message{opening}
	s.analysis = initialAnalysis()
	s.moveTo(ctx, StageSimulation)
	return opening, nil
}

func (s *Session) role() Role {
	if r, ok := s.opts.Catalog.Role(s.roleID); ok {
		return r
	}
	return Role{ID: s.roleID, Label: s.roleID}
}

func (s *Session) Role() Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role()
}

func (s *Session) newMessage(speaker Speaker, text string) Message {
	return Message{ID: uuid.NewString(), Speaker: speaker, Text: text, Timestamp: s.opts.Now()}
}

// AppendCandidateMessage records a candidate turn and returns it with the history that
// preceded it, for the AI call.
func (s *Session) AppendCandidateMessage(text string) (Message, []Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageSimulation || s.submitting {
		return Message{}, nil, s.denied("send message")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, nil, ErrEmptyMessage
	}
	history := append([]Message(nil), s.transcript...)
	msg := s.newMessage(SpeakerCandidate, text)
	s.transcript = append(s.transcript, msg)
	s.touch()
	return msg, history, nil
}

// AppendSystemMessage records an AI turn. A nil analysis keeps the previous one.
func (s *Session) AppendSystemMessage(text string, analysis *Analysis) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageSimulation {
		return Message{}, s.denied("append reply")
	}
	msg := s.newMessage(SpeakerSystem, text)
	s.transcript = append(s.transcript, msg)
	if analysis != nil {
		s.analysis = *analysis
	}
	s.touch()
	return msg, nil
}

// BeginSubmission freezes the session for the pipeline. Only one submission may be in
// flight; AbortSubmission or CompleteSubmission ends it.
func (s *Session) BeginSubmission() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageSimulation {
		return Snapshot{}, s.denied("submit")
	}
	if s.submitting {
		return Snapshot{}, ErrSubmissionInProgress
	}
	if s.logicScore == nil {
		return Snapshot{}, ErrLogicScoreMissing
	}
	s.submitting = true
	s.touch()
	return Snapshot{
		SessionID:      s.id,
		Profile:        s.profile,
		Role:           s.role(),
		QuestionSetID:  s.questionSetID,
		LogicScore:     *s.logicScore,
		Scores:         s.analysis.Scores,
		Feedback:       s.analysis.Feedback,
		Transcript:     append([]Message(nil), s.transcript...),
		SuspicionCount: s.aggregator.Count(),
		TokenID:        s.tokenID,
	}, nil
}

// AbortSubmission leaves the candidate in the simulation so they can retry.
func (s *Session) AbortSubmission() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
}

// CompleteSubmission passes through submitted and resets to role_selection.
func (s *Session) CompleteSubmission(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageSimulation || !s.submitting {
		return s.denied("complete submission")
	}
	s.moveTo(ctx, StageSubmitted)
	s.reset(ctx)
	return nil
}

func (s *Session) reset(ctx context.Context) {
	if s.stage.Monitored() {
		s.aggregator.SetActive(false)
	}
	s.stopCapture(ctx)
	s.aggregator.Reset()
	s.detector.Reset()
	s.clear()
	s.touch()
}

// Reset discards everything and returns to role_selection.
func (s *Session) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moved = true
	s.reset(ctx)
}

// Close releases the capture device. Used when an abandoned session is dropped.
func (s *Session) Close(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aggregator.SetActive(false)
	s.stopCapture(ctx)
}

func (s *Session) EnterRecruiterLogin(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageRoleSelection {
		return s.denied("open recruiter login")
	}
	s.moveTo(ctx, StageRecruiterLogin)
	return nil
}

// AuthenticateRecruiter is called after the passcode was verified.
func (s *Session) AuthenticateRecruiter(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageRecruiterLogin {
		return s.denied("log in recruiter")
	}
	s.moveTo(ctx, StageRecruiterDashboard)
	return nil
}

func (s *Session) ExitRecruiter(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageRecruiterLogin && s.stage != StageRecruiterDashboard {
		return s.denied("leave recruiter area")
	}
	s.moveTo(ctx, StageRoleSelection)
	return nil
}

// ProcessFrame runs the gaze detector. Frames outside a monitored stage, or while the
// camera channel is not monitored, are ignored.
func (s *Session) ProcessFrame(frame proctoring.Frame) (proctoring.FrameResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stage.Monitored() || s.cameraMode != proctoring.ModeMonitored {
		return proctoring.FrameResult{}, false
	}
	if frame.CapturedAt.IsZero() {
		frame.CapturedAt = s.opts.Now()
	}
	s.touch()
	return s.detector.Process(frame), true
}

func (s *Session) VisibilityChanged(hidden bool) (warning string, counted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.aggregator.VisibilityChanged(hidden, s.opts.Now())
}

func (s *Session) RestrictedAction(action proctoring.RestrictedAction) proctoring.RestrictedOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aggregator.RestrictedAction(action)
}

type Device string

const (
	DeviceCamera     Device = "camera"
	DeviceMicrophone Device = "microphone"
)

// MediaPermission records the browser's answer to a camera or microphone prompt. A denial
// downgrades that channel to unmonitored; it never blocks the candidate.
func (s *Session) MediaPermission(ctx context.Context, device Device, granted bool) proctoring.ChannelMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	switch device {
	case DeviceCamera:
		if !s.opts.Capabilities.CameraRequired {
			return s.cameraMode
		}
		if !granted {
			s.cameraMode = proctoring.ModeUnmonitored
			s.stopCapture(ctx)
			return s.cameraMode
		}
		s.cameraMode = proctoring.ModeMonitored
		if s.stage.Monitored() {
			s.startCapture(ctx)
		}
		return s.cameraMode
	case DeviceMicrophone:
		if !s.opts.Capabilities.MicrophoneRequired {
			return s.microphoneMode
		}
		if granted {
			s.microphoneMode = proctoring.ModeMonitored
		} else {
			s.microphoneMode = proctoring.ModeUnmonitored
		}
		return s.microphoneMode
	}
	return proctoring.ModeDisabled
}

type View struct {
	ID              string                  `json:"id"`
	Stage           Stage                   `json:"stage"`
	Profile         Profile                 `json:"profile"`
	ProfileLocked   bool                    `json:"profile_locked"`
	RoleID          string                  `json:"role_id"`
	QuestionSetID   string                  `json:"question_set_id"`
	LogicScore      *float64                `json:"logic_score"`
	Analysis        Analysis                `json:"analysis"`
	Transcript      []Message               `json:"transcript"`
	SuspicionCount  int                     `json:"suspicion_count"`
	InvitationBound bool                    `json:"invitation_bound"`
	Capabilities    proctoring.Capabilities `json:"capabilities"`
	CameraMode      proctoring.ChannelMode  `json:"camera_mode"`
	MicrophoneMode  proctoring.ChannelMode  `json:"microphone_mode"`
	CaptureActive   bool                    `json:"capture_active"`
	GazeStatus      proctoring.Status       `json:"gaze_status"`
	Submitting      bool                    `json:"submitting"`
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	var logic *float64
	if s.logicScore != nil {
		v := *s.logicScore
		logic = &v
	}
	return View{
		ID:              s.id,
		Stage:           s.stage,
		Profile:         s.profile,
		ProfileLocked:   s.profileLocked,
		RoleID:          s.roleID,
		QuestionSetID:   s.questionSetID,
		LogicScore:      logic,
		Analysis:        s.analysis,
		Transcript:      append([]Message(nil), s.transcript...),
		SuspicionCount:  s.aggregator.Count(),
		InvitationBound: s.tokenID != "",
		Capabilities:    s.opts.Capabilities,
		CameraMode:      s.cameraMode,
		MicrophoneMode:  s.microphoneMode,
		CaptureActive:   s.captureOn,
		GazeStatus:      s.detector.Status(),
		Submitting:      s.submitting,
	}
}
