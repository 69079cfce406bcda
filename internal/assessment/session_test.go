package assessment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fadilmartias/assessment-proctor/internal/invite"
	"github.com/fadilmartias/assessment-proctor/internal/proctoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCapture struct {
	starts, stops int
	startErr      error
}

func (f *fakeCapture) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.starts++
	return nil
}

func (f *fakeCapture) Stop(ctx context.Context) error {
	f.stops++
	return nil
}

func newTestSession(t *testing.T, capture *fakeCapture) *Session {
	t.Helper()
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return NewSession(Options{
		Capabilities: proctoring.Capabilities{CameraRequired: true},
		Capture:      capture,
		Now:          func() time.Time { return clock },
	})
}

func completeProfile() Profile {
	return Profile{Name: "Budi Santoso", Phone: "081234567890", Education: "S1", Major: "Management"}
}

func advanceToLogicTest(t *testing.T, s *Session) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.SelectRole(ctx, "mechanic"))
	require.NoError(t, s.UpdateProfile(completeProfile()))
	require.NoError(t, s.SubmitProfile(ctx))
	require.NoError(t, s.AcknowledgeBriefing(ctx))
	require.NoError(t, s.StartLogicTest(ctx))
}

func feedNoFace(s *Session, n int) {
	at := time.Unix(10_000, 0)
	for i := 0; i < n; i++ {
		s.ProcessFrame(proctoring.Frame{CapturedAt: at})
		at = at.Add(33 * time.Millisecond)
	}
}

func TestEmptyNameIsRefused(t *testing.T) {
	s := newTestSession(t, &fakeCapture{})
	ctx := context.Background()
	require.NoError(t, s.SelectRole(ctx, "store_leader"))

	p := completeProfile()
	p.Name = "   "
	require.NoError(t, s.UpdateProfile(p))

	err := s.SubmitProfile(ctx)
	assert.ErrorIs(t, err, ErrProfileIncomplete)
	assert.Equal(t, StageCandidateIntro, s.Stage())
}

func TestFullForwardPath(t *testing.T) {
	capture := &fakeCapture{}
	s := newTestSession(t, capture)
	ctx := context.Background()

	assert.Equal(t, StageRoleSelection, s.Stage())
	advanceToLogicTest(t, s)
	assert.Equal(t, StageLogicTest, s.Stage())
	assert.Equal(t, 1, capture.starts)

	require.NoError(t, s.CompleteLogicTest(ctx, 7))
	assert.Equal(t, StageSimulationIntro, s.Stage())
	assert.Equal(t, 1, capture.stops, "camera released when leaving a monitored stage")

	opening, err := s.StartSimulation(ctx)
	require.NoError(t, err)
	assert.Equal(t, SpeakerSystem, opening.Speaker)
	assert.NotEmpty(t, opening.Text)
	assert.Equal(t, 2, capture.starts)

	v := s.View()
	require.Len(t, v.Transcript, 1)
	require.NotNil(t, v.LogicScore)
	assert.Equal(t, 7.0, *v.LogicScore)
	assert.Equal(t, initialFeedback, v.Analysis.Feedback)
}

func TestLogicTestHasNoExitButCompletion(t *testing.T) {
	s := newTestSession(t, &fakeCapture{})
	advanceToLogicTest(t, s)
	ctx := context.Background()

	assert.ErrorIs(t, s.StartLogicTest(ctx), ErrInvalidTransition)
	_, err := s.StartSimulation(ctx)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, s.EnterRecruiterLogin(ctx), ErrInvalidTransition)
	assert.ErrorIs(t, s.CompleteLogicTest(ctx, 11), ErrInvalidScore)
	assert.Equal(t, StageLogicTest, s.Stage())

	var te *TransitionError
	require.True(t, errors.As(s.AcknowledgeBriefing(ctx), &te))
	assert.Equal(t, StageLogicTest, te.From)
}

func TestSignalsOnlyCountInMonitoredStages(t *testing.T) {
	s := newTestSession(t, &fakeCapture{})
	ctx := context.Background()

	_, counted := s.VisibilityChanged(true)
	assert.False(t, counted)
	_, processed := s.ProcessFrame(proctoring.Frame{CapturedAt: time.Unix(1, 0)})
	assert.False(t, processed)
	assert.False(t, s.RestrictedAction(proctoring.ActionCopy).Blocked)

	advanceToLogicTest(t, s)
	warning, counted := s.VisibilityChanged(true)
	assert.True(t, counted)
	assert.Equal(t, proctoring.VisibilityWarning, warning)
	s.VisibilityChanged(false)
	assert.True(t, s.RestrictedAction(proctoring.ActionCut).Blocked)
	feedNoFace(s, 31)
	assert.Equal(t, 2, s.View().SuspicionCount)

	require.NoError(t, s.CompleteLogicTest(ctx, 6))
	_, counted = s.VisibilityChanged(true)
	assert.False(t, counted, "simulation_intro is not monitored")

	_, err := s.StartSimulation(ctx)
	require.NoError(t, err)
	_, counted = s.VisibilityChanged(true)
	assert.True(t, counted)
	assert.Equal(t, 3, s.View().SuspicionCount, "suspicion accumulates across both monitored stages")
}

func TestInvitationLocksIdentity(t *testing.T) {
	s := newTestSession(t, &fakeCapture{})
	ctx := context.Background()
	tok := invite.Token{ID: "tok-1", Name: "Siti", Phone: "0812", RoleID: "store_leader", ExpiresAt: time.Now().Add(time.Hour)}

	require.NoError(t, s.BindInvitation(ctx, tok))
	v := s.View()
	assert.Equal(t, StageCandidateIntro, v.Stage)
	assert.True(t, v.ProfileLocked)
	assert.True(t, v.InvitationBound)
	assert.Equal(t, "store_leader", v.RoleID)
	assert.Equal(t, "Siti", v.Profile.Name)

	err := s.UpdateProfile(Profile{Name: "Someone Else", Phone: "0812", Major: "IT"})
	assert.ErrorIs(t, err, ErrProfileLocked)

	require.NoError(t, s.UpdateProfile(Profile{Name: "Siti", Phone: "0812", Major: "IT"}))
	require.NoError(t, s.SubmitProfile(ctx))
}

func TestInvitationWithUnknownRole(t *testing.T) {
	s := newTestSession(t, &fakeCapture{})
	err := s.BindInvitation(context.Background(), invite.Token{ID: "x", Name: "a", Phone: "b", RoleID: "astronaut"})
	assert.ErrorIs(t, err, ErrUnknownRole)
	assert.Equal(t, StageRoleSelection, s.Stage())
}

func TestLinkExpiredOnlyAsFirstTransition(t *testing.T) {
	ctx := context.Background()

	s := newTestSession(t, &fakeCapture{})
	require.NoError(t, s.MarkLinkExpired(ctx))
	assert.Equal(t, StageLinkExpired, s.Stage())
	require.NoError(t, s.ClearInvitation(ctx))
	assert.Equal(t, StageRoleSelection, s.Stage())
	assert.ErrorIs(t, s.MarkLinkExpired(ctx), ErrInvalidTransition)

	other := newTestSession(t, &fakeCapture{})
	require.NoError(t, other.SelectRole(ctx, "mechanic"))
	assert.ErrorIs(t, other.MarkLinkExpired(ctx), ErrInvalidTransition)
}

func TestSubmissionLifecycle(t *testing.T) {
	capture := &fakeCapture{}
	s := newTestSession(t, capture)
	ctx := context.Background()
	require.NoError(t, s.BindInvitation(ctx, invite.Token{ID: "tok-9", Name: "Andi", Phone: "0811", RoleID: "sales_counter"}))
	require.NoError(t, s.UpdateProfile(Profile{Name: "Andi", Phone: "0811", Major: "Sales"}))
	require.NoError(t, s.SubmitProfile(ctx))
	require.NoError(t, s.AcknowledgeBriefing(ctx))
	require.NoError(t, s.StartLogicTest(ctx))
	require.NoError(t, s.CompleteLogicTest(ctx, 8))
	_, err := s.StartSimulation(ctx)
	require.NoError(t, err)

	_, history, err := s.AppendCandidateMessage("I would ask what they need first.")
	require.NoError(t, err)
	assert.Len(t, history, 1)
	_, _, err = s.AppendCandidateMessage("  ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	analysis := &Analysis{Feedback: "good discovery"}
	analysis.Scores.Sales = 8
	_, err = s.AppendSystemMessage("Why that tyre?", analysis)
	require.NoError(t, err)

	snap, err := s.BeginSubmission()
	require.NoError(t, err)
	assert.Equal(t, "tok-9", snap.TokenID)
	assert.Equal(t, 8.0, snap.LogicScore)
	assert.Equal(t, 8.0, snap.Scores.Sales)
	assert.Equal(t, "sales_counter", snap.Role.ID)
	assert.Len(t, snap.Transcript, 3)

	_, err = s.BeginSubmission()
	assert.ErrorIs(t, err, ErrSubmissionInProgress)
	_, _, err = s.AppendCandidateMessage("still there?")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	s.AbortSubmission()
	assert.Equal(t, StageSimulation, s.Stage())

	_, err = s.BeginSubmission()
	require.NoError(t, err)
	require.NoError(t, s.CompleteSubmission(ctx))

	v := s.View()
	assert.Equal(t, StageRoleSelection, v.Stage)
	assert.False(t, v.InvitationBound)
	assert.False(t, v.ProfileLocked)
	assert.Empty(t, v.Transcript)
	assert.Nil(t, v.LogicScore)
	assert.Equal(t, 0, v.SuspicionCount)
	assert.False(t, v.CaptureActive)
	assert.Equal(t, capture.starts, capture.stops)
}

func TestCameraDenialDegradesMonitoring(t *testing.T) {
	capture := &fakeCapture{}
	s := newTestSession(t, capture)
	advanceToLogicTest(t, s)
	ctx := context.Background()

	mode := s.MediaPermission(ctx, DeviceCamera, false)
	assert.Equal(t, proctoring.ModeUnmonitored, mode)
	assert.Equal(t, 1, capture.stops)

	_, processed := s.ProcessFrame(proctoring.Frame{CapturedAt: time.Unix(1, 0)})
	assert.False(t, processed)

	// the candidate keeps going and other channels still count
	_, counted := s.VisibilityChanged(true)
	assert.True(t, counted)
	require.NoError(t, s.CompleteLogicTest(ctx, 5))
}

func TestCaptureStartFailureDegrades(t *testing.T) {
	capture := &fakeCapture{startErr: errors.New("device busy")}
	var hookErr error
	s := NewSession(Options{
		Capabilities: proctoring.Capabilities{CameraRequired: true},
		Capture:      capture,
		Hooks:        Hooks{OnCaptureError: func(err error) { hookErr = err }},
	})
	advanceToLogicTest(t, s)

	assert.Equal(t, StageLogicTest, s.Stage())
	assert.Equal(t, proctoring.ModeUnmonitored, s.View().CameraMode)
	assert.EqualError(t, hookErr, "device busy")
}

func TestCameraNotRequired(t *testing.T) {
	capture := &fakeCapture{}
	s := NewSession(Options{Capture: capture})
	advanceToLogicTest(t, s)

	assert.Equal(t, proctoring.ModeDisabled, s.View().CameraMode)
	assert.Equal(t, 0, capture.starts)
	assert.Equal(t, proctoring.ModeDisabled, s.MediaPermission(context.Background(), DeviceCamera, true))
}

func TestRecruiterPath(t *testing.T) {
	s := newTestSession(t, &fakeCapture{})
	ctx := context.Background()

	assert.ErrorIs(t, s.AuthenticateRecruiter(ctx), ErrInvalidTransition)
	require.NoError(t, s.EnterRecruiterLogin(ctx))
	require.NoError(t, s.AuthenticateRecruiter(ctx))
	assert.Equal(t, StageRecruiterDashboard, s.Stage())

	_, counted := s.VisibilityChanged(true)
	assert.False(t, counted, "recruiter stages never count violations")

	require.NoError(t, s.ExitRecruiter(ctx))
	assert.Equal(t, StageRoleSelection, s.Stage())
}

func TestQuestionSetSelection(t *testing.T) {
	s := newTestSession(t, &fakeCapture{})
	require.NoError(t, s.SetQuestionSet("set_b"))
	assert.Equal(t, "set_b", s.View().QuestionSetID)
	assert.ErrorIs(t, s.SetQuestionSet("set_z"), ErrUnknownQuestionSet)

	advanceToLogicTest(t, s)
	assert.ErrorIs(t, s.SetQuestionSet("set_a"), ErrInvalidTransition)
}
