package handler

import (
	"context"
	"time"

	"github.com/fadilmartias/assessment-proctor/internal/assessment"
	"github.com/fadilmartias/assessment-proctor/internal/dto"
	"github.com/fadilmartias/assessment-proctor/internal/invite"
	"github.com/fadilmartias/assessment-proctor/internal/middleware"
	"github.com/fadilmartias/assessment-proctor/internal/proctoring"
	"github.com/fadilmartias/assessment-proctor/internal/usecase"
	"github.com/fadilmartias/assessment-proctor/internal/util"
	"github.com/gofiber/fiber/v2"
)

type AssessmentHandler struct {
	uc *usecase.AssessmentUsecase
}

func NewAssessmentHandler(uc *usecase.AssessmentUsecase) *AssessmentHandler {
	return &AssessmentHandler{uc: uc}
}

func (h *AssessmentHandler) RegisterRoutes(app fiber.Router) {
	app.Get("/roles", h.Roles)
	app.Post("/sessions", h.CreateSession)

	s := app.Group("/sessions/:id")
	s.Get("/", h.GetSession)
	s.Delete("/", h.EndSession)
	s.Post("/role", h.SelectRole)
	s.Put("/question-set", h.SetQuestionSet)
	s.Put("/profile", h.UpdateProfile)
	s.Post("/profile/submit", h.transition((*assessment.Session).SubmitProfile, "Profile submitted"))
	s.Post("/briefing/ack", h.transition((*assessment.Session).AcknowledgeBriefing, "Briefing acknowledged"))
	s.Post("/logic/start", h.transition((*assessment.Session).StartLogicTest, "Logic test started"))
	s.Post("/logic/complete", h.CompleteLogicTest)
	s.Post("/simulation/start", h.StartSimulation)
	s.Post("/messages", middleware.RateLimiter(20, 1*time.Minute), h.SendMessage)
	s.Post("/submit", middleware.RateLimiter(3, 10*time.Second), h.Submit)
	s.Post("/invitation/clear", h.transition((*assessment.Session).ClearInvitation, "Invitation cleared"))

	s.Post("/signals/frame", h.Frame)
	s.Post("/signals/visibility", h.Visibility)
	s.Post("/signals/restricted", h.Restricted)
	s.Post("/signals/capture", h.Capture)

	s.Post("/recruiter/login", middleware.RateLimiter(5, 1*time.Minute), h.RecruiterLogin)
	s.Post("/recruiter/logout", h.transition((*assessment.Session).ExitRecruiter, "Recruiter logged out"))
}

// transition wraps a session method that only needs a context.
func (h *AssessmentHandler) transition(fn func(*assessment.Session, context.Context) error, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		view, err := h.uc.Do(c.Params("id"), func(s *assessment.Session) error {
			return fn(s, ctx)
		})
		if err != nil {
			return fail(c, err)
		}
		return util.SuccessResponse(c, util.SuccessResponseFormat{
			Message: message,
			Data:    view,
		})
	}
}

func (h *AssessmentHandler) Roles(c *fiber.Ctx) error {
	catalog := h.uc.Catalog()
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get roles",
		Data: fiber.Map{
			"roles":         catalog.Roles(),
			"question_sets": catalog.QuestionSets(),
		},
	})
}

// CreateSession accepts the invitation in the body or, as the candidate link carries it,
// in the query string.
func (h *AssessmentHandler) CreateSession(c *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}
	if req.Invitation == "" {
		req.Invitation = c.Query(invite.QueryParam)
	}
	sess, err := h.uc.StartSession(c.UserContext(), req.Invitation)
	if err != nil {
		return fail(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusCreated,
		Message: "Session started",
		Data:    sess.View(),
	})
}

func (h *AssessmentHandler) GetSession(c *fiber.Ctx) error {
	sess, err := h.uc.Session(c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get session",
		Data:    sess.View(),
	})
}

func (h *AssessmentHandler) EndSession(c *fiber.Ctx) error {
	if err := h.uc.EndSession(c.UserContext(), c.Params("id")); err != nil {
		return fail(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Session ended",
	})
}

func (h *AssessmentHandler) SelectRole(c *fiber.Ctx) error {
	var req dto.SelectRoleRequest
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}
	ctx := c.UserContext()
	view, err := h.uc.Do(c.Params("id"), func(s *assessment.Session) error {
		return s.SelectRole(ctx, req.RoleID)
	})
	if err != nil {
		return fail(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Role selected",
		Data:    view,
	})
}

func (h *AssessmentHandler) SetQuestionSet(c *fiber.Ctx) error {
	var req dto.QuestionSetRequest
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}
	view, err := h.uc.Do(c.Params("id"), func(s *assessment.Session) error {
		return s.SetQuestionSet(req.QuestionSetID)
	})
	if err != nil {
		return fail(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Question set updated",
		Data:    view,
	})
}

func (h *AssessmentHandler) UpdateProfile(c *fiber.Ctx) error {
	var req dto.ProfileRequest
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}
	view, err := h.uc.Do(c.Params("id"), func(s *assessment.Session) error {
		return s.UpdateProfile(req.ToProfile())
	})
	if err != nil {
		return fail(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Profile updated",
		Data:    view,
	})
}

func (h *AssessmentHandler) CompleteLogicTest(c *fiber.Ctx) error {
	var req dto.LogicScoreRequest
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}
	ctx := c.UserContext()
	view, err := h.uc.Do(c.Params("id"), func(s *assessment.Session) error {
		return s.CompleteLogicTest(ctx, *req.Score)
	})
	if err != nil {
		return fail(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Logic test completed",
		Data:    view,
	})
}

func (h *AssessmentHandler) StartSimulation(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var opening assessment.Message
	view, err := h.uc.Do(c.Params("id"), func(s *assessment.Session) error {
		msg, err := s.StartSimulation(ctx)
		opening = msg
		return err
	})
	if err != nil {
		return fail(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Simulation started",
		Data:    fiber.Map{"opening": opening, "session": view},
	})
}

// SendMessage answers with the interviewer reply. If the reply concluded the interview
// and the submission could not be saved, the reply is still returned in the error details.
func (h *AssessmentHandler) SendMessage(c *fiber.Ctx) error {
	var req dto.MessageRequest
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}
	out, err := h.uc.SendMessage(c.UserContext(), c.Params("id"), req.Text)
	if err != nil {
		if out != nil {
			return failWith(c, err, out)
		}
		return fail(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Message sent",
		Data:    out,
	})
}

func (h *AssessmentHandler) Submit(c *fiber.Ctx) error {
	result, err := h.uc.Submit(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Assessment submitted",
		Data:    result,
	})
}

func (h *AssessmentHandler) Frame(c *fiber.Ctx) error {
	var req dto.FrameRequest
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}
	res, processed, err := h.uc.ProcessFrame(c.Params("id"), req.ToFrame())
	if err != nil {
		return fail(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Frame processed",
		Data:    fiber.Map{"processed": processed, "result": res},
	})
}

func (h *AssessmentHandler) Visibility(c *fiber.Ctx) error {
	var req dto.VisibilityRequest
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}
	warning, counted, err := h.uc.VisibilityChanged(c.Params("id"), req.Hidden)
	if err != nil {
		return fail(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Visibility recorded",
		Data:    fiber.Map{"counted": counted, "warning": warning},
	})
}

func (h *AssessmentHandler) Restricted(c *fiber.Ctx) error {
	var req dto.RestrictedActionRequest
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}
	out, err := h.uc.RestrictedAction(c.Params("id"), proctoring.ParseRestrictedAction(req.Action))
	if err != nil {
		return fail(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Action recorded",
		Data:    out,
	})
}

func (h *AssessmentHandler) Capture(c *fiber.Ctx) error {
	var req dto.CaptureRequest
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}
	view, err := h.uc.MediaPermission(c.UserContext(), c.Params("id"), assessment.Device(req.Device), req.Granted)
	if err != nil {
		return fail(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Permission recorded",
		Data:    view,
	})
}

func (h *AssessmentHandler) RecruiterLogin(c *fiber.Ctx) error {
	var req dto.RecruiterLoginRequest
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}
	view, err := h.uc.RecruiterLogin(c.UserContext(), c.Params("id"), req.Passcode)
	if err != nil {
		return fail(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Recruiter logged in",
		Data:    view,
	})
}
