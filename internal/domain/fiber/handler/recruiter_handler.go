package handler

import (
	"time"

	"github.com/fadilmartias/assessment-proctor/internal/dto"
	"github.com/fadilmartias/assessment-proctor/internal/middleware"
	"github.com/fadilmartias/assessment-proctor/internal/repository"
	"github.com/fadilmartias/assessment-proctor/internal/usecase"
	"github.com/fadilmartias/assessment-proctor/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type RecruiterHandler struct {
	assessments *usecase.AssessmentUsecase
	submissions *usecase.SubmissionUsecase
	settings    *usecase.SettingsUsecase
}

func NewRecruiterHandler(assessments *usecase.AssessmentUsecase, submissions *usecase.SubmissionUsecase, settings *usecase.SettingsUsecase) *RecruiterHandler {
	return &RecruiterHandler{assessments: assessments, submissions: submissions, settings: settings}
}

// RegisterRoutes mounts the recruiter API behind auth. A client gets five failed calls
// per minute before the whole group answers 429.
func (h *RecruiterHandler) RegisterRoutes(app fiber.Router, auth fiber.Handler) {
	r := app.Group("/recruiter", middleware.FailureLimiter(5, 1*time.Minute), auth)
	r.Post("/invitations", h.CreateInvitation)
	r.Get("/submissions", h.ListSubmissions)
	r.Get("/submissions/:id", h.GetSubmission)
	r.Delete("/submissions/:id", h.DeleteSubmission)
	r.Get("/submissions/:id/notify", h.NotifySubmission)
	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.UpdateSettings)
	r.Post("/settings/refresh", h.RefreshSettings)
}

func (h *RecruiterHandler) CreateInvitation(c *fiber.Ctx) error {
	var req dto.InvitationRequest
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}
	inv, err := h.assessments.IssueInvitation(c.UserContext(), req.Name, req.Phone, req.RoleID)
	if err != nil {
		return fail(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusCreated,
		Message: "Invitation created",
		Data:    inv,
	})
}

func (h *RecruiterHandler) ListSubmissions(c *fiber.Ctx) error {
	rows, page, err := h.submissions.List(c.UserContext(), c.QueryInt("page", 1), c.QueryInt("page_size", 20))
	if err != nil {
		return fail(c, err)
	}
	data := make([]dto.SubmissionSummaryDTO, 0, len(rows))
	for _, s := range rows {
		data = append(data, dto.NewSubmissionSummary(s))
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message:    "Success get submissions",
		Data:       data,
		Pagination: page,
	})
}

func (h *RecruiterHandler) GetSubmission(c *fiber.Ctx) error {
	id, err := submissionID(c)
	if err != nil {
		return fail(c, err)
	}
	sub, err := h.submissions.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get submission",
		Data:    sub,
	})
}

func (h *RecruiterHandler) DeleteSubmission(c *fiber.Ctx) error {
	id, err := submissionID(c)
	if err != nil {
		return fail(c, err)
	}
	if err := h.submissions.Delete(c.UserContext(), id); err != nil {
		return fail(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Submission deleted",
	})
}

func (h *RecruiterHandler) NotifySubmission(c *fiber.Ctx) error {
	id, err := submissionID(c)
	if err != nil {
		return fail(c, err)
	}
	link, err := h.submissions.NotifyLink(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success build notification link",
		Data:    dto.NotifyLinkDTO{SubmissionID: id, WhatsAppURL: link},
	})
}

func (h *RecruiterHandler) GetSettings(c *fiber.Ctx) error {
	s, err := h.settings.Get(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get settings",
		Data:    s,
	})
}

func (h *RecruiterHandler) UpdateSettings(c *fiber.Ctx) error {
	var req dto.SettingsRequest
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}
	s, err := h.settings.Update(c.UserContext(), usecase.SettingsUpdate{
		ActiveRole:              req.ActiveRole,
		ActiveLogicSetID:        req.ActiveLogicSetID,
		AllowCandidateViewScore: req.AllowCandidateViewScore,
		APIKeys:                 req.APIKeys,
	})
	if err != nil {
		return fail(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Settings updated",
		Data:    s,
	})
}

func (h *RecruiterHandler) RefreshSettings(c *fiber.Ctx) error {
	if err := h.settings.RefreshCredentials(c.UserContext()); err != nil {
		return fail(c, err)
	}
	return h.GetSettings(c)
}

// submissionID rejects ids that are not uuids before they reach the database.
func submissionID(c *fiber.Ctx) (string, error) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", repository.ErrNotFound
	}
	return id, nil
}
