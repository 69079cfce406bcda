package handler

import (
	"errors"

	"github.com/fadilmartias/assessment-proctor/internal/assessment"
	"github.com/fadilmartias/assessment-proctor/internal/repository"
	"github.com/fadilmartias/assessment-proctor/internal/usecase"
	"github.com/fadilmartias/assessment-proctor/internal/util"
	"github.com/gofiber/fiber/v2"
)

type validator interface {
	Validate() map[string]string
}

// parseBody decodes the JSON body into out and runs its Validate method, if any. An empty
// body leaves out at its zero value.
func parseBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(out); err != nil {
			return util.NewFormError("invalid request body", map[string]string{"body": err.Error()})
		}
	}
	if v, ok := out.(validator); ok {
		if errs := v.Validate(); len(errs) > 0 {
			return util.NewFormError("validation failed", errs)
		}
	}
	return nil
}

func statusFor(err error) int {
	var formErr *util.FormError
	switch {
	case errors.As(err, &formErr):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, assessment.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, usecase.ErrInvalidPasscode):
		return fiber.StatusUnauthorized
	case errors.Is(err, assessment.ErrProfileLocked):
		return fiber.StatusForbidden
	case errors.Is(err, assessment.ErrInvalidTransition),
		errors.Is(err, assessment.ErrSubmissionInProgress),
		errors.Is(err, assessment.ErrLogicScoreMissing):
		return fiber.StatusConflict
	case errors.Is(err, assessment.ErrProfileIncomplete),
		errors.Is(err, assessment.ErrUnknownRole),
		errors.Is(err, assessment.ErrUnknownQuestionSet),
		errors.Is(err, assessment.ErrInvalidScore),
		errors.Is(err, assessment.ErrEmptyMessage),
		errors.Is(err, usecase.ErrInvalidSetting),
		errors.Is(err, usecase.ErrUnknownProvider),
		errors.Is(err, usecase.ErrInvalidInvitation):
		return fiber.StatusBadRequest
	case errors.Is(err, usecase.ErrSubmissionNotSaved):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

func fail(c *fiber.Ctx, err error) error {
	return failWith(c, err, nil)
}

// failWith maps err to a status and message. details, when set, is returned to the
// client alongside the error.
func failWith(c *fiber.Ctx, err error, details any) error {
	params := util.ErrorResponseFormat{
		Code:    statusFor(err),
		Message: err.Error(),
		Details: details,
	}
	var formErr *util.FormError
	switch {
	case errors.As(err, &formErr):
		params.Message = formErr.Message
		params.Details = formErr.Errors
	case params.Code == fiber.StatusServiceUnavailable:
		params.Message = usecase.ErrSubmissionNotSaved.Error()
	case params.Code == fiber.StatusInternalServerError:
		params.Message = "internal server error"
	}
	return util.ErrorResponse(c, params, err)
}
