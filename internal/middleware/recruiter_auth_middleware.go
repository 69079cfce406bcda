package middleware

import (
	"github.com/fadilmartias/assessment-proctor/internal/util"
	"github.com/gofiber/fiber/v2"
)

// RecruiterPasscodeHeader carries the dashboard passcode on every recruiter API call.
const RecruiterPasscodeHeader = "X-Recruiter-Passcode"

// RecruiterAuth rejects requests whose passcode header does not verify.
func RecruiterAuth(verify func(passcode string) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !verify(c.Get(RecruiterPasscodeHeader)) {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusUnauthorized,
				Message: "recruiter passcode required",
			})
		}
		return c.Next()
	}
}
