package middlewares

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"interview-scheduler/scheduling"
)

// ErrorHandler centralizes error responses and keeps messages sanitized.
// Domain outcomes keep their meaning; anything unexpected is logged and
// reported as a plain 500.
func ErrorHandler(lg zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		// 1) Fiber errors (use their status code + message)
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
		}

		// 2) Validation errors (422 + per-field info)
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			out := make(map[string]string, len(ve))
			for _, fe := range ve {
				out[fe.Field()] = fe.Tag()
			}
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"message": "validation failed",
				"errors":  out,
			})
		}

		// 3) Scheduling outcomes
		var (
			conflict *scheduling.ConflictError
			invalid  *scheduling.InvalidArgumentError
			exists   *scheduling.CandidateExistsError
		)
		switch {
		case errors.As(err, &conflict):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message":   "scheduling conflict",
				"conflicts": conflict.Reasons,
			})
		case errors.Is(err, scheduling.ErrPersistenceConflict):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
		case errors.As(err, &exists):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "candidate already exists", "id": exists.ID})
		case errors.Is(err, scheduling.ErrCandidateNotFound), errors.Is(err, scheduling.ErrInterviewNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": err.Error()})
		case errors.As(err, &invalid):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": invalid.Error()})
		}

		// 4) Unknown errors (500)
		lg.Error().Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Interface("request_id", c.Locals("requestid")).
			Msg("internal error")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "internal server error",
		})
	}
}
