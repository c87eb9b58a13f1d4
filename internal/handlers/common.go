package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/example/oilmart/internal/config"
	"github.com/example/oilmart/internal/services"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report violations under the wire field name, not the Go field name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// parseBody decodes a JSON body and checks its validate tags, reporting the
// first violation.
func parseBody(c *fiber.Ctx, dest interface{}) error {
	if err := c.BodyParser(dest); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(dest); err != nil {
		var violations validator.ValidationErrors
		if errors.As(err, &violations) && len(violations) > 0 {
			return fiber.NewError(fiber.StatusBadRequest, validationMessage(violations[0]))
		}
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return nil
}

func validationMessage(violation validator.FieldError) string {
	switch violation.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", violation.Field())
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", violation.Field(), violation.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", violation.Field())
	default:
		return fmt.Sprintf("%s is invalid", violation.Field())
	}
}

// translateServiceError maps domain failures onto HTTP ones. Anything it
// does not recognize bubbles up to the boundary error handler as a 500.
func translateServiceError(err error) error {
	var (
		validation *services.ValidationError
		missing    *services.ProductMissingError
	)

	switch {
	case err == nil:
		return nil
	case errors.As(err, &validation):
		return fiber.NewError(fiber.StatusBadRequest, validation.Message)
	case errors.As(err, &missing):
		return fiber.NewError(fiber.StatusNotFound, missing.Error())
	case errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrUserNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrSKUTaken),
		errors.Is(err, services.ErrProductReferenced):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, services.ErrPhoneMismatch):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	default:
		return err
	}
}

// NewErrorHandler translates every failure that escapes a handler into the
// JSON error envelope. Internal error details are only exposed in
// development mode.
func NewErrorHandler(cfg *config.Config) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := err.Error()

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
			message = fiberErr.Message
		}

		if code == fiber.StatusInternalServerError {
			zap.S().Errorw("request failed",
				"method", c.Method(),
				"path", c.Path(),
				"error", err.Error())
			if !cfg.IsDevelopment() {
				message = "internal server error"
			}
		}

		return c.Status(code).JSON(fiber.Map{
			"success": false,
			"error":   message,
		})
	}
}
