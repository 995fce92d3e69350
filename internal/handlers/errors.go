package handlers

import (
	"errors"

	"eshop/internal/apperrors"
	"eshop/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/rs/zerolog"
)

// errorStatus maps a failure kind to a status code and a fixed message.
// Order matters: an invalid card is also a validation error.
var errorStatus = []struct {
	kind    error
	status  int
	message string
}{
	{apperrors.ErrInvalidCard, fiber.StatusBadRequest, "Invalid card details"},
	{apperrors.ErrValidation, fiber.StatusBadRequest, "Validation failed"},
	{apperrors.ErrEmptyCart, fiber.StatusBadRequest, "Your cart is empty"},
	{apperrors.ErrInvalidCredentials, fiber.StatusUnauthorized, "Invalid email or password"},
	{apperrors.ErrPaymentDeclined, fiber.StatusPaymentRequired, "Payment was declined"},
	{apperrors.ErrUnauthorized, fiber.StatusForbidden, "You are not allowed to do that"},
	{apperrors.ErrNotFound, fiber.StatusNotFound, "Resource not found"},
	{apperrors.ErrOutOfStock, fiber.StatusConflict, "Not enough stock for this product"},
	{apperrors.ErrInsufficientStock, fiber.StatusConflict, "Not enough stock to fulfil the order"},
	{apperrors.ErrInvalidTransition, fiber.StatusConflict, "The order cannot make this transition"},
	{apperrors.ErrTicketClosed, fiber.StatusConflict, "The ticket is closed"},
	{apperrors.ErrAlreadyExists, fiber.StatusConflict, "Already exists"},
}

// respondError writes the JSON error response for err. Known kinds get their
// fixed message, plus field messages for validation failures; the wrapped
// detail only goes to the debug log. Unknown errors are logged and answered
// with a generic message.
func respondError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	for _, e := range errorStatus {
		if !errors.Is(err, e.kind) {
			continue
		}
		log.Debug().Err(err).Str("method", c.Method()).Str("path", c.Path()).Int("status", e.status).Msg("request rejected")
		body := fiber.Map{"message": e.message}
		var verr *apperrors.ValidationError
		if errors.As(err, &verr) {
			if len(verr.Fields) > 0 {
				body["errors"] = verr.Fields
			} else if verr.Message != "" {
				body["error"] = verr.Message
			}
		}
		return c.Status(e.status).JSON(body)
	}

	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Something went wrong, please try again later",
	})
}

// bind decodes the request body into out and, when v is set, validates its struct tags.
func bind(c *fiber.Ctx, v *validator.Validate, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid request body")
	}
	if v == nil {
		return nil
	}
	return validation.Struct(v, out)
}

// param returns a copy of a route parameter. Fiber's values point into a
// request buffer that is reused once the handler returns.
func param(c *fiber.Ctx, key string) string {
	return utils.CopyString(c.Params(key))
}
