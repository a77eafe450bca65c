package common

import (
	"errors"
	"fmt"
	"strings"

	"github.com/amirasaad/donation/pkg/domain"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// Response is the envelope of every successful API response.
type Response struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ProblemDetails is an RFC 9457 error body.
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	Errors   any    `json:"errors,omitempty"`
}

// SuccessResponseJSON writes data inside the standard envelope.
func SuccessResponseJSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{Status: status, Message: message, Data: data})
}

// ProblemDetailsJSON writes an application/problem+json response. The
// status is derived from err, or 400 without one, unless an int is passed
// in extras. A string extra replaces the detail and anything else becomes
// the errors member.
func ProblemDetailsJSON(c *fiber.Ctx, title string, err error, extras ...any) error {
	status := fiber.StatusInternalServerError
	if err != nil {
		status = ErrorToStatusCode(err)
	}
	pd := ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Instance: c.Path(),
	}
	if err != nil {
		pd.Detail = err.Error()
	}
	explicit := false
	for _, extra := range extras {
		switch v := extra.(type) {
		case int:
			status, explicit = v, true
		case string:
			pd.Detail = v
		case nil:
		default:
			pd.Errors = v
		}
	}
	if err == nil && !explicit {
		status = fiber.StatusBadRequest
	}
	pd.Status = status
	return c.Status(status).JSON(pd, "application/problem+json")
}

// ErrorToStatusCode maps the domain error taxonomy to HTTP statuses.
func ErrorToStatusCode(err error) int {
	var fErr *fiber.Error
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.As(err, &fErr):
		return fErr.Code
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrCurrencyPolicy):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrStateConflict), errors.Is(err, domain.ErrAlreadyExists):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrGateway):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// BindAndValidate parses the body into T and validates its tags. On failure
// the problem response is already written and the returned T is nil.
func BindAndValidate[T any](c *fiber.Ctx) (*T, error) {
	var input T
	if err := c.BodyParser(&input); err != nil {
		return nil, ProblemDetailsJSON(c, "Invalid request body", nil, err.Error(), fiber.StatusBadRequest)
	}
	if err := validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				details[fieldName(fe)] = describe(fe)
			}
			return nil, ProblemDetailsJSON(c, "Validation failed", nil, "request has invalid fields", details, fiber.StatusBadRequest)
		}
		return nil, ProblemDetailsJSON(c, "Validation failed", nil, err.Error(), fiber.StatusBadRequest)
	}
	return &input, nil
}

func fieldName(fe validator.FieldError) string {
	var b strings.Builder
	name := fe.Field()
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && !(name[i-1] >= 'A' && name[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func describe(fe validator.FieldError) string {
	if fe.Param() != "" {
		return fmt.Sprintf("failed on %s=%s", fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("failed on %s", fe.Tag())
}
