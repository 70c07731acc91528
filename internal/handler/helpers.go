package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/orbit-admin-api/internal/assignment"
	"github.com/noah-isme/orbit-admin-api/internal/backend"
	"github.com/noah-isme/orbit-admin-api/internal/grading"
	"github.com/noah-isme/orbit-admin-api/internal/middleware"
	"github.com/noah-isme/orbit-admin-api/internal/service"
	"github.com/noah-isme/orbit-admin-api/internal/utils"
)

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func activityActorFromContext(c *fiber.Ctx) service.ActivityActor {
	actor := service.ActivityActor{
		ID:    middleware.UserID(c),
		Token: middleware.AccessToken(c),
	}
	if roles := middleware.UserRoles(c); len(roles) > 0 {
		actor.Role = roles[0]
	}
	return actor
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

func validationDetails(err error) []FieldError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	details := make([]FieldError, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		details = append(details, FieldError{
			Field:   fieldErr.Field(),
			Rule:    fieldErr.Tag(),
			Message: fieldErr.Error(),
		})
	}
	return details
}

// respondError maps service and upstream errors onto the API envelope. Unknown
// errors are logged and reported with the fallback message.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error, fallback string) error {
	var (
		upstream      *backend.Error
		parseErr      *assignment.ParseError
		submissionErr *grading.ValidationError
		fiberErr      *fiber.Error
	)

	switch {
	case isValidationError(err):
		return utils.Fail(c, fiber.StatusBadRequest, "invalid request", validationDetails(err))
	case errors.As(err, &parseErr):
		return utils.Fail(c, fiber.StatusUnprocessableEntity, parseErr.Error(), parseErr.Problems)
	case errors.As(err, &submissionErr):
		return utils.Fail(c, fiber.StatusUnprocessableEntity, submissionErr.Error(), fiber.Map{
			"questionId": submissionErr.QuestionID,
			"score":      submissionErr.Score,
		})
	case errors.Is(err, assignment.ErrInvalidJSON):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, grading.ErrScoreLocked):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, grading.ErrQuestionNotInDraft),
		errors.Is(err, service.ErrGradingSessionNotFound),
		errors.Is(err, service.ErrUnknownApplicantKind):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrImportTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrImportTypeNotAllowed):
		return utils.SendError(c, fiber.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, service.ErrInvalidScore),
		errors.Is(err, service.ErrEmptyAnswerUpdate),
		errors.Is(err, service.ErrJobIDRequired),
		errors.Is(err, service.ErrApplicantIDRequired),
		errors.Is(err, service.ErrInvalidPayRange),
		errors.Is(err, service.ErrJobContentEmpty):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, backend.ErrUnauthorized):
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	case errors.As(err, &upstream):
		status := upstream.Status
		if status >= fiber.StatusInternalServerError || status < fiber.StatusBadRequest {
			status = fiber.StatusBadGateway
		}
		return utils.SendError(c, status, upstream.Error())
	case errors.As(err, &fiberErr):
		return utils.SendError(c, fiberErr.Code, fiberErr.Message)
	case errors.Is(err, context.DeadlineExceeded):
		return utils.SendError(c, fiber.StatusGatewayTimeout, "backend did not respond in time")
	}

	requestLogger(logger, c).Error().Err(err).Msg(fallback)
	return utils.SendError(c, fiber.StatusInternalServerError, fallback)
}
