package http

import (
	"context"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/facilityops/visit-booking/internal/auth"
	"github.com/facilityops/visit-booking/internal/observability"
	apperrors "github.com/facilityops/visit-booking/pkg/util/errorutil"
)

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				renderError(c, logger, metrics, apperrors.ToDomainError(err))
				err = nil
			}
		}()
		return c.Next()
	}
}

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func renderError(c *fiber.Ctx, logger *zap.Logger, metrics *observability.Metrics, domainErr *apperrors.DomainError) {
	if metrics != nil {
		metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
	}

	fields := []zap.Field{zap.String("code", domainErr.Code)}
	if id := c.Params("id"); id != "" {
		fields = append(fields, zap.String("resource_id", id))
	}
	if actor := auth.ActorFromContext(c); actor != nil {
		fields = append(fields, zap.String("actor_id", actor.ID), zap.String("role", string(actor.Role)))
	}

	switch {
	case domainErr.HTTPStatus >= fiber.StatusInternalServerError && domainErr.Code != apperrors.CodeBookingBusy:
		logger.Error("request failed", append(fields, zap.Error(domainErr))...)
	case domainErr.HTTPStatus == fiber.StatusConflict:
		logger.Info("request conflicted", append(fields, zap.Any("details", domainErr.Details))...)
	}

	if domainErr.Code == apperrors.CodeBookingBusy {
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(apperrors.BookingBusyRetryAfter.Seconds())))
	}
	c.Status(domainErr.HTTPStatus)
	_ = c.JSON(fiber.Map{"error": errorBody{
		Code:    domainErr.Code,
		Message: domainErr.Message,
		Details: domainErr.Details,
	}})
}
