package errorutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/facilityops/visit-booking/internal/domain"
	"github.com/facilityops/visit-booking/internal/lock"
)

// Codes that callers may retry.
const (
	CodeBookingBusy    = "BOOKING_BUSY"
	CodeRequestTimeout = "REQUEST_TIMEOUT"
)

// BookingBusyRetryAfter is the back-off suggested when the category lock is contended.
const BookingBusyRetryAfter = 2 * time.Second

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts typed domain errors and generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}

	var (
		validation *domain.ValidationError
		pastSlot   *domain.PastSlotError
		notAllowed *domain.SlotNotAllowedError
		taken      *domain.SlotTakenError
		transition *domain.InvalidTransitionError
		notFound   *domain.NotFoundError
		fiberErr   *fiber.Error
	)
	switch {
	case errors.As(err, &validation):
		details := map[string]any{}
		if validation.Field != "" {
			details["field"] = validation.Field
		}
		return &DomainError{Code: "VALIDATION_FAILED", Message: validation.Error(), HTTPStatus: http.StatusBadRequest, Details: details, Err: err}
	case errors.As(err, &pastSlot):
		return &DomainError{
			Code:       "PAST_SLOT",
			Message:    pastSlot.Error(),
			HTTPStatus: http.StatusUnprocessableEntity,
			Details:    map[string]any{"slot": pastSlot.At.Format(time.RFC3339)},
			Err:        err,
		}
	case errors.As(err, &notAllowed):
		return &DomainError{
			Code:       "SLOT_NOT_ALLOWED",
			Message:    notAllowed.Error(),
			HTTPStatus: http.StatusUnprocessableEntity,
			Details: map[string]any{
				"category": notAllowed.Category,
				"slot":     notAllowed.At.Format(time.RFC3339),
				"reason":   notAllowed.Reason,
			},
			Err: err,
		}
	case errors.As(err, &taken):
		return &DomainError{
			Code:       "SLOT_TAKEN",
			Message:    "slot already taken",
			HTTPStatus: http.StatusConflict,
			Details: map[string]any{
				"category":        taken.Category,
				"slot":            taken.At.Format(time.RFC3339),
				"conflicting_ids": taken.ConflictingIDs,
			},
			Err: err,
		}
	case errors.As(err, &transition):
		return &DomainError{
			Code:       "INVALID_TRANSITION",
			Message:    transition.Error(),
			HTTPStatus: http.StatusConflict,
			Details: map[string]any{
				"current_status": transition.Current,
				"operation":      transition.Operation,
			},
			Err: err,
		}
	case errors.As(err, &notFound):
		de := NewNotFound(notFound.Resource, map[string]any{"id": notFound.ID}).(*DomainError)
		de.Err = err
		return de
	case errors.As(err, &fiberErr):
		return fiberToDomainError(fiberErr)
	case errors.Is(err, lock.ErrNotAcquired):
		return &DomainError{
			Code:       CodeBookingBusy,
			Message:    "another booking for this category is in progress",
			HTTPStatus: http.StatusServiceUnavailable,
			Details:    map[string]any{"retry_after_seconds": int(BookingBusyRetryAfter.Seconds())},
			Err:        err,
		}
	case errors.Is(err, context.DeadlineExceeded):
		return &DomainError{Code: CodeRequestTimeout, Message: "request timed out", HTTPStatus: http.StatusGatewayTimeout, Err: err}
	}

	return NewInternalError(err).(*DomainError)
}

// MapError converts err to a *DomainError typed as error.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}

func fiberToDomainError(err *fiber.Error) *DomainError {
	switch err.Code {
	case http.StatusUnauthorized:
		return NewDomainError("UNAUTHORIZED", err.Message, err.Code, nil)
	case http.StatusForbidden:
		return NewDomainError("FORBIDDEN", err.Message, err.Code, nil)
	case http.StatusNotFound:
		return NewDomainError("NOT_FOUND", err.Message, err.Code, nil)
	case http.StatusBadRequest:
		return NewDomainError("VALIDATION_FAILED", err.Message, err.Code, nil)
	}
	if err.Code >= 500 {
		return NewInternalError(err).(*DomainError)
	}
	return NewDomainError("REQUEST_FAILED", err.Message, err.Code, nil)
}
