package http

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/facilityops/visit-booking/internal/domain"
	"github.com/facilityops/visit-booking/internal/lock"
	"github.com/facilityops/visit-booking/internal/observability"
)

func TestErrorMiddlewareRendersDomainErrors(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	metrics := observability.NewMetrics()
	slot := time.Date(2026, time.October, 13, 9, 0, 0, 0, time.UTC)

	app := fiber.New()
	app.Use(errorHandlingMiddleware(zap.New(core), metrics))
	app.Get("/taken/:id", func(*fiber.Ctx) error {
		return &domain.SlotTakenError{Category: domain.CategoryDelivery, At: slot, ConflictingIDs: []string{"appt-1"}}
	})
	app.Get("/busy", func(*fiber.Ctx) error {
		return fmt.Errorf("acquire booking lock: %w", errors.Join(lock.ErrNotAcquired, context.DeadlineExceeded))
	})
	app.Get("/panic", func(*fiber.Ctx) error { panic("boom") })

	s := &testServer{app: app}

	status, body := s.do(t, fiber.MethodGet, "/taken/appt-2", "", nil)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "SLOT_TAKEN", errorCode(body))
	details, _ := body["error"].(map[string]any)["details"].(map[string]any)
	assert.Equal(t, []any{"appt-1"}, details["conflicting_ids"])
	conflicts := logs.FilterMessage("request conflicted").All()
	require.Len(t, conflicts, 1)
	assert.Equal(t, "appt-2", conflicts[0].ContextMap()["resource_id"])

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/busy", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "2", resp.Header.Get(fiber.HeaderRetryAfter))
	assert.Empty(t, logs.FilterMessage("request failed").All())

	status, body = s.do(t, fiber.MethodGet, "/panic", "", nil)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(body))
	_, hasDetails := body["error"].(map[string]any)["details"]
	assert.False(t, hasDetails)
	assert.Len(t, logs.FilterMessage("panic recovered").All(), 1)

	assert.NotEmpty(t, metrics.Snapshot().Errors)
}
