package handlers

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	enabled bool
	err     error
}

func (s stubPinger) Ping(context.Context) error { return s.err }
func (s stubPinger) Enabled() bool              { return s.enabled }

func TestReady(t *testing.T) {
	tests := []struct {
		name   string
		deps   map[string]Pinger
		status int
	}{
		{"no deps", nil, fiber.StatusOK},
		{"disabled dep", map[string]Pinger{"redis": stubPinger{}}, fiber.StatusOK},
		{"healthy dep", map[string]Pinger{"postgres": stubPinger{enabled: true}}, fiber.StatusOK},
		{"failing dep", map[string]Pinger{
			"postgres": stubPinger{enabled: true},
			"redis":    stubPinger{enabled: true, err: errors.New("connection refused")},
		}, fiber.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/ready", NewHealthHandler("svc", "v1", tt.deps).Ready)
			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/ready", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
