package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func up() Pinger   { return pingerFunc(func(context.Context) error { return nil }) }
func down() Pinger { return pingerFunc(func(context.Context) error { return errors.New("connection refused") }) }

func serveHealth(t *testing.T, handler *HealthHandler, path string) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.GET("/health", handler.Health)
	router.GET("/health/ready", handler.Ready)
	router.GET("/api/v1/info", handler.Info)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthHandler_Health(t *testing.T) {
	handler := NewHealthHandler("test", map[string]Pinger{"database": down()}, nil)

	w := serveHealth(t, handler, "/health")

	assert.Equal(t, http.StatusOK, w.Code, "liveness ignores dependencies")
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestHealthHandler_Ready(t *testing.T) {
	tests := []struct {
		name   string
		deps   map[string]Pinger
		status int
		want   ReadyResponse
	}{
		{
			name:   "all dependencies reachable",
			deps:   map[string]Pinger{"database": up(), "redis": up()},
			status: http.StatusOK,
			want:   ReadyResponse{Status: "ready", Dependencies: map[string]string{"database": "connected", "redis": "connected"}},
		},
		{
			name:   "one dependency down",
			deps:   map[string]Pinger{"database": up(), "redis": down()},
			status: http.StatusServiceUnavailable,
			want:   ReadyResponse{Status: "not_ready", Dependencies: map[string]string{"database": "connected", "redis": "disconnected"}},
		},
		{
			name:   "in-memory store has nothing to ping",
			deps:   nil,
			status: http.StatusOK,
			want:   ReadyResponse{Status: "ready", Dependencies: map[string]string{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serveHealth(t, NewHealthHandler("test", tt.deps, nil), "/health/ready")

			assert.Equal(t, tt.status, w.Code)
			var got ReadyResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHealthHandler_ReadyPingHasDeadline(t *testing.T) {
	var hadDeadline bool
	handler := NewHealthHandler("test", map[string]Pinger{
		"database": pingerFunc(func(ctx context.Context) error {
			_, hadDeadline = ctx.Deadline()
			return nil
		}),
	}, nil)

	serveHealth(t, handler, "/health/ready")
	assert.True(t, hadDeadline)
}

func TestHealthHandler_Info(t *testing.T) {
	handler := NewHealthHandler("production", nil, map[string]string{"store": "memory", "lock": "local"})
	handler.startTime = time.Now().Add(-26 * time.Hour)

	w := serveHealth(t, handler, "/api/v1/info")

	require.Equal(t, http.StatusOK, w.Code)
	var got InfoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, APIVersion, got.Version)
	assert.Equal(t, "production", got.Environment)
	assert.Contains(t, got.Uptime, "1d 2h")
	assert.Equal(t, map[string]string{"store": "memory", "lock": "local"}, got.Components)
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{"seconds only", 45 * time.Second, "0h 0m 45s"},
		{"minutes and seconds", 5*time.Minute + 30*time.Second, "0h 5m 30s"},
		{"hours minutes seconds", 2*time.Hour + 15*time.Minute + 45*time.Second, "2h 15m 45s"},
		{"with days", 3*24*time.Hour + 5*time.Hour + 30*time.Minute + 15*time.Second, "3d 5h 30m 15s"},
		{"exactly one day", 24 * time.Hour, "1d 0h 0m 0s"},
		{"zero", 0, "0h 0m 0s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatUptime(tt.duration))
		})
	}
}
