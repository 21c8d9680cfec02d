package handler_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-judge-api/internal/handler"
	"github.com/noah-isme/gema-judge-api/internal/router"
)

func TestHealthCheck(t *testing.T) {
	app := newTestApp(t, router.Dependencies{})

	resp := doJSON(t, app, http.MethodGet, "/api/v1/health", 0, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "GEMA Judge Test", resp.Header.Get("X-Application"))
	require.NotEmpty(t, resp.Header.Get("X-Correlation-ID"))

	var body struct {
		Success bool                   `json:"success"`
		Data    handler.HealthResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)
	require.Equal(t, "ok", body.Data.Status)
	require.Equal(t, "test", body.Data.Environment)
	require.WithinDuration(t, time.Now().UTC(), body.Data.Timestamp, 5*time.Second)
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t, router.Dependencies{})

	resp := doJSON(t, app, http.MethodGet, "/metrics", 0, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
