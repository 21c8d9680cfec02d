package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func newRoleApp(role interface{}) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if role != nil {
			c.Locals(LocalUserRole, role)
		}
		return c.Next()
	})
	app.Use(RequireRole("Admin"))
	app.Post("/seed/problems", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})
	return app
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name   string
		role   interface{}
		status int
	}{
		{name: "admin", role: "admin", status: fiber.StatusCreated},
		{name: "mixed case with spaces", role: "  ADMIN ", status: fiber.StatusCreated},
		{name: "student", role: "student", status: fiber.StatusForbidden},
		{name: "missing role", role: nil, status: fiber.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newRoleApp(tc.role)
			resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/seed/problems", nil))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestRequireRoleForbiddenEnvelope(t *testing.T) {
	app := newRoleApp("student")

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/seed/problems", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.False(t, body.Success)
	require.Equal(t, "insufficient permissions", body.Message)
}
