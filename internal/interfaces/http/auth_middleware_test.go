package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Creditos-api/internal/application/dto"
	"github.com/jhoicas/Creditos-api/internal/domain/entity"
	apphttp "github.com/jhoicas/Creditos-api/internal/interfaces/http"
	"github.com/jhoicas/Creditos-api/pkg/jwt"
)

const testSecret = "secreto-de-prueba"

// buildTestApp levanta un Fiber mínimo con el middleware de auth y una ruta
// protegida que devuelve los claims extraídos, más una ruta solo-admin.
func buildTestApp() *fiber.App {
	app := fiber.New()
	protected := app.Group("/api", apphttp.AuthMiddleware(testSecret))
	protected.Get("/me", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id": apphttp.GetUserID(c),
			"role":    apphttp.GetRole(c),
		})
	})
	protected.Post("/solo-admin", apphttp.RequireRole(entity.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func tokenForRole(t *testing.T, role string) string {
	t.Helper()
	token, err := jwt.Generate(testSecret, "user-1", role, "creditos-pro", 15)
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out.Code
}

func TestAuthMiddleware_SinHeader(t *testing.T) {
	app := buildTestApp()

	resp := doRequest(t, app, fiber.MethodGet, "/api/me", "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "MISSING_TOKEN", errorCode(t, resp))
}

func TestAuthMiddleware_TokenInvalido(t *testing.T) {
	app := buildTestApp()

	resp := doRequest(t, app, fiber.MethodGet, "/api/me", "no-es-un-jwt")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_TOKEN", errorCode(t, resp))
}

func TestAuthMiddleware_FirmaDeOtroSecreto(t *testing.T) {
	app := buildTestApp()
	token, err := jwt.Generate("otro-secreto", "user-1", entity.RoleAdmin, "creditos-pro", 15)
	require.NoError(t, err)

	resp := doRequest(t, app, fiber.MethodGet, "/api/me", token)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_ExtraeClaims(t *testing.T) {
	app := buildTestApp()

	resp := doRequest(t, app, fiber.MethodGet, "/api/me", tokenForRole(t, entity.RoleOperator))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]string
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "user-1", out["user_id"])
	assert.Equal(t, entity.RoleOperator, out["role"])
}

func TestRequireRole_AdminPasa(t *testing.T) {
	app := buildTestApp()

	resp := doRequest(t, app, fiber.MethodPost, "/api/solo-admin", tokenForRole(t, entity.RoleAdmin))
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestRequireRole_OperadorBloqueado(t *testing.T) {
	app := buildTestApp()

	resp := doRequest(t, app, fiber.MethodPost, "/api/solo-admin", tokenForRole(t, entity.RoleOperator))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", errorCode(t, resp))
}
