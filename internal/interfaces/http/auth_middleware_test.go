package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ecf-dgii/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testJWTSecret  = "test-secret-key-for-unit-tests"
	testIssuer     = "ecf-dgii-test"
	testUserID     = "00000000-0000-0000-0000-000000000001"
	testCompanyID  = "00000000-0000-0000-0000-000000000002"
	testCompanyRNC = "131098193"
)

// jwtVerifier firmador con el que el router de prueba valida los tokens.
func jwtVerifier() *jwt.Signer {
	s, err := jwt.NewSigner(testJWTSecret, testIssuer, time.Hour)
	if err != nil {
		panic(err)
	}
	return s
}

func tokenFor(t *testing.T, id jwt.Identity) string {
	t.Helper()
	tok, _, err := jwtVerifier().Sign(id)
	require.NoError(t, err)
	return "Bearer " + tok
}

// tokenForRole token del usuario de prueba en la empresa de prueba.
func tokenForRole(t *testing.T, role string) string {
	return tokenFor(t, jwt.Identity{UserID: testUserID, CompanyID: testCompanyID, CompanyRNC: testCompanyRNC, Role: role})
}

func callWithHeader(t *testing.T, app *fiber.App, method, path, authHeader string) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	return do(t, app, req)
}

// ──────────────────────────────────────────────────────────────────────────────
// AuthMiddleware sobre las rutas reales de facturas
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthMiddleware_SinHeaderOMalformado(t *testing.T) {
	app := newApp(appOpts{})

	resp, body := callWithHeader(t, app, http.MethodGet, "/api/invoices/inv-1", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "MISSING_TOKEN", errorCode(t, body))

	resp, body = callWithHeader(t, app, http.MethodGet, "/api/invoices/inv-1", "Basic dXNlcjpwYXNz")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_TOKEN", errorCode(t, body))

	resp, body = callWithHeader(t, app, http.MethodPost, "/api/invoices/inv-1/einvoice", "Bearer token.invalido.aqui")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_TOKEN", errorCode(t, body))
}

func TestAuthMiddleware_TokenSinEmpresa(t *testing.T) {
	raw := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims{
		"iss": testIssuer, "sub": testUserID, "role": "admin",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	tok, err := raw.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	resp, body := callWithHeader(t, newApp(appOpts{}), http.MethodGet, "/api/invoices/inv-1", "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "MISSING_COMPANY", errorCode(t, body))
}

func TestAuthMiddleware_VencidoUOtroEmisor(t *testing.T) {
	app := newApp(appOpts{})
	id := jwt.Identity{UserID: testUserID, CompanyID: testCompanyID, Role: "admin"}

	past := jwtVerifier().WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
	tok, _, err := past.Sign(id)
	require.NoError(t, err)
	resp, body := callWithHeader(t, app, http.MethodGet, "/api/invoices/inv-1/einvoice/qr", "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_TOKEN", errorCode(t, body))

	other, err := jwt.NewSigner(testJWTSecret, "otro-sistema", time.Hour)
	require.NoError(t, err)
	tok, _, err = other.Sign(id)
	require.NoError(t, err)
	resp, _ = callWithHeader(t, app, http.MethodGet, "/api/invoices/inv-1", "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_EmpresaDelTokenAcotaLaConsulta(t *testing.T) {
	app := newApp(appOpts{})

	resp, _ := callWithHeader(t, app, http.MethodGet, "/api/invoices/inv-1", tokenForRole(t, "contador"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// La misma factura pedida con el token de otra empresa no existe para ella.
	otra := tokenFor(t, jwt.Identity{UserID: testUserID, CompanyID: "otra-empresa", Role: "admin"})
	resp, body := callWithHeader(t, app, http.MethodGet, "/api/invoices/inv-1", otra)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorCode(t, body))
}

func TestAuthMiddleware_RNCDelTokenEnElQR(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	app := newApp(appOpts{einvoice: fakeEInvoice{qr: png}})

	resp, _ := callWithHeader(t, app, http.MethodGet, "/api/invoices/inv-1/einvoice/qr", tokenForRole(t, "contador"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `inline; filename="131098193_inv-1.png"`, resp.Header.Get("Content-Disposition"))

	sinRNC := tokenFor(t, jwt.Identity{UserID: testUserID, CompanyID: testCompanyID, Role: "admin"})
	resp, _ = callWithHeader(t, app, http.MethodGet, "/api/invoices/inv-1/einvoice/qr", sinRNC)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `inline; filename="ecf_inv-1.png"`, resp.Header.Get("Content-Disposition"))
}

// ──────────────────────────────────────────────────────────────────────────────
// RequireRole sobre el envío de e-CF
// ──────────────────────────────────────────────────────────────────────────────

func TestRequireRole_EnvioDeECF(t *testing.T) {
	app := newApp(appOpts{})
	const path = "/api/invoices/inv-1/einvoice"

	resp, _ := callWithHeader(t, app, http.MethodPost, path, tokenForRole(t, "facturador"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = callWithHeader(t, app, http.MethodPost, path, tokenForRole(t, "admin"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := callWithHeader(t, app, http.MethodPost, path, tokenForRole(t, "contador"))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", errorCode(t, body))

	// El contador sí consulta el e-CF.
	resp, _ = callWithHeader(t, app, http.MethodGet, path+"/payload", tokenForRole(t, "contador"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequireRole_TokenSinRol(t *testing.T) {
	resp, body := callWithHeader(t, newApp(appOpts{}), http.MethodPost, "/api/invoices/inv-1/einvoice", tokenForRole(t, ""))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "MISSING_ROLE", errorCode(t, body))
}
