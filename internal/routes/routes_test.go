package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/fixhive/fixhive/internal/auth"
	"github.com/fixhive/fixhive/internal/config"
	"github.com/fixhive/fixhive/internal/logging"
	"github.com/fixhive/fixhive/internal/mail"
)

var codeRx = regexp.MustCompile(`\b\d{6}\b`)

type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func newTestApp(t *testing.T) (*fiber.App, *mail.Recorder) {
	t.Helper()
	app := fiber.New()
	mails := &mail.Recorder{}
	cfg := config.Config{
		AppEnv:      "development",
		JWTSecret:   "test-secret",
		OTPTTL:      10 * time.Minute,
		SessionTTL:  time.Hour,
		LoginPerMin: 5,
		OTPPerHour:  5,
	}
	require.NoError(t, Setup(app, Deps{Cfg: cfg, Mailer: mails, Logger: logging.Discard()}))
	return app, mails
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) (*http.Response, envelope) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	return resp, env
}

func mailedCode(t *testing.T, mails *mail.Recorder) string {
	t.Helper()
	msg, ok := mails.Last()
	require.True(t, ok, "expected an otp email")
	code := codeRx.FindString(msg.Body)
	require.NotEmpty(t, code, "otp email should carry a 6-digit code")
	return code
}

func registerVia(t *testing.T, app *fiber.App, mails *mail.Recorder, email, password string) {
	t.Helper()
	resp, env := postJSON(t, app, "/api/v1/auth/register/otp", fiber.Map{"email": email})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "success", env.Status)

	code := mailedCode(t, mails)
	_, env = postJSON(t, app, "/api/v1/auth/register/verify-otp", fiber.Map{"email": email, "code": code})
	require.Equal(t, "success", env.Status)

	_, env = postJSON(t, app, "/api/v1/auth/register/", fiber.Map{
		"email":    email,
		"fullName": "Alice Perera",
		"phone":    "+94771234567",
		"address":  "12 Galle Road, Colombo",
		"password": password,
		"otp":      code,
	})
	require.Equal(t, "success", env.Status)
	require.Equal(t, "registration successful", env.Message)
}

func TestRegistrationFlow(t *testing.T) {
	app, mails := newTestApp(t)
	registerVia(t, app, mails, "alice@example.com", "s3cretpass")

	// The code was cleared at registration; re-registering needs a fresh one.
	resp, env := postJSON(t, app, "/api/v1/auth/register/", fiber.Map{
		"email":    "alice@example.com",
		"fullName": "Alice Perera",
		"phone":    "+94771234567",
		"address":  "12 Galle Road, Colombo",
		"password": "s3cretpass",
		"otp":      "123456",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "error", env.Status)
	require.Equal(t, "no otp found for this email", env.Message)
}

func TestRegistrationWrongCode(t *testing.T) {
	app, mails := newTestApp(t)

	_, env := postJSON(t, app, "/api/v1/auth/register/otp", fiber.Map{"email": "bob@example.com"})
	require.Equal(t, "success", env.Status)

	code := mailedCode(t, mails)
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	_, env = postJSON(t, app, "/api/v1/auth/register/verify-otp", fiber.Map{"email": "bob@example.com", "code": wrong})
	require.Equal(t, "error", env.Status)
	require.Equal(t, "incorrect otp", env.Message)
}

func TestReissueInvalidatesOlderCode(t *testing.T) {
	app, mails := newTestApp(t)

	_, env := postJSON(t, app, "/api/v1/auth/register/otp", fiber.Map{"email": "carol@example.com"})
	require.Equal(t, "success", env.Status)
	first := mailedCode(t, mails)

	_, env = postJSON(t, app, "/api/v1/auth/register/otp", fiber.Map{"email": "carol@example.com"})
	require.Equal(t, "success", env.Status)
	second := mailedCode(t, mails)

	if first == second {
		t.Skip("codes collided; reissue check not meaningful")
	}

	_, env = postJSON(t, app, "/api/v1/auth/register/verify-otp", fiber.Map{"email": "carol@example.com", "code": first})
	require.Equal(t, "error", env.Status)

	_, env = postJSON(t, app, "/api/v1/auth/register/verify-otp", fiber.Map{"email": "carol@example.com", "code": second})
	require.Equal(t, "success", env.Status)
}

func TestLoginIssuesSessionCookie(t *testing.T) {
	app, mails := newTestApp(t)
	registerVia(t, app, mails, "alice@example.com", "s3cretpass")

	resp, env := postJSON(t, app, "/api/v1/auth/login", fiber.Map{"email": "alice@example.com", "password": "s3cretpass"})
	require.Equal(t, "success", env.Status)
	require.Equal(t, "login successful", env.Message)

	var token string
	for _, c := range resp.Cookies() {
		if c.Name == auth.CookieName {
			token = c.Value
			require.True(t, c.HttpOnly, "session cookie must be HTTP-only")
		}
	}
	require.NotEmpty(t, token, "login should set the session cookie")

	// The cookie grants access to the protected profile route.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	meResp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, meResp.StatusCode)

	var profile map[string]any
	require.NoError(t, json.NewDecoder(meResp.Body).Decode(&profile))
	require.Equal(t, "alice@example.com", profile["email"])
	require.Equal(t, "customer", profile["user_type"])
}

func TestLoginDoesNotRevealAccountExistence(t *testing.T) {
	app, mails := newTestApp(t)
	registerVia(t, app, mails, "alice@example.com", "s3cretpass")

	resp1, envWrongPw := postJSON(t, app, "/api/v1/auth/login", fiber.Map{"email": "alice@example.com", "password": "wrong"})
	resp2, envNoUser := postJSON(t, app, "/api/v1/auth/login", fiber.Map{"email": "ghost@example.com", "password": "wrong"})

	require.Equal(t, resp1.StatusCode, resp2.StatusCode)
	require.Equal(t, envWrongPw, envNoUser)
	require.Equal(t, "error", envWrongPw.Status)
	require.Equal(t, "invalid email or password", envWrongPw.Message)
}

func TestProtectedRouteRejectsMissingToken(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPasswordResetFlow(t *testing.T) {
	app, mails := newTestApp(t)
	registerVia(t, app, mails, "alice@example.com", "oldpassword")

	_, env := postJSON(t, app, "/api/v1/auth/password/forgot", fiber.Map{"email": "alice@example.com"})
	require.Equal(t, "success", env.Status)
	code := mailedCode(t, mails)

	_, env = postJSON(t, app, "/api/v1/auth/password/verify-otp", fiber.Map{"email": "alice@example.com", "code": code})
	require.Equal(t, "success", env.Status)

	_, env = postJSON(t, app, "/api/v1/auth/password/reset", fiber.Map{
		"email":       "alice@example.com",
		"otp":         code,
		"newPassword": "newpassword",
	})
	require.Equal(t, "success", env.Status)
	require.Equal(t, "password reset successful", env.Message)

	_, env = postJSON(t, app, "/api/v1/auth/login", fiber.Map{"email": "alice@example.com", "password": "oldpassword"})
	require.Equal(t, "error", env.Status)
	_, env = postJSON(t, app, "/api/v1/auth/login", fiber.Map{"email": "alice@example.com", "password": "newpassword"})
	require.Equal(t, "success", env.Status)
}

func TestPasswordResetUnknownAccountLeaks(t *testing.T) {
	app, _ := newTestApp(t)

	_, env := postJSON(t, app, "/api/v1/auth/password/forgot", fiber.Map{"email": "ghost@example.com"})
	require.Equal(t, "error", env.Status)
	require.Equal(t, "user not found", env.Message)
}

func TestPasswordResetRejectedCodeIsOpaque(t *testing.T) {
	app, mails := newTestApp(t)
	registerVia(t, app, mails, "alice@example.com", "oldpassword")

	_, env := postJSON(t, app, "/api/v1/auth/password/forgot", fiber.Map{"email": "alice@example.com"})
	require.Equal(t, "success", env.Status)
	code := mailedCode(t, mails)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	_, env = postJSON(t, app, "/api/v1/auth/password/reset", fiber.Map{
		"email":       "alice@example.com",
		"otp":         wrong,
		"newPassword": "newpassword",
	})
	require.Equal(t, "error", env.Status)
	require.Equal(t, "invalid or expired otp", env.Message)
}

func TestDomainFailuresAreHTTP200(t *testing.T) {
	app, _ := newTestApp(t)

	resp, env := postJSON(t, app, "/api/v1/auth/login", fiber.Map{"email": "ghost@example.com", "password": "x"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "error", env.Status)
}

func TestPing(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "ok", body["status"])
	require.NotEmpty(t, body["request_id"])
}
