package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"reportwatch/libs/mailer"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestServer(t *testing.T) (*App, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminPassword), bcrypt.MinCost)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &Config{
		Env:               "test",
		PublicBaseURL:     "http://localhost:8080",
		AppSigningSecret:  testSigningSecret,
		AdminPasswordHash: hash,
	}
	app := newApp(cfg, logger, mailer.New(mailer.NewLogProvider(logger), "noreply@reportwatch.local"))

	router := gin.New()
	app.registerRoutes(router)
	return app, router
}

func adminRequest(t *testing.T, app *App, method, target, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return withAdminSession(t, app, req)
}

func withAdminSession(t *testing.T, app *App, req *http.Request) *http.Request {
	t.Helper()
	token, err := app.createAdminSessionToken(time.Now())
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: adminCookieName, Value: token, Path: "/"})
	return req
}

func findResponseCookie(response *http.Response, name string) *http.Cookie {
	for _, cookie := range response.Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func postLoginForm(router *gin.Engine, password, next string) *httptest.ResponseRecorder {
	form := url.Values{}
	form.Set("password", password)
	form.Set("next", next)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.ServeHTTP(rec, req)
	return rec
}

func TestAdminLoginSubmitSuccessSetsCookieAndRedirects(t *testing.T) {
	_, router := newTestServer(t)

	rec := postLoginForm(router, testAdminPassword, "/admin?tab=queue")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin?tab=queue", rec.Header().Get("Location"))
	cookie := findResponseCookie(rec.Result(), adminCookieName)
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
}

func TestAdminLoginSubmitInvalidCredentialsRendersError(t *testing.T) {
	_, router := newTestServer(t)

	rec := postLoginForm(router, "wrong", "/admin")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid credentials")
	assert.Nil(t, findResponseCookie(rec.Result(), adminCookieName))
}

func TestAdminLoginJSON(t *testing.T) {
	_, router := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"password":"`+testAdminPassword+`"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.NotNil(t, findResponseCookie(rec.Result(), adminCookieName))

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid_credentials", body["error"])
}

func TestAdminLoginRateLimited(t *testing.T) {
	_, router := newTestServer(t)

	for i := 0; i < loginRateLimitRequests; i++ {
		rec := postLoginForm(router, "wrong", "/admin")
		require.Equal(t, http.StatusUnauthorized, rec.Code, "attempt %d", i+1)
	}

	rec := postLoginForm(router, testAdminPassword, "/admin")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Too many login attempts")
	assert.Nil(t, findResponseCookie(rec.Result(), adminCookieName))
}

func TestAdminLogoutClearsSessionCookie(t *testing.T) {
	app, router := newTestServer(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, adminRequest(t, app, http.MethodPost, "/admin/logout", ""))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/login", rec.Header().Get("Location"))
	cookie := findResponseCookie(rec.Result(), adminCookieName)
	require.NotNil(t, cookie)
	assert.Less(t, cookie.MaxAge, 0)
}

func TestAdminProtectedRouteRedirectsWithoutSession(t *testing.T) {
	_, router := newTestServer(t)

	for _, target := range []string{"/admin", "/admin/exports/approved?format=csv"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

		assert.Equal(t, http.StatusSeeOther, rec.Code, target)
		assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/admin/login?next="), target)
	}
}

func TestAdminLoginPageRedirectsWhenAuthenticated(t *testing.T) {
	app, router := newTestServer(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, adminRequest(t, app, http.MethodGet, "/admin/login", ""))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/login?next=/admin", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="password"`)
}

func TestAdminPendingPageListsQueue(t *testing.T) {
	app, router := newTestServer(t)
	report := mustSubmit(t, app.moderation, Report{fieldLocation: "Boise, ID", fieldDescription: "Unpaid overtime"})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, adminRequest(t, app, http.MethodGet, "/admin?notice=Report+approved", ""))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Boise, ID")
	assert.Contains(t, body, "Unpaid overtime")
	assert.Contains(t, body, "/approve/"+report.ID())
	assert.Contains(t, body, "/deny/"+report.ID())
	assert.Contains(t, body, "Report approved")
}

func TestAdminApprovedExport(t *testing.T) {
	app, router := newTestServer(t)
	report := mustSubmit(t, app.moderation, Report{fieldLocation: "Austin, TX", "category": "wage theft"})
	_, err := app.moderation.Approve(report.ID(), true, "")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, adminRequest(t, app, http.MethodGet, "/admin/exports/approved?format=csv", ""))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".csv")
	assert.Contains(t, rec.Body.String(), report.ID())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, adminRequest(t, app, http.MethodGet, "/admin/exports/approved?format=pdf", ""))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
}

func TestSanitizeAdminRedirectTarget(t *testing.T) {
	tests := map[string]string{
		"":                         "/admin",
		"/admin":                   "/admin",
		"/admin?page=2":            "/admin?page=2",
		"/admin/exports/approved":  "/admin/exports/approved",
		"/admin/login":             "/admin",
		"/admin/logout":            "/admin",
		"/reports":                 "/admin",
		"https://evil.example/x":   "/admin",
		"//evil.example/admin":     "/admin",
		"  /admin?notice=ok  ":     "/admin?notice=ok",
	}
	for raw, want := range tests {
		assert.Equal(t, want, sanitizeAdminRedirectTarget(raw), raw)
	}
}
