package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func newTestContext(method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, nil)
	return c, w
}

func TestCORSMiddleware_AllowsConfiguredOrigins(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app := &App{cfg: &Config{Env: "development", PublicBaseURL: "https://reportwatch.org"}}

	router := gin.New()
	router.Use(app.corsMiddleware())
	router.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for _, origin := range []string{"https://reportwatch.org", devCORSOriginLocalhost, devCORSOriginLoopback} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", origin)
		router.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != origin {
			t.Fatalf("expected allow origin %q, got %q", origin, got)
		}
		if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
			t.Fatalf("expected credentials header true, got %q", got)
		}
	}
}

func TestCORSMiddleware_BlocksUnlistedOrigins(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app := &App{cfg: &Config{Env: "production", PublicBaseURL: "https://reportwatch.org"}}

	router := gin.New()
	router.Use(app.corsMiddleware())
	router.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for _, origin := range []string{"https://evil.example", devCORSOriginLocalhost} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", origin)
		router.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Fatalf("expected no allow-origin header for %q, got %q", origin, got)
		}
	}
}

func TestCORSMiddleware_AnswersPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app := &App{cfg: &Config{Env: "production", PublicBaseURL: "https://reportwatch.org"}}

	router := gin.New()
	router.Use(app.corsMiddleware())
	router.POST("/submit_report", func(c *gin.Context) {
		t.Fatal("preflight must not reach the handler")
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/submit_report", nil)
	req.Header.Set("Origin", "https://reportwatch.org")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected %d, got %d", http.StatusNoContent, rec.Code)
	}
}

func TestAdminSessionTokenRoundTrip(t *testing.T) {
	app := &App{cfg: &Config{AppSigningSecret: testSigningSecret}}

	token, err := app.createAdminSessionToken(time.Now())
	if err != nil {
		t.Fatalf("create token: %v", err)
	}
	session, err := app.verifyAdminSessionToken(token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if session.Role != adminRole {
		t.Fatalf("expected role %q, got %q", adminRole, session.Role)
	}
	if session.ExpiresAt <= time.Now().Unix() {
		t.Fatalf("expected future expiry, got %d", session.ExpiresAt)
	}
}

func TestAdminSessionTokenRejectsTampering(t *testing.T) {
	app := &App{cfg: &Config{AppSigningSecret: testSigningSecret}}

	expired, err := app.createAdminSessionToken(time.Now().Add(-2 * adminSessionDuration))
	if err != nil {
		t.Fatalf("create token: %v", err)
	}
	if _, err := app.verifyAdminSessionToken(expired); err == nil {
		t.Fatal("expected expired token to be rejected")
	}

	other := &App{cfg: &Config{AppSigningSecret: "fedcba9876543210"}}
	foreign, _ := other.createAdminSessionToken(time.Now())
	if _, err := app.verifyAdminSessionToken(foreign); err == nil {
		t.Fatal("expected token signed with another secret to be rejected")
	}

	wrongRole := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": "viewer",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := wrongRole.SignedString([]byte(testSigningSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := app.verifyAdminSessionToken(signed); err == nil {
		t.Fatal("expected non-admin role to be rejected")
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"role": adminRole})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := app.verifyAdminSessionToken(unsigned); err == nil {
		t.Fatal("expected unsigned token to be rejected")
	}
}

func TestIsAdminRequest(t *testing.T) {
	app := &App{cfg: &Config{AppSigningSecret: testSigningSecret}}

	c, _ := newTestContext(http.MethodGet, "/pending_reports")
	if app.isAdminRequest(c) {
		t.Fatal("expected anonymous request to be rejected")
	}

	token, _ := app.createAdminSessionToken(time.Now())
	c, _ = newTestContext(http.MethodGet, "/pending_reports")
	c.Request.AddCookie(&http.Cookie{Name: adminCookieName, Value: token})
	if !app.isAdminRequest(c) {
		t.Fatal("expected valid cookie to be accepted")
	}
	if _, ok := c.Get("adminSession"); !ok {
		t.Fatal("expected session cached on context")
	}

	c, _ = newTestContext(http.MethodGet, "/pending_reports")
	c.Request.AddCookie(&http.Cookie{Name: adminCookieName, Value: "garbage"})
	if app.isAdminRequest(c) {
		t.Fatal("expected garbage cookie to be rejected")
	}
}

func TestCheckRateLimitFixedWindow(t *testing.T) {
	app := &App{rateBuckets: make(map[string]rateBucket)}
	now := time.Now()

	for i := 0; i < 3; i++ {
		if !app.checkRateLimit("login:1.2.3.4", 3, time.Minute, now) {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if app.checkRateLimit("login:1.2.3.4", 3, time.Minute, now) {
		t.Fatal("fourth attempt should be blocked")
	}
	if !app.checkRateLimit("login:5.6.7.8", 3, time.Minute, now) {
		t.Fatal("other clients must have their own bucket")
	}
	if !app.checkRateLimit("login:1.2.3.4", 3, time.Minute, now.Add(time.Minute)) {
		t.Fatal("new window should reset the bucket")
	}
}

func TestPruneRateLimiterState(t *testing.T) {
	now := time.Now()
	app := &App{rateBuckets: map[string]rateBucket{
		"login:old":   {start: now.Add(-loginRateLimitWindow - time.Second), count: 10},
		"login:fresh": {start: now.Add(-time.Minute), count: 2},
	}}

	app.pruneRateLimiterState(now)

	if _, ok := app.rateBuckets["login:old"]; ok {
		t.Fatal("expected expired bucket to be pruned")
	}
	if _, ok := app.rateBuckets["login:fresh"]; !ok {
		t.Fatal("expected fresh bucket to stay")
	}
}
