package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const adminRole = "admin"

// AdminSession is the decoded admin cookie. Holding one is the admin flag.
type AdminSession struct {
	Role      string `json:"role"`
	ExpiresAt int64  `json:"expiresAt"`
}

func (a *App) createAdminSessionToken(now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"role": adminRole,
		"iat":  now.Unix(),
		"exp":  now.Add(adminSessionDuration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.cfg.AppSigningSecret))
}

func (a *App) verifyAdminSessionToken(tokenString string) (*AdminSession, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(a.cfg.AppSigningSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	role, _ := claims["role"].(string)
	if role != adminRole {
		return nil, fmt.Errorf("invalid session payload")
	}
	session := &AdminSession{Role: role}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		session.ExpiresAt = exp.Unix()
	}
	return session, nil
}

func (a *App) startAdminSession(c *gin.Context) error {
	token, err := a.createAdminSessionToken(time.Now())
	if err != nil {
		return err
	}
	secure := strings.EqualFold(a.cfg.Env, "production")
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(adminCookieName, token, int(adminSessionDuration.Seconds()), "/", "", secure, true)
	return nil
}

func (a *App) clearAdminSession(c *gin.Context) {
	secure := strings.EqualFold(a.cfg.Env, "production")
	c.SetCookie(adminCookieName, "", -1, "/", "", secure, true)
}

// isAdminRequest reports whether the request carries a valid admin cookie.
func (a *App) isAdminRequest(c *gin.Context) bool {
	if value, ok := c.Get("adminSession"); ok {
		_, isSession := value.(AdminSession)
		return isSession
	}
	token, err := c.Cookie(adminCookieName)
	if err != nil || token == "" {
		return false
	}
	session, err := a.verifyAdminSessionToken(token)
	if err != nil {
		return false
	}
	c.Set("adminSession", *session)
	return true
}

func (a *App) requireAdminSessionHTML() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.isAdminRequest(c) {
			next := sanitizeAdminRedirectTarget(c.Request.URL.RequestURI())
			c.Redirect(http.StatusSeeOther, "/admin/login?next="+url.QueryEscape(next))
			c.Abort()
			return
		}
		c.Next()
	}
}

func (a *App) checkRateLimit(key string, maxRequests int, window time.Duration, now time.Time) bool {
	a.rateLimiterMu.Lock()
	defer a.rateLimiterMu.Unlock()

	bucket, ok := a.rateBuckets[key]
	if !ok || now.Sub(bucket.start) >= window {
		a.rateBuckets[key] = rateBucket{start: now, count: 1}
		return true
	}
	bucket.count++
	a.rateBuckets[key] = bucket
	return bucket.count <= maxRequests
}

// allowLoginAttempt applies the per-IP login limit.
func (a *App) allowLoginAttempt(c *gin.Context) bool {
	return a.checkRateLimit("login:"+c.ClientIP(), loginRateLimitRequests, loginRateLimitWindow, time.Now())
}

func (a *App) startRateLimiterCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				a.pruneRateLimiterState(now)
			}
		}
	}()
}

func (a *App) pruneRateLimiterState(now time.Time) {
	a.rateLimiterMu.Lock()
	defer a.rateLimiterMu.Unlock()
	for key, bucket := range a.rateBuckets {
		if now.Sub(bucket.start) >= loginRateLimitWindow {
			delete(a.rateBuckets, key)
		}
	}
}

// wantsJSON reports whether the caller asked for a machine-readable response.
func wantsJSON(c *gin.Context) bool {
	if strings.EqualFold(c.GetHeader("X-Requested-With"), "XMLHttpRequest") {
		return true
	}
	accept := strings.ToLower(c.GetHeader("Accept"))
	if strings.Contains(accept, "application/json") {
		return true
	}
	return strings.Contains(strings.ToLower(c.ContentType()), "application/json")
}
