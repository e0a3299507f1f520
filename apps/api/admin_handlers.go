package main

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

const adminHomePath = "/admin"

func (a *App) registerAdminRoutes(r *gin.Engine) {
	r.GET("/admin/login", a.adminLoginPageHandler)
	r.POST("/admin/login", a.adminLoginSubmitHandler)
	r.POST("/admin/logout", a.adminLogoutSubmitHandler)

	admin := r.Group(adminHomePath)
	admin.Use(a.requireAdminSessionHTML())
	{
		admin.GET("", a.adminPendingPageHandler)
		admin.GET("/", a.adminPendingPageHandler)
		admin.GET("/exports/approved", a.adminApprovedExportHandler)
	}
}

func (a *App) adminBaseData(c *gin.Context, title string) adminBaseViewData {
	return adminBaseViewData{
		Title:         title,
		CurrentPath:   sanitizeAdminRedirectTarget(c.Request.URL.RequestURI()),
		ErrorMessage:  strings.TrimSpace(c.Query("error")),
		NoticeMessage: strings.TrimSpace(c.Query("notice")),
		Authenticated: a.isAdminRequest(c),
	}
}

func (a *App) adminLoginPageHandler(c *gin.Context) {
	if a.isAdminRequest(c) {
		c.Redirect(http.StatusSeeOther, adminHomePath)
		return
	}

	data := adminLoginViewData{
		adminBaseViewData: a.adminBaseData(c, "Admin login"),
		Next:              sanitizeAdminRedirectTarget(c.Query("next")),
	}
	a.renderTemplate(c, http.StatusOK, adminLayoutPath, adminTemplateLoginPath, data)
}

func (a *App) adminLoginSubmitHandler(c *gin.Context) {
	jsonRequest := wantsJSON(c)

	var password, next string
	if strings.Contains(strings.ToLower(c.ContentType()), "application/json") {
		var payload struct {
			Password string `json:"password"`
			Next     string `json:"next"`
		}
		if err := c.ShouldBindJSON(&payload); err != nil {
			writeAPIError(c, &apiError{Status: http.StatusBadRequest, Code: "invalid_payload", Message: "Invalid login payload"})
			return
		}
		password, next = payload.Password, payload.Next
	} else {
		password, next = c.PostForm("password"), c.PostForm("next")
	}
	next = sanitizeAdminRedirectTarget(next)

	if !a.allowLoginAttempt(c) {
		a.log.Warn("admin login rate limited", "ip", c.ClientIP())
		a.renderLoginFailure(c, jsonRequest, next, &apiError{Status: http.StatusTooManyRequests, Code: "rate_limited", Message: "Too many login attempts, try again later"})
		return
	}

	if err := a.moderation.Login(password); err != nil {
		a.log.Warn("admin login failed", "ip", c.ClientIP())
		a.renderLoginFailure(c, jsonRequest, next, moderationAPIError(err))
		return
	}

	if err := a.startAdminSession(c); err != nil {
		writeAPIError(c, err)
		return
	}
	a.log.Info("admin login succeeded", "ip", c.ClientIP())

	if jsonRequest {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}
	c.Redirect(http.StatusSeeOther, next)
}

func (a *App) renderLoginFailure(c *gin.Context, jsonRequest bool, next string, err error) {
	if jsonRequest {
		writeAPIError(c, err)
		return
	}

	status := http.StatusInternalServerError
	message := "Login failed."
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		status = apiErr.Status
		message = apiErr.Message
	}
	base := a.adminBaseData(c, "Admin login")
	base.ErrorMessage = message
	a.renderTemplate(c, status, adminLayoutPath, adminTemplateLoginPath, adminLoginViewData{adminBaseViewData: base, Next: next})
}

func (a *App) adminLogoutSubmitHandler(c *gin.Context) {
	a.clearAdminSession(c)
	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}
	c.Redirect(http.StatusSeeOther, "/admin/login")
}

func (a *App) adminPendingPageHandler(c *gin.Context) {
	base := a.adminBaseData(c, "Pending reports")

	reports, err := a.moderation.ListPending(a.isAdminRequest(c))
	if err != nil {
		base.ErrorMessage = "Pending reports could not be loaded."
		a.renderTemplate(c, http.StatusUnauthorized, adminLayoutPath, adminTemplatePendingPath, adminPendingViewData{adminBaseViewData: base})
		return
	}

	rows := make([]adminPendingRowView, 0, len(reports))
	for _, report := range reports {
		name := report.String("full_name")
		if name == "" {
			name = "Anonymous"
		}
		rows = append(rows, adminPendingRowView{
			Report:      report,
			ID:          report.ID(),
			Name:        name,
			Location:    report.String(fieldLocation),
			State:       report.String(fieldState),
			Description: report.String(fieldDescription),
			SubmittedAt: formatTimestamp(report.String(fieldSubmittedAt)),
		})
	}

	data := adminPendingViewData{
		adminBaseViewData: base,
		Rows:              rows,
		States:            stateOptions(),
		ApprovedCount:     a.moderation.ApprovedCount(),
	}
	a.renderTemplate(c, http.StatusOK, adminLayoutPath, adminTemplatePendingPath, data)
}

func sanitizeAdminRedirectTarget(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return adminHomePath
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return adminHomePath
	}
	if parsed.IsAbs() || parsed.Host != "" {
		return adminHomePath
	}
	if strings.HasPrefix(parsed.Path, "//") {
		return adminHomePath
	}
	if !strings.HasPrefix(parsed.Path, adminHomePath) {
		return adminHomePath
	}
	if parsed.Path == "/admin/login" || parsed.Path == "/admin/logout" {
		return adminHomePath
	}

	target := parsed.Path
	if parsed.RawQuery != "" {
		target += "?" + parsed.RawQuery
	}
	return target
}

func redirectAdminWithMessage(c *gin.Context, target, key, value string) {
	parsed, err := url.Parse(sanitizeAdminRedirectTarget(target))
	if err != nil {
		c.Redirect(http.StatusSeeOther, adminHomePath)
		return
	}
	query := parsed.Query()
	query.Del("error")
	query.Del("notice")
	query.Set(key, value)
	parsed.RawQuery = query.Encode()

	redirectURL := parsed.Path
	if parsed.RawQuery != "" {
		redirectURL += "?" + parsed.RawQuery
	}
	c.Redirect(http.StatusSeeOther, redirectURL)
}
