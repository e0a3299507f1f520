package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

const maxSubmissionBytes = 1 << 20

// imageURLAliases are the keys older clients used for the image list.
var imageURLAliases = []string{"imageUrls", "images", "image_list", "images_only"}

func (a *App) pingHandler(c *gin.Context) {
	if c.Request.Method == http.MethodHead {
		c.Status(http.StatusOK)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (a *App) submitReportHandler(c *gin.Context) {
	fields, err := parseSubmission(c)
	if err != nil {
		writeAPIError(c, err)
		return
	}

	report, err := a.moderation.Submit(fields)
	if err != nil {
		writeAPIError(c, moderationAPIError(err))
		return
	}

	if a.notifyNewReport != nil && a.cfg.ModerationNotifyEmail != "" {
		go func(r Report) {
			ctx, cancel := context.WithTimeout(context.Background(), notificationTimeout)
			defer cancel()
			if err := a.notifyNewReport(ctx, r); err != nil {
				a.log.Error("moderation notification failed", "report_id", r.ID(), "err", err)
			}
		}(report)
	}

	if wantsJSON(c) {
		c.JSON(http.StatusCreated, gin.H{"message": "Report submitted for review", "id": report.ID()})
		return
	}
	c.Redirect(http.StatusSeeOther, "/report?notice="+url.QueryEscape("Report submitted for review"))
}

// parseSubmission reads a JSON object or a form post into a Report. Only the
// body shape is checked; field contents are never rejected.
func parseSubmission(c *gin.Context) (Report, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSubmissionBytes)

	fields := Report{}
	if strings.Contains(strings.ToLower(c.ContentType()), "application/json") {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			return nil, &apiError{Status: http.StatusBadRequest, Code: "invalid_payload", Message: "Invalid JSON body"}
		}
		for key, value := range body {
			fields[key] = value
		}
	} else {
		if err := c.Request.ParseMultipartForm(maxSubmissionBytes); err != nil && err != http.ErrNotMultipart {
			return nil, &apiError{Status: http.StatusBadRequest, Code: "invalid_form", Message: "Invalid form body"}
		}
		for key, values := range c.Request.PostForm {
			switch len(values) {
			case 0:
			case 1:
				fields[key] = values[0]
			default:
				fields[key] = append([]string(nil), values...)
			}
		}
	}

	return normalizeSubmission(fields), nil
}

// normalizeSubmission trims text, drops empty optional fields, folds image
// aliases into image_urls and mirrors email/employer_email.
func normalizeSubmission(fields Report) Report {
	out := Report{}
	for key, value := range fields {
		switch v := value.(type) {
		case string:
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				out[key] = trimmed
			}
		case nil:
		case []any, []string:
			if list := trimmedList(Report{key: v}.Strings(key)); len(list) > 0 {
				out[key] = list
			}
		default:
			out[key] = v
		}
	}

	images := splitImageURLs(out.Strings(fieldImageURLs))
	for _, alias := range imageURLAliases {
		images = append(images, splitImageURLs(out.Strings(alias))...)
		delete(out, alias)
	}
	if images = dedupeStrings(images); len(images) > 0 {
		out[fieldImageURLs] = images
	} else {
		delete(out, fieldImageURLs)
	}

	if !out.hasText(fieldEmail) && out.hasText(fieldEmployerEmail) {
		out[fieldEmail] = out.String(fieldEmployerEmail)
	}
	if !out.hasText(fieldEmployerEmail) && out.hasText(fieldEmail) {
		out[fieldEmployerEmail] = out.String(fieldEmail)
	}
	return out
}

// splitImageURLs accepts list entries that still hold newline-separated text.
func splitImageURLs(values []string) []string {
	var out []string
	for _, value := range values {
		for _, line := range strings.Split(value, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}

func trimmedList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func dedupeStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func (a *App) approvedReportsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, a.moderation.ListApproved())
}

func (a *App) pendingReportsHandler(c *gin.Context) {
	reports, err := a.moderation.ListPending(a.isAdminRequest(c))
	if err != nil {
		writeAPIError(c, moderationAPIError(err))
		return
	}
	c.JSON(http.StatusOK, reports)
}

func (a *App) approveReportHandler(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	clientState := approvalStateFromRequest(c)

	report, err := a.moderation.Approve(id, a.isAdminRequest(c), clientState)
	if err != nil {
		a.respondModerationError(c, err)
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "id": report.ID(), "state": report.String(fieldState)})
		return
	}
	redirectAdminWithMessage(c, c.PostForm("next"), "notice", "Report approved")
}

func (a *App) denyReportHandler(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	if err := a.moderation.Deny(id, a.isAdminRequest(c)); err != nil {
		a.respondModerationError(c, err)
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "id": id})
		return
	}
	redirectAdminWithMessage(c, c.PostForm("next"), "notice", "Report denied")
}

// approvalStateFromRequest reads the optional moderator state from a JSON
// body key or a form field.
func approvalStateFromRequest(c *gin.Context) string {
	if strings.Contains(strings.ToLower(c.ContentType()), "application/json") {
		var body struct {
			State string `json:"state"`
		}
		if c.Request.Body == nil {
			return ""
		}
		if err := json.NewDecoder(c.Request.Body).Decode(&body); err != nil {
			return ""
		}
		return body.State
	}
	return c.PostForm("state")
}

func (a *App) respondModerationError(c *gin.Context, err error) {
	if wantsJSON(c) {
		writeAPIError(c, moderationAPIError(err))
		return
	}

	switch {
	case errors.Is(err, errUnauthorized):
		c.Redirect(http.StatusSeeOther, "/admin/login?next="+url.QueryEscape("/admin"))
	case errors.Is(err, errReportNotFound):
		redirectAdminWithMessage(c, c.PostForm("next"), "error", "Report not found")
	default:
		redirectAdminWithMessage(c, c.PostForm("next"), "error", err.Error())
	}
}
