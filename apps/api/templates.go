package main

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	siteLayoutPath  = "templates/site/layout.tmpl"
	adminLayoutPath = "templates/admin/layout.tmpl"
)

type templateRenderer struct {
	env string
}

func newTemplateRenderer(env string) *templateRenderer {
	return &templateRenderer{
		env: env,
	}
}

func (r *templateRenderer) sourceFS() fs.FS {
	if r.env == "development" {
		return os.DirFS(".")
	}
	return assetsFS
}

func (r *templateRenderer) templatesForRender(layoutPath, contentTemplatePath string) (*template.Template, error) {
	templates, err := template.New("layout.tmpl").Funcs(templateFuncs).ParseFS(r.sourceFS(), layoutPath, contentTemplatePath)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return templates, nil
}

var templateFuncs = template.FuncMap{
	"field": func(r Report, key string) string {
		return r.String(key)
	},
	"fieldList": func(r Report, key string) []string {
		return r.Strings(key)
	},
	"orDash": func(value string) string {
		if strings.TrimSpace(value) == "" {
			return "-"
		}
		return value
	},
	"timestamp": formatTimestamp,
}

// formatTimestamp renders stored RFC3339 values for humans, passing through
// anything it cannot parse.
func formatTimestamp(raw string) string {
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return raw
	}
	return parsed.UTC().Format("2006-01-02 15:04 UTC")
}

func staticFileSystem(env string) (http.FileSystem, error) {
	if env == "development" {
		return http.Dir("static"), nil
	}

	sub, err := fs.Sub(assetsFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static fs: %w", err)
	}
	return http.FS(sub), nil
}

func (a *App) renderTemplate(c *gin.Context, status int, layoutPath, contentTemplatePath string, data any) {
	templates, err := a.templates.templatesForRender(layoutPath, contentTemplatePath)
	if err != nil {
		c.String(http.StatusInternalServerError, "template error: %v", err)
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if executeErr := templates.ExecuteTemplate(c.Writer, "layout", data); executeErr != nil {
		a.log.Error("render template failed", "template", contentTemplatePath, "error", executeErr)
		if !c.Writer.Written() {
			c.String(http.StatusInternalServerError, "render failure")
		}
	}
}
