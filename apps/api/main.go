package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"reportwatch/libs/keepalive"
	"reportwatch/libs/mailer"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

//go:embed templates/site/*.tmpl templates/admin/*.tmpl static/*
var assetsFS embed.FS

const (
	adminCookieName            = "reportwatch_admin_session"
	adminSessionDuration       = 8 * time.Hour
	loginRateLimitRequests     = 10
	loginRateLimitWindow       = 15 * time.Minute
	rateLimiterCleanupInterval = time.Minute
	defaultKeepAliveInterval   = 2 * time.Minute
	minKeepAliveInterval       = 10 * time.Second
	notificationTimeout        = 15 * time.Second
	devCORSOriginLocalhost     = "http://localhost:5173"
	devCORSOriginLoopback      = "http://127.0.0.1:5173"
	trustedProxyLoopbackIPv4   = "127.0.0.1"
	trustedProxyLoopbackIPv6   = "::1"
)

type Config struct {
	Addr                  string
	Env                   string
	PublicBaseURL         string
	AppSigningSecret      string
	AdminPasswordHash     []byte
	KeepAliveURL          string
	KeepAliveInterval     time.Duration
	ResendAPIKey          string
	MailerFromAddresses   map[string]string
	ModerationNotifyEmail string
}

type App struct {
	cfg *Config
	log *slog.Logger

	moderation *Moderation
	mailer     *mailer.Mailer
	templates  *templateRenderer

	rateLimiterMu sync.Mutex
	rateBuckets   map[string]rateBucket

	// test hook; defaults to sendModerationNotification
	notifyNewReport func(ctx context.Context, report Report) error
}

type rateBucket struct {
	start time.Time
	count int
}

type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string { return e.Message }

func main() {
	if err := loadDotEnvFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	var mailProvider mailer.Provider
	if cfg.ResendAPIKey != "" {
		mailProvider = mailer.NewResendProvider(cfg.ResendAPIKey)
		logger.Info("mailer initialized", "provider", "resend")
	} else {
		mailProvider = mailer.NewLogProvider(logger)
		logger.Info("mailer initialized", "provider", "log")
	}
	mailClient := mailer.New(mailProvider, cfg.MailerFromAddresses[mailProvider.Name()])

	app := newApp(cfg, logger, mailClient)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	app.startRateLimiterCleanup(ctx, rateLimiterCleanupInterval)

	if cfg.KeepAliveURL != "" {
		pinger := keepalive.New(cfg.KeepAliveURL, cfg.KeepAliveInterval, logger)
		go pinger.Run(ctx)
		logger.Info("keep-alive pinger started", "url", cfg.KeepAliveURL, "interval", cfg.KeepAliveInterval.String())
	}

	logger.Info(
		"runtime configuration",
		"env",
		cfg.Env,
		"addr",
		cfg.Addr,
		"notifications",
		cfg.ModerationNotifyEmail != "",
	)

	if strings.EqualFold(cfg.Env, "production") {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	if err := r.SetTrustedProxies([]string{trustedProxyLoopbackIPv4, trustedProxyLoopbackIPv6}); err != nil {
		panic(err)
	}
	r.Use(gin.Recovery())
	r.Use(app.loggingMiddleware())
	r.Use(app.corsMiddleware())
	app.registerRoutes(r)

	app.log.Info("starting gin server", "addr", cfg.Addr)
	if err := r.Run(cfg.Addr); err != nil {
		panic(err)
	}
}

func newApp(cfg *Config, logger *slog.Logger, mailClient *mailer.Mailer) *App {
	app := &App{
		cfg:         cfg,
		log:         logger,
		moderation:  NewModeration(NewReportStore(), cfg.AdminPasswordHash, logger),
		mailer:      mailClient,
		templates:   newTemplateRenderer(cfg.Env),
		rateBuckets: make(map[string]rateBucket),
	}
	app.notifyNewReport = app.sendModerationNotification
	return app
}

func (a *App) registerRoutes(r *gin.Engine) {
	staticFS, err := staticFileSystem(a.cfg.Env)
	if err != nil {
		panic(err)
	}
	r.StaticFS("/static", staticFS)

	r.GET("/ping", a.pingHandler)
	r.HEAD("/ping", a.pingHandler)
	r.GET("/healthz", a.pingHandler)

	r.POST("/submit_report", a.submitReportHandler)
	r.GET("/approved_reports", a.approvedReportsHandler)
	r.GET("/pending_reports", a.pendingReportsHandler)
	r.POST("/approve/:id", a.approveReportHandler)
	r.POST("/deny/:id", a.denyReportHandler)
	r.GET("/states", a.statesHandler)

	r.GET("/", a.homePageHandler)
	r.GET("/report", a.reportFormPageHandler)
	r.GET("/reports", a.reportsPageHandler)
	r.GET("/reports/:id", a.reportDetailPageHandler)
	r.GET("/memories", a.memoriesPageHandler)

	a.registerAdminRoutes(r)
}

func loadConfig() (*Config, error) {
	secret := strings.TrimSpace(os.Getenv("APP_SIGNING_SECRET"))
	if len(secret) < 16 {
		return nil, fmt.Errorf("APP_SIGNING_SECRET must be at least 16 characters")
	}

	passwordHash, err := adminPasswordHashFromEnv()
	if err != nil {
		return nil, err
	}

	publicBase := strings.TrimSpace(os.Getenv("PUBLIC_BASE_URL"))
	if publicBase == "" {
		publicBase = "http://localhost:8080"
	}
	publicBase = strings.TrimRight(publicBase, "/")

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "development"
	}

	cfg := &Config{
		Addr:                  valueOrDefault("GIN_ADDR", ":8080"),
		Env:                   env,
		PublicBaseURL:         publicBase,
		AppSigningSecret:      secret,
		AdminPasswordHash:     passwordHash,
		KeepAliveURL:          strings.TrimSpace(os.Getenv("KEEPALIVE_URL")),
		KeepAliveInterval:     defaultKeepAliveInterval,
		ResendAPIKey:          strings.TrimSpace(os.Getenv("RESEND_API_KEY")),
		ModerationNotifyEmail: strings.TrimSpace(os.Getenv("MODERATION_NOTIFY_EMAIL")),
		MailerFromAddresses: map[string]string{
			"resend": valueOrDefault("MAILER_FROM_ADDRESS_RESEND", "noreply@reportwatch.org"),
			"log":    valueOrDefault("MAILER_FROM_ADDRESS_LOG", "noreply@reportwatch.local"),
		},
	}

	if rawInterval := strings.TrimSpace(os.Getenv("KEEPALIVE_INTERVAL")); rawInterval != "" {
		parsed, err := time.ParseDuration(rawInterval)
		if err != nil {
			return nil, fmt.Errorf("KEEPALIVE_INTERVAL must be a valid duration: %w", err)
		}
		if parsed < minKeepAliveInterval {
			return nil, fmt.Errorf("KEEPALIVE_INTERVAL must be >= %s", minKeepAliveInterval)
		}
		cfg.KeepAliveInterval = parsed
	}

	return cfg, nil
}

// adminPasswordHashFromEnv prefers a precomputed bcrypt hash. A plaintext
// ADMIN_PASSWORD is hashed once here and never kept.
func adminPasswordHashFromEnv() ([]byte, error) {
	if rawHash := strings.TrimSpace(os.Getenv("ADMIN_PASSWORD_HASH")); rawHash != "" {
		if _, err := bcrypt.Cost([]byte(rawHash)); err != nil {
			return nil, fmt.Errorf("ADMIN_PASSWORD_HASH must be a bcrypt hash: %w", err)
		}
		return []byte(rawHash), nil
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if strings.TrimSpace(password) == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD_HASH or ADMIN_PASSWORD must be configured")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	return hash, nil
}

func loadDotEnvFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, raw := range strings.Split(string(content), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.Trim(strings.TrimSpace(line[idx+1:]), "\"")
		if os.Getenv(key) == "" {
			_ = os.Setenv(key, value)
		}
	}
	return nil
}

func valueOrDefault(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func (a *App) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		a.log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.ClientIP(),
		)
	}
}

func (a *App) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := strings.TrimSpace(c.GetHeader("Origin"))
		if a.isAllowedCORSOrigin(origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Accept, X-Requested-With")
			c.Header("Access-Control-Allow-Methods", "GET,HEAD,POST,OPTIONS")
			c.Header("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (a *App) isAllowedCORSOrigin(origin string) bool {
	if origin == "" || a.cfg == nil {
		return false
	}
	if a.cfg.PublicBaseURL != "" && origin == a.cfg.PublicBaseURL {
		return true
	}
	if !strings.EqualFold(a.cfg.Env, "development") {
		return false
	}
	return origin == devCORSOriginLocalhost || origin == devCORSOriginLoopback
}

func writeAPIError(c *gin.Context, err error) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		c.JSON(apiErr.Status, gin.H{"error": apiErr.Code, "message": apiErr.Message})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": err.Error()})
}

// moderationAPIError maps workflow errors onto HTTP responses.
func moderationAPIError(err error) error {
	switch {
	case errors.Is(err, errReportNotFound):
		return &apiError{Status: http.StatusNotFound, Code: "not_found", Message: "Report not found"}
	case errors.Is(err, errUnauthorized):
		return &apiError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: "Admin session required"}
	case errors.Is(err, errInvalidCredentials):
		return &apiError{Status: http.StatusUnauthorized, Code: "invalid_credentials", Message: "Invalid credentials"}
	case errors.Is(err, errReportNotQueued):
		return &apiError{Status: http.StatusInternalServerError, Code: "submit_failed", Message: "Report could not be queued"}
	default:
		return err
	}
}
