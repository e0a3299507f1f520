// Package keepalive periodically requests a health URL so hosting platforms
// that idle unused instances keep the process warm.
package keepalive

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultRetryCount       = 3
	DefaultRetryWaitTime    = 2 * time.Second
	DefaultRetryMaxWaitTime = 30 * time.Second
	DefaultTimeout          = 10 * time.Second
)

// Pinger issues a GET request against URL every Interval.
type Pinger struct {
	URL      string
	Interval time.Duration

	client *resty.Client
	log    *slog.Logger
}

type Option func(*resty.Client)

// WithRetry overrides the retry policy. Resty backs off exponentially with
// jitter between wait and maxWait.
func WithRetry(count int, wait, maxWait time.Duration) Option {
	return func(c *resty.Client) {
		c.SetRetryCount(count).
			SetRetryWaitTime(wait).
			SetRetryMaxWaitTime(maxWait)
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *resty.Client) {
		c.SetTimeout(timeout)
	}
}

func New(url string, interval time.Duration, logger *slog.Logger, opts ...Option) *Pinger {
	if logger == nil {
		logger = slog.Default()
	}
	client := resty.New().
		SetLogger(NewSlogAdapter(logger)).
		SetRetryCount(DefaultRetryCount).
		SetRetryWaitTime(DefaultRetryWaitTime).
		SetRetryMaxWaitTime(DefaultRetryMaxWaitTime).
		SetTimeout(DefaultTimeout).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || resp.StatusCode() >= http.StatusInternalServerError
		})
	for _, opt := range opts {
		opt(client)
	}

	return &Pinger{
		URL:      url,
		Interval: interval,
		client:   client,
		log:      logger,
	}
}

// Run pings once immediately and then on every tick until ctx is done.
func (p *Pinger) Run(ctx context.Context) {
	interval := p.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.pingAndLog(ctx)
	for {
		select {
		case <-ctx.Done():
			p.log.Info("keep-alive pinger stopped", "url", p.URL)
			return
		case <-ticker.C:
			p.pingAndLog(ctx)
		}
	}
}

func (p *Pinger) pingAndLog(ctx context.Context) {
	if err := p.Ping(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		p.log.Warn("keep-alive ping failed", "url", p.URL, "err", err)
		return
	}
	p.log.Debug("keep-alive ping ok", "url", p.URL)
}

// Ping sends one GET request, retrying transport errors and 5xx responses.
// Any final non-2xx status is an error.
func (p *Pinger) Ping(ctx context.Context) error {
	resp, err := p.client.R().SetContext(ctx).Get(p.URL)
	if err != nil {
		return fmt.Errorf("keep-alive request: %w", err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("keep-alive request: unexpected status %d", resp.StatusCode())
	}
	return nil
}
