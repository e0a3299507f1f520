package keepalive

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-resty/resty/v2"
)

// SlogAdapter forwards resty's printf-style logging to a slog.Logger.
type SlogAdapter struct {
	logger *slog.Logger
}

func NewSlogAdapter(logger *slog.Logger) resty.Logger {
	return &SlogAdapter{logger: logger}
}

func (a *SlogAdapter) Errorf(format string, v ...interface{}) {
	a.logger.Error(message(format, v...), "component", "keepalive")
}

func (a *SlogAdapter) Warnf(format string, v ...interface{}) {
	a.logger.Warn(message(format, v...), "component", "keepalive")
}

func (a *SlogAdapter) Debugf(format string, v ...interface{}) {
	a.logger.Debug(message(format, v...), "component", "keepalive")
}

func message(format string, v ...interface{}) string {
	return strings.TrimSpace(fmt.Sprintf(format, v...))
}
