// Package logging builds the server's leveled logger and its gin middleware.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kataras/golog"
)

// New returns a golog logger writing to stderr at the given level
// ("debug", "info", "warn", "error" or "disable").
func New(level string) *golog.Logger {
	return NewWithWriter(os.Stderr, level)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, level string) *golog.Logger {
	logger := golog.New()
	logger.SetOutput(w)
	logger.SetTimeFormat("2006/01/02 15:04:05")
	logger.SetLevel(normalizeLevel(level))
	return logger
}

func normalizeLevel(level string) string {
	switch level = strings.ToLower(strings.TrimSpace(level)); level {
	case "debug", "info", "warn", "error", "disable":
		return level
	case "warning":
		return "warn"
	case "none", "off":
		return "disable"
	default:
		return "info"
	}
}

// Requests logs one line per request: 5xx at error, 4xx at warn, the rest at debug.
func Requests(logger *golog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		elapsed := time.Since(start)
		path := c.Request.URL.Path
		switch {
		case status >= 500:
			logger.Errorf("%s %s -> %d (%s) %s", c.Request.Method, path, status, elapsed, c.Errors.String())
		case status >= 400:
			logger.Warnf("%s %s -> %d (%s)", c.Request.Method, path, status, elapsed)
		default:
			logger.Debugf("%s %s -> %d (%s)", c.Request.Method, path, status, elapsed)
		}
	}
}
