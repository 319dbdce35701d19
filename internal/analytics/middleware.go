package analytics

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// LanguageKey is the gin context key handlers set to the language they rendered.
const LanguageKey = "analytics.language"

var untrackedPrefixes = []string{
	"/static/",
	"/images/",
	"/admin",
	"/views/",
	"/favicon",
	"/privacy",
	"/healthz",
}

// Middleware records GET page views after the handler ran. Requests with
// DNT: 1, non-2xx responses and asset/admin/API paths are skipped.
func Middleware(store *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if store == nil || c.Request.Method != "GET" {
			return
		}
		path := c.Request.URL.Path
		for _, prefix := range untrackedPrefixes {
			if strings.HasPrefix(path, prefix) {
				return
			}
		}
		if c.GetHeader("DNT") == "1" {
			return
		}
		if status := c.Writer.Status(); status < 200 || status >= 300 {
			return
		}

		store.RecordAsync(c.ClientIP(), c.GetHeader("User-Agent"), path, c.GetString(LanguageKey))
	}
}
